package request

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"travel-booking/internal/pkg/errs"
)

const dateOnly = "2006-01-02"

var ErrInvalidDate = errs.New("date must be RFC3339 or YYYY-MM-DD")

// Date accepts RFC3339 timestamps and plain calendar dates (midnight UTC).
type Date struct {
	time.Time
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, errs.Wrapf(ErrInvalidDate, "got %q", s)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.RFC3339))
}
