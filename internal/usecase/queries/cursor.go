package queries

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"travel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	cursorVersion    = "v1"
)

type Cursor struct {
	After string `json:"after,omitempty"`
}

// EncodeAfterCursor keeps microsecond precision, which is what PostgreSQL stores.
func EncodeAfterCursor(t time.Time, id uuid.UUID) string {
	raw := cursorVersion + ":" + strconv.FormatInt(t.UnixMicro(), 10) + "-" + id.String()
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func DecodeAfterCursor(cursor string) (time.Time, uuid.UUID, error) {
	if cursor == "" {
		return time.Time{}, uuid.Nil, errs.New("cursor cannot be empty")
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, errs.Wrap(err, "cursor is not base64url")
	}

	payload, ok := strings.CutPrefix(string(decoded), cursorVersion+":")
	if !ok {
		return time.Time{}, uuid.Nil, errs.New("unsupported cursor version")
	}

	micros, rawID, ok := strings.Cut(payload, "-")
	if !ok {
		return time.Time{}, uuid.Nil, errs.New("invalid cursor format: expected '<micros>-<uuid>'")
	}

	ts, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, errs.Wrap(err, "invalid cursor timestamp")
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return time.Time{}, uuid.Nil, errs.Wrap(err, "invalid cursor id")
	}

	return time.UnixMicro(ts).UTC(), id, nil
}

func ValidateLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
