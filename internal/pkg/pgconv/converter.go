package pgconv

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var ErrInvalidNumeric = errors.New("invalid numeric value")

func UUIDPtr(pu pgtype.UUID) *uuid.UUID {
	if !pu.Valid {
		return nil
	}
	id := uuid.UUID(pu.Bytes)
	return &id
}

func StringPtr(pt pgtype.Text) *string {
	if !pt.Valid {
		return nil
	}
	s := pt.String
	return &s
}

func Int64Ptr(pi pgtype.Int8) *int64 {
	if !pi.Valid {
		return nil
	}
	v := pi.Int64
	return &v
}

func IntPtr(pi pgtype.Int4) *int {
	if !pi.Valid {
		return nil
	}
	v := int(pi.Int32)
	return &v
}

func TimePtr(pt pgtype.Timestamptz) *time.Time {
	if !pt.Valid {
		return nil
	}
	t := pt.Time
	return &t
}

func Float64FromNumeric(pn pgtype.Numeric) (float64, error) {
	if !pn.Valid {
		return 0, ErrInvalidNumeric
	}
	value, err := pn.Float64Value()
	if err != nil || !value.Valid {
		return 0, ErrInvalidNumeric
	}
	return value.Float64, nil
}

func UUIDParam(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func TextFromString(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
