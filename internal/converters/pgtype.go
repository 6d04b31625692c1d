package converters

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ToNullableText converts a string pointer to pgtype.Text
// Returns invalid Text if pointer is nil
func ToNullableText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// FromNullableText converts pgtype.Text to a string pointer
func FromNullableText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// ToNullableUUID converts a UUID pointer to pgtype.UUID
// Returns invalid UUID if pointer is nil
func ToNullableUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

// ToNullableInt8 converts an int64 pointer to pgtype.Int8
// Returns invalid Int8 if pointer is nil
func ToNullableInt8(i *int64) pgtype.Int8 {
	if i == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: *i, Valid: true}
}

// FromNullableInt8 converts pgtype.Int8 to an int64 pointer
func FromNullableInt8(i pgtype.Int8) *int64 {
	if !i.Valid {
		return nil
	}
	v := i.Int64
	return &v
}

// ToNullableTimestamptz converts a time pointer to pgtype.Timestamptz
func ToNullableTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// FromNullableTimestamptz converts pgtype.Timestamptz to a time pointer
func FromNullableTimestamptz(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// MinorUnitsToNumeric converts integer minor units to a pgtype.Numeric of
// major units for the legacy main-DB NUMERIC amount columns.
func MinorUnitsToNumeric(minorUnits int64) (pgtype.Numeric, error) {
	major := decimal.NewFromInt(minorUnits).Div(decimal.NewFromInt(100))
	n := pgtype.Numeric{}
	if err := n.Scan(major.String()); err != nil {
		return n, fmt.Errorf("convert amount to numeric: %w", err)
	}
	return n, nil
}

// NumericToMinorUnits converts a legacy NUMERIC major-unit amount back to
// integer minor units.
func NumericToMinorUnits(n pgtype.Numeric) (int64, error) {
	v, err := n.Value()
	if err != nil {
		return 0, fmt.Errorf("read numeric: %w", err)
	}
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return 0, nil
		}
		return 0, fmt.Errorf("unexpected numeric driver value %T", v)
	}
	major, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return major.Mul(decimal.NewFromInt(100)).IntPart(), nil
}
