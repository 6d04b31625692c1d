package converters

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableText(t *testing.T) {
	assert.False(t, ToNullableText(nil).Valid)

	s := "hello"
	v := ToNullableText(&s)
	assert.True(t, v.Valid)
	assert.Equal(t, "hello", v.String)

	assert.Nil(t, FromNullableText(pgtype.Text{Valid: false}))
	back := FromNullableText(v)
	require.NotNil(t, back)
	assert.Equal(t, "hello", *back)
}

func TestNullableUUID(t *testing.T) {
	assert.False(t, ToNullableUUID(nil).Valid)

	id := uuid.New()
	v := ToNullableUUID(&id)
	assert.True(t, v.Valid)
	assert.Equal(t, [16]byte(id), v.Bytes)
}

func TestNullableInt8(t *testing.T) {
	assert.False(t, ToNullableInt8(nil).Valid)

	i := int64(42)
	v := ToNullableInt8(&i)
	assert.True(t, v.Valid)

	back := FromNullableInt8(v)
	require.NotNil(t, back)
	assert.Equal(t, int64(42), *back)
	assert.Nil(t, FromNullableInt8(pgtype.Int8{Valid: false}))
}

func TestNullableTimestamptz(t *testing.T) {
	assert.False(t, ToNullableTimestamptz(nil).Valid)

	now := time.Now()
	v := ToNullableTimestamptz(&now)
	assert.True(t, v.Valid)

	back := FromNullableTimestamptz(v)
	require.NotNil(t, back)
	assert.True(t, now.Equal(*back))
}

func TestMinorUnitsToNumeric(t *testing.T) {
	cases := []struct {
		minor int64
		major string
	}{
		{0, "0"},
		{1, "0.01"},
		{100, "1"},
		{1050, "10.5"},
		{123456, "1234.56"},
		{-250, "-2.5"},
	}
	for _, tc := range cases {
		n, err := MinorUnitsToNumeric(tc.minor)
		require.NoError(t, err)

		back, err := NumericToMinorUnits(n)
		require.NoError(t, err)
		assert.Equal(t, tc.minor, back, "minor units %d", tc.minor)
	}
}

func TestNumericToMinorUnits_Null(t *testing.T) {
	got, err := NumericToMinorUnits(pgtype.Numeric{Valid: false})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}
