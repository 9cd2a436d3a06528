package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, "2024-03-01T08:00:00", FormatTimestamp(time.Date(2024, 3, 1, 10, 0, 0, 999, loc)))
	assert.Equal(t, "", FormatTimestamp(time.Time{}))
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2024-03-01T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), got)

	got, err = ParseTimestamp("2024-03-01T10:00:00.250")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, time.Duration(got.Nanosecond()))

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestStrictTime(t *testing.T) {
	parse := StrictTime(clock)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), parse("2024-03-01T10:00:00"))
	assert.Equal(t, fixedNow, parse("2024-03-01 10:00:00"))
	assert.Equal(t, fixedNow, parse(""))
}

func TestLenientTime(t *testing.T) {
	parse := LenientTime(clock)

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2024-03-01T10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{in: "2024-03-01T10:00:00.123456789Z", want: time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)},
		{in: "2024-03-01T12:00:00+02:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{in: "2024-03-01 10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{in: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{in: "01/03/2024", want: fixedNow},
		{in: "", want: fixedNow},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parse(tt.in)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}
