package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDimensionByName(t *testing.T) {
	dim, ok := DimensionByName("Exchange")
	require.True(t, ok)
	assert.Equal(t, "exc_id", dim.Column)

	total, ok := DimensionByName("Total")
	require.True(t, ok)
	assert.True(t, total.IsTotal())

	_, ok = DimensionByName("Cabinet")
	assert.False(t, ok, "unknown dimension names must not resolve")
}

func TestWeekStart(t *testing.T) {
	monday := date(2026, time.March, 16)

	assert.Equal(t, monday, WeekStart(date(2026, time.March, 18)), "Wednesday belongs to Monday's week")
	assert.Equal(t, monday, WeekStart(date(2026, time.March, 22)), "Sunday closes the same week")
	assert.Equal(t, monday, WeekStart(monday), "Monday is its own week start")
}

func TestMonthStartAndEndOfDay(t *testing.T) {
	assert.Equal(t, date(2026, time.March, 1), MonthStart(date(2026, time.March, 18)))

	eod := EndOfDay(date(2026, time.March, 18))
	assert.Equal(t, time.Date(2026, time.March, 18, 23, 59, 59, 0, time.UTC), eod)
}

func TestPrevMonthSpan(t *testing.T) {
	start, end := PrevMonthSpan(date(2026, time.March, 15))
	assert.Equal(t, date(2026, time.February, 1), start)
	assert.Equal(t, date(2026, time.February, 15), end)

	// Year boundary.
	start, end = PrevMonthSpan(date(2026, time.January, 10))
	assert.Equal(t, date(2025, time.December, 1), start)
	assert.Equal(t, date(2025, time.December, 10), end)

	// Relative-day offsets run past short months rather than clamping.
	start, end = PrevMonthSpan(date(2026, time.March, 30))
	assert.Equal(t, date(2026, time.February, 1), start)
	assert.Equal(t, date(2026, time.March, 2), end)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 15), d)

	_, err = ParseDate("15-03-2026")
	assert.Error(t, err)
}

func TestAgingSlabFor(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{20, ""},
		{25, "> 24 Hours"},
		{50, "> 48 Hours"},
		{80, "> 72 Hours"},
		{144, "> 72 Hours"}, // exactly six days does not cross the bound
		{145, "> 6 Days"},
		{11 * 24, "> 10 Days"},
		{31 * 24, "> 30 Days"},
		{61 * 24, "> 60 Days"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AgingSlabFor(tc.hours), "age %.0fh", tc.hours)
	}
}
