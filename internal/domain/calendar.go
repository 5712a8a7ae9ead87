package domain

import "time"

// DateLayout is the wire format for target dates everywhere (CLI, API, logs).
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a UTC midnight instant.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Midnight truncates t to its calendar day in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59 on t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return Midnight(t).Add(24*time.Hour - time.Second)
}

// WeekStart returns the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	d := Midnight(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return d.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	d := Midnight(t)
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PrevMonthSpan returns the previous-month window covering the same relative
// days as [MonthStart(t), t]: the 1st of the previous month through that 1st
// plus t's day-of-month offset.
func PrevMonthSpan(t time.Time) (start, end time.Time) {
	cur := MonthStart(t)
	start = cur.AddDate(0, -1, 0)
	end = start.AddDate(0, 0, t.Day()-1)
	return start, end
}

// Yesterday returns the previous calendar day relative to now, the default
// target date for a pipeline run.
func Yesterday(now time.Time) time.Time {
	return Midnight(now).AddDate(0, 0, -1)
}
