package model

import "time"

// Calendar math works on civil dates. All dates in the system are stored as
// UTC midnight so ranges can be stepped with AddDate and compared with Equal.

// DateOf returns the UTC midnight for the given civil date.
func DateOf(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Midnight truncates t to its UTC civil date.
func Midnight(t time.Time) time.Time {
	return DateOf(t.UTC().Date())
}

// RangeEnd returns the last date of a booking of `days` days starting at start.
func RangeEnd(start time.Time, days int) time.Time {
	return start.AddDate(0, 0, days-1)
}

// DaysBetween returns the inclusive day count of [start, end].
func DaysBetween(start, end time.Time) int {
	return int(Midnight(end).Sub(Midnight(start))/(24*time.Hour)) + 1
}
