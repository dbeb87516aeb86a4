// Package calendar knows when the FX market is closed. The same predicate
// drives both batch derivation (skip closed hours) and gap validation
// (a gap fully inside a closure window is expected, not anomalous).
package calendar

import "time"

// closeHourUTC is the weekly close/open boundary: Friday 22:00 UTC until
// Sunday 22:00 UTC.
const closeHourUTC = 22

// IsClosed reports whether the market is closed at the given instant.
func IsClosed(t time.Time) bool {
	t = t.UTC()
	switch t.Weekday() {
	case time.Saturday:
		return true
	case time.Sunday:
		return t.Hour() < closeHourUTC
	case time.Friday:
		return t.Hour() >= closeHourUTC
	}
	return false
}
