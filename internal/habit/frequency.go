package habit

import (
	"fmt"
	"time"
)

// Frequency names a habit's recurrence rule.
type Frequency string

const (
	Everyday Frequency = "everyday"
	Weekdays Frequency = "weekdays"
	Weekends Frequency = "weekends"
	// Custom tracks only the weekdays listed in the habit's selected days
	// (0=Sunday .. 6=Saturday).
	Custom Frequency = "custom"
)

// ParseFrequency validates a frequency string. For Custom, selectedDays must
// be a non-empty set of values in [0,6].
func ParseFrequency(s string, selectedDays []int) (Frequency, error) {
	switch Frequency(s) {
	case Everyday, Weekdays, Weekends:
		return Frequency(s), nil
	case Custom:
		if len(selectedDays) == 0 {
			return "", fmt.Errorf("custom frequency requires selected days")
		}
		for _, d := range selectedDays {
			if d < 0 || d > 6 {
				return "", fmt.Errorf("invalid weekday %d", d)
			}
		}
		return Custom, nil
	}
	return "", fmt.Errorf("unknown frequency: %q", s)
}

// Tracked reports whether the given calendar date is a tracked day under the
// frequency rule. Dates are compared as calendar dates: the weekday is taken
// after normalizing to UTC so classification never drifts across time zone
// boundaries.
func Tracked(f Frequency, selectedDays []int, date time.Time) bool {
	wd := DateOnly(date).Weekday()

	switch f {
	case Everyday:
		return true
	case Weekdays:
		return wd >= time.Monday && wd <= time.Friday
	case Weekends:
		return wd == time.Saturday || wd == time.Sunday
	case Custom:
		for _, d := range selectedDays {
			if time.Weekday(d) == wd {
				return true
			}
		}
		return false
	}
	return false
}

// DateOnly truncates a time to its calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
