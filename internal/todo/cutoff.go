// Package todo holds the editability rules for daily todo lists.
package todo

import "time"

// EditCutoffHour is the hour of day until which yesterday's plan may still
// be finalized: a list is editable through 01:59 on its own day.
const EditCutoffHour = 2

// Editable reports whether the todo list for day may still be modified at
// the given moment. Future days are always editable, past days never are,
// and the current day only before the cutoff hour. Both times are compared
// by calendar day in now's location.
func Editable(day, now time.Time) bool {
	day = day.In(now.Location())
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case dayStart.After(todayStart):
		return true
	case dayStart.Equal(todayStart):
		return now.Hour() < EditCutoffHour
	default:
		return false
	}
}
