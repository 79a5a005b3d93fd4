package habit

import (
	"time"

	"github.com/rutina-app/rutina/internal/model"
)

// Role is a user's relationship to a habit.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleSharer Role = "sharer"
	RoleNone   Role = "none"
)

// Membership is the result of resolving a user against a habit. JoinedAt is
// nil when Role is RoleNone; for owners it is the habit's start date, for
// sharers the timestamp their invitation became accepted.
type Membership struct {
	Role     Role       `json:"role"`
	JoinedAt *time.Time `json:"joined_at"`
}

// DayStat is one day's completed/failed tally across all of a user's
// participating habits.
type DayStat struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

type completionKey struct {
	habitID int64
	day     string
}

const dayLayout = "2006-01-02"

// ComputeStatistics walks every calendar day in [start, end] and classifies
// it against each participation. A habit contributes nothing on days outside
// its own date range, before the user's join date, or not tracked by its
// frequency rule; on every other day it counts as completed when a completed
// record exists and failed otherwise.
//
// All inputs are pre-fetched: the loop performs no I/O, so total work is
// O(days × habits). Days are emitted in ascending order, one entry per day,
// even when both counts are zero.
func ComputeStatistics(parts []model.Participation, completions []model.Completion, start, end time.Time) []DayStat {
	start = DateOnly(start)
	end = DateOnly(end)

	// Completions for habits the user is no longer a member of must not
	// count, so the index is keyed by the candidate set only.
	candidates := make(map[int64]bool, len(parts))
	for _, p := range parts {
		candidates[p.Habit.ID] = true
	}
	done := make(map[completionKey]bool, len(completions))
	for _, c := range completions {
		if c.Completed && candidates[c.HabitID] {
			done[completionKey{c.HabitID, DateOnly(c.Day).Format(dayLayout)}] = true
		}
	}

	var stats []DayStat
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		s := DayStat{Date: day.Format(dayLayout)}
		for _, p := range parts {
			h := p.Habit
			if day.Before(DateOnly(h.StartDate)) || day.After(DateOnly(h.EndDate)) {
				continue
			}
			if day.Before(DateOnly(p.JoinedAt)) {
				continue // not yet participating: a neutral day
			}
			if !Tracked(Frequency(h.Frequency), h.SelectedDays, day) {
				continue
			}
			if done[completionKey{h.ID, s.Date}] {
				s.Completed++
			} else {
				s.Failed++
			}
		}
		stats = append(stats, s)
	}
	return stats
}
