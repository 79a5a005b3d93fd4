// Package workorder computes time and cost rollups for billable work.
package workorder

import (
	"time"

	"github.com/rutina-app/rutina/internal/model"
)

// Summary is the rollup of a work order's entries. Cost is derived from the
// tracked hours and the order's hourly price.
type Summary struct {
	TotalSeconds int64   `json:"total_seconds"`
	TotalCost    float64 `json:"total_cost"`
	OpenEntries  int     `json:"open_entries"`
}

// Summarize totals the finished entries of a work order. Entries still
// running (no end time) contribute nothing to the totals and are counted in
// OpenEntries instead. Entries whose end precedes their start are skipped.
func Summarize(order model.WorkOrder, entries []model.WorkOrderEntry) Summary {
	var sum Summary
	for _, e := range entries {
		if e.EndedAt == nil {
			sum.OpenEntries++
			continue
		}
		d := e.EndedAt.Sub(e.StartedAt)
		if d < 0 {
			continue
		}
		sum.TotalSeconds += int64(d / time.Second)
	}
	sum.TotalCost = float64(sum.TotalSeconds) / 3600 * order.HourPrice
	return sum
}
