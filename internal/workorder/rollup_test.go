package workorder

import (
	"testing"
	"time"

	"github.com/rutina-app/rutina/internal/model"
)

func entry(start time.Time, d time.Duration) model.WorkOrderEntry {
	end := start.Add(d)
	return model.WorkOrderEntry{StartedAt: start, EndedAt: &end}
}

func TestSummarize(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	order := model.WorkOrder{HourPrice: 50}

	tests := []struct {
		name        string
		entries     []model.WorkOrderEntry
		wantSeconds int64
		wantCost    float64
		wantOpen    int
	}{
		{
			name: "no entries",
		},
		{
			name:        "single finished entry",
			entries:     []model.WorkOrderEntry{entry(start, 2 * time.Hour)},
			wantSeconds: 7200,
			wantCost:    100,
		},
		{
			name: "sums across entries",
			entries: []model.WorkOrderEntry{
				entry(start, 90 * time.Minute),
				entry(start.Add(3*time.Hour), 30 * time.Minute),
			},
			wantSeconds: 7200,
			wantCost:    100,
		},
		{
			name: "running entry excluded from totals",
			entries: []model.WorkOrderEntry{
				entry(start, time.Hour),
				{StartedAt: start.Add(2 * time.Hour)},
			},
			wantSeconds: 3600,
			wantCost:    50,
			wantOpen:    1,
		},
		{
			name:        "fractional hour cost",
			entries:     []model.WorkOrderEntry{entry(start, 45 * time.Minute)},
			wantSeconds: 2700,
			wantCost:    37.5,
		},
		{
			name:    "entry ending before it starts is skipped",
			entries: []model.WorkOrderEntry{entry(start, -time.Hour)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(order, tt.entries)
			if got.TotalSeconds != tt.wantSeconds {
				t.Errorf("TotalSeconds = %d, want %d", got.TotalSeconds, tt.wantSeconds)
			}
			if got.TotalCost != tt.wantCost {
				t.Errorf("TotalCost = %v, want %v", got.TotalCost, tt.wantCost)
			}
			if got.OpenEntries != tt.wantOpen {
				t.Errorf("OpenEntries = %d, want %d", got.OpenEntries, tt.wantOpen)
			}
		})
	}
}

func TestSummarizeZeroPrice(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	got := Summarize(model.WorkOrder{}, []model.WorkOrderEntry{entry(start, time.Hour)})
	if got.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want 0", got.TotalCost)
	}
	if got.TotalSeconds != 3600 {
		t.Errorf("TotalSeconds = %d, want 3600", got.TotalSeconds)
	}
}
