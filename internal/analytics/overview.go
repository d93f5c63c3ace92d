// ABOUTME: Headline numbers about a user's logging history.
// ABOUTME: Totals, last-week activity and average entries per week.
package analytics

import (
	"math"
	"time"

	"github.com/harperreed/moody/internal/models"
)

// Overview summarizes logging activity.
type Overview struct {
	TotalEntries    int       `json:"total_entries" yaml:"total_entries"`
	TrackedMetrics  int       `json:"tracked_metrics" yaml:"tracked_metrics"`
	EntriesLastWeek int       `json:"entries_last_7_days" yaml:"entries_last_7_days"`
	FirstEntry      time.Time `json:"first_entry,omitempty" yaml:"first_entry,omitempty"`
	DaysSinceFirst  int       `json:"days_since_first_entry" yaml:"days_since_first_entry"`
	AveragePerWeek  float64   `json:"avg_entries_per_week" yaml:"avg_entries_per_week"`
}

// ComputeOverview counts entries relative to now. The weekly average is zero
// until a full day has passed since the first entry.
func ComputeOverview(entries []*models.Entry, tracked []*models.MetricTracking, now time.Time) Overview {
	ov := Overview{
		TotalEntries:   len(entries),
		TrackedMetrics: len(tracked),
	}

	weekAgo := now.AddDate(0, 0, -7)
	for _, e := range entries {
		if !e.RecordedAt.Before(weekAgo) {
			ov.EntriesLastWeek++
		}
		if ov.FirstEntry.IsZero() || e.RecordedAt.Before(ov.FirstEntry) {
			ov.FirstEntry = e.RecordedAt
		}
	}

	if !ov.FirstEntry.IsZero() {
		days := math.Floor(now.Sub(ov.FirstEntry).Hours() / 24)
		if days > 0 {
			ov.DaysSinceFirst = int(days)
			ov.AveragePerWeek = float64(ov.TotalEntries) / days * 7
		}
	}
	return ov
}
