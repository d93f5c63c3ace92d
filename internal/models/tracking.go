// ABOUTME: MetricTracking model: a user's opt-in to log a metric.
// ABOUTME: Carries the baseline value pre-filled on new entries.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MetricTracking represents one owner tracking one metric.
type MetricTracking struct {
	OwnerID   string    `json:"owner_id" yaml:"owner_id"`
	Metric    *Metric   `json:"metric" yaml:"metric"`
	Baseline  float64   `json:"baseline" yaml:"baseline"`
	TrackedAt time.Time `json:"tracked_at" yaml:"tracked_at"`
}

// NewMetricTracking creates a tracking row stamped with the current time.
func NewMetricTracking(owner string, metric *Metric, baseline float64) *MetricTracking {
	return &MetricTracking{
		OwnerID:   owner,
		Metric:    metric,
		Baseline:  baseline,
		TrackedAt: time.Now(),
	}
}

// TrackingDefault is the baseline a new owner starts with for a system metric.
type TrackingDefault struct {
	MetricID uuid.UUID `json:"metric_id" yaml:"metric_id"`
	Baseline float64   `json:"baseline" yaml:"baseline"`
}
