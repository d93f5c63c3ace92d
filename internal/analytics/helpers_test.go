// ABOUTME: Shared fixtures for analytics tests.
// ABOUTME: Builds metrics, tracking rows and entries at fixed times.
package analytics

import (
	"testing"
	"time"

	"github.com/harperreed/moody/internal/models"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func moodMetric() *models.Metric {
	return models.NewMetric("Mood", models.MetricDiscrete).WithLabels(map[string]float64{
		"Depressed": -1,
		"Neutral":   0,
		"Happy":     1,
	})
}

func sleepMetric() *models.Metric {
	return models.NewMetric("Sleep Duration", models.MetricContinuous).WithRange(0, 24)
}

func trackAll(metrics ...*models.Metric) []*models.MetricTracking {
	out := make([]*models.MetricTracking, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, models.NewMetricTracking("user-1", m, 0))
	}
	return out
}

type sample struct {
	metric *models.Metric
	value  float64
}

func entryAt(t *testing.T, at time.Time, samples ...sample) *models.Entry {
	t.Helper()
	e := models.NewEntry("user-1").WithRecordedAt(at)
	for _, s := range samples {
		if err := e.AddValue(s.metric, s.value); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}
	}
	return e
}

func floatsEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
