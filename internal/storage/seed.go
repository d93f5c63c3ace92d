// ABOUTME: System metric seeding and default tracking for new owners.
// ABOUTME: System metric IDs are derived from their names so seeding is idempotent.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harperreed/moody/internal/models"
)

var systemNamespace = uuid.MustParse("6f1c2a8e-3d4b-5a7c-9e0f-1b2c3d4e5f60")

// SystemMetricID returns the stable ID of a seeded system metric.
func SystemMetricID(name string) uuid.UUID {
	return uuid.NewSHA1(systemNamespace, []byte(name))
}

type systemSeed struct {
	metric   *models.Metric
	baseline *float64
}

func systemSeeds() []systemSeed {
	mood := models.NewMetric("Mood", models.MetricDiscrete).
		WithDescription("Daily mood rating").
		WithLabels(map[string]float64{"Depressed": -1, "Neutral": 0, "Happy": 1})
	sleep := models.NewMetric("Sleep Duration", models.MetricContinuous).
		WithDescription("Hours of sleep").
		WithRange(0, 24)
	exercised := models.NewMetric("Exercised", models.MetricEvent).
		WithDescription("Did you exercise today?")

	moodBaseline, sleepBaseline := 0.0, 8.0
	seeds := []systemSeed{
		{metric: mood, baseline: &moodBaseline},
		{metric: sleep, baseline: &sleepBaseline},
		{metric: exercised},
	}
	for _, s := range seeds {
		s.metric.ID = SystemMetricID(s.metric.Name)
		s.metric.OwnerID = models.SystemOwner
	}
	return seeds
}

// SeedSystemMetrics creates the shared system metrics and their tracking
// defaults. Metrics that already exist are left untouched.
func SeedSystemMetrics(ctx context.Context, repo Repository) error {
	for _, s := range systemSeeds() {
		_, err := repo.GetMetric(ctx, models.SystemOwner, s.metric.ID.String())
		switch {
		case errors.Is(err, ErrNotFound):
			if err := repo.CreateMetric(ctx, s.metric); err != nil {
				return fmt.Errorf("seed %s: %w", s.metric.Name, err)
			}
		case err != nil:
			return fmt.Errorf("seed %s: %w", s.metric.Name, err)
		}

		if s.baseline == nil {
			continue
		}
		def := models.TrackingDefault{MetricID: s.metric.ID, Baseline: *s.baseline}
		if err := repo.SetTrackingDefault(ctx, def); err != nil {
			return fmt.Errorf("seed %s: %w", s.metric.Name, err)
		}
	}
	return nil
}

// ConfigureDefaultTracking starts tracking every defaulted metric for an
// owner who tracks nothing yet. It reports how many metrics were tracked.
func ConfigureDefaultTracking(ctx context.Context, repo Repository, owner string) (int, error) {
	tracked, err := repo.FetchTrackedMetrics(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("configure default tracking: %w", err)
	}
	if len(tracked) > 0 {
		return 0, nil
	}

	defaults, err := repo.ListTrackingDefaults(ctx)
	if err != nil {
		return 0, fmt.Errorf("configure default tracking: %w", err)
	}

	count := 0
	for _, def := range defaults {
		m, err := repo.GetMetric(ctx, owner, def.MetricID.String())
		if err != nil {
			return count, fmt.Errorf("configure default tracking: %w", err)
		}
		if err := repo.TrackMetric(ctx, models.NewMetricTracking(owner, m, def.Baseline)); err != nil {
			return count, fmt.Errorf("configure default tracking: %w", err)
		}
		count++
	}
	return count, nil
}
