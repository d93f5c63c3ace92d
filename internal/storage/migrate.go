// ABOUTME: Data migration between moody storage backends.
// ABOUTME: Copies metrics, tracking, defaults and entries from source to destination.
package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/moody/internal/models"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Metrics  int
	Defaults int
	Tracking int
	Entries  int
	Values   int
}

// MigrateData copies owner's data from src to dst. System metrics and their
// tracking defaults are copied too. Metrics and entries already present in
// dst are kept, so a repeated migration only adds what is missing.
func MigrateData(ctx context.Context, src, dst Repository, owner string) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	metrics, err := src.ListMetrics(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list source metrics: %w", err)
	}
	for _, m := range metrics {
		if _, err := dst.GetMetric(ctx, owner, m.ID.String()); err == nil {
			continue
		}
		if err := dst.CreateMetric(ctx, m); err != nil {
			return nil, fmt.Errorf("create metric %s: %w", m.ID, err)
		}
		summary.Metrics++
	}

	defaults, err := src.ListTrackingDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source tracking defaults: %w", err)
	}
	for _, def := range defaults {
		if err := dst.SetTrackingDefault(ctx, def); err != nil {
			return nil, fmt.Errorf("set tracking default %s: %w", def.MetricID, err)
		}
		summary.Defaults++
	}

	tracked, err := src.FetchTrackedMetrics(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list source tracking: %w", err)
	}
	for _, t := range tracked {
		if err := dst.TrackMetric(ctx, t); err != nil {
			return nil, fmt.Errorf("track metric %s: %w", t.Metric.ID, err)
		}
		summary.Tracking++
	}

	entries, err := src.FetchEntries(ctx, owner, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list source entries: %w", err)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if _, err := dst.GetEntry(ctx, owner, e.ID.String()); err == nil {
			continue
		}
		if err := dst.CreateEntry(ctx, e); err != nil {
			return nil, fmt.Errorf("create entry %s: %w", e.ID, err)
		}
		summary.Entries++
		summary.Values += len(e.Values)
	}

	return summary, nil
}

// SourceEmpty reports whether a store holds nothing for owner beyond the
// seeded system metrics.
func SourceEmpty(ctx context.Context, repo Repository, owner string) (bool, error) {
	metrics, err := repo.ListMetrics(ctx, owner)
	if err != nil {
		return false, err
	}
	for _, m := range metrics {
		if m.OwnerID != models.SystemOwner {
			return false, nil
		}
	}
	entries, err := repo.ListEntries(ctx, owner, 1)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
