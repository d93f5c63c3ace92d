// ABOUTME: Metric tracking and tracking-default operations for SQLite.
// ABOUTME: Baselines are checked against the metric domain before writing.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
)

// TrackMetric starts tracking a metric for an owner, or updates the
// baseline when it is already tracked.
func (d *DB) TrackMetric(ctx context.Context, t *models.MetricTracking) error {
	if t.Metric == nil {
		return fmt.Errorf("track metric: metric is required")
	}
	m, err := d.GetMetric(ctx, t.OwnerID, t.Metric.ID.String())
	if err != nil {
		return fmt.Errorf("track metric: %w", err)
	}
	if err := checkDomain(m, t.Baseline); err != nil {
		return fmt.Errorf("track metric: %w", err)
	}

	row := newTrackingRow(t)
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO metric_tracking (owner_id, metric_id, baseline, tracked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id, metric_id) DO UPDATE SET baseline = excluded.baseline
	`, row.OwnerID, row.MetricID, row.Baseline, row.TrackedAt)
	if err != nil {
		return fmt.Errorf("track metric: %w", err)
	}
	t.Metric = m
	return nil
}

// UntrackMetric stops tracking a metric. Recorded values are kept.
func (d *DB) UntrackMetric(ctx context.Context, owner string, metricID uuid.UUID) error {
	result, err := d.db.ExecContext(ctx,
		"DELETE FROM metric_tracking WHERE owner_id = ? AND metric_id = ?",
		owner, metricID.String())
	if err != nil {
		return fmt.Errorf("untrack metric: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("untrack metric: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("untrack metric: %w: %s", ErrNotFound, metricID)
	}
	return nil
}

// UpdateBaseline changes the baseline of a tracked metric.
func (d *DB) UpdateBaseline(ctx context.Context, owner string, metricID uuid.UUID, baseline float64) error {
	m, err := d.GetMetric(ctx, owner, metricID.String())
	if err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}
	if err := checkDomain(m, baseline); err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}

	result, err := d.db.ExecContext(ctx,
		"UPDATE metric_tracking SET baseline = ? WHERE owner_id = ? AND metric_id = ?",
		baseline, owner, metricID.String())
	if err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update baseline: %w: %s is not tracked", ErrNotFound, m.Name)
	}
	return nil
}

// FetchTrackedMetrics returns the owner's tracked metrics in tracking order.
func (d *DB) FetchTrackedMetrics(ctx context.Context, owner string) ([]*models.MetricTracking, error) {
	metrics, err := d.visibleMetrics(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("fetch tracked metrics: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT owner_id, metric_id, baseline, tracked_at
		FROM metric_tracking
		WHERE owner_id = ?
		ORDER BY tracked_at, metric_id
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("fetch tracked metrics: %w", err)
	}
	defer rows.Close()

	var tracked []*models.MetricTracking
	for rows.Next() {
		var row trackingRow
		if err := rows.Scan(&row.OwnerID, &row.MetricID, &row.Baseline, &row.TrackedAt); err != nil {
			return nil, fmt.Errorf("scan tracking: %w", err)
		}
		m, ok := metrics[row.MetricID]
		if !ok {
			continue
		}
		t, err := row.toModel(m)
		if err != nil {
			return nil, err
		}
		tracked = append(tracked, t)
	}
	return tracked, rows.Err()
}

// SetTrackingDefault records the baseline new owners start with for a metric.
func (d *DB) SetTrackingDefault(ctx context.Context, def models.TrackingDefault) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO tracking_defaults (metric_id, baseline) VALUES (?, ?)
		ON CONFLICT (metric_id) DO UPDATE SET baseline = excluded.baseline
	`, def.MetricID.String(), def.Baseline)
	if err != nil {
		return fmt.Errorf("set tracking default: %w", err)
	}
	return nil
}

// ListTrackingDefaults returns every configured tracking default.
func (d *DB) ListTrackingDefaults(ctx context.Context) ([]models.TrackingDefault, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT metric_id, baseline FROM tracking_defaults ORDER BY metric_id`)
	if err != nil {
		return nil, fmt.Errorf("list tracking defaults: %w", err)
	}
	defer rows.Close()

	var defaults []models.TrackingDefault
	for rows.Next() {
		var row defaultRow
		if err := rows.Scan(&row.MetricID, &row.Baseline); err != nil {
			return nil, fmt.Errorf("scan tracking default: %w", err)
		}
		def, err := row.toModel()
		if err != nil {
			return nil, err
		}
		defaults = append(defaults, def)
	}
	return defaults, rows.Err()
}

// checkDomain verifies a value lies in the metric's domain.
func checkDomain(m *models.Metric, value float64) error {
	ok, err := codec.Contains(m, value)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s for %s", models.ErrOutOfDomain, codec.FormatValue(value), m.Name)
	}
	return nil
}
