// ABOUTME: Metric CRUD operations for SQLite storage.
// ABOUTME: Owners see their own metrics plus shared system metrics.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/moody/internal/models"
)

const metricColumns = `id, name, description, metric_type, labels, min_value, max_value, owner_id, created_at, updated_at`

// CreateMetric stores a new metric in the database.
func (d *DB) CreateMetric(ctx context.Context, m *models.Metric) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("create metric: %w", err)
	}
	if m.OwnerID == "" {
		return fmt.Errorf("create metric: owner is required")
	}
	row, err := newMetricRow(m)
	if err != nil {
		return fmt.Errorf("create metric: %w", err)
	}

	query := `INSERT INTO metrics (` + metricColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = d.db.ExecContext(ctx, query,
		row.ID,
		row.Name,
		row.Description,
		row.Type,
		nullString(row.Labels),
		row.MinValue,
		row.MaxValue,
		row.OwnerID,
		row.CreatedAt,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create metric: %w", err)
	}
	return nil
}

// UpdateMetric rewrites the mutable fields of an owner's metric.
func (d *DB) UpdateMetric(ctx context.Context, owner string, m *models.Metric) error {
	existing, err := d.GetMetric(ctx, owner, m.ID.String())
	if err != nil {
		return fmt.Errorf("update metric: %w", err)
	}
	if existing.IsSystem() {
		return fmt.Errorf("update metric: %w", ErrReadOnly)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("update metric: %w", err)
	}

	m.OwnerID = existing.OwnerID
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now()
	row, err := newMetricRow(m)
	if err != nil {
		return fmt.Errorf("update metric: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		UPDATE metrics
		SET name = ?, description = ?, metric_type = ?, labels = ?, min_value = ?, max_value = ?, updated_at = ?
		WHERE id = ?
	`, row.Name, row.Description, row.Type, nullString(row.Labels), row.MinValue, row.MaxValue, row.UpdatedAt, row.ID)
	if err != nil {
		return fmt.Errorf("update metric: %w", err)
	}
	return nil
}

// GetMetric retrieves a visible metric by ID or ID prefix.
func (d *DB) GetMetric(ctx context.Context, owner, idOrPrefix string) (*models.Metric, error) {
	id, err := d.resolveMetricID(ctx, owner, idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + metricColumns + ` FROM metrics WHERE id = ? AND (owner_id = ? OR owner_id = ?)`
	return d.scanMetric(d.db.QueryRowContext(ctx, query, id, owner, models.SystemOwner))
}

// ListMetrics returns every metric visible to owner, sorted by name.
func (d *DB) ListMetrics(ctx context.Context, owner string) ([]*models.Metric, error) {
	query := `
		SELECT ` + metricColumns + `
		FROM metrics
		WHERE owner_id = ? OR owner_id = ?
		ORDER BY name COLLATE NOCASE, id
	`
	rows, err := d.db.QueryContext(ctx, query, owner, models.SystemOwner)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	return d.scanMetrics(rows)
}

// DeleteMetric removes an owner's metric by ID or prefix. Tracking rows and
// recorded values of the metric are removed with it.
func (d *DB) DeleteMetric(ctx context.Context, owner, idOrPrefix string) error {
	m, err := d.GetMetric(ctx, owner, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	if m.IsSystem() {
		return fmt.Errorf("delete metric: %w", ErrReadOnly)
	}

	result, err := d.db.ExecContext(ctx, "DELETE FROM metrics WHERE id = ? AND owner_id = ?", m.ID.String(), owner)
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete metric: %w: %s", ErrNotFound, idOrPrefix)
	}

	return nil
}

// visibleMetrics indexes every metric visible to owner by ID.
func (d *DB) visibleMetrics(ctx context.Context, owner string) (map[string]*models.Metric, error) {
	metrics, err := d.ListMetrics(ctx, owner)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*models.Metric, len(metrics))
	for _, m := range metrics {
		index[m.ID.String()] = m
	}
	return index, nil
}

// resolveMetricID finds the full ID of a visible metric from a prefix.
func (d *DB) resolveMetricID(ctx context.Context, owner, idOrPrefix string) (string, error) {
	idOrPrefix = strings.ToLower(strings.TrimSpace(idOrPrefix))
	if idOrPrefix == "" {
		return "", fmt.Errorf("%w: empty metric ID", ErrNotFound)
	}

	query := `SELECT id FROM metrics WHERE id LIKE ? || '%' AND (owner_id = ? OR owner_id = ?)`
	rows, err := d.db.QueryContext(ctx, query, idOrPrefix, owner, models.SystemOwner)
	if err != nil {
		return "", fmt.Errorf("resolve metric ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan metric ID: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve metric ID: %w", err)
	}

	return pickMatch(matches, idOrPrefix)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetricRow(s rowScanner) (metricRow, error) {
	var row metricRow
	var labels sql.NullString
	var minValue, maxValue sql.NullFloat64

	err := s.Scan(&row.ID, &row.Name, &row.Description, &row.Type, &labels,
		&minValue, &maxValue, &row.OwnerID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return metricRow{}, err
	}
	row.Labels = labels.String
	if minValue.Valid {
		row.MinValue = &minValue.Float64
	}
	if maxValue.Valid {
		row.MaxValue = &maxValue.Float64
	}
	return row, nil
}

// scanMetric scans a single row into a Metric.
func (d *DB) scanMetric(r *sql.Row) (*models.Metric, error) {
	row, err := scanMetricRow(r)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan metric: %w", err)
	}
	return row.toModel()
}

// scanMetrics scans multiple rows into a slice of Metrics.
func (d *DB) scanMetrics(rows *sql.Rows) ([]*models.Metric, error) {
	var metrics []*models.Metric

	for rows.Next() {
		row, err := scanMetricRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m, err := row.toModel()
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// pickMatch returns the single prefix match or a not-found/ambiguous error.
func pickMatch(matches []string, prefix string) (string, error) {
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	if len(matches) > 1 {
		for _, m := range matches {
			if m == prefix {
				return m, nil
			}
		}
		return "", fmt.Errorf("%w %s: matches multiple records", ErrAmbiguous, prefix)
	}
	return matches[0], nil
}
