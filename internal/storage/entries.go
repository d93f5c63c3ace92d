// ABOUTME: Entry and entry value operations for SQLite storage.
// ABOUTME: Failed value inserts roll the entry back with a compensating delete.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harperreed/moody/internal/models"
)

// CreateEntry stores an entry, then each of its values. If any value fails
// to insert, the entry row is deleted again and the error returned.
func (d *DB) CreateEntry(ctx context.Context, e *models.Entry) error {
	if err := checkEntry(e); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	visible, err := d.visibleMetrics(ctx, e.OwnerID)
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	if err := checkValueMetrics(e, visible); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}

	row := newEntryRow(e)
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO entries (id, owner_id, recorded_at, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, row.ID, row.OwnerID, row.RecordedAt, row.Comment, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}

	for _, v := range e.Values {
		_, err := d.db.ExecContext(ctx,
			"INSERT INTO entry_values (entry_id, metric_id, value) VALUES (?, ?, ?)",
			row.ID, v.MetricID.String(), v.Value)
		if err != nil {
			d.rollbackEntry(row.ID, err)
			return fmt.Errorf("add entry value: %w", err)
		}
	}

	return nil
}

// rollbackEntry deletes an entry whose values could not be stored. It runs
// without the caller's context so a cancelled request still cleans up.
func (d *DB) rollbackEntry(id string, cause error) {
	log := d.log.WithFields(logrus.Fields{"entry_id": id, "cause": cause})
	if _, err := d.db.Exec("DELETE FROM entries WHERE id = ?", id); err != nil {
		log.WithError(err).Error("compensating delete of entry failed")
		return
	}
	log.Warn("rolled back entry after value insert failure")
}

// GetEntry retrieves an owner's entry by ID or ID prefix, with values.
func (d *DB) GetEntry(ctx context.Context, owner, idOrPrefix string) (*models.Entry, error) {
	id, err := d.resolveEntryID(ctx, owner, idOrPrefix)
	if err != nil {
		return nil, err
	}
	entries, err := d.queryEntries(ctx, owner, "id = ?", []any{id}, 0)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return entries[0], nil
}

// ListEntries returns the owner's most recent entries first.
func (d *DB) ListEntries(ctx context.Context, owner string, limit int) ([]*models.Entry, error) {
	entries, err := d.queryEntries(ctx, owner, "", nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// FetchEntries returns the owner's entries recorded in [start, end).
func (d *DB) FetchEntries(ctx context.Context, owner string, start, end time.Time) ([]*models.Entry, error) {
	var conds []string
	var args []any
	if !start.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, formatTime(start))
	}
	if !end.IsZero() {
		conds = append(conds, "recorded_at < ?")
		args = append(args, formatTime(end))
	}

	entries, err := d.queryEntries(ctx, owner, strings.Join(conds, " AND "), args, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}
	return entries, nil
}

// DeleteEntry removes an owner's entry and its values.
func (d *DB) DeleteEntry(ctx context.Context, owner, idOrPrefix string) error {
	id, err := d.resolveEntryID(ctx, owner, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	result, err := d.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ? AND owner_id = ?", id, owner)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete entry: %w: %s", ErrNotFound, idOrPrefix)
	}
	return nil
}

// queryEntries loads entries matching an extra WHERE clause, newest first,
// then attaches their values and metrics.
func (d *DB) queryEntries(ctx context.Context, owner, where string, args []any, limit int) ([]*models.Entry, error) {
	metrics, err := d.visibleMetrics(ctx, owner)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, recorded_at, comment, created_at, updated_at
		FROM entries
		WHERE owner_id = ?`
	qargs := append([]any{owner}, args...)
	if where != "" {
		query += " AND " + where
	}
	query += " ORDER BY recorded_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		qargs = append(qargs, limit)
	}

	entries, err := d.scanEntries(ctx, query, qargs)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	byID := make(map[string]*models.Entry, len(entries))
	ids := make([]any, 0, len(entries))
	for _, e := range entries {
		id := e.ID.String()
		byID[id] = e
		ids = append(ids, id)
	}

	for len(ids) > 0 {
		n := min(len(ids), valueBatchSize)
		if err := d.attachValues(ctx, ids[:n], byID, metrics); err != nil {
			return nil, err
		}
		ids = ids[n:]
	}
	return entries, nil
}

// valueBatchSize bounds the bind variables of one entry_values query,
// keeping long histories under SQLite's variable limit.
var valueBatchSize = 500

// attachValues loads the values of one batch of entries.
func (d *DB) attachValues(ctx context.Context, ids []any, byID map[string]*models.Entry, metrics map[string]*models.Metric) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	rows, err := d.db.QueryContext(ctx, `
		SELECT entry_id, metric_id, value
		FROM entry_values
		WHERE entry_id IN (`+placeholders+`)
		ORDER BY entry_id, metric_id
	`, ids...)
	if err != nil {
		return fmt.Errorf("query entry values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row valueRow
		if err := rows.Scan(&row.EntryID, &row.MetricID, &row.Value); err != nil {
			return fmt.Errorf("scan entry value: %w", err)
		}
		v, err := row.toModel(metrics[row.MetricID])
		if err != nil {
			return err
		}
		e := byID[row.EntryID]
		e.Values = append(e.Values, v)
	}
	return rows.Err()
}

func (d *DB) scanEntries(ctx context.Context, query string, args []any) ([]*models.Entry, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.Entry{}
	for rows.Next() {
		var row entryRow
		var comment sql.NullString
		if err := rows.Scan(&row.ID, &row.OwnerID, &row.RecordedAt, &comment, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if comment.Valid {
			row.Comment = &comment.String
		}
		e, err := row.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// resolveEntryID finds the full ID of an owner's entry from a prefix.
func (d *DB) resolveEntryID(ctx context.Context, owner, idOrPrefix string) (string, error) {
	idOrPrefix = strings.ToUpper(strings.TrimSpace(idOrPrefix))
	if idOrPrefix == "" {
		return "", fmt.Errorf("%w: empty entry ID", ErrNotFound)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id FROM entries WHERE owner_id = ? AND id LIKE ? || '%'`, owner, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolve entry ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan entry ID: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve entry ID: %w", err)
	}

	return pickMatch(matches, idOrPrefix)
}

// checkEntry validates an entry before it is written. Values whose metric
// is attached are checked against the metric's domain.
// checkValueMetrics rejects values whose metric the entry's owner cannot
// see, and checks each value against the stored metric's domain.
func checkValueMetrics(e *models.Entry, visible map[string]*models.Metric) error {
	for _, v := range e.Values {
		m, ok := visible[v.MetricID.String()]
		if !ok {
			return fmt.Errorf("%w: metric %s", ErrNotFound, v.MetricID)
		}
		if err := checkDomain(m, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func checkEntry(e *models.Entry) error {
	if e.OwnerID == "" {
		return errors.New("owner is required")
	}
	if err := e.Validate(); err != nil {
		return err
	}
	for _, v := range e.Values {
		if v.Metric == nil {
			continue
		}
		if err := checkDomain(v.Metric, v.Value); err != nil {
			return err
		}
	}
	return nil
}
