// ABOUTME: Badger key-value backend implementing Repository.
// ABOUTME: Rows are JSON documents under typed key prefixes.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/moody/internal/models"
)

const (
	metricPrefix   = "metric:"
	trackingPrefix = "tracking:"
	defaultPrefix  = "default:"
	entryPrefix    = "entry:"
	valuePrefix    = "value:"
)

// KV stores moody data in a Badger directory.
type KV struct {
	db  *badger.DB
	dir string
	log logrus.FieldLogger
}

// OpenKV opens or creates a Badger store in dir.
func OpenKV(dir string, opts ...Option) (*KV, error) {
	o := buildOptions(opts)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	bopts := badger.DefaultOptions(dir).WithLogger(badgerLogger{o.log})
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &KV{db: db, dir: dir, log: o.log}, nil
}

// DefaultKVDir returns the default Badger directory following XDG spec.
func DefaultKVDir() string {
	return filepath.Join(DataDir(), "kv")
}

// Path returns the store directory.
func (k *KV) Path() string {
	return k.dir
}

// Close closes the store.
func (k *KV) Close() error {
	if k.db != nil {
		return k.db.Close()
	}
	return nil
}

// badgerLogger routes badger's chatter to debug and keeps warnings visible.
type badgerLogger struct {
	log logrus.FieldLogger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.WithField("component", "badger").Errorf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.WithField("component", "badger").Warnf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.WithField("component", "badger").Debugf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.WithField("component", "badger").Debugf(strings.TrimSpace(format), args...)
}

func metricKey(id string) []byte { return []byte(metricPrefix + id) }
func trackingKey(owner, metric string) []byte { return []byte(trackingPrefix + owner + ":" + metric) }
func defaultKey(metric string) []byte { return []byte(defaultPrefix + metric) }
func entryKey(owner, id string) []byte { return []byte(entryPrefix + owner + ":" + id) }
func valueKey(entry, metric string) []byte { return []byte(valuePrefix + entry + ":" + metric) }

// putJSON marshals v and stores it under key.
func putJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// getJSON loads key into v. Missing keys return ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// scanPrefix calls fn with the key and value of every item under prefix.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		if err := item.Value(func(val []byte) error {
			return fn(key, val)
		}); err != nil {
			return err
		}
	}
	return nil
}

// scanKeys collects the keys under prefix without reading values.
func scanKeys(txn *badger.Txn, prefix []byte) [][]byte {
	it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// CreateMetric stores a new metric.
func (k *KV) CreateMetric(ctx context.Context, m *models.Metric) error {
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
	if err := validateRow("metric", row); err != nil {
		return fmt.Errorf("create metric: %w", err)
	}

	err = k.db.Update(func(txn *badger.Txn) error {
		key := metricKey(row.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("metric %s already exists", row.ID)
		}
		return putJSON(txn, key, row)
	})
	if err != nil {
		return fmt.Errorf("create metric: %w", err)
	}
	return nil
}

// UpdateMetric rewrites the mutable fields of an owner's metric.
func (k *KV) UpdateMetric(ctx context.Context, owner string, m *models.Metric) error {
	existing, err := k.GetMetric(ctx, owner, m.ID.String())
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

	if err := k.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, metricKey(row.ID), row)
	}); err != nil {
		return fmt.Errorf("update metric: %w", err)
	}
	return nil
}

// GetMetric retrieves a visible metric by ID or ID prefix.
func (k *KV) GetMetric(ctx context.Context, owner, idOrPrefix string) (*models.Metric, error) {
	prefix := strings.ToLower(strings.TrimSpace(idOrPrefix))
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty metric ID", ErrNotFound)
	}

	var rows []metricRow
	err := k.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, metricKey(prefix), func(_, val []byte) error {
			var row metricRow
			if err := json.Unmarshal(val, &row); err != nil {
				return fmt.Errorf("%w: metric: %v", ErrInvalidRow, err)
			}
			if row.OwnerID == owner || row.OwnerID == models.SystemOwner {
				rows = append(rows, row)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get metric: %w", err)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	id, err := pickMatch(ids, prefix)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ID == id {
			return row.toModel()
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
}

// ListMetrics returns every metric visible to owner, sorted by name.
func (k *KV) ListMetrics(ctx context.Context, owner string) ([]*models.Metric, error) {
	var metrics []*models.Metric
	err := k.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(metricPrefix), func(_, val []byte) error {
			var row metricRow
			if err := json.Unmarshal(val, &row); err != nil {
				return fmt.Errorf("%w: metric: %v", ErrInvalidRow, err)
			}
			if row.OwnerID != owner && row.OwnerID != models.SystemOwner {
				return nil
			}
			m, err := row.toModel()
			if err != nil {
				return err
			}
			metrics = append(metrics, m)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		a, b := strings.ToLower(metrics[i].Name), strings.ToLower(metrics[j].Name)
		if a != b {
			return a < b
		}
		return metrics[i].ID.String() < metrics[j].ID.String()
	})
	return metrics, nil
}

// DeleteMetric removes an owner's metric together with its tracking rows,
// default and recorded values.
func (k *KV) DeleteMetric(ctx context.Context, owner, idOrPrefix string) error {
	m, err := k.GetMetric(ctx, owner, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	if m.IsSystem() {
		return fmt.Errorf("delete metric: %w", ErrReadOnly)
	}
	id := m.ID.String()

	err = k.db.Update(func(txn *badger.Txn) error {
		doomed := [][]byte{metricKey(id), defaultKey(id)}
		for _, key := range scanKeys(txn, []byte(trackingPrefix)) {
			if strings.HasSuffix(string(key), ":"+id) {
				doomed = append(doomed, key)
			}
		}
		for _, key := range scanKeys(txn, []byte(valuePrefix)) {
			if strings.HasSuffix(string(key), ":"+id) {
				doomed = append(doomed, key)
			}
		}
		for _, key := range doomed {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	return nil
}

// visibleMetrics indexes every metric visible to owner by ID.
func (k *KV) visibleMetrics(ctx context.Context, owner string) (map[string]*models.Metric, error) {
	metrics, err := k.ListMetrics(ctx, owner)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*models.Metric, len(metrics))
	for _, m := range metrics {
		index[m.ID.String()] = m
	}
	return index, nil
}

// TrackMetric starts tracking a metric for an owner, or updates the
// baseline when it is already tracked.
func (k *KV) TrackMetric(ctx context.Context, t *models.MetricTracking) error {
	if t.Metric == nil {
		return fmt.Errorf("track metric: metric is required")
	}
	m, err := k.GetMetric(ctx, t.OwnerID, t.Metric.ID.String())
	if err != nil {
		return fmt.Errorf("track metric: %w", err)
	}
	if err := checkDomain(m, t.Baseline); err != nil {
		return fmt.Errorf("track metric: %w", err)
	}

	row := newTrackingRow(t)
	err = k.db.Update(func(txn *badger.Txn) error {
		key := trackingKey(row.OwnerID, row.MetricID)
		var existing trackingRow
		switch err := getJSON(txn, key, &existing); {
		case err == nil:
			row.TrackedAt = existing.TrackedAt
		case !errors.Is(err, ErrNotFound):
			return err
		}
		return putJSON(txn, key, row)
	})
	if err != nil {
		return fmt.Errorf("track metric: %w", err)
	}
	t.Metric = m
	return nil
}

// UntrackMetric stops tracking a metric. Recorded values are kept.
func (k *KV) UntrackMetric(ctx context.Context, owner string, metricID uuid.UUID) error {
	err := k.db.Update(func(txn *badger.Txn) error {
		key := trackingKey(owner, metricID.String())
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, metricID)
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("untrack metric: %w", err)
	}
	return nil
}

// UpdateBaseline changes the baseline of a tracked metric.
func (k *KV) UpdateBaseline(ctx context.Context, owner string, metricID uuid.UUID, baseline float64) error {
	m, err := k.GetMetric(ctx, owner, metricID.String())
	if err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}
	if err := checkDomain(m, baseline); err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}

	err = k.db.Update(func(txn *badger.Txn) error {
		key := trackingKey(owner, metricID.String())
		var row trackingRow
		if err := getJSON(txn, key, &row); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: %s is not tracked", ErrNotFound, m.Name)
			}
			return err
		}
		row.Baseline = baseline
		return putJSON(txn, key, row)
	})
	if err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}
	return nil
}

// FetchTrackedMetrics returns the owner's tracked metrics in tracking order.
func (k *KV) FetchTrackedMetrics(ctx context.Context, owner string) ([]*models.MetricTracking, error) {
	metrics, err := k.visibleMetrics(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("fetch tracked metrics: %w", err)
	}

	var rows []trackingRow
	err = k.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(trackingPrefix+owner+":"), func(_, val []byte) error {
			var row trackingRow
			if err := json.Unmarshal(val, &row); err != nil {
				return fmt.Errorf("%w: tracking: %v", ErrInvalidRow, err)
			}
			if row.OwnerID == owner {
				rows = append(rows, row)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch tracked metrics: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TrackedAt != rows[j].TrackedAt {
			return rows[i].TrackedAt < rows[j].TrackedAt
		}
		return rows[i].MetricID < rows[j].MetricID
	})

	var tracked []*models.MetricTracking
	for _, row := range rows {
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
	return tracked, nil
}

// SetTrackingDefault records the baseline new owners start with for a metric.
func (k *KV) SetTrackingDefault(ctx context.Context, def models.TrackingDefault) error {
	row := defaultRow{MetricID: def.MetricID.String(), Baseline: def.Baseline}
	err := k.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(metricKey(row.MetricID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: metric %s", ErrNotFound, row.MetricID)
			}
			return err
		}
		return putJSON(txn, defaultKey(row.MetricID), row)
	})
	if err != nil {
		return fmt.Errorf("set tracking default: %w", err)
	}
	return nil
}

// ListTrackingDefaults returns every configured tracking default.
func (k *KV) ListTrackingDefaults(ctx context.Context) ([]models.TrackingDefault, error) {
	var defaults []models.TrackingDefault
	err := k.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(defaultPrefix), func(_, val []byte) error {
			var row defaultRow
			if err := json.Unmarshal(val, &row); err != nil {
				return fmt.Errorf("%w: tracking default: %v", ErrInvalidRow, err)
			}
			def, err := row.toModel()
			if err != nil {
				return err
			}
			defaults = append(defaults, def)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list tracking defaults: %w", err)
	}
	return defaults, nil
}

// CreateEntry stores an entry, then each of its values. A value whose metric
// is missing fails the write and the entry is deleted again.
func (k *KV) CreateEntry(ctx context.Context, e *models.Entry) error {
	if err := checkEntry(e); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	visible, err := k.visibleMetrics(ctx, e.OwnerID)
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	if err := checkValueMetrics(e, visible); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}

	row := newEntryRow(e)
	if err := validateRow("entry", row); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	if err := k.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, entryKey(row.OwnerID, row.ID), row)
	}); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}

	for _, v := range e.Values {
		vrow := valueRow{EntryID: row.ID, MetricID: v.MetricID.String(), Value: v.Value}
		err := k.db.Update(func(txn *badger.Txn) error {
			if _, err := txn.Get(metricKey(vrow.MetricID)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: metric %s", ErrNotFound, vrow.MetricID)
				}
				return err
			}
			return putJSON(txn, valueKey(vrow.EntryID, vrow.MetricID), vrow)
		})
		if err != nil {
			k.rollbackEntry(row.OwnerID, row.ID, err)
			return fmt.Errorf("add entry value: %w", err)
		}
	}

	return nil
}

// rollbackEntry deletes an entry whose values could not be stored.
func (k *KV) rollbackEntry(owner, id string, cause error) {
	log := k.log.WithFields(logrus.Fields{"entry_id": id, "cause": cause})
	if err := k.db.Update(func(txn *badger.Txn) error {
		return k.deleteEntryKeys(txn, owner, id)
	}); err != nil {
		log.WithError(err).Error("compensating delete of entry failed")
		return
	}
	log.Warn("rolled back entry after value insert failure")
}

func (k *KV) deleteEntryKeys(txn *badger.Txn, owner, id string) error {
	doomed := append(scanKeys(txn, []byte(valuePrefix+id+":")), entryKey(owner, id))
	for _, key := range doomed {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// GetEntry retrieves an owner's entry by ID or ID prefix, with values.
func (k *KV) GetEntry(ctx context.Context, owner, idOrPrefix string) (*models.Entry, error) {
	id, err := k.resolveEntryID(owner, idOrPrefix)
	if err != nil {
		return nil, err
	}
	entries, err := k.queryEntries(ctx, owner, func(r entryRow) bool { return r.ID == id }, 0)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return entries[0], nil
}

// ListEntries returns the owner's most recent entries first.
func (k *KV) ListEntries(ctx context.Context, owner string, limit int) ([]*models.Entry, error) {
	entries, err := k.queryEntries(ctx, owner, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// FetchEntries returns the owner's entries recorded in [start, end).
func (k *KV) FetchEntries(ctx context.Context, owner string, start, end time.Time) ([]*models.Entry, error) {
	var lo, hi string
	if !start.IsZero() {
		lo = formatTime(start)
	}
	if !end.IsZero() {
		hi = formatTime(end)
	}
	keep := func(r entryRow) bool {
		return (lo == "" || r.RecordedAt >= lo) && (hi == "" || r.RecordedAt < hi)
	}

	entries, err := k.queryEntries(ctx, owner, keep, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}
	return entries, nil
}

// DeleteEntry removes an owner's entry and its values.
func (k *KV) DeleteEntry(ctx context.Context, owner, idOrPrefix string) error {
	id, err := k.resolveEntryID(owner, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if err := k.db.Update(func(txn *badger.Txn) error {
		return k.deleteEntryKeys(txn, owner, id)
	}); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// queryEntries loads the owner's entries accepted by keep, newest first,
// with values and metrics attached.
func (k *KV) queryEntries(ctx context.Context, owner string, keep func(entryRow) bool, limit int) ([]*models.Entry, error) {
	metrics, err := k.visibleMetrics(ctx, owner)
	if err != nil {
		return nil, err
	}

	var rows []entryRow
	err = k.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(entryPrefix+owner+":"), func(_, val []byte) error {
			var row entryRow
			if err := json.Unmarshal(val, &row); err != nil {
				return fmt.Errorf("%w: entry: %v", ErrInvalidRow, err)
			}
			if row.OwnerID == owner && (keep == nil || keep(row)) {
				rows = append(rows, row)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RecordedAt != rows[j].RecordedAt {
			return rows[i].RecordedAt > rows[j].RecordedAt
		}
		return rows[i].ID > rows[j].ID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	entries := make([]*models.Entry, 0, len(rows))
	err = k.db.View(func(txn *badger.Txn) error {
		for _, row := range rows {
			e, err := row.toModel()
			if err != nil {
				return err
			}
			err = scanPrefix(txn, []byte(valuePrefix+row.ID+":"), func(_, val []byte) error {
				var vrow valueRow
				if err := json.Unmarshal(val, &vrow); err != nil {
					return fmt.Errorf("%w: entry value: %v", ErrInvalidRow, err)
				}
				v, err := vrow.toModel(metrics[vrow.MetricID])
				if err != nil {
					return err
				}
				e.Values = append(e.Values, v)
				return nil
			})
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query entry values: %w", err)
	}
	return entries, nil
}

// resolveEntryID finds the full ID of an owner's entry from a prefix.
func (k *KV) resolveEntryID(owner, idOrPrefix string) (string, error) {
	prefix := strings.ToUpper(strings.TrimSpace(idOrPrefix))
	if prefix == "" {
		return "", fmt.Errorf("%w: empty entry ID", ErrNotFound)
	}

	base := entryPrefix + owner + ":"
	var matches []string
	if err := k.db.View(func(txn *badger.Txn) error {
		for _, key := range scanKeys(txn, []byte(base+prefix)) {
			id := strings.TrimPrefix(string(key), base)
			if !strings.Contains(id, ":") {
				matches = append(matches, id)
			}
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("resolve entry ID: %w", err)
	}

	return pickMatch(matches, prefix)
}
