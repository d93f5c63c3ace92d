// ABOUTME: Entry and EntryValue models for timestamped observations.
// ABOUTME: An entry holds at most one canonical numeric value per metric.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Entry is one logging event containing zero or more metric values.
type Entry struct {
	ID         ulid.ULID    `json:"id" yaml:"id"`
	OwnerID    string       `json:"owner_id" yaml:"owner_id"`
	RecordedAt time.Time    `json:"recorded_at" yaml:"recorded_at"`
	Comment    *string      `json:"comment,omitempty" yaml:"comment,omitempty"`
	Values     []EntryValue `json:"values" yaml:"values"`
	CreatedAt  time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" yaml:"updated_at"`
}

// EntryValue is the canonical numeric value recorded for one metric.
// Metric is populated when the entry is fetched with its metrics joined.
type EntryValue struct {
	MetricID uuid.UUID `json:"metric_id" yaml:"metric_id"`
	Value    float64   `json:"value" yaml:"value"`
	Metric   *Metric   `json:"metric,omitempty" yaml:"metric,omitempty"`
}

// NewEntry creates a new Entry with a time-sortable ID and current timestamps.
func NewEntry(owner string) *Entry {
	now := time.Now()
	return &Entry{
		ID:         ulid.Make(),
		OwnerID:    owner,
		RecordedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// WithRecordedAt sets a custom recorded_at timestamp.
func (e *Entry) WithRecordedAt(t time.Time) *Entry {
	e.RecordedAt = t
	return e
}

// WithComment sets the free-text comment.
func (e *Entry) WithComment(comment string) *Entry {
	e.Comment = &comment
	return e
}

// AddValue records a value for metric. A second value for the same metric
// is rejected with ErrDuplicateValue.
func (e *Entry) AddValue(metric *Metric, value float64) error {
	if _, ok := e.Value(metric.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateValue, metric.Name)
	}
	e.Values = append(e.Values, EntryValue{MetricID: metric.ID, Value: value, Metric: metric})
	return nil
}

// Value returns the value recorded for metricID, if any.
func (e *Entry) Value(metricID uuid.UUID) (float64, bool) {
	for _, v := range e.Values {
		if v.MetricID == metricID {
			return v.Value, true
		}
	}
	return 0, false
}

// Validate checks that every metric appears at most once.
func (e *Entry) Validate() error {
	seen := make(map[uuid.UUID]struct{}, len(e.Values))
	for _, v := range e.Values {
		if _, dup := seen[v.MetricID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateValue, v.MetricID)
		}
		seen[v.MetricID] = struct{}{}
	}
	return nil
}
