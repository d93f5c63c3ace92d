// ABOUTME: Optimistic tracking state changes with explicit confirmation.
// ABOUTME: Apply predicts the new state; Confirm persists it or rolls back.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
	"github.com/harperreed/moody/internal/storage"
)

var (
	// ErrAlreadyTracked is returned when tracking a metric twice.
	ErrAlreadyTracked = errors.New("metric is already tracked")
	// ErrNotTracked is returned when changing a metric that is not tracked.
	ErrNotTracked = errors.New("metric is not tracked")
)

// State is the set of metrics an owner tracks, in tracking order. Values
// are never mutated in place; every change produces a new State.
type State struct {
	tracked []models.MetricTracking
}

// NewState builds a state from stored tracking rows.
func NewState(rows []*models.MetricTracking) State {
	tracked := make([]models.MetricTracking, 0, len(rows))
	for _, r := range rows {
		tracked = append(tracked, *r)
	}
	return State{tracked: tracked}
}

// Tracked returns copies of the tracking rows.
func (s State) Tracked() []*models.MetricTracking {
	out := make([]*models.MetricTracking, len(s.tracked))
	for i := range s.tracked {
		t := s.tracked[i]
		out[i] = &t
	}
	return out
}

// Len reports how many metrics are tracked.
func (s State) Len() int {
	return len(s.tracked)
}

// Lookup returns the tracking row of a metric.
func (s State) Lookup(metricID uuid.UUID) (models.MetricTracking, bool) {
	for _, t := range s.tracked {
		if t.Metric != nil && t.Metric.ID == metricID {
			return t, true
		}
	}
	return models.MetricTracking{}, false
}

// IsTracked reports whether a metric is tracked.
func (s State) IsTracked(metricID uuid.UUID) bool {
	_, ok := s.Lookup(metricID)
	return ok
}

func (s State) with(t models.MetricTracking) State {
	next := make([]models.MetricTracking, 0, len(s.tracked)+1)
	next = append(next, s.tracked...)
	return State{tracked: append(next, t)}
}

func (s State) without(metricID uuid.UUID) State {
	next := make([]models.MetricTracking, 0, len(s.tracked))
	for _, t := range s.tracked {
		if t.Metric != nil && t.Metric.ID == metricID {
			continue
		}
		next = append(next, t)
	}
	return State{tracked: next}
}

func (s State) replace(t models.MetricTracking) State {
	next := make([]models.MetricTracking, len(s.tracked))
	copy(next, s.tracked)
	for i := range next {
		if next[i].Metric != nil && next[i].Metric.ID == t.Metric.ID {
			next[i] = t
		}
	}
	return State{tracked: next}
}

// Command is a change to an owner's tracking.
type Command interface {
	apply(owner string, s State) (State, write, error)
}

// write persists one applied command.
type write func(ctx context.Context, store storage.TrackingStore, owner string) error

// Track starts tracking Metric. A nil Baseline uses the metric's default.
type Track struct {
	Metric   *models.Metric
	Baseline *float64
}

func (c Track) apply(owner string, s State) (State, write, error) {
	if s.IsTracked(c.Metric.ID) {
		return s, nil, fmt.Errorf("%w: %s", ErrAlreadyTracked, c.Metric.Name)
	}
	baseline, err := baselineFor(c.Metric, c.Baseline)
	if err != nil {
		return s, nil, err
	}
	t := models.MetricTracking{OwnerID: owner, Metric: c.Metric, Baseline: baseline, TrackedAt: time.Now()}
	return s.with(t), func(ctx context.Context, store storage.TrackingStore, owner string) error {
		row := t
		row.OwnerID = owner
		return store.TrackMetric(ctx, &row)
	}, nil
}

// Untrack stops tracking a metric.
type Untrack struct {
	MetricID uuid.UUID
}

func (c Untrack) apply(_ string, s State) (State, write, error) {
	if !s.IsTracked(c.MetricID) {
		return s, nil, fmt.Errorf("%w: %s", ErrNotTracked, c.MetricID)
	}
	return s.without(c.MetricID), func(ctx context.Context, store storage.TrackingStore, owner string) error {
		return store.UntrackMetric(ctx, owner, c.MetricID)
	}, nil
}

// SetBaseline changes the baseline of a tracked metric.
type SetBaseline struct {
	Metric   *models.Metric
	Baseline float64
}

func (c SetBaseline) apply(_ string, s State) (State, write, error) {
	current, ok := s.Lookup(c.Metric.ID)
	if !ok {
		return s, nil, fmt.Errorf("%w: %s", ErrNotTracked, c.Metric.Name)
	}
	if _, err := baselineFor(c.Metric, &c.Baseline); err != nil {
		return s, nil, err
	}
	current.Baseline = c.Baseline
	return s.replace(current), func(ctx context.Context, store storage.TrackingStore, owner string) error {
		return store.UpdateBaseline(ctx, owner, c.Metric.ID, c.Baseline)
	}, nil
}

// Toggle tracks an untracked metric with its default baseline, or untracks
// a tracked one.
type Toggle struct {
	Metric *models.Metric
}

func (c Toggle) apply(owner string, s State) (State, write, error) {
	if s.IsTracked(c.Metric.ID) {
		return Untrack{MetricID: c.Metric.ID}.apply(owner, s)
	}
	return Track{Metric: c.Metric}.apply(owner, s)
}

// baselineFor validates an explicit baseline or derives the default one.
func baselineFor(m *models.Metric, baseline *float64) (float64, error) {
	if baseline == nil {
		return codec.DefaultBaseline(m)
	}
	ok, err := codec.Contains(m, *baseline)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: baseline %s for %s", models.ErrOutOfDomain, codec.FormatValue(*baseline), m.Name)
	}
	return *baseline, nil
}

// Pending is an applied command that has not been persisted yet.
type Pending struct {
	Previous   State
	Optimistic State
	owner      string
	write      write
}

// Apply validates cmd against state and returns the state the owner should
// see immediately, plus the pending write that makes it durable.
func Apply(owner string, state State, cmd Command) (State, *Pending, error) {
	next, w, err := cmd.apply(owner, state)
	if err != nil {
		return state, nil, err
	}
	return next, &Pending{Previous: state, Optimistic: next, owner: owner, write: w}, nil
}

// Confirm persists the pending change. On success it returns the optimistic
// state; on failure it returns the previous state and the error.
func (p *Pending) Confirm(ctx context.Context, store storage.TrackingStore) (State, error) {
	if err := p.write(ctx, store, p.owner); err != nil {
		return p.Previous, err
	}
	return p.Optimistic, nil
}

// Categories splits the visible metrics the way the metric list shows them.
type Categories struct {
	Tracked []*models.Metric
	User    []*models.Metric
	System  []*models.Metric
}

// Categorize files every metric under Tracked, or else under User or System
// by owner. Each group is sorted by name.
func Categorize(metrics []*models.Metric, s State) Categories {
	var c Categories
	for _, m := range metrics {
		switch {
		case s.IsTracked(m.ID):
			c.Tracked = append(c.Tracked, m)
		case m.IsSystem():
			c.System = append(c.System, m)
		default:
			c.User = append(c.User, m)
		}
	}
	for _, group := range [][]*models.Metric{c.Tracked, c.User, c.System} {
		sort.SliceStable(group, func(i, j int) bool {
			return strings.ToLower(group[i].Name) < strings.ToLower(group[j].Name)
		})
	}
	return c
}
