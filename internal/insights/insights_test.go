// ABOUTME: Tests for the insights loader and snapshot views.
// ABOUTME: Uses an in-memory fetcher to exercise concurrency and errors.
package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/moody/internal/logging"
	"github.com/harperreed/moody/internal/models"
)

type fakeFetcher struct {
	entries    []*models.Entry
	tracked    []*models.MetricTracking
	entriesErr error
	trackedErr error
	gotStart   time.Time
	gotEnd     time.Time
}

func (f *fakeFetcher) FetchEntries(ctx context.Context, owner string, start, end time.Time) ([]*models.Entry, error) {
	f.gotStart, f.gotEnd = start, end
	if f.entriesErr != nil {
		return nil, f.entriesErr
	}
	return f.entries, nil
}

func (f *fakeFetcher) FetchTrackedMetrics(ctx context.Context, owner string) ([]*models.MetricTracking, error) {
	if f.trackedErr != nil {
		return nil, f.trackedErr
	}
	return f.tracked, ctx.Err()
}

func fixture(t *testing.T) (*fakeFetcher, *models.Metric) {
	t.Helper()
	mood := models.NewMetric("Mood", models.MetricDiscrete).
		WithLabels(map[string]float64{"Depressed": -1, "Neutral": 0, "Happy": 1}).
		WithOwner(models.SystemOwner)

	var entries []*models.Entry
	for i, v := range []float64{1, 1, 0, -1} {
		e := models.NewEntry("alice").WithRecordedAt(time.Date(2024, 6, 1+i, 12, 0, 0, 0, time.UTC))
		if err := e.AddValue(mood, v); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}
		entries = append(entries, e)
	}
	return &fakeFetcher{
		entries: entries,
		tracked: []*models.MetricTracking{models.NewMetricTracking("alice", mood, 0)},
	}, mood
}

func newLoader(f *fakeFetcher) *Loader {
	return NewLoader(f, logging.Discard(), time.UTC)
}

func TestLoadSnapshot(t *testing.T) {
	f, mood := fixture(t)
	window := Year(2024, time.UTC)

	snap, err := newLoader(f).Load(context.Background(), "alice", window)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Entries) != 4 || len(snap.Tracked) != 1 {
		t.Fatalf("unexpected snapshot sizes: %d entries, %d tracked", len(snap.Entries), len(snap.Tracked))
	}
	if !f.gotStart.Equal(window.Start) || !f.gotEnd.Equal(window.End) {
		t.Errorf("window not passed through: %v..%v", f.gotStart, f.gotEnd)
	}

	series := snap.Daily(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	if len(series.Points) != 5 {
		t.Errorf("expected 5 daily points, got %d", len(series.Points))
	}
	if _, ok := series.Points[4].Value(mood.ID); ok {
		t.Error("June 5 has no entry and should be empty")
	}

	slices, err := snap.Distribution(mood)
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}
	if len(slices) == 0 || slices[0].Label != "Happy" || slices[0].Count != 2 {
		t.Errorf("unexpected distribution: %+v", slices)
	}

	hm, err := snap.Heatmap(mood, 2024)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	if len(hm.Days) != 366 {
		t.Errorf("2024 heatmap should have 366 days, got %d", len(hm.Days))
	}

	if got := snap.Months(); len(got) != 1 || got[0] != "2024-06" {
		t.Errorf("Months() = %v", got)
	}
	if got := snap.Years(); len(got) != 1 || got[0] != 2024 {
		t.Errorf("Years() = %v", got)
	}

	ov := snap.Overview(time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC))
	if ov.TotalEntries != 4 || ov.TrackedMetrics != 1 {
		t.Errorf("unexpected overview: %+v", ov)
	}
}

func TestLoadPropagatesErrors(t *testing.T) {
	boom := errors.New("disk on fire")

	tests := []struct {
		name string
		f    *fakeFetcher
	}{
		{"entries", &fakeFetcher{entriesErr: boom}},
		{"tracked", &fakeFetcher{trackedErr: boom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newLoader(tt.f).Load(context.Background(), "alice", All)
			if !errors.Is(err, boom) {
				t.Errorf("expected wrapped fetch error, got %v", err)
			}
		})
	}
}

func TestLoadHonorsCancellation(t *testing.T) {
	f, _ := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newLoader(f).Load(ctx, "alice", All); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWindows(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if w := Since(at); !w.Start.Equal(at) || !w.End.IsZero() {
		t.Errorf("Since() = %+v", w)
	}
	w := Year(2023, time.UTC)
	if w.Start.Year() != 2023 || w.End.Year() != 2024 || w.End.YearDay() != 1 {
		t.Errorf("Year() = %+v", w)
	}
	if !All.Start.IsZero() || !All.End.IsZero() {
		t.Errorf("All should be unbounded")
	}

	d := Days(time.Date(2024, 2, 27, 15, 30, 0, 0, time.UTC), time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	if !d.Start.Equal(time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)) || !d.End.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Days() = %+v", d)
	}
}
