// ABOUTME: Loads an owner's entries and tracked metrics into an immutable snapshot.
// ABOUTME: The two fetches run concurrently; analytics run on the snapshot.
package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/moody/internal/analytics"
	"github.com/harperreed/moody/internal/models"
	"github.com/harperreed/moody/internal/storage"
)

// Window bounds the entries loaded, as [Start, End). Zero sides are open.
type Window struct {
	Start time.Time
	End   time.Time
}

// All loads every entry.
var All = Window{}

// Since loads entries recorded at or after t.
func Since(t time.Time) Window {
	return Window{Start: t}
}

// Year loads the calendar year in loc.
func Year(year int, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(1, 0, 0)}
}

// Days loads the calendar days first through last, inclusive, in the
// location of first.
func Days(first, last time.Time) Window {
	loc := first.Location()
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	last = last.In(loc)
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return Window{Start: start, End: end}
}

// Snapshot is a consistent read of an owner's data. It is not modified after
// Load returns.
type Snapshot struct {
	Owner    string
	Window   Window
	Entries  []*models.Entry
	Tracked  []*models.MetricTracking
	Location *time.Location
}

// Loader fetches snapshots.
type Loader struct {
	fetcher storage.Fetcher
	log     logrus.FieldLogger
	loc     *time.Location
}

// NewLoader creates a loader reading from fetcher. Days are bucketed in loc;
// nil means time.Local.
func NewLoader(fetcher storage.Fetcher, log logrus.FieldLogger, loc *time.Location) *Loader {
	if loc == nil {
		loc = time.Local
	}
	return &Loader{fetcher: fetcher, log: log, loc: loc}
}

// Load fetches entries in the window and the owner's tracked metrics.
func (l *Loader) Load(ctx context.Context, owner string, window Window) (*Snapshot, error) {
	var (
		entries []*models.Entry
		tracked []*models.MetricTracking
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = l.fetcher.FetchEntries(gctx, owner, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("load entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tracked, err = l.fetcher.FetchTrackedMetrics(gctx, owner)
		if err != nil {
			return fmt.Errorf("load tracked metrics: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"owner":   owner,
		"entries": len(entries),
		"tracked": len(tracked),
	}).Debug("loaded insights snapshot")

	return &Snapshot{
		Owner:    owner,
		Window:   window,
		Entries:  entries,
		Tracked:  tracked,
		Location: l.loc,
	}, nil
}

// Load is a convenience wrapper for a one-off snapshot in time.Local.
func Load(ctx context.Context, fetcher storage.Fetcher, owner string, window Window) (*Snapshot, error) {
	return NewLoader(fetcher, logrus.StandardLogger(), nil).Load(ctx, owner, window)
}

// Stats computes per-metric statistics and correlations as of now.
func (s *Snapshot) Stats(now time.Time) analytics.Report {
	return analytics.ComputeStatsAt(s.Entries, s.Tracked, now)
}

// Daily aggregates the snapshot into one point per day in [start, end].
func (s *Snapshot) Daily(start, end time.Time) analytics.ChartSeries {
	return analytics.AggregateDaily(s.Entries, s.Tracked, start.In(s.Location), end.In(s.Location))
}

// Month aggregates a "YYYY-MM" month.
func (s *Snapshot) Month(month string) (analytics.ChartSeries, error) {
	return analytics.AggregateMonth(s.Entries, s.Tracked, month, s.Location)
}

// Heatmap projects one metric over a calendar year.
func (s *Snapshot) Heatmap(metric *models.Metric, year int) (analytics.Heatmap, error) {
	return analytics.BuildHeatmap(s.Entries, metric, year, s.Location)
}

// Distribution counts how often each option of a metric was recorded.
func (s *Snapshot) Distribution(metric *models.Metric) ([]analytics.Slice, error) {
	return analytics.Distribution(s.Entries, metric)
}

// Overview summarizes logging activity as of now.
func (s *Snapshot) Overview(now time.Time) analytics.Overview {
	return analytics.ComputeOverview(s.Entries, s.Tracked, now)
}

// Configs returns chart settings for the tracked metrics.
func (s *Snapshot) Configs() []analytics.MetricConfig {
	return analytics.MetricConfigs(s.Tracked)
}

// Months lists the "YYYY-MM" months that have entries.
func (s *Snapshot) Months() []string {
	return analytics.AvailableMonths(s.Entries, s.Location)
}

// Years lists the years that have entries.
func (s *Snapshot) Years() []int {
	return analytics.AvailableYears(s.Entries, s.Location)
}
