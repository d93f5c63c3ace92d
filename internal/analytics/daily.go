// ABOUTME: Daily aggregation of entries into a dense per-metric time series.
// ABOUTME: Same-day values are averaged and days without data stay as gaps.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/moody/internal/models"
)

// DayLayout is the calendar-day key format used across analytics output.
const DayLayout = "2006-01-02"

// MonthLayout is the month key format used by the monthly chart.
const MonthLayout = "2006-01"

// DataPoint is one calendar day of a ChartSeries. A nil value means the
// metric was not logged that day, which is distinct from a logged zero.
type DataPoint struct {
	Date   time.Time              `json:"-" yaml:"-"`
	Day    string                 `json:"date" yaml:"date"`
	Values map[uuid.UUID]*float64 `json:"values" yaml:"values"`
}

// Value returns the mean value of metricID on this day, if logged.
func (p DataPoint) Value(metricID uuid.UUID) (float64, bool) {
	v := p.Values[metricID]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// ChartSeries is a dense daily series covering every day of its range.
type ChartSeries struct {
	Metrics []*models.Metric `json:"metrics" yaml:"metrics"`
	Points  []DataPoint      `json:"points" yaml:"points"`
}

// AggregateDaily buckets entries by calendar day in start's location and
// emits one point per day in [start, end], both ends inclusive. Every metric
// of the tracked set, plus any metric seen in an entry, is a key of every
// point.
func AggregateDaily(entries []*models.Entry, tracked []*models.MetricTracking, start, end time.Time) ChartSeries {
	loc := start.Location()
	first := startOfDay(start, loc)
	last := startOfDay(end, loc)

	metrics := collectMetrics(entries, tracked)
	series := ChartSeries{Metrics: metrics, Points: []DataPoint{}}
	if last.Before(first) {
		return series
	}

	firstKey, lastKey := first.Format(DayLayout), last.Format(DayLayout)
	buckets := make(map[string]map[uuid.UUID][]float64)
	for _, e := range entries {
		key := e.RecordedAt.In(loc).Format(DayLayout)
		if key < firstKey || key > lastKey {
			continue
		}
		day, ok := buckets[key]
		if !ok {
			day = make(map[uuid.UUID][]float64)
			buckets[key] = day
		}
		for _, v := range e.Values {
			day[v.MetricID] = append(day[v.MetricID], v.Value)
		}
	}

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(DayLayout)
		point := DataPoint{
			Date:   d,
			Day:    key,
			Values: make(map[uuid.UUID]*float64, len(metrics)),
		}
		day := buckets[key]
		for _, m := range metrics {
			values := day[m.ID]
			if len(values) == 0 {
				point.Values[m.ID] = nil
				continue
			}
			avg := mean(values)
			point.Values[m.ID] = &avg
		}
		series.Points = append(series.Points, point)
	}
	return series
}

// MonthRange returns the first and last calendar day of month ("2006-01").
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(MonthLayout, month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse month %q: %w", month, err)
	}
	return t, t.AddDate(0, 1, -1), nil
}

// AggregateMonth is AggregateDaily over one calendar month.
func AggregateMonth(entries []*models.Entry, tracked []*models.MetricTracking, month string, loc *time.Location) (ChartSeries, error) {
	start, end, err := MonthRange(month, loc)
	if err != nil {
		return ChartSeries{}, err
	}
	return AggregateDaily(entries, tracked, start, end), nil
}

// AvailableMonths lists the distinct months that have entries, ascending.
func AvailableMonths(entries []*models.Entry, loc *time.Location) []string {
	return distinctKeys(entries, loc, MonthLayout)
}

// AvailableYears lists the distinct years that have entries, ascending.
func AvailableYears(entries []*models.Entry, loc *time.Location) []int {
	seen := make(map[int]struct{})
	for _, e := range entries {
		seen[inLocation(e.RecordedAt, loc).Year()] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func distinctKeys(entries []*models.Entry, loc *time.Location, layout string) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		seen[inLocation(e.RecordedAt, loc).Format(layout)] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// collectMetrics returns the tracked metrics in tracking order followed by
// any other metric referenced by an entry, sorted by name.
func collectMetrics(entries []*models.Entry, tracked []*models.MetricTracking) []*models.Metric {
	seen := make(map[uuid.UUID]struct{})
	var out []*models.Metric
	for _, t := range tracked {
		if t == nil || t.Metric == nil {
			continue
		}
		if _, ok := seen[t.Metric.ID]; ok {
			continue
		}
		seen[t.Metric.ID] = struct{}{}
		out = append(out, t.Metric)
	}

	var extra []*models.Metric
	for _, e := range entries {
		for _, v := range e.Values {
			if _, ok := seen[v.MetricID]; ok {
				continue
			}
			seen[v.MetricID] = struct{}{}
			extra = append(extra, metricOf(v))
		}
	}
	sortMetrics(extra)
	return append(out, extra...)
}

// metricOf returns the joined metric of v, or a placeholder named by ID.
func metricOf(v models.EntryValue) *models.Metric {
	if v.Metric != nil {
		return v.Metric
	}
	return &models.Metric{ID: v.MetricID, Name: v.MetricID.String()}
}

func sortMetrics(metrics []*models.Metric) {
	sort.SliceStable(metrics, func(i, j int) bool {
		if metrics[i].Name != metrics[j].Name {
			return metrics[i].Name < metrics[j].Name
		}
		return metrics[i].ID.String() < metrics[j].ID.String()
	})
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t.Local()
	}
	return t.In(loc)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
