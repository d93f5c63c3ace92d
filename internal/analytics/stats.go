// ABOUTME: Statistics engine: per-metric summary, 30-day trend and correlations.
// ABOUTME: Pure functions over an already fetched entry snapshot.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/moody/internal/models"
)

// Trend is the direction of a metric's recent window against the prior one.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Strength classifies the magnitude of a correlation.
type Strength string

const (
	StrengthStrong   Strength = "strong"
	StrengthModerate Strength = "moderate"
	StrengthWeak     Strength = "weak"
)

// Tuning constants for trend and correlation reporting.
const (
	TrendWindowDays      = 30
	TrendThreshold       = 5.0
	MinPairedSamples     = 3
	CorrelationThreshold = 0.2
	StrongCorrelation    = 0.7
	ModerateCorrelation  = 0.4
)

// MetricStats summarizes every value recorded for one metric.
type MetricStats struct {
	Metric          *models.Metric `json:"metric" yaml:"metric"`
	Count           int            `json:"count" yaml:"count"`
	Average         float64        `json:"average" yaml:"average"`
	Min             float64        `json:"min" yaml:"min"`
	Max             float64        `json:"max" yaml:"max"`
	RecentAverage   float64        `json:"recent_average" yaml:"recent_average"`
	PreviousAverage float64        `json:"previous_average" yaml:"previous_average"`
	Trend           Trend          `json:"trend" yaml:"trend"`
	TrendPercentage float64        `json:"trend_percentage" yaml:"trend_percentage"`
}

// CorrelationResult is the Pearson correlation of two metrics over the
// entries that carry both.
type CorrelationResult struct {
	MetricA     *models.Metric `json:"metric_a" yaml:"metric_a"`
	MetricB     *models.Metric `json:"metric_b" yaml:"metric_b"`
	Coefficient float64        `json:"correlation" yaml:"correlation"`
	Strength    Strength       `json:"strength" yaml:"strength"`
	Samples     int            `json:"samples" yaml:"samples"`
}

// Report is the output of ComputeStats.
type Report struct {
	PerMetric    []MetricStats       `json:"per_metric" yaml:"per_metric"`
	Correlations []CorrelationResult `json:"correlations" yaml:"correlations"`
}

// ComputeStats is ComputeStatsAt anchored to the current time.
func ComputeStats(entries []*models.Entry, tracked []*models.MetricTracking) Report {
	return ComputeStatsAt(entries, tracked, time.Now())
}

// ComputeStatsAt computes per-metric statistics with trend windows anchored
// at now, plus every surfaced correlation sorted by strength. Metrics with no
// recorded values are omitted.
func ComputeStatsAt(entries []*models.Entry, tracked []*models.MetricTracking, now time.Time) Report {
	recentStart := now.AddDate(0, 0, -TrendWindowDays)
	previousStart := now.AddDate(0, 0, -2*TrendWindowDays)

	type samples struct {
		all, recent, previous []float64
	}
	byMetric := make(map[uuid.UUID]*samples)
	for _, e := range entries {
		for _, v := range e.Values {
			s, ok := byMetric[v.MetricID]
			if !ok {
				s = &samples{}
				byMetric[v.MetricID] = s
			}
			s.all = append(s.all, v.Value)
			switch {
			case !e.RecordedAt.Before(recentStart):
				s.recent = append(s.recent, v.Value)
			case !e.RecordedAt.Before(previousStart):
				s.previous = append(s.previous, v.Value)
			}
		}
	}

	metrics := collectMetrics(entries, tracked)
	sortMetrics(metrics)

	report := Report{PerMetric: []MetricStats{}, Correlations: []CorrelationResult{}}
	var logged []*models.Metric
	for _, m := range metrics {
		s, ok := byMetric[m.ID]
		if !ok || len(s.all) == 0 {
			continue
		}
		logged = append(logged, m)
		report.PerMetric = append(report.PerMetric, summarize(m, s.all, s.recent, s.previous))
	}

	for i := 0; i < len(logged); i++ {
		for j := i + 1; j < len(logged); j++ {
			res, ok := Correlate(entries, logged[i], logged[j])
			if !ok || math.Abs(res.Coefficient) <= CorrelationThreshold {
				continue
			}
			report.Correlations = append(report.Correlations, res)
		}
	}
	SortCorrelations(report.Correlations)
	return report
}

func summarize(m *models.Metric, all, recent, previous []float64) MetricStats {
	st := MetricStats{
		Metric:  m,
		Count:   len(all),
		Average: mean(all),
		Min:     all[0],
		Max:     all[0],
		Trend:   TrendStable,
	}
	for _, v := range all[1:] {
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}

	st.RecentAverage = st.Average
	if len(recent) > 0 {
		st.RecentAverage = mean(recent)
	}
	st.PreviousAverage = st.Average
	if len(previous) > 0 {
		st.PreviousAverage = mean(previous)
	}

	st.Trend, st.TrendPercentage = classifyTrend(st.RecentAverage, st.PreviousAverage, len(previous) > 0)
	return st
}

// classifyTrend compares two window averages. Without previous samples, or
// with a zero previous average, there is no baseline and the trend is stable.
func classifyTrend(recent, previous float64, hasPrevious bool) (Trend, float64) {
	if !hasPrevious || previous == 0 {
		return TrendStable, 0
	}
	change := (recent - previous) * 100 / previous
	switch {
	case change > TrendThreshold:
		return TrendUp, math.Abs(change)
	case change < -TrendThreshold:
		return TrendDown, math.Abs(change)
	default:
		return TrendStable, math.Abs(change)
	}
}

// Pearson returns the correlation coefficient of x and y. ok is false when
// the series differ in length, hold fewer than MinPairedSamples points, or
// either has zero variance. The result is clamped to [-1, 1].
func Pearson(x, y []float64) (float64, bool) {
	n := len(x)
	if n != len(y) || n < MinPairedSamples {
		return 0, false
	}

	if constant(x) || constant(y) {
		return 0, false
	}

	fn := float64(n)
	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= fn
	meanY /= fn

	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx <= 0 || syy <= 0 {
		return 0, false
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

// constant reports whether every value equals the first.
func constant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}

// Correlate pairs the values of a and b by entry and correlates them.
// A metric is never correlated with itself.
func Correlate(entries []*models.Entry, a, b *models.Metric) (CorrelationResult, bool) {
	if a == nil || b == nil || a.ID == b.ID {
		return CorrelationResult{}, false
	}

	var xs, ys []float64
	for _, e := range entries {
		x, okX := entryMean(e, a.ID)
		y, okY := entryMean(e, b.ID)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}

	r, ok := Pearson(xs, ys)
	if !ok {
		return CorrelationResult{}, false
	}
	return CorrelationResult{
		MetricA:     a,
		MetricB:     b,
		Coefficient: r,
		Strength:    StrengthOf(r),
		Samples:     len(xs),
	}, true
}

// StrengthOf labels a coefficient by its magnitude.
func StrengthOf(r float64) Strength {
	abs := math.Abs(r)
	switch {
	case abs >= StrongCorrelation:
		return StrengthStrong
	case abs >= ModerateCorrelation:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// SortCorrelations orders results by |r| descending, then by metric names.
func SortCorrelations(results []CorrelationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ai, aj := math.Abs(results[i].Coefficient), math.Abs(results[j].Coefficient)
		if ai != aj {
			return ai > aj
		}
		if results[i].MetricA.Name != results[j].MetricA.Name {
			return results[i].MetricA.Name < results[j].MetricA.Name
		}
		return results[i].MetricB.Name < results[j].MetricB.Name
	})
}

// entryMean averages every value an entry holds for metricID. Entries built
// through models.Entry.AddValue hold at most one.
func entryMean(e *models.Entry, metricID uuid.UUID) (float64, bool) {
	var sum float64
	var n int
	for _, v := range e.Values {
		if v.MetricID == metricID {
			sum += v.Value
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
