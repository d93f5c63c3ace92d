// ABOUTME: Renderers for statistics, daily charts, distributions and heatmaps.
// ABOUTME: Heatmap cells take their colors from the analytics gradient.
package output

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/moody/internal/analytics"
	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
)

// Stats renders per-metric summaries followed by notable correlations.
func Stats(r analytics.Report) string {
	if len(r.PerMetric) == 0 {
		return "No data yet.\n"
	}

	var sb strings.Builder
	t := NewTable("METRIC", "COUNT", "AVG", "MIN", "MAX", "30D", "TREND")
	for _, s := range r.PerMetric {
		t.AddRow(
			s.Metric.Name,
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%.2f", s.Average),
			codec.FormatValue(s.Min),
			codec.FormatValue(s.Max),
			fmt.Sprintf("%.2f", s.RecentAverage),
			trend(s),
		)
	}
	sb.WriteString(t.Render())

	if len(r.Correlations) > 0 {
		sb.WriteString("\n" + StyleBold.Render("Correlations") + "\n")
		c := NewTable("METRICS", "R", "STRENGTH", "SAMPLES")
		for _, cr := range r.Correlations {
			c.AddRow(
				cr.MetricA.Name+" ~ "+cr.MetricB.Name,
				fmt.Sprintf("%+.2f", cr.Coefficient),
				string(cr.Strength),
				fmt.Sprintf("%d", cr.Samples),
			)
		}
		sb.WriteString(c.Render())
	}
	return sb.String()
}

func trend(s analytics.MetricStats) string {
	switch s.Trend {
	case analytics.TrendUp:
		return StyleUp.Render(fmt.Sprintf("↑ %+.1f%%", s.TrendPercentage))
	case analytics.TrendDown:
		return StyleDown.Render(fmt.Sprintf("↓ %+.1f%%", s.TrendPercentage))
	default:
		return StyleMuted.Render("→ stable")
	}
}

// Overview renders the headline numbers.
func Overview(o analytics.Overview) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Entries:          %d\n", o.TotalEntries)
	fmt.Fprintf(&sb, "Tracked metrics:  %d\n", o.TrackedMetrics)
	fmt.Fprintf(&sb, "Last 7 days:      %d\n", o.EntriesLastWeek)
	if !o.FirstEntry.IsZero() {
		fmt.Fprintf(&sb, "First entry:      %s (%d days ago)\n", o.FirstEntry.Local().Format("2006-01-02"), o.DaysSinceFirst)
		fmt.Fprintf(&sb, "Per week:         %.1f\n", o.AveragePerWeek)
	}
	return sb.String()
}

// Chart renders one row per day with a column per metric. Days without a
// value show a dash.
func Chart(series analytics.ChartSeries) string {
	if len(series.Metrics) == 0 {
		return "No metrics to chart.\n"
	}
	headers := []string{"DAY"}
	for _, m := range series.Metrics {
		headers = append(headers, strings.ToUpper(m.Name))
	}
	t := NewTable(headers...)
	for _, p := range series.Points {
		row := []string{p.Day}
		for _, m := range series.Metrics {
			v, ok := p.Value(m.ID)
			if !ok {
				row = append(row, StyleMuted.Render("-"))
				continue
			}
			row = append(row, dailyValue(m, v))
		}
		t.AddRow(row...)
	}
	return t.Render()
}

// dailyValue shows a day's mean; only whole means of labeled metrics get a label.
func dailyValue(m *models.Metric, v float64) string {
	if m.Type != models.MetricContinuous && v == math.Trunc(v) {
		return DisplayValue(m, v)
	}
	return fmt.Sprintf("%.2f", v)
}

// Distribution renders each option's share with a bar.
func Distribution(m *models.Metric, slices []analytics.Slice) string {
	if len(slices) == 0 {
		return fmt.Sprintf("No values recorded for %s.\n", m.Name)
	}
	t := NewTable("VALUE", "COUNT", "SHARE", "")
	for _, s := range slices {
		bar := strings.Repeat("█", int(math.Round(s.Percentage/5)))
		t.AddRow(s.Label, fmt.Sprintf("%d", s.Count), fmt.Sprintf("%.1f%%", s.Percentage), StyleHeader.Render(bar))
	}
	return t.Render()
}

// Heatmap renders a year as twelve rows of days, two cells per day. A day
// with several values shows its first and last.
func Heatmap(h analytics.Heatmap) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(fmt.Sprintf("%s %d", h.Metric.Name, h.Year)) + "\n")

	sb.WriteString("    ")
	for d := 1; d <= 31; d++ {
		if d == 1 || d%5 == 0 {
			sb.WriteString(fmt.Sprintf("%-2d", d))
			continue
		}
		sb.WriteString("  ")
	}
	sb.WriteString("\n")

	for i, days := range h.Months() {
		sb.WriteString(time.Month(i + 1).String()[:3] + " ")
		for _, b := range days {
			sb.WriteString(heatmapCell(h, b, noColor))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(legend(h, noColor))
	return sb.String()
}

// heatmapCell renders one day. Without color, glyphs stand in for the
// gradient: - below the midpoint, + above, = at it and o for zero.
func heatmapCell(h analytics.Heatmap, b analytics.DayBucket, plain bool) string {
	if !b.HasData() {
		return StyleMuted.Render("··")
	}
	first, last := b.Values[0], b.Values[len(b.Values)-1]
	if plain {
		return glyph(h, first) + glyph(h, last)
	}
	return block(analytics.Color(first, h.Min, h.Max)) + block(analytics.Color(last, h.Min, h.Max))
}

func block(c analytics.RGB) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("█")
}

func glyph(h analytics.Heatmap, v float64) string {
	if v == 0 {
		return "o"
	}
	normalized := 0.5
	if h.Max != h.Min {
		normalized = (v - h.Min) / (h.Max - h.Min)
	}
	switch {
	case normalized < 0.5:
		return "-"
	case normalized > 0.5:
		return "+"
	default:
		return "="
	}
}

func legend(h analytics.Heatmap, plain bool) string {
	lo, hi := codec.FormatValue(h.Min), codec.FormatValue(h.Max)
	if plain {
		return fmt.Sprintf("\n- low (%s)  + high (%s)  o zero  ·· no data\n", lo, hi)
	}
	var sb strings.Builder
	sb.WriteString("\n" + lo + " ")
	for i := 0; i <= 8; i++ {
		v := h.Min + (h.Max-h.Min)*float64(i)/8
		// zero has its own swatch
		if v == 0 {
			v = math.SmallestNonzeroFloat64
		}
		sb.WriteString(block(analytics.Color(v, h.Min, h.Max)))
	}
	sb.WriteString(" " + hi + "   " + block(analytics.NeutralColor) + " zero  " + StyleMuted.Render("··") + " no data\n")
	return sb.String()
}
