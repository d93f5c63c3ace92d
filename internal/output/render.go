// ABOUTME: Renderers for entries, metric lists and metric details.
// ABOUTME: Each returns a string so commands and tests can share them.
package output

import (
	"fmt"
	"strings"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
	"github.com/harperreed/moody/internal/tracking"
)

// ShortMetricID is the prefix shown for metric IDs.
func ShortMetricID(m *models.Metric) string {
	return m.ID.String()[:8]
}

// ShortEntryID is the prefix shown for entry IDs.
func ShortEntryID(e *models.Entry) string {
	return e.ID.String()[:10]
}

// Entries renders entries one per row, newest first as given.
func Entries(entries []*models.Entry) string {
	if len(entries) == 0 {
		return "No entries found.\n"
	}

	t := NewTable("ID", "RECORDED", "VALUES", "COMMENT")
	for _, e := range entries {
		parts := make([]string, 0, len(e.Values))
		for _, v := range e.Values {
			if v.Metric == nil {
				parts = append(parts, fmt.Sprintf("%s=%s", v.MetricID.String()[:8], codec.FormatValue(v.Value)))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%s", v.Metric.Name, DisplayValue(v.Metric, v.Value)))
		}
		comment := ""
		if e.Comment != nil {
			comment = truncate(*e.Comment, 40)
		}
		t.AddRow(
			StyleMuted.Render(ShortEntryID(e)),
			e.RecordedAt.Local().Format("2006-01-02 15:04"),
			strings.Join(parts, ", "),
			comment,
		)
	}
	return t.Render()
}

// MetricList renders the tracked, user and system groups.
func MetricList(c tracking.Categories, s tracking.State) string {
	var sb strings.Builder
	section := func(title string, metrics []*models.Metric, showBaseline bool) {
		if len(metrics) == 0 {
			return
		}
		sb.WriteString(StyleBold.Render(title) + "\n")
		headers := []string{"ID", "NAME", "KIND", "VALUES"}
		if showBaseline {
			headers = append(headers, "BASELINE")
		}
		t := NewTable(headers...)
		for _, m := range metrics {
			row := []string{StyleMuted.Render(ShortMetricID(m)), m.Name, m.Type.HumanReadable(), Domain(m)}
			if showBaseline {
				if tr, ok := s.Lookup(m.ID); ok {
					row = append(row, DisplayValue(m, tr.Baseline))
				}
			}
			t.AddRow(row...)
		}
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	section("Tracked", c.Tracked, true)
	section("Your metrics", c.User, false)
	section("System metrics", c.System, false)
	if sb.Len() == 0 {
		return "No metrics found.\n"
	}
	return sb.String()
}

// MetricDetail renders one metric with its options.
func MetricDetail(m *models.Metric, tr *models.MetricTracking) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(m.Name) + "\n")
	fmt.Fprintf(&sb, "  ID:       %s\n", m.ID)
	fmt.Fprintf(&sb, "  Kind:     %s (%s)\n", m.Type.HumanReadable(), m.Type)
	owner := "you"
	if m.IsSystem() {
		owner = "system"
	}
	fmt.Fprintf(&sb, "  Owner:    %s\n", owner)
	if m.Description != "" {
		fmt.Fprintf(&sb, "  About:    %s\n", m.Description)
	}
	fmt.Fprintf(&sb, "  Values:   %s\n", Domain(m))
	if tr != nil {
		fmt.Fprintf(&sb, "  Baseline: %s\n", DisplayValue(m, tr.Baseline))
	} else {
		sb.WriteString("  " + StyleMuted.Render("not tracked") + "\n")
	}
	return sb.String()
}

// Options renders the selectable options of a metric.
func Options(m *models.Metric) (string, error) {
	opts, err := codec.OptionsFor(m)
	if err != nil {
		return "", err
	}
	t := NewTable("LABEL", "VALUE")
	for _, o := range opts {
		t.AddRow(o.Label, codec.FormatValue(o.Value))
	}
	return t.Render(), nil
}

// Domain summarizes which values a metric accepts.
func Domain(m *models.Metric) string {
	switch m.Type {
	case models.MetricContinuous:
		lo, hi, err := codec.Bounds(m)
		if err != nil {
			return "?"
		}
		return codec.FormatValue(lo) + ".." + codec.FormatValue(hi)
	case models.MetricEvent:
		return "yes/no"
	default:
		opts, err := codec.OptionsFor(m)
		if err != nil {
			return "?"
		}
		parts := make([]string, len(opts))
		for i, o := range opts {
			parts[i] = fmt.Sprintf("%s=%s", o.Label, codec.FormatValue(o.Value))
		}
		return strings.Join(parts, " ")
	}
}

// DisplayValue shows labeled metrics by label and measurements by number.
func DisplayValue(m *models.Metric, v float64) string {
	if m.Type == models.MetricContinuous {
		return codec.FormatValue(v)
	}
	label, err := codec.LabelFor(m, v)
	if err != nil {
		return codec.FormatValue(v)
	}
	return label
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
