// ABOUTME: Export and import of an owner's moody data.
// ABOUTME: Supports JSON (round-trippable), YAML and Markdown export formats.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
)

// ExportVersion is the current export document version.
const ExportVersion = "1.0"

// ExportData represents the full export format for an owner's data.
type ExportData struct {
	Version    string                   `json:"version" yaml:"version"`
	ExportedAt time.Time                `json:"exported_at" yaml:"exported_at"`
	Tool       string                   `json:"tool" yaml:"tool"`
	Owner      string                   `json:"owner" yaml:"owner"`
	Metrics    []*models.Metric         `json:"metrics" yaml:"metrics"`
	Tracking   []*models.MetricTracking `json:"tracking" yaml:"tracking"`
	Entries    []*models.Entry          `json:"entries" yaml:"entries"`
}

// ImportSummary counts what an import created.
type ImportSummary struct {
	Metrics  int
	Tracking int
	Entries  int
	Skipped  int
}

// Export gathers every metric visible to owner, their tracking and all of
// their entries, oldest entry first.
func Export(ctx context.Context, repo Repository, owner string) (*ExportData, error) {
	metrics, err := repo.ListMetrics(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	tracking, err := repo.FetchTrackedMetrics(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	entries, err := repo.FetchEntries(ctx, owner, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	// Values reference metrics by ID; the metrics are listed once above.
	out := make([]*models.Entry, len(entries))
	for i := range entries {
		e := *entries[len(entries)-1-i]
		values := make([]models.EntryValue, len(e.Values))
		for j, v := range e.Values {
			values[j] = models.EntryValue{MetricID: v.MetricID, Value: v.Value}
		}
		e.Values = values
		out[i] = &e
	}

	return &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now(),
		Tool:       "moody",
		Owner:      owner,
		Metrics:    metrics,
		Tracking:   tracking,
		Entries:    out,
	}, nil
}

// Import writes an export into repo under owner. Records that already exist
// are skipped, so importing the same file twice is harmless.
func Import(ctx context.Context, repo Repository, owner string, data *ExportData) (*ImportSummary, error) {
	summary := &ImportSummary{}

	for _, m := range data.Metrics {
		if _, err := repo.GetMetric(ctx, owner, m.ID.String()); err == nil {
			summary.Skipped++
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return summary, fmt.Errorf("import metric %s: %w", m.Name, err)
		}

		if !m.IsSystem() {
			m.OwnerID = owner
		}
		if err := repo.CreateMetric(ctx, m); err != nil {
			return summary, fmt.Errorf("import metric %s: %w", m.Name, err)
		}
		summary.Metrics++
	}

	for _, t := range data.Tracking {
		if t.Metric == nil {
			continue
		}
		t.OwnerID = owner
		if err := repo.TrackMetric(ctx, t); err != nil {
			return summary, fmt.Errorf("import tracking %s: %w", t.Metric.Name, err)
		}
		summary.Tracking++
	}

	for _, e := range data.Entries {
		if _, err := repo.GetEntry(ctx, owner, e.ID.String()); err == nil {
			summary.Skipped++
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return summary, fmt.Errorf("import entry %s: %w", e.ID, err)
		}

		e.OwnerID = owner
		if err := attachMetrics(ctx, repo, owner, e); err != nil {
			return summary, fmt.Errorf("import entry %s: %w", e.ID, err)
		}
		if err := repo.CreateEntry(ctx, e); err != nil {
			return summary, fmt.Errorf("import entry %s: %w", e.ID, err)
		}
		summary.Entries++
	}

	return summary, nil
}

// attachMetrics fills in each value's metric so its domain can be checked.
func attachMetrics(ctx context.Context, repo Repository, owner string, e *models.Entry) error {
	for i := range e.Values {
		if e.Values[i].Metric != nil {
			continue
		}
		m, err := repo.GetMetric(ctx, owner, e.Values[i].MetricID.String())
		if err != nil {
			return err
		}
		e.Values[i].Metric = m
	}
	return nil
}

// ExportJSON exports the owner's data as indented JSON.
func ExportJSON(ctx context.Context, repo Repository, owner string) ([]byte, error) {
	data, err := Export(ctx, repo, owner)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ImportJSON imports data from JSON bytes.
func ImportJSON(ctx context.Context, repo Repository, owner string, raw []byte) (*ImportSummary, error) {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return Import(ctx, repo, owner, &data)
}

// ExportYAML exports the owner's data as YAML, with values grouped under
// the name of their metric.
func ExportYAML(ctx context.Context, repo Repository, owner string) ([]byte, error) {
	data, err := Export(ctx, repo, owner)
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version    string                `yaml:"version"`
		ExportedAt string                `yaml:"exported_at"`
		Tool       string                `yaml:"tool"`
		Owner      string                `yaml:"owner"`
		Metrics    map[string]yamlMetric `yaml:"metrics"`
		Comments   []yamlComment         `yaml:"comments,omitempty"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Owner:      data.Owner,
		Metrics:    make(map[string]yamlMetric),
	}

	byID := make(map[string]*models.Metric, len(data.Metrics))
	for _, m := range data.Metrics {
		byID[m.ID.String()] = m
		ym := yamlMetric{Type: string(m.Type), Description: m.Description, Labels: m.Labels}
		if m.Type == models.MetricContinuous {
			ym.Min, ym.Max = m.MinValue, m.MaxValue
		}
		yamlData.Metrics[m.Name] = ym
	}
	for _, t := range data.Tracking {
		ym := yamlData.Metrics[t.Metric.Name]
		baseline := t.Baseline
		ym.Baseline = &baseline
		yamlData.Metrics[t.Metric.Name] = ym
	}

	for _, e := range data.Entries {
		recorded := e.RecordedAt.Format(time.RFC3339)
		for _, v := range e.Values {
			m, ok := byID[v.MetricID.String()]
			if !ok {
				continue
			}
			yv := yamlValue{EntryID: e.ID.String()[:10], RecordedAt: recorded, Value: v.Value}
			if label, err := codec.LabelFor(m, v.Value); err == nil && m.Type != models.MetricContinuous {
				yv.Label = label
			}
			ym := yamlData.Metrics[m.Name]
			ym.Values = append(ym.Values, yv)
			yamlData.Metrics[m.Name] = ym
		}
		if e.Comment != nil && *e.Comment != "" {
			yamlData.Comments = append(yamlData.Comments, yamlComment{RecordedAt: recorded, Text: *e.Comment})
		}
	}

	return yaml.Marshal(yamlData)
}

type yamlMetric struct {
	Type        string             `yaml:"type"`
	Description string             `yaml:"description,omitempty"`
	Labels      map[string]float64 `yaml:"labels,omitempty"`
	Min         *float64           `yaml:"min,omitempty"`
	Max         *float64           `yaml:"max,omitempty"`
	Baseline    *float64           `yaml:"baseline,omitempty"`
	Values      []yamlValue        `yaml:"values,omitempty"`
}

type yamlValue struct {
	EntryID    string  `yaml:"entry"`
	RecordedAt string  `yaml:"recorded_at"`
	Value      float64 `yaml:"value"`
	Label      string  `yaml:"label,omitempty"`
}

type yamlComment struct {
	RecordedAt string `yaml:"recorded_at"`
	Text       string `yaml:"text"`
}

// ExportMarkdown exports the owner's entries as a Markdown table with one
// column per metric seen. A non-nil since drops entries recorded before it.
func ExportMarkdown(ctx context.Context, repo Repository, owner string, since *time.Time) (string, error) {
	data, err := Export(ctx, repo, owner)
	if err != nil {
		return "", err
	}

	entries := data.Entries
	if since != nil {
		var filtered []*models.Entry
		for _, e := range entries {
			if !e.RecordedAt.Before(*since) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	byID := make(map[string]*models.Metric, len(data.Metrics))
	for _, m := range data.Metrics {
		byID[m.ID.String()] = m
	}
	seen := make(map[string]*models.Metric)
	for _, e := range entries {
		for _, v := range e.Values {
			if m, ok := byID[v.MetricID.String()]; ok {
				seen[m.ID.String()] = m
			}
		}
	}
	columns := make([]*models.Metric, 0, len(seen))
	for _, m := range seen {
		columns = append(columns, m)
	}
	sort.Slice(columns, func(i, j int) bool {
		return strings.ToLower(columns[i].Name) < strings.ToLower(columns[j].Name)
	})

	var sb strings.Builder
	now := time.Now()
	sb.WriteString(fmt.Sprintf("# Moody Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if len(entries) == 0 {
		sb.WriteString("No entries.\n")
		return sb.String(), nil
	}

	header := []string{"Date"}
	divider := []string{"------"}
	for _, m := range columns {
		header = append(header, m.Name)
		divider = append(divider, strings.Repeat("-", len(m.Name)))
	}
	header = append(header, "Comment")
	divider = append(divider, "-------")
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sb.WriteString("|" + strings.Join(divider, "|") + "|\n")

	for _, e := range entries {
		row := []string{e.RecordedAt.Format("2006-01-02 15:04")}
		for _, m := range columns {
			cell := ""
			if v, ok := e.Value(m.ID); ok {
				cell = displayValue(m, v)
			}
			row = append(row, cell)
		}
		comment := ""
		if e.Comment != nil {
			comment = strings.ReplaceAll(*e.Comment, "|", "\\|")
		}
		row = append(row, comment)
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	return sb.String(), nil
}

// displayValue shows labeled metrics by label and measurements by number.
func displayValue(m *models.Metric, v float64) string {
	if m.Type == models.MetricContinuous {
		return codec.FormatValue(v)
	}
	label, err := codec.LabelFor(m, v)
	if err != nil {
		return codec.FormatValue(v)
	}
	return label
}
