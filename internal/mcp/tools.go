// ABOUTME: MCP tool implementations for moody.
// ABOUTME: Entry logging, metric lookup and the analytics views.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/moody/internal/analytics"
	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/insights"
	"github.com/harperreed/moody/internal/models"
	"github.com/harperreed/moody/internal/storage"
	"github.com/harperreed/moody/internal/tracking"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_entry",
		Description: "Log an entry with one value per metric (labels like 'Happy' or numbers)",
	}, s.handleAddEntry)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_entries",
		Description: "List recent entries, newest first",
	}, s.handleListEntries)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_entry",
		Description: "Delete an entry by ID or ID prefix",
	}, s.handleDeleteEntry)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_metrics",
		Description: "List tracked, personal and system metrics",
	}, s.handleListMetrics)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "metric_options",
		Description: "Show the values a metric accepts",
	}, s.handleMetricOptions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_stats",
		Description: "Per-metric averages, 30 day trends and correlations",
	}, s.handleGetStats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_chart",
		Description: "Daily averages per metric for a month or a date range",
	}, s.handleGetChart)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_heatmap",
		Description: "Calendar heatmap of one metric over a year",
	}, s.handleGetHeatmap)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_distribution",
		Description: "How often each value of a metric was logged",
	}, s.handleGetDistribution)
}

// Tool input/output types

type addEntryInput struct {
	Values        map[string]string `json:"values" jsonschema:"metric name or ID prefix mapped to a label or number"`
	RecordedAt    string            `json:"recorded_at,omitempty" jsonschema:"timestamp (ISO 8601), defaults to now"`
	Comment       string            `json:"comment,omitempty" jsonschema:"optional comment"`
	FillBaselines bool              `json:"fill_baselines,omitempty" jsonschema:"fill other tracked metrics with their baselines"`
}

type valueOutput struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Label  string  `json:"label,omitempty"`
}

type entryOutput struct {
	ID         string        `json:"id"`
	RecordedAt string        `json:"recorded_at"`
	Values     []valueOutput `json:"values"`
	Comment    string        `json:"comment,omitempty"`
	Message    string        `json:"message,omitempty"`
}

type listEntriesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max results (default 20)"`
}

type idInput struct {
	ID string `json:"id" jsonschema:"entry ID or prefix"`
}

type metricInput struct {
	Metric string `json:"metric" jsonschema:"metric name or ID prefix"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type metricOutput struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Kind     string   `json:"kind"`
	System   bool     `json:"system"`
	Baseline *float64 `json:"baseline,omitempty"`
}

type metricsOutput struct {
	Tracked []metricOutput `json:"tracked"`
	User    []metricOutput `json:"user"`
	System  []metricOutput `json:"system"`
}

type optionOutput struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type optionsOutput struct {
	Metric  string         `json:"metric"`
	Type    string         `json:"type"`
	Options []optionOutput `json:"options"`
}

type statsInput struct {
	Days int `json:"days,omitempty" jsonschema:"only use entries from the last N days (default all)"`
}

type chartInput struct {
	Month string `json:"month,omitempty" jsonschema:"month as YYYY-MM (default current month)"`
	From  string `json:"from,omitempty" jsonschema:"first day as YYYY-MM-DD"`
	To    string `json:"to,omitempty" jsonschema:"last day as YYYY-MM-DD (default today)"`
}

type heatmapInput struct {
	Metric string `json:"metric" jsonschema:"metric name or ID prefix"`
	Year   int    `json:"year,omitempty" jsonschema:"calendar year (default current year)"`
}

// Tool handlers

func (s *Server) handleAddEntry(ctx context.Context, req *mcp.CallToolRequest, input addEntryInput) (*mcp.CallToolResult, entryOutput, error) {
	if len(input.Values) == 0 && !input.FillBaselines {
		return nil, entryOutput{}, fmt.Errorf("at least one value is required")
	}

	refs := make([]string, 0, len(input.Values))
	for ref := range input.Values {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	assignments := make([]tracking.Assignment, len(refs))
	for i, ref := range refs {
		assignments[i] = tracking.Assignment{Ref: ref, Input: input.Values[ref]}
	}

	values, err := tracking.Resolve(ctx, s.repo, s.owner, assignments)
	if err != nil {
		return nil, entryOutput{}, err
	}
	tracked, err := s.repo.FetchTrackedMetrics(ctx, s.owner)
	if err != nil {
		return nil, entryOutput{}, fmt.Errorf("failed to load tracking: %w", err)
	}
	e, err := tracking.NewState(tracked).Draft(s.owner, values, input.FillBaselines)
	if err != nil {
		return nil, entryOutput{}, err
	}
	if input.RecordedAt != "" {
		t, err := parseTime(input.RecordedAt)
		if err != nil {
			return nil, entryOutput{}, err
		}
		e.WithRecordedAt(t)
	}
	if input.Comment != "" {
		e.WithComment(input.Comment)
	}

	if err := s.repo.CreateEntry(ctx, e); err != nil {
		return nil, entryOutput{}, fmt.Errorf("failed to create entry: %w", err)
	}

	out := entryView(e)
	out.Message = fmt.Sprintf("Logged %d value(s) (ID: %s)", len(e.Values), out.ID)
	return nil, out, nil
}

func (s *Server) handleListEntries(ctx context.Context, req *mcp.CallToolRequest, input listEntriesInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	entries, err := s.repo.ListEntries(ctx, s.owner, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, map[string]any{"message": "No entries found."}, nil
	}

	out := make([]entryOutput, len(entries))
	for i, e := range entries {
		out[i] = entryView(e)
	}
	return nil, map[string]any{"entries": out}, nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, req *mcp.CallToolRequest, input idInput) (*mcp.CallToolResult, simpleOutput, error) {
	if err := s.repo.DeleteEntry(ctx, s.owner, input.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted entry: %s", input.ID)}, nil
}

func (s *Server) handleListMetrics(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, metricsOutput, error) {
	metrics, err := s.repo.ListMetrics(ctx, s.owner)
	if err != nil {
		return nil, metricsOutput{}, fmt.Errorf("failed to list metrics: %w", err)
	}
	tracked, err := s.repo.FetchTrackedMetrics(ctx, s.owner)
	if err != nil {
		return nil, metricsOutput{}, fmt.Errorf("failed to load tracking: %w", err)
	}

	state := tracking.NewState(tracked)
	c := tracking.Categorize(metrics, state)
	view := func(ms []*models.Metric) []metricOutput {
		out := make([]metricOutput, 0, len(ms))
		for _, m := range ms {
			mo := metricOutput{
				ID:     m.ID.String()[:8],
				Name:   m.Name,
				Type:   string(m.Type),
				Kind:   m.Type.HumanReadable(),
				System: m.IsSystem(),
			}
			if t, ok := state.Lookup(m.ID); ok {
				b := t.Baseline
				mo.Baseline = &b
			}
			out = append(out, mo)
		}
		return out
	}
	return nil, metricsOutput{Tracked: view(c.Tracked), User: view(c.User), System: view(c.System)}, nil
}

func (s *Server) handleMetricOptions(ctx context.Context, req *mcp.CallToolRequest, input metricInput) (*mcp.CallToolResult, optionsOutput, error) {
	m, err := storage.ResolveMetric(ctx, s.repo, s.owner, input.Metric)
	if err != nil {
		return nil, optionsOutput{}, err
	}
	opts, err := codec.OptionsFor(m)
	if err != nil {
		return nil, optionsOutput{}, err
	}
	out := optionsOutput{Metric: m.Name, Type: string(m.Type), Options: make([]optionOutput, len(opts))}
	for i, o := range opts {
		out.Options[i] = optionOutput{Label: o.Label, Value: o.Value}
	}
	return nil, out, nil
}

func (s *Server) handleGetStats(ctx context.Context, req *mcp.CallToolRequest, input statsInput) (*mcp.CallToolResult, any, error) {
	now := s.now()
	window := insights.All
	if input.Days > 0 {
		window = insights.Since(now.AddDate(0, 0, -input.Days))
	}
	snap, err := s.loader.Load(ctx, s.owner, window)
	if err != nil {
		return nil, nil, err
	}
	return nil, statsView(snap, now), nil
}

func (s *Server) handleGetChart(ctx context.Context, req *mcp.CallToolRequest, input chartInput) (*mcp.CallToolResult, any, error) {
	first, last, err := s.chartRange(input)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.loader.Load(ctx, s.owner, insights.Days(first, last))
	if err != nil {
		return nil, nil, err
	}

	series := snap.Daily(first, last)
	names := make([]string, len(series.Metrics))
	for i, m := range series.Metrics {
		names[i] = m.Name
	}
	rows := make([]map[string]any, len(series.Points))
	for i, p := range series.Points {
		row := map[string]any{"date": p.Day}
		for _, m := range series.Metrics {
			if v, ok := p.Value(m.ID); ok {
				row[m.Name] = v
			} else {
				row[m.Name] = nil
			}
		}
		rows[i] = row
	}
	return nil, map[string]any{
		"from":    first.Format(analytics.DayLayout),
		"to":      last.Format(analytics.DayLayout),
		"metrics": names,
		"days":    rows,
	}, nil
}

func (s *Server) chartRange(input chartInput) (time.Time, time.Time, error) {
	now := s.now().In(time.Local)
	if input.From != "" {
		first, err := time.ParseInLocation(analytics.DayLayout, input.From, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %s", input.From)
		}
		last := now
		if input.To != "" {
			if last, err = time.ParseInLocation(analytics.DayLayout, input.To, time.Local); err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %s", input.To)
			}
		}
		if last.Before(first) {
			return time.Time{}, time.Time{}, fmt.Errorf("to date is before from date")
		}
		return first, last, nil
	}

	month := input.Month
	if month == "" {
		month = now.Format(analytics.MonthLayout)
	}
	return analytics.MonthRange(month, time.Local)
}

func (s *Server) handleGetHeatmap(ctx context.Context, req *mcp.CallToolRequest, input heatmapInput) (*mcp.CallToolResult, any, error) {
	m, err := storage.ResolveMetric(ctx, s.repo, s.owner, input.Metric)
	if err != nil {
		return nil, nil, err
	}
	year := input.Year
	if year == 0 {
		year = s.now().Year()
	}
	snap, err := s.loader.Load(ctx, s.owner, insights.Year(year, time.Local))
	if err != nil {
		return nil, nil, err
	}
	h, err := snap.Heatmap(m, year)
	if err != nil {
		return nil, nil, err
	}

	days := make([]map[string]any, 0)
	for _, b := range h.Days {
		if !b.HasData() {
			continue
		}
		colors := h.Colors(b)
		hex := make([]string, len(colors))
		for i, c := range colors {
			hex[i] = c.Hex()
		}
		days = append(days, map[string]any{"date": b.Day, "values": b.Values, "colors": hex})
	}
	return nil, map[string]any{
		"metric":      m.Name,
		"year":        h.Year,
		"min":         h.Min,
		"max":         h.Max,
		"total_days":  len(h.Days),
		"logged_days": days,
	}, nil
}

func (s *Server) handleGetDistribution(ctx context.Context, req *mcp.CallToolRequest, input metricInput) (*mcp.CallToolResult, any, error) {
	m, err := storage.ResolveMetric(ctx, s.repo, s.owner, input.Metric)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.loader.Load(ctx, s.owner, insights.All)
	if err != nil {
		return nil, nil, err
	}
	slices, err := snap.Distribution(m)
	if err != nil {
		return nil, nil, err
	}
	return nil, map[string]any{"metric": m.Name, "slices": slices}, nil
}

// entryView flattens an entry for tool output.
func entryView(e *models.Entry) entryOutput {
	out := entryOutput{
		ID:         e.ID.String(),
		RecordedAt: e.RecordedAt.Format(time.RFC3339),
		Values:     make([]valueOutput, 0, len(e.Values)),
	}
	for _, v := range e.Values {
		vo := valueOutput{Metric: v.MetricID.String()[:8], Value: v.Value}
		if v.Metric != nil {
			vo.Metric = v.Metric.Name
			if v.Metric.Type != models.MetricContinuous {
				if label, err := codec.LabelFor(v.Metric, v.Value); err == nil {
					vo.Label = label
				}
			}
		}
		out.Values = append(out.Values, vo)
	}
	if e.Comment != nil {
		out.Comment = *e.Comment
	}
	return out
}

// statsView names metrics instead of embedding them.
func statsView(snap *insights.Snapshot, now time.Time) map[string]any {
	report := snap.Stats(now)
	perMetric := make([]map[string]any, len(report.PerMetric))
	for i, st := range report.PerMetric {
		perMetric[i] = map[string]any{
			"metric":           st.Metric.Name,
			"count":            st.Count,
			"average":          st.Average,
			"min":              st.Min,
			"max":              st.Max,
			"recent_average":   st.RecentAverage,
			"previous_average": st.PreviousAverage,
			"trend":            st.Trend,
			"trend_percentage": st.TrendPercentage,
		}
	}
	correlations := make([]map[string]any, len(report.Correlations))
	for i, c := range report.Correlations {
		correlations[i] = map[string]any{
			"metrics":     strings.Join([]string{c.MetricA.Name, c.MetricB.Name}, " ~ "),
			"correlation": c.Coefficient,
			"strength":    c.Strength,
			"samples":     c.Samples,
		}
	}
	return map[string]any{
		"overview":     snap.Overview(now),
		"metrics":      perMetric,
		"correlations": correlations,
	}
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %s", s)
}
