// ABOUTME: Builds new entries from metric=value input and tracked baselines.
// ABOUTME: Shared by the add command and the add_entry MCP tool.
package tracking

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
	"github.com/harperreed/moody/internal/storage"
)

// Assignment is a metric reference (name or ID prefix) and its raw input.
type Assignment struct {
	Ref   string
	Input string
}

// ParseAssignment splits "metric=value". The metric part may contain spaces.
func ParseAssignment(s string) (Assignment, error) {
	ref, input, ok := strings.Cut(s, "=")
	ref, input = strings.TrimSpace(ref), strings.TrimSpace(input)
	if !ok || ref == "" || input == "" {
		return Assignment{}, fmt.Errorf("expected metric=value, got %q", s)
	}
	return Assignment{Ref: ref, Input: input}, nil
}

// Resolve looks up each assignment's metric and parses its input into the
// metric's canonical value.
func Resolve(ctx context.Context, repo storage.Repository, owner string, as []Assignment) ([]models.EntryValue, error) {
	values := make([]models.EntryValue, 0, len(as))
	for _, a := range as {
		m, err := storage.ResolveMetric(ctx, repo, owner, a.Ref)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", a.Ref, err)
		}
		v, err := codec.ParseValue(m, a.Input)
		if err != nil {
			return nil, err
		}
		values = append(values, models.EntryValue{MetricID: m.ID, Value: v, Metric: m})
	}
	return values, nil
}

// Draft starts an entry holding the explicit values. With fill set, every
// other tracked metric gets its baseline, in tracking order.
func (s State) Draft(owner string, explicit []models.EntryValue, fill bool) (*models.Entry, error) {
	e := models.NewEntry(owner)
	for _, v := range explicit {
		if err := e.AddValue(v.Metric, v.Value); err != nil {
			return nil, err
		}
	}
	if fill {
		for _, t := range s.tracked {
			if _, ok := e.Value(t.Metric.ID); ok {
				continue
			}
			if err := e.AddValue(t.Metric, t.Baseline); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}
