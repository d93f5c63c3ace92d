// ABOUTME: Value distribution of one metric across all entries.
// ABOUTME: Counts each distinct value and labels it through the codec.
package analytics

import (
	"sort"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
)

// Slice is one distinct value of a distribution.
type Slice struct {
	Label      string  `json:"label" yaml:"label"`
	Value      float64 `json:"value" yaml:"value"`
	Count      int     `json:"count" yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// Distribution counts how often each value of metric was logged, most
// frequent first. Ties are ordered by value descending.
func Distribution(entries []*models.Entry, metric *models.Metric) ([]Slice, error) {
	if err := metric.Validate(); err != nil {
		return nil, err
	}

	counts := make(map[float64]int)
	total := 0
	for _, e := range entries {
		for _, v := range e.Values {
			if v.MetricID == metric.ID {
				counts[v.Value]++
				total++
			}
		}
	}

	slices := make([]Slice, 0, len(counts))
	for value, count := range counts {
		label, err := codec.LabelFor(metric, value)
		if err != nil {
			return nil, err
		}
		slices = append(slices, Slice{
			Label:      label,
			Value:      value,
			Count:      count,
			Percentage: float64(count) * 100 / float64(total),
		})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Count != slices[j].Count {
			return slices[i].Count > slices[j].Count
		}
		return slices[i].Value > slices[j].Value
	})
	return slices, nil
}
