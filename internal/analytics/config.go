// ABOUTME: Chart configuration per tracked metric.
// ABOUTME: Assigns stable palette colors and value bounds for plotting.
package analytics

import (
	"github.com/google/uuid"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
)

// Palette is the ordered set of series colors; it wraps after eight metrics.
var Palette = []string{
	"#4c8cff",
	"#ff6b6b",
	"#1dd1a1",
	"#feca57",
	"#ff9ff3",
	"#8e44ad",
	"#e67e22",
	"#34495e",
}

// Fallback bounds for metrics whose domain cannot be derived.
const (
	DefaultMinValue = 0
	DefaultMaxValue = 10
)

// MetricConfig describes how one metric is plotted.
type MetricConfig struct {
	MetricID uuid.UUID `json:"metric_id" yaml:"metric_id"`
	Name     string    `json:"name" yaml:"name"`
	Color    string    `json:"color" yaml:"color"`
	MinValue float64   `json:"min_value" yaml:"min_value"`
	MaxValue float64   `json:"max_value" yaml:"max_value"`
}

// MetricConfigs assigns colors in tracking order so a metric keeps its color
// between renders.
func MetricConfigs(tracked []*models.MetricTracking) []MetricConfig {
	configs := make([]MetricConfig, 0, len(tracked))
	for _, t := range tracked {
		if t == nil || t.Metric == nil {
			continue
		}
		lo, hi, err := codec.Bounds(t.Metric)
		if err != nil {
			lo, hi = DefaultMinValue, DefaultMaxValue
		}
		configs = append(configs, MetricConfig{
			MetricID: t.Metric.ID,
			Name:     t.Metric.Name,
			Color:    Palette[len(configs)%len(Palette)],
			MinValue: lo,
			MaxValue: hi,
		})
	}
	return configs
}
