// ABOUTME: Metric model and MetricType enum for user-defined trackables.
// ABOUTME: Covers discrete (labeled), continuous (ranged) and event metrics.
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MetricType represents the kind of value domain a metric has.
type MetricType string

const (
	// MetricDiscrete maps a fixed set of labels to numbers ("Happy" -> 1).
	MetricDiscrete MetricType = "discrete"
	// MetricContinuous is an integer scale between MinValue and MaxValue.
	MetricContinuous MetricType = "continuous"
	// MetricEvent is a yes/no occurrence stored as 1 or 0.
	MetricEvent MetricType = "event"
)

// SystemOwner is the owner sentinel for shared metrics visible to everyone.
const SystemOwner = "SYSTEM"

// AllMetricTypes returns all valid metric types.
var AllMetricTypes = []MetricType{MetricDiscrete, MetricContinuous, MetricEvent}

// IsValidMetricType checks if a string is a valid metric type.
func IsValidMetricType(s string) bool {
	for _, mt := range AllMetricTypes {
		if string(mt) == s {
			return true
		}
	}
	return false
}

// HumanReadable returns the display name used in listings.
func (t MetricType) HumanReadable() string {
	switch t {
	case MetricDiscrete:
		return "Vibe"
	case MetricContinuous:
		return "Measurement"
	case MetricEvent:
		return "Moment"
	default:
		return string(t)
	}
}

// Metric describes a trackable quantity and its value domain.
type Metric struct {
	ID          uuid.UUID          `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Type        MetricType         `json:"metric_type" yaml:"metric_type"`
	Labels      map[string]float64 `json:"labels,omitempty" yaml:"labels,omitempty"`
	MinValue    *float64           `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue    *float64           `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	OwnerID     string             `json:"owner_id" yaml:"owner_id"`
	CreatedAt   time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" yaml:"updated_at"`
}

// NewMetric creates a new Metric with generated UUID and current timestamps.
func NewMetric(name string, metricType MetricType) *Metric {
	now := time.Now()
	return &Metric{
		ID:        uuid.New(),
		Name:      name,
		Type:      metricType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithDescription sets the description.
func (m *Metric) WithDescription(description string) *Metric {
	m.Description = description
	return m
}

// WithLabels sets the label mapping of a discrete metric.
func (m *Metric) WithLabels(labels map[string]float64) *Metric {
	m.Labels = labels
	return m
}

// WithRange sets the inclusive bounds of a continuous metric.
func (m *Metric) WithRange(minValue, maxValue float64) *Metric {
	m.MinValue = &minValue
	m.MaxValue = &maxValue
	return m
}

// WithOwner sets the owning principal.
func (m *Metric) WithOwner(owner string) *Metric {
	m.OwnerID = owner
	return m
}

// IsSystem reports whether the metric is shared by all owners.
func (m *Metric) IsSystem() bool {
	return m.OwnerID == SystemOwner
}

// VisibleTo reports whether owner may read the metric.
func (m *Metric) VisibleTo(owner string) bool {
	return m.IsSystem() || m.OwnerID == owner
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the value domain invariants of the metric.
func (m *Metric) Validate() error {
	if m.Name == "" {
		return newConfigurationError(m, "name is empty")
	}
	switch m.Type {
	case MetricDiscrete:
		if len(m.Labels) == 0 {
			return newConfigurationError(m, "discrete metric has no labels")
		}
	case MetricContinuous:
		if m.MinValue == nil || m.MaxValue == nil {
			return newConfigurationError(m, "continuous metric is missing a bound")
		}
		if !finite(*m.MinValue) || !finite(*m.MaxValue) {
			return newConfigurationError(m, "continuous bounds must be finite numbers")
		}
		if *m.MinValue > *m.MaxValue {
			return newConfigurationError(m, "min_value is greater than max_value")
		}
	case MetricEvent:
	default:
		return newConfigurationError(m, "unknown metric type "+string(m.Type))
	}
	return nil
}
