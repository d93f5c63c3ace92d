// ABOUTME: Error types shared by models, codec and storage.
// ABOUTME: ConfigurationError flags malformed metric definitions.
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches any *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("metric configuration error")

	// ErrDuplicateValue is returned when an entry already holds a value for a metric.
	ErrDuplicateValue = errors.New("entry already has a value for this metric")

	// ErrOutOfDomain is returned when a value lies outside a metric's domain.
	ErrOutOfDomain = errors.New("value outside metric domain")
)

// ConfigurationError reports a metric whose value domain is malformed.
// It is a data-integrity problem, never a transient failure.
type ConfigurationError struct {
	MetricID   string
	MetricName string
	Reason     string
}

func newConfigurationError(m *Metric, reason string) *ConfigurationError {
	return &ConfigurationError{
		MetricID:   m.ID.String(),
		MetricName: m.Name,
		Reason:     reason,
	}
}

func (e *ConfigurationError) Error() string {
	if e.MetricName != "" {
		return fmt.Sprintf("metric %q: %s", e.MetricName, e.Reason)
	}
	return fmt.Sprintf("metric %s: %s", e.MetricID, e.Reason)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
