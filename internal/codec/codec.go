// ABOUTME: Value codec between metric labels and canonical numeric values.
// ABOUTME: Lists selectable options, labels values and parses user input.
package codec

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/harperreed/moody/internal/models"
)

// Event option labels.
const (
	LabelHappened    = "Happened"
	LabelNotHappened = "Didn't happen"
)

// MaxOptions caps how many integer options a continuous metric may expand to.
const MaxOptions = 10000

// Option is one selectable value of a metric.
type Option struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// OptionsFor returns the ordered selectable options of a metric.
// Discrete options are sorted by value descending, continuous ones ascending.
// A continuous range wider than MaxOptions integers is a ConfigurationError.
func OptionsFor(m *models.Metric) ([]Option, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	switch m.Type {
	case models.MetricDiscrete:
		opts := make([]Option, 0, len(m.Labels))
		for label, value := range m.Labels {
			opts = append(opts, Option{Label: label, Value: value})
		}
		sort.Slice(opts, func(i, j int) bool {
			if opts[i].Value != opts[j].Value {
				return opts[i].Value > opts[j].Value
			}
			return opts[i].Label < opts[j].Label
		})
		return opts, nil

	case models.MetricEvent:
		return []Option{
			{Label: LabelHappened, Value: 1},
			{Label: LabelNotHappened, Value: 0},
		}, nil

	default:
		lo := math.Ceil(*m.MinValue)
		hi := math.Floor(*m.MaxValue)
		if hi < lo {
			return []Option{}, nil
		}
		if hi-lo >= MaxOptions {
			return nil, &models.ConfigurationError{
				MetricID:   m.ID.String(),
				MetricName: m.Name,
				Reason:     fmt.Sprintf("continuous range has more than %d options", MaxOptions),
			}
		}
		n := int(hi-lo) + 1
		opts := make([]Option, n)
		for i := range opts {
			v := lo + float64(i)
			opts[i] = Option{Label: FormatValue(v), Value: v}
		}
		return opts, nil
	}
}

// LabelFor returns the display label of value. Continuous values render as
// numbers; discrete and event values use the first option whose value
// matches exactly, falling back to the number.
func LabelFor(m *models.Metric, value float64) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	if m.Type == models.MetricContinuous {
		return FormatValue(value), nil
	}

	opts, err := OptionsFor(m)
	if err != nil {
		return "", err
	}
	for _, o := range opts {
		if o.Value == value {
			return o.Label, nil
		}
	}
	return FormatValue(value), nil
}

// FormatValue renders a canonical value without trailing zeros.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Bounds returns the numeric extent of the metric's domain.
func Bounds(m *models.Metric) (minValue, maxValue float64, err error) {
	if err := m.Validate(); err != nil {
		return 0, 0, err
	}

	switch m.Type {
	case models.MetricContinuous:
		return *m.MinValue, *m.MaxValue, nil
	case models.MetricEvent:
		return 0, 1, nil
	default:
		first := true
		for _, v := range m.Labels {
			if first || v < minValue {
				minValue = v
			}
			if first || v > maxValue {
				maxValue = v
			}
			first = false
		}
		return minValue, maxValue, nil
	}
}

// Contains reports whether value lies in the metric's domain.
func Contains(m *models.Metric, value float64) (bool, error) {
	if err := m.Validate(); err != nil {
		return false, err
	}

	switch m.Type {
	case models.MetricContinuous:
		return value >= *m.MinValue && value <= *m.MaxValue, nil
	case models.MetricEvent:
		return value == 0 || value == 1, nil
	default:
		for _, v := range m.Labels {
			if v == value {
				return true, nil
			}
		}
		return false, nil
	}
}

// DefaultBaseline returns 0 when it lies in the domain, else the lowest option.
func DefaultBaseline(m *models.Metric) (float64, error) {
	ok, err := Contains(m, 0)
	if err != nil {
		return 0, err
	}
	if ok {
		return 0, nil
	}
	lo, _, err := Bounds(m)
	if err != nil {
		return 0, err
	}
	if m.Type == models.MetricContinuous {
		return math.Ceil(lo), nil
	}
	return lo, nil
}

var eventAliases = map[string]float64{
	"happened":      1,
	"yes":           1,
	"y":             1,
	"true":          1,
	"didn't happen": 0,
	"didnt happen":  0,
	"no":            0,
	"n":             0,
	"false":         0,
}

// ParseValue converts user input (a label or a number) into the canonical
// value of the metric. Labels match case-insensitively.
func ParseValue(m *models.Metric, input string) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	input = strings.TrimSpace(input)

	var (
		value float64
		found bool
	)
	switch m.Type {
	case models.MetricDiscrete:
		for label, v := range m.Labels {
			if strings.EqualFold(label, input) {
				value, found = v, true
				break
			}
		}
	case models.MetricEvent:
		value, found = eventAliases[strings.ToLower(input)]
	}

	if !found {
		n, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q for %s", input, m.Name)
		}
		value = n
	}

	ok, err := Contains(m, value)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s for %s", models.ErrOutOfDomain, FormatValue(value), m.Name)
	}
	return value, nil
}
