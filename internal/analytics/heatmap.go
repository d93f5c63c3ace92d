// ABOUTME: Calendar heatmap projection of one metric over a year.
// ABOUTME: Keeps raw same-day values and maps them onto a color gradient.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/harperreed/moody/internal/codec"
	"github.com/harperreed/moody/internal/models"
)

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// String renders the color in CSS rgb() notation.
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	// NeutralColor marks a logged value of exactly zero.
	NeutralColor = RGB{167, 243, 208}
	// NoDataColor marks a day without any logged value.
	NoDataColor = RGB{255, 255, 255}
)

// DayBucket holds every raw value of the metric recorded on one day.
type DayBucket struct {
	Date   time.Time `json:"-" yaml:"-"`
	Day    string    `json:"date" yaml:"date"`
	Values []float64 `json:"values" yaml:"values"`
}

// HasData reports whether anything was logged that day.
func (b DayBucket) HasData() bool {
	return len(b.Values) > 0
}

// Heatmap is one bucket per calendar day of Year plus the metric's bounds.
type Heatmap struct {
	Metric *models.Metric `json:"metric" yaml:"metric"`
	Year   int            `json:"year" yaml:"year"`
	Min    float64        `json:"min" yaml:"min"`
	Max    float64        `json:"max" yaml:"max"`
	Days   []DayBucket    `json:"days" yaml:"days"`
}

// BuildHeatmap buckets metric's values by calendar day of year in loc
// (time.Local when nil). The result always holds 365 or 366 buckets, and
// same-day values keep the order they were recorded in.
func BuildHeatmap(entries []*models.Entry, metric *models.Metric, year int, loc *time.Location) (Heatmap, error) {
	lo, hi, err := codec.Bounds(metric)
	if err != nil {
		return Heatmap{}, err
	}
	if loc == nil {
		loc = time.Local
	}

	first := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	next := first.AddDate(1, 0, 0)

	hm := Heatmap{Metric: metric, Year: year, Min: lo, Max: hi}
	index := make(map[string]int, 366)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		key := d.Format(DayLayout)
		index[key] = len(hm.Days)
		hm.Days = append(hm.Days, DayBucket{Date: d, Day: key, Values: []float64{}})
	}

	ordered := make([]*models.Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	for _, e := range ordered {
		i, ok := index[e.RecordedAt.In(loc).Format(DayLayout)]
		if !ok {
			continue
		}
		for _, v := range e.Values {
			if v.MetricID == metric.ID {
				hm.Days[i].Values = append(hm.Days[i].Values, v.Value)
			}
		}
	}
	return hm, nil
}

// Months groups the buckets by calendar month, January first.
func (h Heatmap) Months() [][]DayBucket {
	months := make([][]DayBucket, 12)
	for _, b := range h.Days {
		m := b.Date.Month() - 1
		months[m] = append(months[m], b)
	}
	return months
}

// Colors returns the color of each value in a bucket, or NoDataColor alone
// for an empty day.
func (h Heatmap) Colors(b DayBucket) []RGB {
	if !b.HasData() {
		return []RGB{NoDataColor}
	}
	out := make([]RGB, len(b.Values))
	for i, v := range b.Values {
		out[i] = Color(v, h.Min, h.Max)
	}
	return out
}

// Color maps value onto the blue-white-red gradient over [minValue, maxValue].
// A value of exactly zero always gets NeutralColor.
func Color(value, minValue, maxValue float64) RGB {
	if value == 0 {
		return NeutralColor
	}

	normalized := 0.5
	if maxValue != minValue {
		normalized = (value - minValue) / (maxValue - minValue)
	}

	if normalized < 0.5 {
		intensity := normalized * 2
		rg := channel(intensity * 255)
		return RGB{rg, rg, channel(100 + 155*intensity)}
	}
	intensity := (normalized - 0.5) * 2
	gb := channel(255 * (1 - intensity))
	return RGB{255, gb, gb}
}

// channel rounds half up and clamps to a byte.
func channel(x float64) uint8 {
	r := math.Floor(x + 0.5)
	switch {
	case r < 0:
		return 0
	case r > 255:
		return 255
	default:
		return uint8(r)
	}
}
