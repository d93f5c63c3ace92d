// ABOUTME: Tests for the calendar heatmap projector.
// ABOUTME: Checks day buckets, raw value retention and the color gradient.
package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/harperreed/moody/internal/models"
)

func TestBuildHeatmapDays(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2023, 365},
		{2024, 366},
		{1900, 365},
		{2000, 366},
	}

	mood := moodMetric()
	for _, tt := range tests {
		hm, err := BuildHeatmap(nil, mood, tt.year, time.UTC)
		if err != nil {
			t.Fatalf("BuildHeatmap failed: %v", err)
		}
		if len(hm.Days) != tt.want {
			t.Errorf("year %d: expected %d days, got %d", tt.year, tt.want, len(hm.Days))
		}
		months := hm.Months()
		if len(months) != 12 || len(months[0]) != 31 {
			t.Errorf("year %d: unexpected month grouping", tt.year)
		}
	}
}

func TestBuildHeatmapValues(t *testing.T) {
	mood, sleep := moodMetric(), sleepMetric()
	entries := []*models.Entry{
		entryAt(t, day(2024, 2, 29), sample{mood, 1}, sample{sleep, 8}),
		entryAt(t, day(2024, 2, 29).Add(2*time.Hour), sample{mood, -1}),
		entryAt(t, day(2024, 3, 2), sample{mood, 0}),
		entryAt(t, day(2023, 2, 28), sample{mood, 1}),
	}

	hm, err := BuildHeatmap(entries, mood, 2024, time.UTC)
	if err != nil {
		t.Fatalf("BuildHeatmap failed: %v", err)
	}
	if hm.Min != -1 || hm.Max != 1 {
		t.Errorf("bounds = %v..%v, want -1..1", hm.Min, hm.Max)
	}

	leap := hm.Months()[1][28]
	if leap.Day != "2024-02-29" {
		t.Fatalf("unexpected bucket %s", leap.Day)
	}
	if len(leap.Values) != 2 || leap.Values[0] != 1 || leap.Values[1] != -1 {
		t.Errorf("Feb 29 values = %v, want [1 -1]", leap.Values)
	}

	empty := hm.Months()[2][0]
	if empty.HasData() {
		t.Errorf("March 1 should be empty, got %v", empty.Values)
	}
	neutral := hm.Months()[2][1]
	if !neutral.HasData() {
		t.Fatal("March 2 should hold a logged zero")
	}

	emptyColors := hm.Colors(empty)
	neutralColors := hm.Colors(neutral)
	if emptyColors[0] != NoDataColor {
		t.Errorf("empty day color = %s, want %s", emptyColors[0], NoDataColor)
	}
	if neutralColors[0] != NeutralColor {
		t.Errorf("zero day color = %s, want %s", neutralColors[0], NeutralColor)
	}
	if emptyColors[0] == neutralColors[0] {
		t.Error("no-data and neutral days must render differently")
	}

	total := 0
	for _, b := range hm.Days {
		total += len(b.Values)
	}
	if total != 3 {
		t.Errorf("expected 3 values in 2024, got %d", total)
	}
}

func TestBuildHeatmapMalformedMetric(t *testing.T) {
	_, err := BuildHeatmap(nil, models.NewMetric("Mood", models.MetricDiscrete), 2024, nil)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestColor(t *testing.T) {
	tests := []struct {
		name          string
		value, lo, hi float64
		want          RGB
	}{
		{"zero is neutral", 0, -1, 1, NeutralColor},
		{"zero at bottom of domain", 0, 0, 10, NeutralColor},
		{"minimum is deep blue", -1, -1, 1, RGB{0, 0, 100}},
		{"maximum is red", 1, -1, 1, RGB{255, 0, 0}},
		{"quarter rounds half up", -0.5, -1, 1, RGB{128, 128, 178}},
		{"three quarters", 0.5, -1, 1, RGB{255, 128, 128}},
		{"midpoint is white", 5, 0, 10, RGB{255, 255, 255}},
		{"degenerate domain", 3, 3, 3, RGB{255, 255, 255}},
		{"below domain clamps", -5, 0, 10, RGB{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Color(tt.value, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Color(%v, %v, %v) = %s, want %s", tt.value, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestRGBFormatting(t *testing.T) {
	c := RGB{255, 0, 128}
	if c.String() != "rgb(255, 0, 128)" {
		t.Errorf("String() = %s", c.String())
	}
	if c.Hex() != "#ff0080" {
		t.Errorf("Hex() = %s", c.Hex())
	}
	if NeutralColor.String() != "rgb(167, 243, 208)" {
		t.Errorf("NeutralColor = %s", NeutralColor)
	}
}
