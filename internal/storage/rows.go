// ABOUTME: Stored row shapes shared by the SQLite and Badger backends.
// ABOUTME: Rows are validated with validator/v10 before becoming models.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/moody/internal/models"
)

// timeLayout is fixed-width UTC so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"required": "is required",
	"uuid":     "must be a UUID",
	"len":      "must be %s characters long",
	"alphanum": "must be alphanumeric",
	"oneof":    "must be one of [%s]",
	"json":     "must be valid JSON",
	"datetime": "must match layout %s",
}

// validateRow checks a row's shape and reports every failing field.
func validateRow(kind string, row any) error {
	err := validate.Struct(row)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s row: %w", kind, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "failed " + fe.Tag()
		}
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, fe.Param())
		}
		msgs = append(msgs, fe.Field()+" "+msg)
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidRow, kind, strings.Join(msgs, "; "))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

type metricRow struct {
	ID          string   `json:"id" validate:"required,uuid"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Type        string   `json:"metric_type" validate:"required,oneof=discrete continuous event"`
	Labels      string   `json:"labels,omitempty" validate:"omitempty,json"`
	MinValue    *float64 `json:"min_value,omitempty"`
	MaxValue    *float64 `json:"max_value,omitempty"`
	OwnerID     string   `json:"owner_id" validate:"required"`
	CreatedAt   string   `json:"created_at" validate:"required,datetime=2006-01-02T15:04:05.000000000Z"`
	UpdatedAt   string   `json:"updated_at" validate:"required,datetime=2006-01-02T15:04:05.000000000Z"`
}

func newMetricRow(m *models.Metric) (metricRow, error) {
	row := metricRow{
		ID:          m.ID.String(),
		Name:        m.Name,
		Description: m.Description,
		Type:        string(m.Type),
		MinValue:    m.MinValue,
		MaxValue:    m.MaxValue,
		OwnerID:     m.OwnerID,
		CreatedAt:   formatTime(m.CreatedAt),
		UpdatedAt:   formatTime(m.UpdatedAt),
	}
	if len(m.Labels) > 0 {
		data, err := json.Marshal(m.Labels)
		if err != nil {
			return metricRow{}, fmt.Errorf("marshal labels: %w", err)
		}
		row.Labels = string(data)
	}
	return row, nil
}

func (r metricRow) toModel() (*models.Metric, error) {
	if err := validateRow("metric", r); err != nil {
		return nil, err
	}
	m := &models.Metric{
		ID:          uuid.MustParse(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Type:        models.MetricType(r.Type),
		MinValue:    r.MinValue,
		MaxValue:    r.MaxValue,
		OwnerID:     r.OwnerID,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
	if r.Labels != "" {
		if err := json.Unmarshal([]byte(r.Labels), &m.Labels); err != nil {
			return nil, fmt.Errorf("%w: metric: labels: %v", ErrInvalidRow, err)
		}
	}
	return m, nil
}

type trackingRow struct {
	OwnerID   string  `json:"owner_id" validate:"required"`
	MetricID  string  `json:"metric_id" validate:"required,uuid"`
	Baseline  float64 `json:"baseline"`
	TrackedAt string  `json:"tracked_at" validate:"required,datetime=2006-01-02T15:04:05.000000000Z"`
}

func newTrackingRow(t *models.MetricTracking) trackingRow {
	return trackingRow{
		OwnerID:   t.OwnerID,
		MetricID:  t.Metric.ID.String(),
		Baseline:  t.Baseline,
		TrackedAt: formatTime(t.TrackedAt),
	}
}

func (r trackingRow) toModel(metric *models.Metric) (*models.MetricTracking, error) {
	if err := validateRow("tracking", r); err != nil {
		return nil, err
	}
	return &models.MetricTracking{
		OwnerID:   r.OwnerID,
		Metric:    metric,
		Baseline:  r.Baseline,
		TrackedAt: parseTime(r.TrackedAt),
	}, nil
}

type defaultRow struct {
	MetricID string  `json:"metric_id" validate:"required,uuid"`
	Baseline float64 `json:"baseline"`
}

func (r defaultRow) toModel() (models.TrackingDefault, error) {
	if err := validateRow("tracking default", r); err != nil {
		return models.TrackingDefault{}, err
	}
	return models.TrackingDefault{MetricID: uuid.MustParse(r.MetricID), Baseline: r.Baseline}, nil
}

type entryRow struct {
	ID         string  `json:"id" validate:"required,len=26,alphanum"`
	OwnerID    string  `json:"owner_id" validate:"required"`
	RecordedAt string  `json:"recorded_at" validate:"required,datetime=2006-01-02T15:04:05.000000000Z"`
	Comment    *string `json:"comment,omitempty"`
	CreatedAt  string  `json:"created_at" validate:"required,datetime=2006-01-02T15:04:05.000000000Z"`
	UpdatedAt  string  `json:"updated_at" validate:"required,datetime=2006-01-02T15:04:05.000000000Z"`
}

func newEntryRow(e *models.Entry) entryRow {
	return entryRow{
		ID:         e.ID.String(),
		OwnerID:    e.OwnerID,
		RecordedAt: formatTime(e.RecordedAt),
		Comment:    e.Comment,
		CreatedAt:  formatTime(e.CreatedAt),
		UpdatedAt:  formatTime(e.UpdatedAt),
	}
}

func (r entryRow) toModel() (*models.Entry, error) {
	if err := validateRow("entry", r); err != nil {
		return nil, err
	}
	id, err := ulid.ParseStrict(r.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: entry: id: %v", ErrInvalidRow, err)
	}
	return &models.Entry{
		ID:         id,
		OwnerID:    r.OwnerID,
		RecordedAt: parseTime(r.RecordedAt),
		Comment:    r.Comment,
		Values:     []models.EntryValue{},
		CreatedAt:  parseTime(r.CreatedAt),
		UpdatedAt:  parseTime(r.UpdatedAt),
	}, nil
}

type valueRow struct {
	EntryID  string  `json:"entry_id" validate:"required,len=26,alphanum"`
	MetricID string  `json:"metric_id" validate:"required,uuid"`
	Value    float64 `json:"value"`
}

func (r valueRow) toModel(metric *models.Metric) (models.EntryValue, error) {
	if err := validateRow("entry value", r); err != nil {
		return models.EntryValue{}, err
	}
	return models.EntryValue{
		MetricID: uuid.MustParse(r.MetricID),
		Value:    r.Value,
		Metric:   metric,
	}, nil
}
