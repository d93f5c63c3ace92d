// ABOUTME: Repository interface for moody data storage.
// ABOUTME: Narrow read ports for analytics plus owner-scoped CRUD.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/moody/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist or is not visible to the owner.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when an ID prefix matches more than one record.
	ErrAmbiguous = errors.New("ambiguous prefix")
	// ErrReadOnly is returned on writes to system metrics.
	ErrReadOnly = errors.New("system metrics are read-only")
	// ErrInvalidRow is returned when a stored row fails validation on read.
	ErrInvalidRow = errors.New("invalid stored row")
)

// EntryFetcher loads an owner's entries recorded in [start, end). A zero
// start or end leaves that side unbounded. Values carry their metric.
type EntryFetcher interface {
	FetchEntries(ctx context.Context, owner string, start, end time.Time) ([]*models.Entry, error)
}

// TrackingFetcher loads the metrics an owner tracks, with baselines.
type TrackingFetcher interface {
	FetchTrackedMetrics(ctx context.Context, owner string) ([]*models.MetricTracking, error)
}

// Fetcher is everything the analytics layer reads.
type Fetcher interface {
	EntryFetcher
	TrackingFetcher
}

// TrackingStore is the write side of metric tracking.
type TrackingStore interface {
	TrackMetric(ctx context.Context, t *models.MetricTracking) error
	UntrackMetric(ctx context.Context, owner string, metricID uuid.UUID) error
	UpdateBaseline(ctx context.Context, owner string, metricID uuid.UUID, baseline float64) error
}

// Repository defines the storage interface for moody data.
// Every read and write is scoped to an owner; system metrics are shared.
type Repository interface {
	Fetcher
	TrackingStore

	// Metric operations
	CreateMetric(ctx context.Context, m *models.Metric) error
	UpdateMetric(ctx context.Context, owner string, m *models.Metric) error
	GetMetric(ctx context.Context, owner, idOrPrefix string) (*models.Metric, error)
	ListMetrics(ctx context.Context, owner string) ([]*models.Metric, error)
	DeleteMetric(ctx context.Context, owner, idOrPrefix string) error

	// Tracking defaults for new owners
	SetTrackingDefault(ctx context.Context, d models.TrackingDefault) error
	ListTrackingDefaults(ctx context.Context) ([]models.TrackingDefault, error)

	// Entry operations
	CreateEntry(ctx context.Context, e *models.Entry) error
	GetEntry(ctx context.Context, owner, idOrPrefix string) (*models.Entry, error)
	ListEntries(ctx context.Context, owner string, limit int) ([]*models.Entry, error)
	DeleteEntry(ctx context.Context, owner, idOrPrefix string) error

	// Lifecycle
	Close() error
}
