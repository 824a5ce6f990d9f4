package storage

import (
	"context"
	"errors"
	"time"

	"github.com/radiusdt/vector-insights/internal/models"
)

// ErrNotFound is returned when a cached result does not exist.
var ErrNotFound = errors.New("storage: not found")

// =============================================
// RECORD SOURCES
// =============================================

// RecordFilter narrows a source load. Zero values mean "no bound".
type RecordFilter struct {
	AccountID string    `json:"account_id"`
	Since     time.Time `json:"since"`
	Until     time.Time `json:"until"` // inclusive
}

// RecordSource loads daily ad records from an external store.
type RecordSource interface {
	Name() string
	LoadRecords(ctx context.Context, filter RecordFilter) (*models.Batch, error)
}

// =============================================
// RESULT CACHE
// =============================================

// ResultCache keeps computed results for re-display. It is never consulted
// by the analysis itself.
type ResultCache interface {
	Put(ctx context.Context, res *models.Result) error
	Get(ctx context.Context, id string) (*models.Result, error)
	Latest(ctx context.Context) (*models.Result, error)
}
