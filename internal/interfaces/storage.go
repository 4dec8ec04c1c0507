package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/calc-portal/internal/models"
)

// ErrCurveNotFound is returned when a fan model has no stored points.
var ErrCurveNotFound = errors.New("performance curve not found")

// StorageManager provides access to domain-specific storage interfaces.
type StorageManager interface {
	PerformanceCurveStorage() PerformanceCurveStorage
	DB() interface{}
	Close() error
}

// PerformanceCurveStorage stores fan performance curves keyed by model and
// point index. (model, index) is unique.
type PerformanceCurveStorage interface {
	// Get returns the points of model ordered by index, or ErrCurveNotFound.
	Get(ctx context.Context, model string) ([]models.PerformancePoint, error)
	Upsert(ctx context.Context, model string, point models.PerformancePoint) error
	Models(ctx context.Context) ([]string, error)
}
