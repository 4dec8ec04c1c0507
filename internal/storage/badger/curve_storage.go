package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/models"
)

// curveRecord is one stored performance point. The key is derived from
// (Model, Index), which makes that pair unique.
type curveRecord struct {
	Key                 string `badgerhold:"key"`
	Model               string `badgerhold:"index"`
	Index               int
	FlowCoefficient     float64
	PressureCoefficient float64
	Efficiency          float64
}

func curveKey(model string, index int) string {
	return fmt.Sprintf("%s#%04d", model, index)
}

// CurveStorage implements interfaces.PerformanceCurveStorage using BadgerDB.
type CurveStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewCurveStorage creates a curve storage backed by BadgerDB.
func NewCurveStorage(db *BadgerDB, logger *common.Logger) *CurveStorage {
	return &CurveStorage{
		db:     db,
		logger: logger,
	}
}

// Get returns the points of model ordered by index.
func (s *CurveStorage) Get(_ context.Context, model string) ([]models.PerformancePoint, error) {
	model = strings.TrimSpace(model)
	var records []curveRecord
	err := s.db.Store().Find(&records, badgerhold.Where("Model").Eq(model).Index("Model").SortBy("Index"))
	if err != nil {
		return nil, fmt.Errorf("failed to load curve %s: %w", model, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrCurveNotFound, model)
	}

	points := make([]models.PerformancePoint, 0, len(records))
	for _, r := range records {
		points = append(points, models.PerformancePoint{
			Index:               r.Index,
			FlowCoefficient:     r.FlowCoefficient,
			PressureCoefficient: r.PressureCoefficient,
			Efficiency:          r.Efficiency,
		})
	}
	return points, nil
}

// Upsert stores point under (model, point.Index), replacing any previous value.
func (s *CurveStorage) Upsert(_ context.Context, model string, point models.PerformancePoint) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("fan model is required")
	}
	key := curveKey(model, point.Index)
	record := curveRecord{
		Key:                 key,
		Model:               model,
		Index:               point.Index,
		FlowCoefficient:     point.FlowCoefficient,
		PressureCoefficient: point.PressureCoefficient,
		Efficiency:          point.Efficiency,
	}
	if err := s.db.Store().Upsert(key, &record); err != nil {
		return fmt.Errorf("failed to store curve point %s: %w", key, err)
	}
	return nil
}

// Models returns the distinct fan models with stored points, sorted.
func (s *CurveStorage) Models(_ context.Context) ([]string, error) {
	var records []curveRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list curves: %w", err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Model] {
			seen[r.Model] = true
			out = append(out, r.Model)
		}
	}
	sort.Strings(out)
	return out, nil
}
