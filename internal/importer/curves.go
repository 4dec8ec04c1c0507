// Package importer loads fan performance curves from JSON files into the
// curve store.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/models"
)

// curvesFile represents the JSON structure of a curve import file.
type curvesFile struct {
	Curves []models.PerformanceCurve `json:"curves"`
}

// LoadFile reads and parses a curve import file. Every curve needs a model
// and at least one point; point indexes must be unique within a curve.
func LoadFile(path string) ([]models.PerformanceCurve, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curves file %s: %w", path, err)
	}

	var file curvesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse curves file %s: %w", path, err)
	}

	for i, c := range file.Curves {
		if c.Model == "" {
			return nil, fmt.Errorf("curves[%d]: model is required", i)
		}
		if len(c.Points) == 0 {
			return nil, fmt.Errorf("curves[%d] (%s): no points", i, c.Model)
		}
		seen := make(map[int]bool, len(c.Points))
		for _, p := range c.Points {
			if seen[p.Index] {
				return nil, fmt.Errorf("curves[%d] (%s): duplicate point index %d", i, c.Model, p.Index)
			}
			seen[p.Index] = true
		}
	}
	return file.Curves, nil
}

// WriteCurve upserts every point of curve, replacing points with the same index.
func WriteCurve(ctx context.Context, store interfaces.PerformanceCurveStorage, curve models.PerformanceCurve) error {
	if len(curve.Points) == 0 {
		return fmt.Errorf("curve %s has no points", curve.Model)
	}
	for _, p := range curve.Points {
		if err := store.Upsert(ctx, curve.Model, p); err != nil {
			return fmt.Errorf("failed to write curve %s point %d: %w", curve.Model, p.Index, err)
		}
	}
	return nil
}

// ImportCurves writes curves into store and returns how many were written.
// Models already present are skipped unless overwrite is set.
func ImportCurves(ctx context.Context, store interfaces.PerformanceCurveStorage, logger *common.Logger, curves []models.PerformanceCurve, overwrite bool) (int, error) {
	written := 0
	for _, c := range curves {
		if !overwrite {
			_, err := store.Get(ctx, c.Model)
			if err == nil {
				logger.Debug().Str("model", c.Model).Msg("curve already exists, skipping")
				continue
			}
			if !errors.Is(err, interfaces.ErrCurveNotFound) {
				return written, fmt.Errorf("failed to check curve %s: %w", c.Model, err)
			}
		}

		if err := WriteCurve(ctx, store, c); err != nil {
			return written, err
		}
		written++
		logger.Info().Str("model", c.Model).Int("points", len(c.Points)).Msg("curve imported")
	}
	return written, nil
}

// ImportFile loads path and imports its curves.
func ImportFile(ctx context.Context, store interfaces.PerformanceCurveStorage, logger *common.Logger, path string, overwrite bool) (int, error) {
	curves, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	return ImportCurves(ctx, store, logger, curves, overwrite)
}
