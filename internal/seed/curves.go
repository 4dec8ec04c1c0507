// Package seed installs fan performance curves into the curve store: the
// built-in curves shipped with the portal and any curves found in
// import/fan_curves.json.
package seed

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/importer"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/models"
)

const curvesFileName = "import/fan_curves.json"

// BuiltinCurves returns the curves shipped with the portal.
func BuiltinCurves() []models.PerformanceCurve {
	return []models.PerformanceCurve{
		{
			Model: "4-68",
			Points: []models.PerformancePoint{
				{Index: 1, FlowCoefficient: 0.165, PressureCoefficient: 0.498073, Efficiency: 87.6},
				{Index: 2, FlowCoefficient: 0.185, PressureCoefficient: 0.487093, Efficiency: 90.3},
				{Index: 3, FlowCoefficient: 0.205, PressureCoefficient: 0.472080, Efficiency: 92.2},
				{Index: 4, FlowCoefficient: 0.225, PressureCoefficient: 0.450084, Efficiency: 93.0},
				{Index: 5, FlowCoefficient: 0.245, PressureCoefficient: 0.422075, Efficiency: 92.0},
				{Index: 6, FlowCoefficient: 0.265, PressureCoefficient: 0.388054, Efficiency: 88.5},
				{Index: 7, FlowCoefficient: 0.285, PressureCoefficient: 0.350073, Efficiency: 84.7},
			},
		},
	}
}

// Curves installs the built-in curves and the import file's curves for every
// model the store does not have yet. Models already present are left alone.
func Curves(ctx context.Context, store interfaces.PerformanceCurveStorage, logger *common.Logger) (int, error) {
	curves := BuiltinCurves()

	if path := findCurvesFile(); path != "" {
		extra, err := importer.LoadFile(path)
		if err != nil {
			logger.Warn().Str("error", err.Error()).Str("path", path).Msg("seed: failed to load curves file")
		} else {
			curves = append(curves, extra...)
		}
	}

	installed, err := importer.ImportCurves(ctx, store, logger, curves, false)
	if err != nil {
		return installed, err
	}

	if installed > 0 {
		logger.Info().Int("curves", installed).Msg("seed: performance curves installed")
	}
	return installed, nil
}

// findCurvesFile searches for import/fan_curves.json relative to the
// executable directory first, then the current working directory.
func findCurvesFile() string {
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), curvesFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat(curvesFileName); err == nil {
		return curvesFileName
	}

	return ""
}
