// Package fluid implements the centrifugal fan selection calculator.
package fluid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bobmcallan/calc-portal/internal/calculator"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/models"
)

// Ref is the calculatorRef of the fan selection calculator.
const Ref = "fluid.fan_selection"

// ScenarioFanSelection is the only scenario of the fan calculator.
const ScenarioFanSelection = "fan_selection"

// Register adds the fluid calculators to f. curves may be nil, in which case
// requests must carry their own performance points.
func Register(f *calculator.Factories, curves interfaces.PerformanceCurveStorage) error {
	return f.Register(Ref, func() (any, error) { return NewFanSelection(curves), nil })
}

// Fan types whose pressure is corrected for compressibility.
var compressibleTypes = map[string]bool{"BB24": true, "BB50": true}

// FanSelection sizes a centrifugal fan for a duty point from its
// dimensionless performance curve.
type FanSelection struct {
	curves interfaces.PerformanceCurveStorage
}

// NewFanSelection returns a fan selection calculator reading curves from store.
func NewFanSelection(store interfaces.PerformanceCurveStorage) *FanSelection {
	return &FanSelection{curves: store}
}

// PointResult is the computed duty of one curve point.
type PointResult struct {
	Index         int     `json:"index"`
	Flow          float64 `json:"flow"`
	TotalPressure float64 `json:"totalPressure"`
	Efficiency    float64 `json:"efficiency"`
	InternalPower float64 `json:"internalPower"`
	ShaftPower    float64 `json:"shaftPower"`
}

// Selection is the result object of a fan selection.
type Selection struct {
	AtmosphericPressure float64       `json:"P_atm"`
	WorkingDensity      float64       `json:"rho_working"`
	Compressibility     float64       `json:"Z"`
	SpecificSpeed       float64       `json:"ns"`
	TipSpeed            float64       `json:"u"`
	FanModel            string        `json:"fan_model"`
	RoughDiameter       *float64      `json:"D_rough"`
	Points              []PointResult `json:"performance_points"`
}

// Calculate runs the fan selection scenario.
func (c *FanSelection) Calculate(ctx context.Context, scenario string, p calculator.Params) (*calculator.Result, error) {
	if scenario != ScenarioFanSelection {
		return nil, calculator.UnknownScenario(scenario)
	}

	q, err := p.RequirePositive("Q", "Flow rate")
	if err != nil {
		return nil, err
	}
	pressure, err := p.RequirePositive("P", "Total pressure")
	if err != nil {
		return nil, err
	}
	temp, err := p.RequireFloat("T", "Working temperature")
	if err != nil {
		return nil, err
	}
	if temp <= -273 {
		return nil, calculator.Errorf("Working temperature (T) must be greater than -273 ℃")
	}
	n, err := p.RequirePositive("n", "Speed")
	if err != nil {
		return nil, err
	}
	d, err := p.RequirePositive("D", "Impeller diameter")
	if err != nil {
		return nil, err
	}
	k := p.FloatOr("k", 1.4)
	if k <= 1 {
		return nil, calculator.Errorf("Adiabatic exponent (k) must be greater than 1")
	}
	altitude := p.FloatOr("H", 0)
	inlet := p.FloatOr("P_inlet", 0)
	rhoStd := p.FloatOr("rho_standard", 1.2)
	fanType := p.String("fan_type", "4-68")
	suction := 1.0
	if p.String("suction_type", "single") == "double" {
		suction = 2
	}

	points, err := c.points(ctx, fanType, p)
	if err != nil {
		return nil, err
	}

	var formula strings.Builder
	extra := map[string]any{}

	pAtm := 101325 * math.Pow(1-0.02257*altitude/1000, 5.256)
	extra["P_atm"] = pAtm
	fmt.Fprintf(&formula, "P_atm = 101325 × (1 - 0.02257 × %s/1000)^5.256 = %.2f Pa\n", calculator.Fmt(altitude), pAtm)

	rho := (273 / (temp + 273)) * ((pAtm + inlet) / 101325) * rhoStd
	extra["rho_working"] = rho
	fmt.Fprintf(&formula, "ρ = (273/(273+%s)) × (%.2f + %s)/101325 × %s = %.6f kg/m³\n",
		calculator.Fmt(temp), pAtm, calculator.Fmt(inlet), calculator.Fmt(rhoStd), rho)

	total := pAtm + inlet
	if total <= 0 {
		return nil, calculator.Errorf("atmospheric plus inlet pressure must be greater than 0")
	}
	ratio := pressure / total
	z := (k / (k - 1)) * (math.Pow(1+ratio, (k-1)/k) - 1) / ratio
	extra["Z"] = z
	fmt.Fprintf(&formula, "Z = (k/(k-1)) × ((1 + P/(P_atm + P_inlet))^((k-1)/k) - 1) × (P/(P_atm + P_inlet))^-1 = %.6f\n", z)

	ns := 5.54 * n * math.Sqrt(q/3600) / math.Pow(pressure*1.2/rho, 0.75)
	extra["ns"] = ns
	fmt.Fprintf(&formula, "ns = 5.54 × n × (Q/3600)^0.5 / (P × 1.2/ρ)^0.75 = %.2f\n", ns)

	u := math.Pi * d * n / 60
	extra["u"] = u
	fmt.Fprintf(&formula, "u = π × D × n/60 = %.2f m/s\n", u)

	sel := Selection{
		AtmosphericPressure: calculator.Round(pAtm, 2),
		WorkingDensity:      calculator.Round(rho, 6),
		Compressibility:     calculator.Round(z, 6),
		SpecificSpeed:       calculator.Round(ns, 2),
		TipSpeed:            calculator.Round(u, 2),
		FanModel:            fmt.Sprintf("%s№%d", fanType, int(d*10)),
	}
	extra["fan_model"] = sel.FanModel

	shaftFactor := 1.15
	if temp >= 200 {
		shaftFactor = 1.3
	}
	for i, pt := range points {
		idx := i + 1
		qPoint := pt.FlowCoefficient * (math.Pi / 4) * d * d * math.Pi * d * n / 60 * 3600 * suction
		pPoint := pt.PressureCoefficient * rho * u * u
		if compressibleTypes[fanType] {
			pPoint = pPoint / z * 0.9784
		}
		internal := (qPoint / 3600) * pPoint / (pt.Efficiency / 100) / 10
		shaft := internal / 0.98 * shaftFactor

		extra[fmt.Sprintf("Q_%d", idx)] = qPoint
		extra[fmt.Sprintf("P_%d", idx)] = pPoint
		extra[fmt.Sprintf("P_internal_%d", idx)] = internal
		extra[fmt.Sprintf("P_shaft_%d", idx)] = shaft

		sel.Points = append(sel.Points, PointResult{
			Index:         idx,
			Flow:          calculator.Round(qPoint, 2),
			TotalPressure: calculator.Round(pPoint, 2),
			Efficiency:    calculator.Round(pt.Efficiency, 1),
			InternalPower: calculator.Round(internal, 2),
			ShaftPower:    calculator.Round(shaft, 2),
		})
		fmt.Fprintf(&formula, "point %d: Q = %.2f m³/h, P = %.2f Pa, P_internal = %.2f kW, P_shaft = %.2f kW\n",
			idx, qPoint, pPoint, internal, shaft)
	}

	if psi := points[0].PressureCoefficient; psi > 0 {
		rough := 27 / n * math.Sqrt(pressure/2/rho/psi)
		extra["D_rough"] = rough
		r := calculator.Round(rough, 4)
		sel.RoughDiameter = &r
		fmt.Fprintf(&formula, "D_rough = 27/n × (P/2/ρ/ψ)^0.5 = %.4f m\n", rough)
	}

	return &calculator.Result{
		Result:       sel,
		Unit:         "m³/h, Pa, kW",
		Formula:      strings.TrimRight(formula.String(), "\n"),
		ScenarioName: "Fan selection",
		Extra:        extra,
	}, nil
}

// points returns the inline performance points of the request, or the stored
// curve of fanType.
func (c *FanSelection) points(ctx context.Context, fanType string, p calculator.Params) ([]models.PerformancePoint, error) {
	if raw, ok := p["performance_points"].([]any); ok && len(raw) > 0 {
		return inlinePoints(raw)
	}
	if c.curves == nil {
		return nil, calculator.Errorf("no performance data for fan type %s; supply performance_points", fanType)
	}
	pts, err := c.curves.Get(ctx, fanType)
	if errors.Is(err, interfaces.ErrCurveNotFound) {
		return nil, calculator.Errorf("no performance data for fan type %s; supply performance_points or import the curve", fanType)
	}
	if err != nil {
		return nil, fmt.Errorf("load curve %s: %w", fanType, err)
	}
	return pts, nil
}

// inlinePoints reads request-supplied points of the form
// {"phi": .., "psi_p": .., "eta": ..}. Incomplete points are skipped.
func inlinePoints(raw []any) ([]models.PerformancePoint, error) {
	var out []models.PerformancePoint
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, calculator.Errorf("performance_points[%d] must be an object", i)
		}
		pt := calculator.Params(m)
		phi, ok1 := pt.Float("phi")
		psi, ok2 := pt.Float("psi_p")
		eta, ok3 := pt.Float("eta")
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		if eta <= 0 {
			return nil, calculator.Errorf("performance_points[%d].eta must be greater than 0", i)
		}
		out = append(out, models.PerformancePoint{
			Index:               i + 1,
			FlowCoefficient:     phi,
			PressureCoefficient: psi,
			Efficiency:          eta,
		})
	}
	if len(out) == 0 {
		return nil, calculator.Errorf("performance_points has no complete point (phi, psi_p, eta)")
	}
	return out, nil
}
