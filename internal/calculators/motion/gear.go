package motion

import (
	"context"
	"fmt"

	"github.com/bobmcallan/calc-portal/internal/calculator"
)

// GearRatio computes the servo electronic gear ratio. It works forward from a
// load travel over a number of motor revolutions, or in reverse from a target
// pulse equivalent when one is given.
type GearRatio struct{}

// NewGearRatio returns the electronic gear ratio calculator.
func NewGearRatio() *GearRatio {
	return &GearRatio{}
}

func positive(p calculator.Params, key string) (float64, bool) {
	v, ok := p.Float(key)
	return v, ok && v > 0
}

// Calculate picks the direction from the supplied inputs.
func (GearRatio) Calculate(_ context.Context, p calculator.Params) (*calculator.Result, error) {
	enc, err := p.RequirePositive("encoder_resolution", "Encoder resolution")
	if err != nil {
		return nil, err
	}
	ratio, err := p.RequirePositive("mechanical_ratio", "Mechanical reduction ratio")
	if err != nil {
		return nil, err
	}
	dist, hasDist := positive(p, "load_distance")
	revs, hasRevs := positive(p, "motor_revolutions")
	extra := map[string]any{}

	if pe, ok := positive(p, "pulse_equivalent"); ok {
		var (
			egr     float64
			formula string
		)
		if hasDist && hasRevs {
			perRev := dist / revs
			egr = (enc * pe * (1 / ratio)) / perRev
			extra["displacement_per_revolution"] = perRev
			formula = fmt.Sprintf("EGR = (encoder × pulse equivalent × (1 / ratio)) / (distance / revolutions) = (%s × %s × %.6f) / %.6f = %.6f",
				calculator.Fmt(enc), calculator.Fmt(pe), 1/ratio, perRev, egr)
		} else {
			egr = enc / (pe * ratio)
			formula = fmt.Sprintf("EGR = encoder / (pulse equivalent × ratio) = %s / (%s × %s) = %.6f",
				calculator.Fmt(enc), calculator.Fmt(pe), calculator.Fmt(ratio), egr)
		}
		extra["electronic_gear_ratio"] = egr
		if hasDist {
			extra["motor_revolutions_calc"] = dist / (enc * egr * ratio * pe)
		}
		return &calculator.Result{
			Result:       egr,
			Unit:         "ratio",
			Formula:      formula,
			ScenarioName: "Reverse (from pulse equivalent)",
			Extra:        extra,
		}, nil
	}

	if _, ok := p.Float("load_distance"); ok && hasRevs {
		if !hasDist {
			return nil, calculator.Errorf("Load distance (load_distance) must be greater than 0")
		}
		egr := enc * ratio * revs / dist
		extra["electronic_gear_ratio"] = egr
		extra["pulse_equivalent_calc"] = dist / (enc * egr * ratio * revs)
		formula := fmt.Sprintf("EGR = (encoder × ratio × revolutions) / distance = (%s × %s × %s) / %s = %.6f",
			calculator.Fmt(enc), calculator.Fmt(ratio), calculator.Fmt(revs), calculator.Fmt(dist), egr)
		return &calculator.Result{
			Result:       egr,
			Unit:         "ratio",
			Formula:      formula,
			ScenarioName: "Forward (from travel and revolutions)",
			Extra:        extra,
		}, nil
	}

	return nil, calculator.Errorf("provide either load_distance with motor_revolutions, or pulse_equivalent")
}
