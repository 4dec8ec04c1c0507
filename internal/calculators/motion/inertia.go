// Package motion implements the motion-control calculators: moment of
// inertia of common bodies and the servo electronic gear ratio.
package motion

import (
	"context"
	"fmt"
	"math"

	"github.com/bobmcallan/calc-portal/internal/calculator"
)

const (
	InertiaRef = "motion.inertia"
	GearRef    = "motion.electronic_gear_ratio"
)

// Register adds the motion calculators to f.
func Register(f *calculator.Factories) error {
	if err := f.Register(InertiaRef, func() (any, error) { return NewInertia(), nil }); err != nil {
		return err
	}
	return f.Register(GearRef, func() (any, error) { return NewGearRatio(), nil })
}

const inertiaUnit = "kg·cm²"

// body is the mass and the moment of inertia about the body's own axis, in SI units.
type body struct {
	mass float64
	j0   float64
	expr string
}

// Inertia computes the moment of inertia of cylinders, blocks, disks and
// linearly moving loads as seen by the motor shaft. Lengths are in mm,
// densities in kg/m³ and results in kg·cm².
type Inertia struct {
	names map[string]string
}

// NewInertia returns the inertia calculator.
func NewInertia() *Inertia {
	return &Inertia{names: map[string]string{
		"cylinder_parallel":      "Cylinder, axis parallel",
		"cylinder_perpendicular": "Cylinder, axis perpendicular",
		"rectangular":            "Rectangular block",
		"disk":                   "Disk",
		"linear_motion":          "Linear motion",
		"direct_inertia":         "Parallel axis shift",
	}}
}

// Calculate runs scenario against p.
func (c *Inertia) Calculate(_ context.Context, scenario string, p calculator.Params) (*calculator.Result, error) {
	name, ok := c.names[scenario]
	if !ok {
		return nil, calculator.UnknownScenario(scenario)
	}

	var (
		res *calculator.Result
		err error
	)
	switch scenario {
	case "linear_motion":
		res, err = linearMotion(p)
	case "direct_inertia":
		res, err = directInertia(p)
	default:
		var b body
		b, err = solidBody(scenario, p)
		if err == nil {
			res = withOffset(b, p.FloatOr("e", 0)/1000)
		}
	}
	if err != nil {
		return nil, err
	}
	res.ScenarioName = name
	return res, nil
}

func mm(p calculator.Params, key, label string) (float64, error) {
	v, err := p.RequireFloat(key, label)
	return v / 1000, err
}

func solidBody(scenario string, p calculator.Params) (body, error) {
	rho, err := p.RequireFloat("rho", "Density")
	if err != nil {
		return body{}, err
	}

	switch scenario {
	case "cylinder_parallel", "cylinder_perpendicular":
		d0, err := mm(p, "d0", "Outer diameter")
		if err != nil {
			return body{}, err
		}
		l, err := mm(p, "L", "Length")
		if err != nil {
			return body{}, err
		}
		d1 := p.FloatOr("d1", 0) / 1000
		if d1 >= d0 {
			return body{}, calculator.Errorf("inner diameter must be smaller than outer diameter")
		}
		m := math.Pi * (math.Pow(d0/2, 2) - math.Pow(d1/2, 2)) * l * rho
		if scenario == "cylinder_parallel" {
			return body{
				mass: m,
				j0:   math.Pi / 32 * rho * l * (math.Pow(d0, 4) - math.Pow(d1, 4)),
				expr: "(π/32) × ρ × L × (d0⁴ - d1⁴)",
			}, nil
		}
		return body{
			mass: m,
			j0:   m / 4 * ((d0*d0+d1*d1)/4 + l*l/3),
			expr: "(1/4) × m × ((d0²+d1²)/4 + L²/3)",
		}, nil

	case "rectangular":
		x, err := mm(p, "x", "Length")
		if err != nil {
			return body{}, err
		}
		y, err := mm(p, "y", "Width")
		if err != nil {
			return body{}, err
		}
		z, err := mm(p, "z", "Height")
		if err != nil {
			return body{}, err
		}
		m := x * y * z * rho
		return body{mass: m, j0: m / 12 * (x*x + y*y), expr: "(1/12) × m × (x²+y²)"}, nil

	case "disk":
		d, err := mm(p, "d", "Diameter")
		if err != nil {
			return body{}, err
		}
		h, err := mm(p, "h", "Thickness")
		if err != nil {
			return body{}, err
		}
		m := math.Pi * math.Pow(d/2, 2) * h * rho
		return body{mass: m, j0: m / 8 * d * d, expr: "(1/8) × m × d²"}, nil
	}
	return body{}, calculator.UnknownScenario(scenario)
}

// withOffset applies the parallel axis theorem for an offset of e metres.
func withOffset(b body, e float64) *calculator.Result {
	j := b.j0 + b.mass*e*e
	jcm2 := j * 10000
	formula := fmt.Sprintf("J = %s + m × e² = %.6f + %.4f × %.4f² = %.6f kg·m² = %.4f kg·cm²",
		b.expr, b.j0, b.mass, e, j, jcm2)
	res := &calculator.Result{Result: calculator.Round(jcm2, 4), Unit: inertiaUnit, Formula: formula}
	return res.WithMass(calculator.Round(b.mass, 4))
}

func linearMotion(p calculator.Params) (*calculator.Result, error) {
	a, err := mm(p, "A", "Travel per motor revolution")
	if err != nil {
		return nil, err
	}
	m, err := p.RequireFloat("m", "Mass")
	if err != nil {
		return nil, err
	}
	r := a / (2 * math.Pi)
	j := m * r * r
	formula := fmt.Sprintf("J = m × (A/(2π))² = %.4f × (%.4f/(2π))² = %.6f kg·m² = %.4f kg·cm²", m, a, j, j*10000)
	return &calculator.Result{Result: calculator.Round(j*10000, 4), Unit: inertiaUnit, Formula: formula}, nil
}

func directInertia(p calculator.Params) (*calculator.Result, error) {
	j0, err := p.RequireFloat("J0", "Inertia")
	if err != nil {
		return nil, err
	}
	m, err := p.RequireFloat("m", "Mass")
	if err != nil {
		return nil, err
	}
	e, err := p.RequireFloat("e", "Offset")
	if err != nil {
		return nil, err
	}
	ecm := e / 10
	j1 := j0 + m*ecm*ecm
	formula := fmt.Sprintf("J1 = J0 + m × (e/10)² = %.4f + %.4f × %.4f² = %.4f kg·cm²", j0, m, ecm, j1)
	res := &calculator.Result{Result: calculator.Round(j1, 4), Unit: inertiaUnit, Formula: formula}
	return res.WithMass(calculator.Round(m, 4)), nil
}
