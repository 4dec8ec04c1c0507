// Package calculators wires every shipped calculator into a factory table.
package calculators

import (
	"github.com/bobmcallan/calc-portal/internal/calculator"
	"github.com/bobmcallan/calc-portal/internal/calculators/electrical"
	"github.com/bobmcallan/calc-portal/internal/calculators/fluid"
	"github.com/bobmcallan/calc-portal/internal/calculators/motion"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
)

// Deps are the shared services calculators may depend on.
type Deps struct {
	Curves interfaces.PerformanceCurveStorage
}

// NewFactories returns a factory table with every shipped calculator registered.
func NewFactories(deps Deps) (*calculator.Factories, error) {
	f := calculator.NewFactories()
	if err := electrical.Register(f); err != nil {
		return nil, err
	}
	if err := motion.Register(f); err != nil {
		return nil, err
	}
	if err := fluid.Register(f, deps.Curves); err != nil {
		return nil, err
	}
	return f, nil
}
