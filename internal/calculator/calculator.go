// Package calculator defines the contract between the dispatcher and the
// engineering calculators: the two calling shapes, the result envelope, the
// domain error type, and the factory table that maps a tool's calculatorRef
// to a constructor.
//
// A calculator satisfies exactly one of Simple or Scenario. Both declare a
// method named Calculate, so a single type cannot satisfy both. Instances are
// cached and shared across concurrent requests and must not hold per-request
// mutable state.
package calculator

import "context"

// Simple is a single-purpose calculator. Any scenario in the request is ignored.
type Simple interface {
	Calculate(ctx context.Context, params Params) (*Result, error)
}

// Scenario is a calculator multiplexing several formulas behind a scenario id.
type Scenario interface {
	Calculate(ctx context.Context, scenario string, params Params) (*Result, error)
}

// Shape identifies which calling convention a calculator instance satisfies.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeSimple
	ShapeScenario
)

func (s Shape) String() string {
	switch s {
	case ShapeSimple:
		return "simple"
	case ShapeScenario:
		return "scenario"
	default:
		return "unknown"
	}
}

// ShapeOf reports the calling convention of instance.
func ShapeOf(instance any) Shape {
	switch instance.(type) {
	case Scenario:
		return ShapeScenario
	case Simple:
		return ShapeSimple
	default:
		return ShapeUnknown
	}
}

// Result is the uniform response envelope of every calculation.
// Extra carries intermediate values for display; Result alone must be correct.
type Result struct {
	Result       any            `json:"result"`
	Unit         string         `json:"unit"`
	Formula      string         `json:"formula"`
	ScenarioName string         `json:"scenarioName"`
	Mass         *float64       `json:"mass,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Missing returns the names of envelope fields a calculator left empty.
func (r *Result) Missing() []string {
	var missing []string
	if r.Result == nil {
		missing = append(missing, "result")
	}
	if r.Unit == "" {
		missing = append(missing, "unit")
	}
	if r.Formula == "" {
		missing = append(missing, "formula")
	}
	if r.ScenarioName == "" {
		missing = append(missing, "scenarioName")
	}
	return missing
}

// WithMass sets the optional mass field.
func (r *Result) WithMass(kg float64) *Result {
	r.Mass = &kg
	return r
}

// Request is a validated calculation request: the optional scenario id and the
// null-free parameters with scenario removed.
type Request struct {
	Scenario string
	Params   Params
}
