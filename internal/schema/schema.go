// Package schema compiles a tool's declared parameters into a request
// validator. Validation works on the raw JSON so that integer-ness and
// explicit nulls are visible before any decoding.
package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/bobmcallan/calc-portal/internal/calculator"
	"github.com/bobmcallan/calc-portal/internal/registry"
)

// ScenarioField is the reserved request field carrying the scenario id.
const ScenarioField = registry.ScenarioField

// ValidationError names the first request field that violated a constraint.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Constraint
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Constraint)
}

// Compiled is the request validator of one tool. It is immutable and safe
// for concurrent use.
type Compiled struct {
	toolID    string
	params    []registry.ParameterSpec
	declared  map[string]bool
	scenarios []string
}

// Compile builds the validator for tool.
func Compile(tool *registry.ToolSpec) *Compiled {
	c := &Compiled{
		toolID:   tool.ID,
		params:   append([]registry.ParameterSpec(nil), tool.Parameters...),
		declared: make(map[string]bool, len(tool.Parameters)),
	}
	for _, p := range tool.Parameters {
		c.declared[p.Name] = true
	}
	for _, s := range tool.Scenarios {
		c.scenarios = append(c.scenarios, s.ID)
	}
	return c
}

// Validator adapts Compile to registry.CompileFunc.
func Validator(tool *registry.ToolSpec) registry.Validator {
	return Compile(tool)
}

// Validate checks body against the declared parameters and returns the
// scenario and the null-free parameter map. Declared numbers become float64,
// declared integers int64. Undeclared fields pass through as decoded JSON.
func (c *Compiled) Validate(body []byte) (*calculator.Request, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ValidationError{Constraint: "request body must be valid JSON"}
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, &ValidationError{Constraint: "request body must be a JSON object"}
	}

	fields := make(map[string]gjson.Result)
	var order []string
	doc.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, seen := fields[k]; !seen {
			order = append(order, k)
		}
		fields[k] = value
		return true
	})

	req := &calculator.Request{Params: make(calculator.Params, len(fields))}

	for _, p := range c.params {
		v, ok := fields[p.Name]
		if !ok || v.Type == gjson.Null {
			if p.Required {
				return nil, &ValidationError{Field: p.Name, Constraint: "is required"}
			}
			continue
		}
		value, err := coerce(p, v)
		if err != nil {
			return nil, err
		}
		req.Params[p.Name] = value
	}

	if v, ok := fields[ScenarioField]; ok && v.Type != gjson.Null {
		if v.Type != gjson.String {
			return nil, &ValidationError{Field: ScenarioField, Constraint: "must be a string"}
		}
		req.Scenario = v.String()
	}

	for _, k := range order {
		if k == ScenarioField || c.declared[k] {
			continue
		}
		v := fields[k]
		if v.Type == gjson.Null {
			continue
		}
		req.Params[k] = v.Value()
	}
	return req, nil
}

func coerce(p registry.ParameterSpec, v gjson.Result) (any, error) {
	switch p.Type {
	case registry.TypeNumber:
		if v.Type != gjson.Number {
			return nil, &ValidationError{Field: p.Name, Constraint: "must be a number"}
		}
		f := v.Float()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, &ValidationError{Field: p.Name, Constraint: "must be a finite number"}
		}
		if err := checkBounds(p, f); err != nil {
			return nil, err
		}
		return f, nil

	case registry.TypeInteger:
		if v.Type != gjson.Number {
			return nil, &ValidationError{Field: p.Name, Constraint: "must be an integer"}
		}
		f := v.Float()
		if math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return nil, &ValidationError{Field: p.Name, Constraint: "must be an integer"}
		}
		if err := checkBounds(p, f); err != nil {
			return nil, err
		}
		return int64(f), nil

	case registry.TypeString:
		if v.Type != gjson.String {
			return nil, &ValidationError{Field: p.Name, Constraint: "must be a string"}
		}
		return v.String(), nil

	case registry.TypeBoolean:
		if v.Type != gjson.True && v.Type != gjson.False {
			return nil, &ValidationError{Field: p.Name, Constraint: "must be a boolean"}
		}
		return v.Bool(), nil

	case registry.TypeEnum:
		if v.Type != gjson.String {
			return nil, &ValidationError{Field: p.Name, Constraint: "must be a string"}
		}
		s := v.String()
		for _, allowed := range p.AllowedValues {
			if s == allowed {
				return s, nil
			}
		}
		return nil, &ValidationError{
			Field:      p.Name,
			Constraint: fmt.Sprintf("must be one of [%s]", strings.Join(p.AllowedValues, ", ")),
		}
	}
	return nil, &ValidationError{Field: p.Name, Constraint: fmt.Sprintf("unsupported type %q", p.Type)}
}

func checkBounds(p registry.ParameterSpec, f float64) error {
	if p.Minimum != nil && f < *p.Minimum {
		return &ValidationError{Field: p.Name, Constraint: fmt.Sprintf("must be >= %g", *p.Minimum)}
	}
	if p.Maximum != nil && f > *p.Maximum {
		return &ValidationError{Field: p.Name, Constraint: fmt.Sprintf("must be <= %g", *p.Maximum)}
	}
	return nil
}

// Describe returns a JSON-Schema-shaped description of the request body.
func (c *Compiled) Describe() map[string]any {
	props := make(map[string]any, len(c.params)+1)
	var required []string
	for _, p := range c.params {
		prop := map[string]any{}
		switch p.Type {
		case registry.TypeEnum:
			prop["type"] = "string"
			prop["enum"] = p.AllowedValues
		default:
			prop["type"] = string(p.Type)
		}
		desc := p.Label
		if p.Description != "" {
			desc = p.Label + ": " + p.Description
		}
		if p.Unit != "" {
			desc += " [" + p.Unit + "]"
		}
		prop["description"] = desc
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	if len(c.scenarios) > 0 {
		props[ScenarioField] = map[string]any{
			"type":        "string",
			"enum":        c.scenarios,
			"description": "Calculation scenario",
		}
	}

	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// Scenarios returns the scenario ids declared by the tool.
func (c *Compiled) Scenarios() []string {
	return c.scenarios
}
