package calculator

import (
	"fmt"
	"math"
)

// Params is the validated, null-free parameter map handed to a calculator.
// Declared numeric parameters arrive as float64 (number) or int64 (integer);
// undeclared fields arrive as decoded JSON values.
type Params map[string]any

// Float returns the numeric value of key and whether it was provided.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// FloatOr returns the numeric value of key, or def when absent.
func (p Params) FloatOr(key string, def float64) float64 {
	if v, ok := p.Float(key); ok {
		return v
	}
	return def
}

// String returns the string value of key, or def when absent.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// RequireFloat returns key's value or a DomainError naming what is missing.
func (p Params) RequireFloat(key, label string) (float64, error) {
	v, ok := p.Float(key)
	if !ok {
		return 0, Errorf("%s (%s) is required", label, key)
	}
	return v, nil
}

// RequirePositive returns key's value if it is present and greater than zero.
func (p Params) RequirePositive(key, label string) (float64, error) {
	v, err := p.RequireFloat(key, label)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, Errorf("%s (%s) must be greater than 0", label, key)
	}
	return v, nil
}

// RequireAll checks that every key is present.
func (p Params) RequireAll(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := p[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Errorf("missing required parameters: %v", missing)
	}
	return nil
}

// Round rounds v to n decimal places.
func Round(v float64, n int) float64 {
	pow := math.Pow(10, float64(n))
	return math.Round(v*pow) / pow
}

// Fmt formats v for formula traces.
func Fmt(v float64) string {
	return fmt.Sprintf("%g", v)
}
