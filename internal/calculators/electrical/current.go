// Package electrical implements the circuit and motor current calculator.
package electrical

import (
	"context"
	"fmt"
	"math"

	"github.com/bobmcallan/calc-portal/internal/calculator"
)

// Ref is the calculatorRef of the current calculator.
const Ref = "electrical.current"

// Register adds the electrical calculators to f.
func Register(f *calculator.Factories) error {
	return f.Register(Ref, func() (any, error) { return NewCurrent(), nil })
}

type scenarioFunc func(p calculator.Params) (*calculator.Result, error)

type scenario struct {
	name string
	calc scenarioFunc
}

// Current computes load currents, conductor resistances, voltage losses and
// power from current.
type Current struct {
	scenarios map[string]scenario
}

// NewCurrent returns the current calculator.
func NewCurrent() *Current {
	return &Current{scenarios: map[string]scenario{
		"pure_resistor":             {"Pure resistive load", pureResistor},
		"inductive":                 {"Inductive load", inductive},
		"single_phase_motor":        {"Single-phase motor", singlePhaseMotor},
		"three_phase_motor":         {"Three-phase motor", threePhaseMotor},
		"residential":               {"Residential total load", residential},
		"wire_resistance":           {"Conductor resistance", wireResistance},
		"busbar_resistance":         {"Busbar resistance", busbarResistance},
		"wire_current_3phase":       {"Conductor current (three-phase)", wireCurrent3Phase},
		"wire_current_1phase":       {"Conductor current (single-phase)", wireCurrent1Phase},
		"voltage_loss":              {"Voltage loss", voltageLoss},
		"voltage_loss_percent":      {"Voltage loss ratio", voltageLossPercent},
		"energy_meter_multiplier":   {"Energy meter multiplier", energyMeterMultiplier},
		"power_from_current_3phase": {"Three-phase power from current", powerFromCurrent3Phase},
		"power_from_current_1phase": {"Single-phase power from current", powerFromCurrent1Phase},
	}}
}

// Scenarios returns the implemented scenario ids.
func (c *Current) Scenarios() []string {
	out := make([]string, 0, len(c.scenarios))
	for id := range c.scenarios {
		out = append(out, id)
	}
	return out
}

// Calculate runs scenario against p.
func (c *Current) Calculate(_ context.Context, scenario string, p calculator.Params) (*calculator.Result, error) {
	s, ok := c.scenarios[scenario]
	if !ok {
		return nil, calculator.UnknownScenario(scenario)
	}
	res, err := s.calc(p)
	if err != nil {
		return nil, err
	}
	res.ScenarioName = s.name
	return res, nil
}

func amps(v float64, formula string) *calculator.Result {
	return &calculator.Result{Result: calculator.Round(v, 4), Unit: "A", Formula: formula}
}

func nonZero(label string, vals ...float64) error {
	for _, v := range vals {
		if v == 0 {
			return calculator.Errorf("%s must not be 0", label)
		}
	}
	return nil
}

func pureResistor(p calculator.Params) (*calculator.Result, error) {
	power, err := p.RequireFloat("power", "Power")
	if err != nil {
		return nil, err
	}
	voltage, err := p.RequireFloat("voltage", "Voltage")
	if err != nil {
		return nil, err
	}
	if err := nonZero("Voltage", voltage); err != nil {
		return nil, err
	}
	return amps(power/voltage, "I = P / U"), nil
}

func inductive(p calculator.Params) (*calculator.Result, error) {
	power, err := p.RequireFloat("power", "Power")
	if err != nil {
		return nil, err
	}
	voltage, err := p.RequireFloat("voltage", "Voltage")
	if err != nil {
		return nil, err
	}
	cosPhi := p.FloatOr("cos_phi", 0.85)
	if err := nonZero("Voltage and power factor", voltage, cosPhi); err != nil {
		return nil, err
	}
	return amps(power/(voltage*cosPhi), "I = P / (U × cosφ)"), nil
}

func motorInputs(p calculator.Params) (power, voltage, eff, cosPhi float64, err error) {
	if power, err = p.RequireFloat("power", "Power"); err != nil {
		return
	}
	if voltage, err = p.RequireFloat("voltage", "Voltage"); err != nil {
		return
	}
	eff = p.FloatOr("efficiency", 0.875)
	cosPhi = p.FloatOr("cos_phi", 0.89)
	err = nonZero("Voltage, efficiency and power factor", voltage, eff, cosPhi)
	return
}

func singlePhaseMotor(p calculator.Params) (*calculator.Result, error) {
	power, voltage, eff, cosPhi, err := motorInputs(p)
	if err != nil {
		return nil, err
	}
	return amps(power/(voltage*eff*cosPhi), "I = P / (U × η × cosφ)"), nil
}

func threePhaseMotor(p calculator.Params) (*calculator.Result, error) {
	power, voltage, eff, cosPhi, err := motorInputs(p)
	if err != nil {
		return nil, err
	}
	return amps(power/(math.Sqrt(3)*voltage*eff*cosPhi), "I = P / (√3 × U × η × cosφ)"), nil
}

func residential(p calculator.Params) (*calculator.Result, error) {
	total, err := p.RequireFloat("total_power", "Total power")
	if err != nil {
		return nil, err
	}
	kc := p.FloatOr("kc", 0.5)
	voltage := p.FloatOr("voltage", 220)
	cosPhi := p.FloatOr("cos_phi", 0.8)
	if err := nonZero("Voltage and power factor", voltage, cosPhi); err != nil {
		return nil, err
	}
	pjs := kc * total
	current := pjs / (voltage * cosPhi)
	formula := fmt.Sprintf("Pjs = Kc × PΣ = %s × %s = %.2fW; Ijs = Pjs / (U × cosφ) = %.2f / (%s × %s) = %.4fA",
		calculator.Fmt(kc), calculator.Fmt(total), pjs, pjs, calculator.Fmt(voltage), calculator.Fmt(cosPhi), current)
	return amps(current, formula), nil
}

func wireResistance(p calculator.Params) (*calculator.Result, error) {
	var (
		r       float64
		formula string
	)
	if r20, ok := p.Float("r20"); ok {
		a20 := p.FloatOr("a20", 0.004)
		t := p.FloatOr("temperature", 20)
		r = r20 * (1 + a20*(t-20))
		formula = fmt.Sprintf("Rt = R20[1 + a20(t-20)] = %s × [1 + %s × (%s - 20)]",
			calculator.Fmt(r20), calculator.Fmt(a20), calculator.Fmt(t))
	} else {
		rho, okRho := p.Float("rho")
		area, okArea := p.Float("area")
		if !okRho || !okArea {
			return nil, calculator.Errorf("conductor resistance needs resistivity and cross-section, or the resistance at 20℃")
		}
		if err := nonZero("Cross-section", area); err != nil {
			return nil, err
		}
		r = rho / area
		formula = fmt.Sprintf("Ro = ρ / S = %s / %s", calculator.Fmt(rho), calculator.Fmt(area))
	}
	return &calculator.Result{Result: calculator.Round(r, 6), Unit: "Ω/km", Formula: formula}, nil
}

func busbarResistance(p calculator.Params) (*calculator.Result, error) {
	conductivity, err := p.RequireFloat("conductivity", "Conductivity")
	if err != nil {
		return nil, err
	}
	area, err := p.RequireFloat("area", "Cross-section")
	if err != nil {
		return nil, err
	}
	if err := nonZero("Conductivity and cross-section", conductivity, area); err != nil {
		return nil, err
	}
	return &calculator.Result{
		Result:  calculator.Round(1000/(conductivity*area), 4),
		Unit:    "mΩ/m",
		Formula: "R0 = 1000 / (r × S)",
	}, nil
}

func wireCurrent(p calculator.Params, phaseFactor, defVoltage, defCos float64, prefix string) (*calculator.Result, error) {
	voltage := p.FloatOr("voltage", defVoltage)
	if power, ok := p.Float("power"); ok {
		cosPhi := p.FloatOr("cos_phi", defCos)
		if err := nonZero("Voltage and power factor", voltage, cosPhi); err != nil {
			return nil, err
		}
		current := power * 1000 / (phaseFactor * voltage * cosPhi)
		formula := fmt.Sprintf("Ijs = Pjs / (%sUe × cosφ) = %s / (%s%s × %s) = %.3fA",
			prefix, calculator.Fmt(power), prefix, calculator.Fmt(voltage), calculator.Fmt(cosPhi), current)
		return amps(current, formula), nil
	}
	if apparent, ok := p.Float("apparent_power"); ok {
		if err := nonZero("Voltage", voltage); err != nil {
			return nil, err
		}
		current := apparent * 1000 / (phaseFactor * voltage)
		formula := fmt.Sprintf("Ijs = Sjs / (%sUe) = %s / (%s%s) = %.3fA",
			prefix, calculator.Fmt(apparent), prefix, calculator.Fmt(voltage), current)
		return amps(current, formula), nil
	}
	return nil, calculator.Errorf("either active power or apparent power is required")
}

func wireCurrent3Phase(p calculator.Params) (*calculator.Result, error) {
	return wireCurrent(p, math.Sqrt(3), 380, 0.89, "√3 × ")
}

func wireCurrent1Phase(p calculator.Params) (*calculator.Result, error) {
	return wireCurrent(p, 1, 220, 0.8, "")
}

func voltageLoss(p calculator.Params) (*calculator.Result, error) {
	u1, err := p.RequireFloat("u1", "Sending-end voltage")
	if err != nil {
		return nil, err
	}
	u2, err := p.RequireFloat("u2", "Receiving-end voltage")
	if err != nil {
		return nil, err
	}
	return &calculator.Result{Result: calculator.Round(u1-u2, 4), Unit: "V", Formula: "△U = U1 - U2"}, nil
}

func voltageLossPercent(p calculator.Params) (*calculator.Result, error) {
	u1, err := p.RequireFloat("u1", "Sending-end voltage")
	if err != nil {
		return nil, err
	}
	u2, err := p.RequireFloat("u2", "Receiving-end voltage")
	if err != nil {
		return nil, err
	}
	ue, err := p.RequireFloat("ue", "Rated line voltage")
	if err != nil {
		return nil, err
	}
	if err := nonZero("Rated line voltage", ue); err != nil {
		return nil, err
	}
	return &calculator.Result{
		Result:  calculator.Round((u1-u2)/ue*100, 4),
		Unit:    "%",
		Formula: "△U% = (U1 - U2) / Ue × 100",
	}, nil
}

func energyMeterMultiplier(p calculator.Params) (*calculator.Result, error) {
	kta, err := p.RequireFloat("kta", "Current transformer ratio")
	if err != nil {
		return nil, err
	}
	ktv, err := p.RequireFloat("ktv", "Voltage transformer ratio")
	if err != nil {
		return nil, err
	}
	ktae := p.FloatOr("ktae", 1)
	ktve := p.FloatOr("ktve", 1)
	kj := p.FloatOr("kj", 1)
	if err := nonZero("Meter nameplate ratios", ktae, ktve); err != nil {
		return nil, err
	}
	k := (kta / ktae) * (ktv / ktve) * kj
	formula := fmt.Sprintf("K = (KTA/KTAe) × (KTV/KTVe) × Kj = (%s/%s) × (%s/%s) × %s = %.0f",
		calculator.Fmt(kta), calculator.Fmt(ktae), calculator.Fmt(ktv), calculator.Fmt(ktve), calculator.Fmt(kj), k)
	return &calculator.Result{Result: calculator.Round(k, 4), Unit: "×", Formula: formula}, nil
}

func powerFromCurrent(p calculator.Params, phaseFactor float64, formula string) (*calculator.Result, error) {
	current, err := p.RequireFloat("current", "Current")
	if err != nil {
		return nil, err
	}
	voltage, err := p.RequireFloat("voltage", "Voltage")
	if err != nil {
		return nil, err
	}
	cosPhi, err := p.RequireFloat("cos_phi", "Power factor")
	if err != nil {
		return nil, err
	}
	if err := nonZero("Voltage", voltage); err != nil {
		return nil, err
	}
	eff := p.FloatOr("efficiency", 1.0)
	kw := phaseFactor * voltage * current * cosPhi * eff / 1000
	return &calculator.Result{Result: calculator.Round(kw, 4), Unit: "kW", Formula: formula}, nil
}

func powerFromCurrent3Phase(p calculator.Params) (*calculator.Result, error) {
	return powerFromCurrent(p, math.Sqrt(3), "P = √3 × U × I × cosφ × η")
}

func powerFromCurrent1Phase(p calculator.Params) (*calculator.Result, error) {
	return powerFromCurrent(p, 1, "P = U × I × cosφ × η")
}
