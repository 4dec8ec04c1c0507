package models

// PerformancePoint is one measured point of a fan's dimensionless performance
// curve.
type PerformancePoint struct {
	Index               int     `json:"index"`
	FlowCoefficient     float64 `json:"flowCoefficient"`
	PressureCoefficient float64 `json:"pressureCoefficient"`
	Efficiency          float64 `json:"efficiency"`
}

// PerformanceCurve is the ordered set of points for one fan model.
type PerformanceCurve struct {
	Model  string             `json:"model"`
	Points []PerformancePoint `json:"points"`
}
