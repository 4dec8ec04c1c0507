// Package registry holds the declarative tool model, the loader that turns a
// directory of YAML definitions into ToolSpecs, and the immutable Registry
// those specs are served from.
package registry

// ScenarioField is the reserved request field carrying the scenario id. No
// parameter may use it as a name.
const ScenarioField = "scenario"

// ParameterType is the declared type of a tool input.
type ParameterType string

const (
	TypeNumber  ParameterType = "number"
	TypeInteger ParameterType = "integer"
	TypeString  ParameterType = "string"
	TypeBoolean ParameterType = "boolean"
	TypeEnum    ParameterType = "enum"
)

// Valid reports whether t is one of the known parameter types.
func (t ParameterType) Valid() bool {
	switch t {
	case TypeNumber, TypeInteger, TypeString, TypeBoolean, TypeEnum:
		return true
	}
	return false
}

// Numeric reports whether bounds apply to t.
func (t ParameterType) Numeric() bool {
	return t == TypeNumber || t == TypeInteger
}

// ParameterSpec declares one input of a tool.
type ParameterSpec struct {
	Name          string        `yaml:"name" json:"name" jsonschema:"required,description=Unique parameter key used by calculators and the API"`
	Label         string        `yaml:"label" json:"label" jsonschema:"required,description=Human readable display name"`
	Description   string        `yaml:"description,omitempty" json:"description,omitempty"`
	Type          ParameterType `yaml:"type" json:"type" jsonschema:"required,enum=number,enum=integer,enum=string,enum=boolean,enum=enum"`
	Unit          string        `yaml:"unit,omitempty" json:"unit,omitempty"`
	Required      bool          `yaml:"required,omitempty" json:"required,omitempty"`
	Minimum       *float64      `yaml:"minimum,omitempty" json:"minimum,omitempty" jsonschema:"description=Inclusive lower bound (number and integer only)"`
	Maximum       *float64      `yaml:"maximum,omitempty" json:"maximum,omitempty" jsonschema:"description=Inclusive upper bound (number and integer only)"`
	AllowedValues []string      `yaml:"allowedValues,omitempty" json:"allowedValues,omitempty" jsonschema:"description=Allowed values (enum only)"`
}

// ScenarioSpec declares one calculation mode of a tool.
type ScenarioSpec struct {
	ID             string   `yaml:"id" json:"id" jsonschema:"required"`
	Title          string   `yaml:"title" json:"title" jsonschema:"required"`
	Summary        string   `yaml:"summary" json:"summary"`
	Formula        string   `yaml:"formula" json:"formula" jsonschema:"description=Documentation only"`
	ParameterNames []string `yaml:"parameterNames" json:"parameterNames" jsonschema:"description=Names of the tool parameters this scenario reads"`
	OutputNames    []string `yaml:"outputNames,omitempty" json:"outputNames,omitempty"`
}

// ExampleCase is a worked example shown alongside a tool.
type ExampleCase struct {
	Title    string         `yaml:"title" json:"title" jsonschema:"required"`
	Scenario string         `yaml:"scenario,omitempty" json:"scenario,omitempty"`
	Inputs   map[string]any `yaml:"inputs" json:"inputs"`
	Expected map[string]any `yaml:"expected,omitempty" json:"expected,omitempty"`
	Notes    string         `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// ToolSpec is the loaded definition of one tool. It is never mutated after load.
type ToolSpec struct {
	ID            string          `yaml:"id" json:"id" jsonschema:"required,pattern=^[a-z0-9][a-z0-9-]*$"`
	DisplayName   string          `yaml:"displayName" json:"displayName" jsonschema:"required"`
	Description   string          `yaml:"description,omitempty" json:"description,omitempty"`
	Category      string          `yaml:"category,omitempty" json:"category,omitempty"`
	Parameters    []ParameterSpec `yaml:"parameters" json:"parameters"`
	Scenarios     []ScenarioSpec  `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`
	Examples      []ExampleCase   `yaml:"examples,omitempty" json:"examples,omitempty"`
	CalculatorRef string          `yaml:"calculatorRef" json:"calculatorRef" jsonschema:"required,description=Key of the calculator factory"`
	TemplateRef   string          `yaml:"templateRef" json:"templateRef" jsonschema:"required"`

	// File is the definition file the tool was loaded from.
	File string `yaml:"-" json:"-"`
}

// Parameter returns the parameter named name.
func (t *ToolSpec) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Scenario returns the scenario with the given id.
func (t *ToolSpec) Scenario(id string) (ScenarioSpec, bool) {
	for _, s := range t.Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioSpec{}, false
}

// Summary is the read-only listing entry of a tool.
type Summary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}
