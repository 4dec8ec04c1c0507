package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var toolIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// DefinitionFiles returns the *.yaml and *.yml files of dir in lexicographic order.
func DefinitionFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("tool definition directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tool definition path %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool definition directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadAll reads every definition in dir and returns the tools keyed by id.
// known reports whether a calculatorRef has a registered factory; a nil known
// skips that check. Any broken definition fails the whole load.
func LoadAll(dir string, known func(ref string) bool) (map[string]*ToolSpec, error) {
	files, err := DefinitionFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &ConfigError{File: dir, Msg: "no tool definitions found"}
	}

	tools := make(map[string]*ToolSpec, len(files))
	for _, file := range files {
		tool, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		if known != nil && !known(tool.CalculatorRef) {
			return nil, configErr(file, tool.ID, "calculatorRef", "calculator %q is not registered", tool.CalculatorRef)
		}
		if prev, dup := tools[tool.ID]; dup {
			return nil, configErr(file, tool.ID, "id", "duplicate tool id, already defined in %s", prev.File)
		}
		tools[tool.ID] = tool
	}
	return tools, nil
}

// LoadFile decodes and validates a single definition file.
func LoadFile(file string) (*ToolSpec, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &ConfigError{File: file, Msg: err.Error()}
	}
	tool, err := Decode(data)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.File = file
			return nil, ce
		}
		return nil, &ConfigError{File: file, Msg: err.Error()}
	}
	tool.File = file
	return tool, nil
}

// Decode parses one YAML definition, rejecting unknown keys, and validates it.
func Decode(data []byte) (*ToolSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var tool ToolSpec
	if err := dec.Decode(&tool); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Msg: "empty tool definition"}
		}
		return nil, &ConfigError{Msg: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if err := Validate(&tool); err != nil {
		return nil, err
	}
	return &tool, nil
}

// Validate checks the structural and referential invariants of one tool.
func Validate(t *ToolSpec) error {
	required := []struct{ field, value string }{
		{"id", t.ID},
		{"displayName", t.DisplayName},
		{"calculatorRef", t.CalculatorRef},
		{"templateRef", t.TemplateRef},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return configErr("", t.ID, r.field, "is required")
		}
	}
	if !toolIDPattern.MatchString(t.ID) {
		return configErr("", t.ID, "id", "must match %s", toolIDPattern.String())
	}

	params := make(map[string]bool, len(t.Parameters))
	for i, p := range t.Parameters {
		field := fmt.Sprintf("parameters[%d]", i)
		if p.Name == "" {
			return configErr("", t.ID, field+".name", "is required")
		}
		if params[p.Name] {
			return configErr("", t.ID, field+".name", "duplicate parameter name %q", p.Name)
		}
		params[p.Name] = true
		if err := validateParameter(p); err != nil {
			return configErr("", t.ID, field, "parameter %q: %v", p.Name, err)
		}
	}

	scenarios := make(map[string]bool, len(t.Scenarios))
	for i, s := range t.Scenarios {
		field := fmt.Sprintf("scenarios[%d]", i)
		if s.ID == "" {
			return configErr("", t.ID, field+".id", "is required")
		}
		if scenarios[s.ID] {
			return configErr("", t.ID, field+".id", "duplicate scenario id %q", s.ID)
		}
		scenarios[s.ID] = true
		for _, name := range s.ParameterNames {
			if !params[name] {
				return configErr("", t.ID, field+".parameterNames", "scenario %q references undeclared parameter %q", s.ID, name)
			}
		}
	}

	for i, ex := range t.Examples {
		field := fmt.Sprintf("examples[%d]", i)
		if len(t.Scenarios) > 0 {
			if ex.Scenario == "" {
				return configErr("", t.ID, field+".scenario", "is required when the tool declares scenarios")
			}
			if !scenarios[ex.Scenario] {
				return configErr("", t.ID, field+".scenario", "unknown scenario %q", ex.Scenario)
			}
		}
		keys := make([]string, 0, len(ex.Inputs))
		for k := range ex.Inputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !params[k] {
				return configErr("", t.ID, field+".inputs", "undeclared parameter %q", k)
			}
		}
	}
	return nil
}

func validateParameter(p ParameterSpec) error {
	if p.Name == ScenarioField {
		return fmt.Errorf("name %q is reserved for the scenario id", ScenarioField)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("unknown type %q", p.Type)
	}
	if p.Label == "" {
		return fmt.Errorf("label is required")
	}
	if p.Type == TypeEnum && len(p.AllowedValues) == 0 {
		return fmt.Errorf("enum requires allowedValues")
	}
	if p.Type != TypeEnum && len(p.AllowedValues) > 0 {
		return fmt.Errorf("allowedValues is only valid for enum")
	}
	if !p.Type.Numeric() && (p.Minimum != nil || p.Maximum != nil) {
		return fmt.Errorf("minimum/maximum are only valid for number and integer")
	}
	if p.Minimum != nil && p.Maximum != nil && *p.Minimum > *p.Maximum {
		return fmt.Errorf("minimum %g exceeds maximum %g", *p.Minimum, *p.Maximum)
	}
	return nil
}
