// Package toolindex renders a markdown index of tool definitions.
package toolindex

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/bobmcallan/calc-portal/internal/registry"
)

const indexTemplate = `# Tool index

{{ len . }} tool definitions.
{{ range . }}
## {{ .DisplayName }} ({{ .ID }})
{{ if .Description }}
{{ .Description }}
{{ end }}{{ if .Category }}
Category: ` + "`{{ .Category }}`" + `
{{ end }}
Calculator: ` + "`{{ .CalculatorRef }}`" + `

### Parameters

| Name | Label | Type | Unit | Required | Constraint | Description |
| --- | --- | --- | --- | --- | --- | --- |
{{ range .Parameters }}| ` + "`{{ .Name }}`" + ` | {{ .Label }} | {{ .Type }} | {{ .Unit }} | {{ if .Required }}yes{{ else }}no{{ end }} | {{ constraint . }} | {{ cell .Description }} |
{{ end }}{{ if .Scenarios }}
### Scenarios
{{ range .Scenarios }}
- **{{ .Title }}** (` + "`{{ .ID }}`" + `)
{{ if .Summary }}  - Summary: {{ .Summary }}
{{ end }}{{ if .Formula }}  - Formula: {{ .Formula }}
{{ end }}  - Inputs: {{ join .ParameterNames }}
{{ if .OutputNames }}  - Outputs: {{ join .OutputNames }}
{{ end }}{{ end }}{{ end }}{{ if .Examples }}
### Examples
{{ range .Examples }}
- **{{ .Title }}**{{ if .Scenario }} (scenario ` + "`{{ .Scenario }}`" + `){{ end }}
  - Inputs: ` + "`{{ toJSON .Inputs }}`" + `
{{ if .Expected }}  - Expected: ` + "`{{ toJSON .Expected }}`" + `
{{ end }}{{ if .Notes }}  - Notes: {{ .Notes }}
{{ end }}{{ end }}{{ end }}{{ end }}`

var tmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"constraint": constraint,
	"join":       func(s []string) string { return strings.Join(s, ", ") },
	"cell":       func(s string) string { return strings.ReplaceAll(strings.TrimSpace(s), "\n", " ") },
	"toJSON":     toJSON,
}).Parse(indexTemplate))

// Render writes the index of tools to w, ordered by tool id.
func Render(w io.Writer, tools []*registry.ToolSpec) error {
	sorted := make([]*registry.ToolSpec, len(tools))
	copy(sorted, tools)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if err := tmpl.Execute(w, sorted); err != nil {
		return fmt.Errorf("render tool index: %w", err)
	}
	return nil
}

func constraint(p registry.ParameterSpec) string {
	switch {
	case len(p.AllowedValues) > 0:
		return "one of " + strings.Join(p.AllowedValues, ", ")
	case p.Minimum != nil || p.Maximum != nil:
		return bound(p.Minimum) + " to " + bound(p.Maximum)
	default:
		return "-"
	}
}

func bound(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
