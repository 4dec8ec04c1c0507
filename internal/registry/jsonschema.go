package registry

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// DefinitionSchema returns the JSON Schema of the tool definition format.
func DefinitionSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&ToolSpec{})
	s.Title = "Tool definition"
	s.Description = "One calculator tool: its parameters, scenarios and worked examples."
	return s
}

// DefinitionSchemaJSON returns DefinitionSchema as indented JSON.
func DefinitionSchemaJSON() ([]byte, error) {
	return json.MarshalIndent(DefinitionSchema(), "", "  ")
}
