// Package schema derives JSON Schemas for tool inputs from Go struct types.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Generate produces the raw JSON Schema for a tool input struct T, suitable
// for mcp.NewToolWithRawSchema. Struct tags (json, jsonschema) drive the
// property names, descriptions, and required set.
func Generate[T any]() json.RawMessage {
	var zero T
	r := jsonschema.Reflector{
		// Inline the type instead of a $ref into $defs: MCP clients expect a
		// self-contained object schema at the top level.
		DoNotReference: true,
		Anonymous:      true,
	}
	s := r.Reflect(&zero)
	s.Version = ""

	data, err := json.Marshal(s)
	if err != nil {
		// Reflecting a plain input struct cannot produce an unmarshalable
		// schema; failing here is a registration-time programming error.
		panic(fmt.Sprintf("schema: reflecting %T: %v", zero, err))
	}
	return data
}
