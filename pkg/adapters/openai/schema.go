package openai

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/shared"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// ParamSchema builds the JSON schema for a tool's single parameter object
func ParamSchema(p types.ToolParam) *jsonschema.Schema {
	enum := make([]any, len(p.Enum))
	for i, v := range p.Enum {
		enum[i] = v
	}

	value := &jsonschema.Schema{
		Type: "string",
		Enum: enum,
	}

	if p.IsArray() {
		n := uint64(p.Count)
		value = &jsonschema.Schema{
			Type:     "array",
			Items:    value,
			MinItems: &n,
			MaxItems: &n,
		}
	}
	value.Description = p.Description

	props := jsonschema.NewProperties()
	props.Set(p.Name, value)

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{p.Name},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// functionParameters converts a schema into the SDK's map form
func functionParameters(schema *jsonschema.Schema) (shared.FunctionParameters, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool schema: %w", err)
	}

	var params shared.FunctionParameters
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to convert tool schema: %w", err)
	}
	return params, nil
}
