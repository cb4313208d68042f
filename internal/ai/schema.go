package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaName is the structured-output format name sent to the provider.
const SchemaName = "task_simplifier_response"

// Step is one numbered instruction as produced by the model.
type Step struct {
	StepNumber  int    `json:"step_number"`
	Instruction string `json:"instruction"`
}

// StructuredResponse is the parsed model output.
type StructuredResponse struct {
	TaskID                string  `json:"task_id"`
	ConfidenceScore       float64 `json:"confidence_score"`
	SimplifiedSteps       []Step  `json:"simplified_steps"`
	ClarificationNeeded   bool    `json:"clarification_needed"`
	ClarificationQuestion string  `json:"clarification_question"`
}

// ResponseSchema returns the JSON schema the model output must conform to.
// A fresh map is returned on every call.
func ResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task_id":          map[string]any{"type": "string"},
			"confidence_score": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"simplified_steps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"step_number": map[string]any{"type": "integer", "minimum": 1},
						"instruction": map[string]any{"type": "string", "minLength": 1},
					},
					"required":             []any{"step_number", "instruction"},
					"additionalProperties": false,
				},
			},
			"clarification_needed":   map[string]any{"type": "boolean"},
			"clarification_question": map[string]any{"type": "string"},
		},
		"required": []any{
			"task_id",
			"confidence_score",
			"simplified_steps",
			"clarification_needed",
			"clarification_question",
		},
		"additionalProperties": false,
	}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	// round-trip through JSON so the compiler sees plain decoded values
	raw, err := json.Marshal(ResponseSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(SchemaName+".json", doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile(SchemaName + ".json")
})

// ParseStructured decodes model output text and checks it against
// [ResponseSchema].
func ParseStructured(text string) (StructuredResponse, error) {
	schema, err := compiledSchema()
	if err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "schema", Err: err}
	}

	value, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(text)))
	if err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "parse", Err: fmt.Errorf("model returned non-JSON output: %w", err)}
	}
	if err := schema.Validate(value); err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "schema", Err: fmt.Errorf("model output does not match schema: %w", err)}
	}

	var resp StructuredResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "parse", Err: err}
	}
	return resp, nil
}
