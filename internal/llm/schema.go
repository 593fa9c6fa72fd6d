package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/linkvet/internal/model"
)

// RelevancySchemaName names the structured output (tool name for Anthropic, schema name for OpenAI)
const RelevancySchemaName = "relevancy"

// ErrInvalidJudgment is returned when the model output does not satisfy the relevancy schema
var ErrInvalidJudgment = errors.New("response does not match relevancy schema")

// Schema describes the {reasoning, relevant} structured output
type Schema struct {
	Name                 string
	Description          string
	ReasoningDescription string
	RelevantDescription  string
}

// Properties returns the JSON schema properties of the relevancy object
func (s Schema) Properties() map[string]any {
	return map[string]any{
		"reasoning": map[string]any{
			"type":        "string",
			"description": s.ReasoningDescription,
		},
		"relevant": map[string]any{
			"type":        "boolean",
			"description": s.RelevantDescription,
		},
	}
}

// Required lists the required properties, in the order the model should produce them
func (s Schema) Required() []string {
	return []string{"reasoning", "relevant"}
}

// JSONSchema returns the full JSON schema object
func (s Schema) JSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"description":          s.Description,
		"properties":           s.Properties(),
		"required":             s.Required(),
		"additionalProperties": false,
	}
}

// rawJudgment uses pointers so missing fields can be told apart from zero values
type rawJudgment struct {
	Reasoning *string `json:"reasoning"`
	Relevant  *bool   `json:"relevant"`
}

// ParseJudgment decodes and validates a relevancy object
func ParseJudgment(data []byte) (*model.RelevancyJudgment, error) {
	var raw rawJudgment
	if err := json.Unmarshal([]byte(cleanJSONResponse(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJudgment, err)
	}
	if raw.Relevant == nil {
		return nil, fmt.Errorf("%w: missing field \"relevant\"", ErrInvalidJudgment)
	}
	if raw.Reasoning == nil {
		return nil, fmt.Errorf("%w: missing field \"reasoning\"", ErrInvalidJudgment)
	}
	return &model.RelevancyJudgment{
		Reasoning: *raw.Reasoning,
		Relevant:  *raw.Relevant,
	}, nil
}

// cleanJSONResponse strips code fences and prose around a JSON object
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
