package scq

import (
	"fmt"
	"strings"
)

// renderGenerationPrompt builds the generation prompt from the sampled
// feature levels and the fact/relation text materials, matching
// scq_generator.py's `_generate_prompt` plus the source-sentence block it
// is always paired with in `_create_question`.
func renderGenerationPrompt(v FeatureVector, materials []string) string {
	var b strings.Builder
	b.WriteString("Generate a single-choice question (SCQ) from the following source material:\n\n")
	for _, m := range materials {
		b.WriteString("- ")
		b.WriteString(m)
		b.WriteString("\n")
	}
	b.WriteString("\nThe question must have these characteristics:\n")
	for _, name := range FeatureOrder {
		b.WriteString(fmt.Sprintf("- %s: %s\n", name, FeatureDescriptors[name].Describe(v[name])))
	}
	fmt.Fprintf(&b, "\nReturn ONLY a JSON object with exactly these keys: %s. \"answer\" must be one of \"A\", \"B\", \"C\", \"D\".",
		strings.Join(generationSchemaKeys(), ", "))
	return b.String()
}

// generationSchemaKeys reads the required key list straight out of
// generationResponseSchema, so the prompt's instruction and the schema
// that defines the contract can never drift apart.
func generationSchemaKeys() []string {
	jsonSchema := generationResponseSchema["json_schema"].(map[string]any)
	schema := jsonSchema["schema"].(map[string]any)
	return schema["required"].([]string)
}

// generationResponseSchema describes the generator output's exact key set in
// JSON-schema response-format shape. Only its required key list is used: it
// is rendered into the prompt text; the schema itself is not sent to the LLM.
var generationResponseSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name": "generate_question",
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"stem":     map[string]any{"type": "string"},
				"option_A": map[string]any{"type": "string"},
				"option_B": map[string]any{"type": "string"},
				"option_C": map[string]any{"type": "string"},
				"option_D": map[string]any{"type": "string"},
				"answer":   map[string]any{"type": "string"},
			},
			"required":             []string{"stem", "option_A", "option_B", "option_C", "option_D", "answer"},
			"additionalProperties": false,
		},
	},
}

// renderEvaluationPrompt builds the evaluator's single LLM-scoring prompt
// for features 2-7, matching scq_evaluator.py's `_evaluate_2_to_7` text.
func renderEvaluationPrompt(questionJSON string) string {
	var b strings.Builder
	b.WriteString("Evaluate the following Single Choice Question (SCQ). Use ONLY the SCQ content for your judgment.\n\n")
	b.WriteString("SCQ:\n")
	b.WriteString(questionJSON)
	b.WriteString("\n\nScore the SCQ on the six features below. For each feature, assign a score of 1, 2, or 3 based on its definition.\n\n")
	for i, name := range EvaluationFeatureOrder {
		d := EvaluationRubric[name]
		fmt.Fprintf(&b, "%d. %s\n  - 1 = %s\n  - 2 = %s\n  - 3 = %s\n\n", i+1, name, d.Low, d.Medium, d.High)
	}
	b.WriteString("Return ONLY a JSON object with exactly these six keys, each an integer in [1,3]: ")
	b.WriteString(strings.Join(evaluationSchemaKeys(), ", "))
	return b.String()
}

// evaluationSchemaKeys reads the required key list straight out of
// evaluationResponseSchema, for the same reason as generationSchemaKeys.
func evaluationSchemaKeys() []string {
	jsonSchema := evaluationResponseSchema["json_schema"].(map[string]any)
	schema := jsonSchema["schema"].(map[string]any)
	return schema["required"].([]string)
}

var evaluationResponseSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name": "evaluate_question",
		"schema": func() map[string]any {
			props := make(map[string]any, len(EvaluationFeatureOrder))
			for _, name := range EvaluationFeatureOrder {
				props[name] = map[string]any{"type": "integer", "minimum": 1, "maximum": 3}
			}
			return map[string]any{
				"type":                 "object",
				"properties":           props,
				"required":             EvaluationFeatureOrder,
				"additionalProperties": false,
			}
		}(),
	},
}
