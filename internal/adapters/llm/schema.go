package llm

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// responseFormat obliga al modelo a responder con un EstimatorResult.
func responseFormat() *openai.ChatCompletionResponseFormat {
	schema := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"implied_probability": {
				Type:        jsonschema.Number,
				Description: "Implied probability of the event (0.0 to 1.0)",
			},
			"confidence_score": {
				Type:        jsonschema.Number,
				Description: "Confidence in the estimate (0.0 to 1.0)",
			},
			"key_signals": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "List of key signals from the content",
			},
			"contrarian_risks": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "List of contrarian risks",
			},
			"recommendation": {
				Type: jsonschema.String,
				Enum: []string{
					string(domain.RecommendBuyYes),
					string(domain.RecommendBuyNo),
					string(domain.RecommendHold),
				},
				Description: "Suggested direction (BUY_YES / BUY_NO / HOLD)",
			},
		},
		Required: []string{
			"implied_probability",
			"confidence_score",
			"key_signals",
			"contrarian_risks",
			"recommendation",
		},
		AdditionalProperties: false,
	}

	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   "analyst_response",
			Schema: &schema,
			Strict: true,
		},
	}
}
