// Package llm implementa ports.Estimator con un modelo de chat de OpenAI que
// responde con un JSON schema estricto.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// DefaultModel es el modelo usado si no se configura otro.
const DefaultModel = openai.GPT4oMini

// Notas de riesgo de las estimaciones degradadas.
const (
	RiskRefused   = "LLM refused"
	RiskMalformed = "LLM returned malformed JSON"
	RiskEmpty     = "LLM returned no choices"
)

// Config configura el estimador de OpenAI.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // vacío = api.openai.com
}

// Estimator llama a chat completions una vez por request.
type Estimator struct {
	client *openai.Client
	model  string
}

var _ ports.Estimator = (*Estimator)(nil)

// New crea un Estimator. Falla si no hay API key.
func New(cfg Config) (*Estimator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm.New: API key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Estimator{client: openai.NewClientWithConfig(oc), model: model}, nil
}

// Estimate pide al modelo una estimación de probabilidad. Los errores de
// transporte se devuelven; un rechazo o una respuesta ilegible dan una
// estimación HOLD segura con error nil.
func (e *Estimator) Estimate(ctx context.Context, req ports.EstimateRequest) (domain.EstimatorResult, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(req.Description, req.Price, req.Items)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: responseFormat(),
	})
	if err != nil {
		return domain.EstimatorResult{}, fmt.Errorf("llm.Estimate: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("estimator returned no choices", "model", e.model)
		return domain.SafeEstimate(RiskEmpty), nil
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		slog.Warn("estimator refused", "model", e.model, "refusal", msg.Refusal)
		return domain.SafeEstimate(RiskRefused), nil
	}

	result, ok := parseResult(msg.Content)
	if !ok {
		slog.Warn("estimator returned malformed JSON", "model", e.model, "content", domain.Truncate(msg.Content, 200))
		return domain.SafeEstimate(RiskMalformed), nil
	}
	slog.Debug("estimate received",
		"implied", result.ImpliedProbability,
		"confidence", result.Confidence,
		"recommendation", result.Recommendation,
		"tokens", resp.Usage.TotalTokens,
	)
	return result.Normalize(), nil
}

// parseResult decodifica la respuesta sobre los valores seguros: un campo
// ausente deja probabilidad 0.5, confianza 0 y HOLD.
func parseResult(content string) (domain.EstimatorResult, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.EstimatorResult{}, false
	}
	r := domain.SafeEstimate("")
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return domain.EstimatorResult{}, false
	}
	return r, true
}
