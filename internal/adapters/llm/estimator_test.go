package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/adapters/llm"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

func chatServer(t *testing.T, status int, message map[string]any) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []any{map[string]any{"index": 0, "message": message, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func newEstimator(t *testing.T, url string) *llm.Estimator {
	t.Helper()
	e, err := llm.New(llm.Config{APIKey: "sk-test", BaseURL: url})
	require.NoError(t, err)
	return e
}

func request() ports.EstimateRequest {
	return ports.EstimateRequest{
		Description: "Fed cut in March?",
		Price:       0.4,
		Items:       []domain.ContentItem{{Title: "Fed", Body: "cut likely"}},
	}
}

func TestEstimate_ParsesStructuredAnswer(t *testing.T) {
	srv, captured := chatServer(t, http.StatusOK, map[string]any{
		"role": "assistant",
		"content": `{"implied_probability":0.72,"confidence_score":0.8,"key_signals":["dot plot"],` +
			`"contrarian_risks":[],"recommendation":"buy_yes"}`,
	})

	got, err := newEstimator(t, srv.URL).Estimate(context.Background(), request())
	require.NoError(t, err)
	assert.InDelta(t, 0.72, got.ImpliedProbability, 1e-9)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	assert.Equal(t, domain.RecommendBuyYes, got.Recommendation)
	assert.Equal(t, []string{"dot plot"}, got.KeySignals)

	req := *captured
	assert.Equal(t, "gpt-4o-mini", req["model"])
	format := req["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "analyst_response", schema["name"])
	assert.Equal(t, true, schema["strict"])

	msgs := req["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].(map[string]any)["content"], "Market Description: Fed cut in March?")
	assert.Contains(t, msgs[0].(map[string]any)["content"], "[Thread: Fed]")
}

func TestEstimate_ClampsOutOfRangeValues(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, map[string]any{
		"role":    "assistant",
		"content": `{"implied_probability":1.4,"confidence_score":-2,"recommendation":"SELL"}`,
	})

	got, err := newEstimator(t, srv.URL).Estimate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.ImpliedProbability)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, domain.RecommendHold, got.Recommendation)
}

func TestEstimate_RefusalIsSafeDefault(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, map[string]any{
		"role":    "assistant",
		"content": "",
		"refusal": "I can't help with that.",
	})

	got, err := newEstimator(t, srv.URL).Estimate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, domain.RecommendHold, got.Recommendation)
	assert.Equal(t, 0.5, got.ImpliedProbability)
	assert.Equal(t, []string{llm.RiskRefused}, got.ContrarianRisks)
}

func TestEstimate_MalformedJSONIsSafeDefault(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, map[string]any{"role": "assistant", "content": "probably yes"})

	got, err := newEstimator(t, srv.URL).Estimate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, domain.RecommendHold, got.Recommendation)
	assert.Zero(t, got.Confidence)
}

func TestEstimate_ServerErrorIsReturned(t *testing.T) {
	srv, _ := chatServer(t, http.StatusInternalServerError, nil)

	_, err := newEstimator(t, srv.URL).Estimate(context.Background(), request())
	assert.Error(t, err)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := llm.New(llm.Config{})
	assert.Error(t, err)
}

// --- breaker ---

type failingEstimator struct{ calls int }

func (f *failingEstimator) Estimate(_ context.Context, _ ports.EstimateRequest) (domain.EstimatorResult, error) {
	f.calls++
	return domain.EstimatorResult{}, errors.New("timeout")
}

type okEstimator struct{}

func (okEstimator) Estimate(_ context.Context, _ ports.EstimateRequest) (domain.EstimatorResult, error) {
	return domain.SafeEstimate("ok"), nil
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingEstimator{}
	b := llm.NewBreaker(next, llm.BreakerConfig{MaxFailures: 2, Cooldown: time.Hour})

	for i := 0; i < 4; i++ {
		_, err := b.Estimate(context.Background(), request())
		assert.Error(t, err)
	}
	assert.Equal(t, 2, next.calls, "con el circuito abierto no se llama al estimador")
	assert.Equal(t, "open", b.State())
}

func TestBreaker_PassesThroughResults(t *testing.T) {
	b := llm.NewBreaker(okEstimator{}, llm.DefaultBreakerConfig())
	got, err := b.Estimate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got.ContrarianRisks)
	assert.Equal(t, "closed", b.State())
}
