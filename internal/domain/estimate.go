package domain

import (
	"math"
	"strings"
)

// Recommendation es la dirección sugerida por el estimador.
type Recommendation string

const (
	RecommendBuyYes Recommendation = "BUY_YES"
	RecommendBuyNo  Recommendation = "BUY_NO"
	RecommendHold   Recommendation = "HOLD"
)

// ParseRecommendation normaliza un string del estimador. Cualquier valor
// desconocido se trata como HOLD.
func ParseRecommendation(s string) Recommendation {
	switch r := Recommendation(strings.ToUpper(strings.TrimSpace(s))); r {
	case RecommendBuyYes, RecommendBuyNo, RecommendHold:
		return r
	default:
		return RecommendHold
	}
}

// EstimatorResult es la salida validada del estimador de probabilidad.
type EstimatorResult struct {
	ImpliedProbability float64        `json:"implied_probability"`
	Confidence         float64        `json:"confidence_score"`
	KeySignals         []string       `json:"key_signals"`
	ContrarianRisks    []string       `json:"contrarian_risks"`
	Recommendation     Recommendation `json:"recommendation"`
}

// SafeEstimate es el valor degradado cuando el estimador falla:
// probabilidad 0.5, confianza 0, HOLD. Nunca dispara un trade.
func SafeEstimate(reason string) EstimatorResult {
	r := EstimatorResult{
		ImpliedProbability: 0.5,
		Confidence:         0.0,
		KeySignals:         []string{},
		ContrarianRisks:    []string{},
		Recommendation:     RecommendHold,
	}
	if reason != "" {
		r.ContrarianRisks = append(r.ContrarianRisks, reason)
	}
	return r
}

// Normalize fuerza los invariantes del resultado: probabilidad y confianza en [0,1],
// recomendación conocida. Un NaN en cualquiera de los dos campos degrada a HOLD
// con confianza 0, así la decisión nunca aprueba sobre datos inválidos.
func (r EstimatorResult) Normalize() EstimatorResult {
	out := r
	out.Recommendation = ParseRecommendation(string(r.Recommendation))
	if math.IsNaN(r.ImpliedProbability) || math.IsNaN(r.Confidence) {
		out.ImpliedProbability = 0.5
		out.Confidence = 0
		out.Recommendation = RecommendHold
		return out
	}
	out.ImpliedProbability = clamp01(r.ImpliedProbability)
	out.Confidence = clamp01(r.Confidence)
	if out.KeySignals == nil {
		out.KeySignals = []string{}
	}
	if out.ContrarianRisks == nil {
		out.ContrarianRisks = []string{}
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// inUnit devuelve true si v es un número finito en [0,1].
func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
