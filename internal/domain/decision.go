package domain

import "math"

// decisionEpsilon absorbe el ruido de coma flotante en la comparación de delta:
// 0.65 - 0.50 debe cumplir min_delta 0.15 igual que en papel.
const decisionEpsilon = 1e-9

// Thresholds agrupa los umbrales de decisión y sizing de un trade.
type Thresholds struct {
	MinDelta            float64 // implied - precio mínimo para comprar
	ConfidenceThreshold float64 // confianza mínima del estimador
	MaxContracts        int     // cap duro de contratos por trade
	MaxBalanceFraction  float64 // fracción máxima del balance por trade
}

// DefaultThresholds devuelve los umbrales por defecto.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDelta:            0.10,
		ConfidenceThreshold: 0.75,
		MaxContracts:        100,
		MaxBalanceFraction:  0.05,
	}
}

// Decide aprueba un trade solo si recommendation == BUY_YES, la confianza
// alcanza el umbral y implied - marketPrice >= minDelta.
// Entradas fuera de [0,1] (o NaN) rechazan la decisión, nunca dan error.
//
// Política de un solo lado: BUY_NO queda fuera a propósito.
func Decide(rec Recommendation, confidence, implied, marketPrice, minDelta, confThreshold float64) bool {
	if rec != RecommendBuyYes {
		return false
	}
	if !inUnit(confidence) || !inUnit(implied) || !inUnit(marketPrice) {
		return false
	}
	if math.IsNaN(minDelta) || math.IsNaN(confThreshold) {
		return false
	}
	if confidence < confThreshold {
		return false
	}
	return implied-marketPrice >= minDelta-decisionEpsilon
}

// Approves aplica Decide con los umbrales dados.
func (t Thresholds) Approves(r EstimatorResult, priceCents int) bool {
	return Decide(r.Recommendation, r.Confidence, r.ImpliedProbability,
		PriceFraction(priceCents), t.MinDelta, t.ConfidenceThreshold)
}
