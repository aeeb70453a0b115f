package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide_ApprovesWhenAllConditionsHold(t *testing.T) {
	// 0.65 - 0.50 = 0.15 >= 0.10, 0.8 >= 0.75
	assert.True(t, Decide(RecommendBuyYes, 0.8, 0.65, 0.50, 0.10, 0.75))
}

func TestDecide_DeltaTooSmall(t *testing.T) {
	// delta 0.08 < 0.10
	assert.False(t, Decide(RecommendBuyYes, 0.8, 0.58, 0.50, 0.10, 0.75))
}

func TestDecide_WrongRecommendation(t *testing.T) {
	assert.False(t, Decide(RecommendHold, 0.9, 0.80, 0.50, 0.10, 0.75))
	assert.False(t, Decide(RecommendBuyNo, 0.9, 0.80, 0.50, 0.10, 0.75), "política de un solo lado")
}

func TestDecide_ConfidenceBelowThreshold(t *testing.T) {
	assert.False(t, Decide(RecommendBuyYes, 0.74, 0.90, 0.50, 0.10, 0.75))
}

func TestDecide_BoundaryIsInclusive(t *testing.T) {
	assert.True(t, Decide(RecommendBuyYes, 0.75, 0.60, 0.50, 0.10, 0.75))
	assert.True(t, Decide(RecommendBuyYes, 0.75, 0.65, 0.50, 0.15, 0.75))
}

func TestDecide_InvalidInputsFail(t *testing.T) {
	cases := []struct {
		name                       string
		conf, implied, price float64
	}{
		{"confidence > 1", 1.2, 0.9, 0.5},
		{"confidence < 0", -0.1, 0.9, 0.5},
		{"implied > 1", 0.9, 1.5, 0.5},
		{"implied NaN", 0.9, math.NaN(), 0.5},
		{"confidence NaN", math.NaN(), 0.9, 0.5},
		{"price > 1", 0.9, 0.9, 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, Decide(RecommendBuyYes, tc.conf, tc.implied, tc.price, 0.10, 0.75))
		})
	}
}

func TestThresholds_Approves_UsesCents(t *testing.T) {
	th := DefaultThresholds()
	r := EstimatorResult{ImpliedProbability: 0.65, Confidence: 0.8, Recommendation: RecommendBuyYes}
	assert.True(t, th.Approves(r, 50))
	assert.False(t, th.Approves(r, 58))
}
