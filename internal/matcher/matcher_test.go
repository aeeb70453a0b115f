package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/matcher"
)

func TestDefaultSourceTable(t *testing.T) {
	table := matcher.DefaultSourceTable()
	assert.Equal(t, 19, table.Len())
	assert.Equal(t, []string{"economics", "fedwatch", "investing", "wallstreetbets"}, table.Lookup("FED"))
	assert.Nil(t, table.Lookup("bitcoin"))
}

func TestNewSourceTable_NormalizesAndCopies(t *testing.T) {
	raw := map[string][]string{
		"Crypto": {"r/Bitcoin", "cryptocurrency", "bitcoin"},
	}
	table := matcher.NewSourceTable(raw)
	raw["Crypto"][0] = "mutated"

	assert.Equal(t, []string{"bitcoin", "cryptocurrency"}, table.Lookup("crypto"))

	got := table.Lookup("crypto")
	got[0] = "mutated"
	assert.Equal(t, []string{"bitcoin", "cryptocurrency"}, table.Lookup("crypto"), "Lookup devuelve copia")
}

func TestMatch(t *testing.T) {
	m := matcher.New(matcher.DefaultSourceTable(), 0)

	tests := []struct {
		name         string
		market       domain.Market
		wantSources  []string
		wantKeywords []string
	}{
		{
			name:         "title keyword",
			market:       domain.Market{Ticker: "KXFED", Title: "Fed decision in March"},
			wantSources:  []string{"economics", "fedwatch", "investing", "wallstreetbets"},
			wantKeywords: []string{"fed", "decision", "march"},
		},
		{
			name: "union across subtitle and description",
			market: domain.Market{
				Ticker:      "KXCPI",
				Title:       "CPI above 3%?",
				Subtitle:    "Senate",
				Description: "Resolves on the BLS release",
			},
			wantSources: []string{"economics", "inflation", "investing", "neutralpolitics", "politicaldiscussion", "politics"},
		},
		{
			name:         "no match keeps market with empty sources",
			market:       domain.Market{Ticker: "KXWEATHER", Title: "Rain in Seattle tomorrow"},
			wantSources:  []string{},
			wantKeywords: []string{"rain", "seattle", "tomorrow"},
		},
		{
			name:         "falls back to event ticker when title is empty",
			market:       domain.Market{Ticker: "FOMC-25MAR-T4", EventTicker: "FOMC-25MAR"},
			wantSources:  []string{"economics", "fedwatch", "investing"},
			wantKeywords: []string{"fomc", "25mar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.market)
			assert.Equal(t, tt.market.Ticker, got.Ticker)
			assert.Equal(t, tt.wantSources, got.Sources)
			if tt.wantKeywords != nil {
				assert.Equal(t, tt.wantKeywords, got.Keywords)
			}
		})
	}
}

func TestMatch_IsCaseInsensitive(t *testing.T) {
	m := matcher.New(matcher.NewSourceTable(map[string][]string{"powell": {"fedwatch"}}), 0)
	got := m.Match(domain.Market{Ticker: "X", Title: "POWELL speech"})
	assert.Equal(t, []string{"fedwatch"}, got.Sources)
	assert.True(t, got.Scrapeable())
}

func TestMatchAll_NeverDropsMarkets(t *testing.T) {
	m := matcher.New(matcher.DefaultSourceTable(), 0)
	markets := []domain.Market{
		{Ticker: "A", Title: "Recession in 2026"},
		{Ticker: "B", Title: "Oscars best picture"},
		{Ticker: "C", Title: "Trump approval"},
	}

	got := m.MatchAll(markets)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Ticker)
	assert.Equal(t, "B", got[1].Ticker)
	assert.Empty(t, got[1].Sources)
	assert.Equal(t, "C", got[2].Ticker)
	assert.Contains(t, got[2].Sources, "politics")
}

func TestNew_MinKeywordLen(t *testing.T) {
	table := matcher.NewSourceTable(map[string][]string{"ai": {"artificial"}})
	mkt := domain.Market{Ticker: "KXAI", Title: "AI model release"}

	short := matcher.New(table, 2).Match(mkt)
	assert.Equal(t, []string{"artificial"}, short.Sources)
	assert.Contains(t, short.Keywords, "ai")

	long := matcher.New(table, 3).Match(mkt)
	assert.Empty(t, long.Sources, "tokens más cortos que minLen no se buscan en la tabla")
	assert.NotContains(t, long.Keywords, "ai")
}
