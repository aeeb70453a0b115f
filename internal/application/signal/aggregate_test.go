package signal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/application/signal"
	"github.com/alejandrodnm/kalshibot/internal/domain"
)

func match(ticker string, sources, keywords []string) domain.MatchResult {
	return domain.MatchResult{Ticker: ticker, Title: ticker, Sources: sources, Keywords: keywords}
}

func TestAggregate_GroupsIdenticalKeys(t *testing.T) {
	matches := []domain.MatchResult{
		match("FED-A", []string{"fedwatch", "economics"}, []string{"fed", "march"}),
		match("FED-B", []string{"economics", "fedwatch"}, []string{"march", "fed"}),
		match("CPI", []string{"economics", "fedwatch"}, []string{"cpi"}),
	}

	groups := signal.Aggregate(matches)
	require.Len(t, groups, 2)

	var fed, cpi signal.Group
	for _, g := range groups {
		switch {
		case assert.ObjectsAreEqual([]string{"fed", "march"}, g.Keywords):
			fed = g
		case assert.ObjectsAreEqual([]string{"cpi"}, g.Keywords):
			cpi = g
		}
	}
	assert.Equal(t, []string{"FED-A", "FED-B"}, fed.Tickers)
	assert.Equal(t, []string{"economics", "fedwatch"}, fed.Sources)
	assert.Equal(t, []string{"CPI"}, cpi.Tickers)
	assert.NotContains(t, fed.Tickers, "CPI")
}

func TestAggregate_ExcludesEmptyMatches(t *testing.T) {
	matches := []domain.MatchResult{
		match("NOSRC", nil, []string{"rain"}),
		match("NOKW", []string{"politics"}, []string{}),
		match("OK", []string{"politics"}, []string{"vote"}),
	}

	groups := signal.Aggregate(matches)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"OK"}, groups[0].Tickers)
}

func TestAggregate_EveryMatchInExactlyOneGroup(t *testing.T) {
	matches := []domain.MatchResult{
		match("A", []string{"s1"}, []string{"k1"}),
		match("B", []string{"s2"}, []string{"k1"}),
		match("C", []string{"s1"}, []string{"k1"}),
		match("D", []string{"s1"}, []string{"k2"}),
		match("A", []string{"s1"}, []string{"k1"}),
	}

	groups := signal.Aggregate(matches)

	count := map[string]int{}
	for _, g := range groups {
		for _, tk := range g.Tickers {
			count[tk]++
		}
	}
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1, "D": 1}, count)
}

func TestAggregate_DeterministicOrder(t *testing.T) {
	matches := []domain.MatchResult{
		match("Z", []string{"zz"}, []string{"k"}),
		match("A", []string{"aa"}, []string{"k"}),
	}
	first := signal.Aggregate(matches)
	second := signal.Aggregate([]domain.MatchResult{matches[1], matches[0]})

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, "aa|k", first[0].Key())
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, signal.Aggregate(nil))
}
