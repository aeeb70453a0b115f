package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/adapters/notify"
	"github.com/alejandrodnm/kalshibot/internal/domain"
)

func makeRecord(id int64, ticker string, dryRun bool) domain.TradeRecord {
	return domain.TradeRecord{
		ID:                 id,
		Ticker:             ticker,
		Side:               domain.SideYes,
		Action:             domain.ActionBuy,
		Count:              100,
		PriceCents:         45,
		ImpliedProbability: 0.7,
		Confidence:         0.8,
		DryRun:             dryRun,
		CreatedAt:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ClientOrderID:      "0f8fad5b-d9cb-469f-a165-70867728950e",
	}
}

func TestConsole_NotifyPass_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.NotifyPass(context.Background(), domain.PassSummary{
		Markets: 120, Matched: 12, Groups: 4, ItemsScraped: 37, Estimates: 9,
		Results: []domain.ExecutionResult{{Ticker: "A", Outcome: domain.OutcomeSkipped}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "120 mkts")
	assert.Contains(t, out, "matched:12")
	assert.Contains(t, out, "skipped:1")
	assert.NotContains(t, out, "Ticker", "sin trades no hay tabla en modo compacto")
}

func TestConsole_NotifyPass_TableWithTrades(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)
	rec := makeRecord(1, "KXFED-25MAR", true)

	err := n.NotifyPass(context.Background(), domain.PassSummary{
		Results: []domain.ExecutionResult{
			{Ticker: "KXFED-25MAR", Outcome: domain.OutcomeLogged, Count: 100, Record: &rec},
		},
		Errors: []string{"orderbook KXCPI: 502"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "KXFED-25MAR")
	assert.Contains(t, out, "LOGGED")
	assert.Contains(t, out, "$45.00")
	assert.Contains(t, out, "orderbook KXCPI: 502")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	n.PrintHistory([]domain.TradeRecord{
		makeRecord(1, "KXFED", true),
		makeRecord(2, "KXCPI", false),
	})

	out := buf.String()
	assert.Contains(t, out, "KXFED")
	assert.Contains(t, out, "KXCPI")
	assert.Contains(t, out, "LIVE")
	assert.Contains(t, out, "DRY")
	assert.Contains(t, out, "0f8fad5b")
	assert.Contains(t, out, "2 trades | live: 1 ($45.00) | dry run: 1 ($45.00)")
}

func TestConsole_PrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, false).PrintHistory(nil)
	assert.Contains(t, buf.String(), "no trades recorded")
}

func TestConsole_PrintDedup(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	n.PrintDedup([]notify.DedupCount{
		{Namespace: domain.NamespacePosts, Count: 120},
		{Namespace: domain.NamespaceURLs, Count: 3},
	})
	n.PrintSeen("t3_abc", []domain.DedupRecord{{
		Namespace: domain.NamespacePosts,
		ID:        "t3_abc",
		FirstSeen: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}})
	n.PrintSeen("t3_zzz", nil)

	out := buf.String()
	assert.Contains(t, out, "posts  120 seen")
	assert.Contains(t, out, "urls   3 seen")
	assert.Contains(t, out, "t3_abc: first seen 2026-03-01 12:00:00 in posts")
	assert.Contains(t, out, "t3_zzz: never seen")
}
