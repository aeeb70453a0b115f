package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/application/execution"
	"github.com/alejandrodnm/kalshibot/internal/application/pipeline"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/matcher"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// --- mocks ---

type mockMarkets struct {
	markets   []domain.Market
	err       error
	bids      map[string]int
	bidErr    error
	marketErr error
	onList    func()
}

func (m *mockMarkets) OpenMarkets(_ context.Context) ([]domain.Market, error) {
	if m.onList != nil {
		m.onList()
	}
	return m.markets, m.err
}

func (m *mockMarkets) Market(_ context.Context, ticker string) (domain.Market, error) {
	if m.marketErr != nil {
		return domain.Market{}, m.marketErr
	}
	for _, mk := range m.markets {
		if mk.Ticker == ticker {
			return mk, nil
		}
	}
	return domain.Market{}, ports.ErrMarketNotFound
}

func (m *mockMarkets) BestYesBid(_ context.Context, ticker string) (int, error) {
	if m.bidErr != nil {
		return 0, m.bidErr
	}
	cents, ok := m.bids[ticker]
	if !ok {
		return 0, ports.ErrNoLiquidity
	}
	return cents, nil
}

type mockScraper struct {
	items []domain.ContentItem
	err   error
	calls int
	ctxOK []bool
}

func (m *mockScraper) Scrape(ctx context.Context, _, _ []string) ([]domain.ContentItem, error) {
	m.calls++
	m.ctxOK = append(m.ctxOK, ctx.Err() == nil)
	return m.items, m.err
}

type mockEstimator struct {
	result   domain.EstimatorResult
	err      error
	requests []ports.EstimateRequest
}

func (m *mockEstimator) Estimate(_ context.Context, req ports.EstimateRequest) (domain.EstimatorResult, error) {
	m.requests = append(m.requests, req)
	return m.result, m.err
}

type mockExecutor struct {
	signals []execution.Signal
}

func (m *mockExecutor) Execute(_ context.Context, sig execution.Signal) domain.ExecutionResult {
	m.signals = append(m.signals, sig)
	return domain.ExecutionResult{Ticker: sig.Ticker, Outcome: domain.OutcomeLogged}
}

type mockNotifier struct {
	summaries []domain.PassSummary
}

func (m *mockNotifier) NotifyPass(_ context.Context, s domain.PassSummary) error {
	m.summaries = append(m.summaries, s)
	return nil
}

// --- helpers ---

func fedMarkets() []domain.Market {
	return []domain.Market{
		{Ticker: "FED-A", Title: "Fed cut", Description: "Rules A"},
		{Ticker: "FED-B", Title: "Fed cut", Description: "Rules A"},
		{Ticker: "OSCARS", Title: "Best picture winner"},
	}
}

func thread(id string) domain.ContentItem {
	return domain.ContentItem{ID: id, Title: "Fed will cut", Source: "fedwatch"}
}

func newPipeline(mk *mockMarkets, sc *mockScraper, est ports.Estimator, ex *mockExecutor) *pipeline.Pipeline {
	cfg := pipeline.Config{PollInterval: 10 * time.Millisecond, CallTimeout: time.Second}
	return pipeline.New(cfg, mk, matcher.New(matcher.DefaultSourceTable(), domain.DefaultMinKeywordLen),
		[]ports.Scraper{sc}, est, ex, nil, nil)
}

// --- tests ---

func TestRunOnce_ScrapesOncePerGroupAndEstimatesEachTicker(t *testing.T) {
	mk := &mockMarkets{markets: fedMarkets(), bids: map[string]int{"FED-A": 42}}
	sc := &mockScraper{items: []domain.ContentItem{thread("t3_1")}}
	est := &mockEstimator{result: domain.EstimatorResult{
		ImpliedProbability: 0.8, Confidence: 0.9, Recommendation: domain.RecommendBuyYes,
	}}
	ex := &mockExecutor{}

	summary := newPipeline(mk, sc, est, ex).RunOnce(context.Background())

	assert.Equal(t, 3, summary.Markets)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 1, summary.Groups)
	assert.Equal(t, 1, sc.calls, "un scrape por grupo")
	assert.Equal(t, 1, summary.ItemsScraped)
	assert.Equal(t, 2, summary.Estimates)
	assert.Empty(t, summary.Errors)

	require.Len(t, ex.signals, 2)
	assert.Equal(t, "FED-A", ex.signals[0].Ticker)
	assert.Equal(t, 42, ex.signals[0].PriceCents)
	assert.Equal(t, "FED-B", ex.signals[1].Ticker)
	assert.Equal(t, domain.DefaultYesPriceCents, ex.signals[1].PriceCents, "sin liquidez usa 50c")

	require.Len(t, est.requests, 2)
	assert.Equal(t, "Fed cut\nRules A", est.requests[0].Description)
	assert.InDelta(t, 0.42, est.requests[0].Price, 1e-9)
	assert.Equal(t, 2, summary.Count(domain.OutcomeLogged))
}

func TestRunOnce_EstimatorFailureDegradesToSafeDefault(t *testing.T) {
	mk := &mockMarkets{markets: fedMarkets()[:1]}
	sc := &mockScraper{items: []domain.ContentItem{thread("t3_1")}}
	est := &mockEstimator{err: errors.New("deadline exceeded")}
	ex := &mockExecutor{}

	summary := newPipeline(mk, sc, est, ex).RunOnce(context.Background())

	require.Len(t, ex.signals, 1)
	got := ex.signals[0].Estimate
	assert.Equal(t, domain.RecommendHold, got.Recommendation)
	assert.Equal(t, 0.5, got.ImpliedProbability)
	assert.Zero(t, got.Confidence)
	assert.Zero(t, summary.Estimates)
	assert.Len(t, summary.Errors, 1)
}

func TestRunOnce_CollaboratorFailuresDoNotAbortPass(t *testing.T) {
	mk := &mockMarkets{
		markets:   fedMarkets(),
		bidErr:    errors.New("502"),
		marketErr: errors.New("503"),
	}
	sc := &mockScraper{items: []domain.ContentItem{thread("t3_1")}}
	est := &mockEstimator{result: domain.SafeEstimate("")}
	ex := &mockExecutor{}

	summary := newPipeline(mk, sc, est, ex).RunOnce(context.Background())

	require.Len(t, ex.signals, 2)
	assert.Equal(t, domain.DefaultYesPriceCents, ex.signals[0].PriceCents)
	assert.Equal(t, "", est.requests[0].Description)
	assert.Len(t, summary.Errors, 4) // orderbook + market por ticker
}

func TestRunOnce_SkipsGroupsWithoutItems(t *testing.T) {
	mk := &mockMarkets{markets: fedMarkets()}
	sc := &mockScraper{err: errors.New("reddit down")}
	est := &mockEstimator{}
	ex := &mockExecutor{}

	summary := newPipeline(mk, sc, est, ex).RunOnce(context.Background())

	assert.Equal(t, 1, sc.calls)
	assert.Empty(t, est.requests)
	assert.Empty(t, ex.signals)
	assert.Len(t, summary.Errors, 1)
}

func TestRunOnce_PartialScrapeIsStillEstimated(t *testing.T) {
	mk := &mockMarkets{markets: fedMarkets()}
	sc := &mockScraper{
		items: []domain.ContentItem{thread("t3_1")},
		err:   fmt.Errorf("reddit.Scrape: stopped after 3 of 20 searches: %w", context.DeadlineExceeded),
	}
	est := &mockEstimator{result: domain.SafeEstimate("")}
	ex := &mockExecutor{}

	summary := newPipeline(mk, sc, est, ex).RunOnce(context.Background())

	assert.Equal(t, 1, summary.ItemsScraped)
	assert.Len(t, ex.signals, 2, "los hilos recogidos antes del deadline se usan")
	require.NotEmpty(t, summary.Errors)
	assert.Contains(t, summary.Errors[0], "stopped after 3 of 20 searches")
}

func TestRunOnce_NoEstimatorScrapesButDoesNotExecute(t *testing.T) {
	mk := &mockMarkets{markets: fedMarkets()}
	sc := &mockScraper{items: []domain.ContentItem{thread("t3_1")}}
	ex := &mockExecutor{}

	summary := newPipeline(mk, sc, nil, ex).RunOnce(context.Background())

	assert.Equal(t, 1, sc.calls)
	assert.Equal(t, 1, summary.ItemsScraped)
	assert.Empty(t, ex.signals)
}

func TestRunOnce_ListingFailureEndsPass(t *testing.T) {
	mk := &mockMarkets{err: errors.New("401 unauthorized")}
	sc := &mockScraper{}
	ex := &mockExecutor{}

	summary := newPipeline(mk, sc, &mockEstimator{}, ex).RunOnce(context.Background())

	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "401")
	assert.Zero(t, sc.calls)
}

func TestRun_InFlightPassCompletesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mk := &mockMarkets{markets: fedMarkets(), onList: cancel}
	sc := &mockScraper{items: []domain.ContentItem{thread("t3_1")}}
	ex := &mockExecutor{}
	n := &mockNotifier{}

	p := pipeline.New(
		pipeline.Config{PollInterval: time.Hour, CallTimeout: time.Second},
		mk, matcher.New(matcher.DefaultSourceTable(), domain.DefaultMinKeywordLen),
		[]ports.Scraper{sc}, &mockEstimator{result: domain.SafeEstimate("")}, ex, n, nil,
	)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	assert.Equal(t, []bool{true}, sc.ctxOK, "la pasada en curso no ve la cancelación")
	assert.Len(t, ex.signals, 2)
	assert.Len(t, n.summaries, 1)
}
