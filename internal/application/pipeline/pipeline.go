// Package pipeline es el orquestador: en cada pasada lista mercados, los agrupa
// por tema, obtiene contenido nuevo, pide una estimación por mercado y delega
// la ejecución. Todo es secuencial dentro de una pasada.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/application/execution"
	"github.com/alejandrodnm/kalshibot/internal/application/signal"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/matcher"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// waitStep es la granularidad con la que se comprueba la cancelación entre pasadas.
const waitStep = time.Second

// Config contiene la configuración del orquestador.
type Config struct {
	PollInterval time.Duration
	CallTimeout  time.Duration // límite de cada llamada a un colaborador
}

// SignalExecutor ejecuta una señal ya estimada.
type SignalExecutor interface {
	Execute(ctx context.Context, sig execution.Signal) domain.ExecutionResult
}

// Pipeline es el orquestador principal del loop de análisis.
type Pipeline struct {
	cfg       Config
	markets   ports.MarketProvider
	matcher   *matcher.Matcher
	scrapers  []ports.Scraper
	estimator ports.Estimator // nil = sin estimador configurado
	executor  SignalExecutor
	notifier  ports.Notifier // opcional
	metrics   ports.Metrics  // opcional

	sleep func(context.Context, time.Duration) bool
}

// New crea un Pipeline con todas las dependencias inyectadas.
// estimator, notifier y metrics pueden ser nil.
func New(
	cfg Config,
	markets ports.MarketProvider,
	m *matcher.Matcher,
	scrapers []ports.Scraper,
	estimator ports.Estimator,
	executor SignalExecutor,
	notifier ports.Notifier,
	metrics ports.Metrics,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		markets:   markets,
		matcher:   m,
		scrapers:  scrapers,
		estimator: estimator,
		executor:  executor,
		notifier:  notifier,
		metrics:   metrics,
		sleep:     sleepStep,
	}
}

// Run ejecuta pasadas hasta que el contexto se cancele. Una pasada en curso
// siempre termina: la cancelación solo se observa durante la espera, una vez
// por segundo.
func (p *Pipeline) Run(ctx context.Context) error {
	slog.Info("pipeline starting",
		"interval", p.cfg.PollInterval,
		"call_timeout", p.cfg.CallTimeout,
		"scrapers", len(p.scrapers),
		"estimator", p.estimator != nil,
	)

	for {
		p.runPass(ctx)

		if !p.wait(ctx) {
			slog.Info("pipeline stopped")
			return nil
		}
	}
}

// RunOnce ejecuta exactamente una pasada y devuelve su resumen.
func (p *Pipeline) RunOnce(ctx context.Context) domain.PassSummary {
	return p.pass(context.WithoutCancel(ctx))
}

// runPass ejecuta una pasada y notifica el resultado.
func (p *Pipeline) runPass(ctx context.Context) domain.PassSummary {
	passCtx := context.WithoutCancel(ctx)
	summary := p.pass(passCtx)

	if p.notifier != nil {
		if err := p.notifier.NotifyPass(passCtx, summary); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("pass complete",
		"markets", summary.Markets,
		"matched", summary.Matched,
		"groups", summary.Groups,
		"items", summary.ItemsScraped,
		"estimates", summary.Estimates,
		"logged", summary.Count(domain.OutcomeLogged),
		"placed", summary.Count(domain.OutcomePlaced),
		"failed", summary.Count(domain.OutcomeFailed),
		"errors", len(summary.Errors),
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary
}

// wait duerme PollInterval en pasos de un segundo. Devuelve false si el
// contexto se canceló.
func (p *Pipeline) wait(ctx context.Context) bool {
	remaining := p.cfg.PollInterval
	for remaining > 0 {
		step := min(waitStep, remaining)
		if !p.sleep(ctx, step) {
			return false
		}
		remaining -= step
	}
	return ctx.Err() == nil
}

// pass hace markets → match → aggregate → scrape → estimate → execute.
// Los errores de colaboradores se registran en el resumen; nunca abortan la
// pasada salvo el listado inicial de mercados.
func (p *Pipeline) pass(ctx context.Context) domain.PassSummary {
	start := time.Now()
	summary := domain.PassSummary{StartedAt: start}
	defer func() {
		summary.Duration = time.Since(start)
		if p.metrics != nil {
			p.metrics.ObservePass(summary)
		}
	}()

	markets, err := p.openMarkets(ctx)
	if err != nil {
		slog.Error("listing open markets failed", "err", err)
		summary.Errors = append(summary.Errors, err.Error())
		return summary
	}
	summary.Markets = len(markets)

	matches := p.matcher.MatchAll(markets)
	for _, m := range matches {
		if len(m.Sources) > 0 {
			summary.Matched++
		}
	}

	groups := signal.Aggregate(matches)
	summary.Groups = len(groups)
	slog.Debug("markets matched", "markets", len(markets), "matched", summary.Matched, "groups", len(groups))

	if p.estimator == nil && len(groups) > 0 {
		slog.Warn("no estimator configured, scraped content will not be estimated")
	}

	for _, g := range groups {
		items := p.scrape(ctx, g, &summary)
		summary.ItemsScraped += len(items)
		if len(items) == 0 || p.estimator == nil {
			continue
		}
		for _, ticker := range g.Tickers {
			res := p.evaluate(ctx, ticker, items, &summary)
			summary.Results = append(summary.Results, res)
		}
	}
	return summary
}

func (p *Pipeline) openMarkets(ctx context.Context) ([]domain.Market, error) {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	markets, err := p.markets.OpenMarkets(callCtx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.pass: open markets: %w", err)
	}
	return markets, nil
}

// scrape llama a cada scraper con su propio timeout y concatena los items.
// Un scraper que falla no impide usar los demás.
func (p *Pipeline) scrape(ctx context.Context, g signal.Group, summary *domain.PassSummary) []domain.ContentItem {
	var items []domain.ContentItem
	for _, s := range p.scrapers {
		callCtx, cancel := p.callContext(ctx)
		got, err := s.Scrape(callCtx, g.Sources, g.Keywords)
		cancel()
		if err != nil {
			slog.Warn("scrape failed", "sources", g.Sources, "keywords", g.Keywords, "err", err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("scrape %s: %v", g.Key(), err))
		}
		items = append(items, got...)
	}
	return items
}

// evaluate obtiene precio, descripción y estimación de un ticker y lo ejecuta.
func (p *Pipeline) evaluate(ctx context.Context, ticker string, items []domain.ContentItem, summary *domain.PassSummary) domain.ExecutionResult {
	price := p.price(ctx, ticker, summary)
	description := p.description(ctx, ticker, summary)

	callCtx, cancel := p.callContext(ctx)
	est, err := p.estimator.Estimate(callCtx, ports.EstimateRequest{
		Description: description,
		Price:       domain.PriceFraction(price),
		Items:       items,
	})
	cancel()
	if err != nil {
		slog.Warn("estimate failed, using safe default", "ticker", ticker, "err", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("estimate %s: %v", ticker, err))
		est = domain.SafeEstimate(err.Error())
	} else {
		summary.Estimates++
	}

	return p.executor.Execute(ctx, execution.Signal{
		Ticker:     ticker,
		Estimate:   est.Normalize(),
		PriceCents: price,
	})
}

// price devuelve el mejor bid YES, o DefaultYesPriceCents si no está disponible.
func (p *Pipeline) price(ctx context.Context, ticker string, summary *domain.PassSummary) int {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	cents, err := p.markets.BestYesBid(callCtx, ticker)
	switch {
	case err == nil && cents > 0 && cents < 100:
		return cents
	case err == nil, errors.Is(err, ports.ErrNoLiquidity):
		slog.Debug("no usable yes bid, using default price", "ticker", ticker, "bid", cents)
	default:
		slog.Warn("orderbook fetch failed, using default price", "ticker", ticker, "err", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("orderbook %s: %v", ticker, err))
	}
	return domain.DefaultYesPriceCents
}

// description devuelve título + reglas, o "" si el mercado no se pudo leer.
func (p *Pipeline) description(ctx context.Context, ticker string, summary *domain.PassSummary) string {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	m, err := p.markets.Market(callCtx, ticker)
	if err != nil {
		slog.Warn("market fetch failed, empty description", "ticker", ticker, "err", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("market %s: %v", ticker, err))
		return ""
	}
	return m.Describe()
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.CallTimeout)
}

// sleepStep duerme d o hasta que ctx se cancele. Devuelve false si se canceló.
func sleepStep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
