// Package execution convierte una señal aprobada en como mucho una orden y un
// registro durable en el ledger. Es el único sitio que habla con la API de órdenes.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// Config contiene la política de ejecución.
type Config struct {
	Thresholds  domain.Thresholds
	DryRun      bool
	CallTimeout time.Duration // límite de cada llamada al venue; 0 = sin límite

	// MaxOpenPerTicker salta la señal si el ticker ya tiene este número de
	// registros reales (no dry run). 0 = sin límite.
	MaxOpenPerTicker int
}

// Signal es un mercado evaluado en una pasada.
type Signal struct {
	Ticker     string
	Estimate   domain.EstimatorResult
	PriceCents int
}

// LiveTradeCounter lo implementan los ledgers que saben contar registros reales
// por ticker. Solo se necesita con MaxOpenPerTicker > 0.
type LiveTradeCounter interface {
	CountLiveTrades(ctx context.Context, ticker string) (int, error)
}

// Executor ejecuta la máquina de estados decidir → dimensionar → ordenar → registrar.
type Executor struct {
	cfg     Config
	orders  ports.OrderExecutor
	ledger  ports.TradeLedger
	metrics ports.Metrics
	newID   func() string
}

// New crea un Executor. metrics puede ser nil.
func New(cfg Config, orders ports.OrderExecutor, ledger ports.TradeLedger, metrics ports.Metrics) *Executor {
	return &Executor{
		cfg:     cfg,
		orders:  orders,
		ledger:  ledger,
		metrics: metrics,
		newID:   func() string { return uuid.New().String() },
	}
}

// DryRun indica si el executor solo registra los trades sin enviar órdenes.
func (e *Executor) DryRun() bool {
	return e.cfg.DryRun
}

// Execute evalúa la señal y devuelve su resultado. Nunca devuelve error: cada
// fallo termina en OutcomeFailed. Nada se reintenta dentro de una llamada.
func (e *Executor) Execute(ctx context.Context, sig Signal) domain.ExecutionResult {
	res := e.execute(ctx, sig)
	if e.metrics != nil {
		e.metrics.ObserveOutcome(res.Outcome)
	}
	return res
}

func (e *Executor) execute(ctx context.Context, sig Signal) domain.ExecutionResult {
	est := sig.Estimate.Normalize()
	res := domain.ExecutionResult{Ticker: sig.Ticker, Outcome: domain.OutcomeSkipped}

	if !e.cfg.Thresholds.Approves(est, sig.PriceCents) {
		res.Reason = "not approved"
		slog.Debug("signal not approved",
			"ticker", sig.Ticker,
			"recommendation", est.Recommendation,
			"implied", est.ImpliedProbability,
			"confidence", est.Confidence,
			"price_cents", sig.PriceCents,
		)
		return res
	}

	if reason, skip := e.throttled(ctx, sig.Ticker); skip {
		res.Reason = reason
		slog.Info("signal throttled", "ticker", sig.Ticker, "reason", reason)
		return res
	}

	balance, err := e.balance(ctx)
	if err != nil {
		res.Outcome = domain.OutcomeFailed
		res.Reason = err.Error()
		slog.Warn("balance fetch failed, skipping trade", "ticker", sig.Ticker, "err", err)
		return res
	}

	count := e.cfg.Thresholds.SizeFor(balance, sig.PriceCents)
	if count <= 0 {
		res.Reason = "size is zero"
		slog.Info("approved but size is zero",
			"ticker", sig.Ticker, "balance_cents", balance, "price_cents", sig.PriceCents)
		return res
	}
	res.Count = count

	rec := domain.TradeRecord{
		Ticker:             sig.Ticker,
		Side:               domain.SideYes,
		Action:             domain.ActionBuy,
		Count:              count,
		PriceCents:         sig.PriceCents,
		ImpliedProbability: est.ImpliedProbability,
		Confidence:         est.Confidence,
		DryRun:             true,
		RawEstimate:        domain.EncodeEstimate(est),
		BalanceCents:       balance,
	}

	if e.cfg.DryRun {
		return e.logDryRun(ctx, res, rec)
	}
	return e.placeLive(ctx, res, rec)
}

func (e *Executor) logDryRun(ctx context.Context, res domain.ExecutionResult, rec domain.TradeRecord) domain.ExecutionResult {
	saved, err := e.ledger.AppendTrade(ctx, rec)
	if err != nil {
		res.Outcome = domain.OutcomeFailed
		res.Reason = fmt.Sprintf("ledger write: %v", err)
		slog.Error("dry run trade not recorded", "ticker", rec.Ticker, "err", err)
		return res
	}
	res.Outcome = domain.OutcomeLogged
	res.Record = &saved
	slog.Info("dry run trade logged",
		"ticker", rec.Ticker,
		"count", rec.Count,
		"price_cents", rec.PriceCents,
		"cost_cents", rec.CostCents(),
		"id", saved.ID,
	)
	return res
}

func (e *Executor) placeLive(ctx context.Context, res domain.ExecutionResult, rec domain.TradeRecord) domain.ExecutionResult {
	rec.ClientOrderID = e.newID()
	req := domain.OrderRequest{
		Ticker:        rec.Ticker,
		Side:          rec.Side,
		Action:        rec.Action,
		Count:         rec.Count,
		PriceCents:    rec.PriceCents,
		TimeInForce:   domain.TimeInForceGTC,
		ClientOrderID: rec.ClientOrderID,
	}

	callCtx, cancel := e.callContext(ctx)
	ack, err := e.orders.CreateOrder(callCtx, req)
	cancel()

	if err != nil {
		// El intento se registra igualmente, marcado como dry run para que nunca
		// cuente como posición real.
		rec.RawEstimate = fmt.Sprintf("%s (order API failed: %v)", rec.RawEstimate, err)
		res.Outcome = domain.OutcomeFailed
		res.Reason = fmt.Sprintf("create order: %v", err)
		slog.Warn("order rejected", "ticker", rec.Ticker, "count", rec.Count, "err", err)

		saved, lerr := e.ledger.AppendTrade(ctx, rec)
		if lerr != nil {
			slog.Error("failed order not recorded", "ticker", rec.Ticker, "err", lerr)
			return res
		}
		res.Record = &saved
		return res
	}

	rec.DryRun = false
	res.Outcome = domain.OutcomePlaced
	slog.Info("order placed",
		"ticker", rec.Ticker,
		"count", rec.Count,
		"price_cents", rec.PriceCents,
		"order_id", ack.OrderID,
		"client_order_id", rec.ClientOrderID,
	)

	saved, err := e.ledger.AppendTrade(ctx, rec)
	if err != nil {
		// La orden existe en el venue pero no en el ledger.
		slog.Error("ORDER PLACED BUT NOT RECORDED",
			"ticker", rec.Ticker,
			"count", rec.Count,
			"price_cents", rec.PriceCents,
			"order_id", ack.OrderID,
			"client_order_id", rec.ClientOrderID,
			"err", err,
		)
		res.Reason = fmt.Sprintf("ledger write: %v", err)
		return res
	}
	res.Record = &saved
	return res
}

func (e *Executor) balance(ctx context.Context) (int64, error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	b, err := e.orders.Balance(callCtx)
	if err != nil {
		return 0, fmt.Errorf("execution.balance: %w", err)
	}
	return b, nil
}

// throttled aplica MaxOpenPerTicker. Un error al contar no bloquea el trade.
func (e *Executor) throttled(ctx context.Context, ticker string) (string, bool) {
	if e.cfg.MaxOpenPerTicker <= 0 {
		return "", false
	}
	counter, ok := e.ledger.(LiveTradeCounter)
	if !ok {
		return "", false
	}
	n, err := counter.CountLiveTrades(ctx, ticker)
	if err != nil {
		slog.Warn("live trade count failed", "ticker", ticker, "err", err)
		return "", false
	}
	if n >= e.cfg.MaxOpenPerTicker {
		return fmt.Sprintf("ticker already has %d live trades", n), true
	}
	return "", false
}

func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.CallTimeout)
}
