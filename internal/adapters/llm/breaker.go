package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// BreakerConfig configura el circuit breaker alrededor de un estimador.
type BreakerConfig struct {
	MaxFailures uint32        // fallos consecutivos que abren el circuito
	Cooldown    time.Duration // tiempo abierto antes de la prueba half-open
}

// DefaultBreakerConfig abre tras 5 fallos consecutivos durante 5 minutos.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 5, Cooldown: 5 * time.Minute}
}

// Breaker envuelve un estimador: con la API caída cada mercado falla al
// instante en vez de esperar un timeout.
type Breaker struct {
	next ports.Estimator
	cb   *gobreaker.CircuitBreaker
}

var _ ports.Estimator = (*Breaker)(nil)

// NewBreaker envuelve next con un circuit breaker.
func NewBreaker(next ports.Estimator, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultBreakerConfig().MaxFailures
	}
	st := gobreaker.Settings{
		Name:        "estimator",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// Estimate delega en el estimador envuelto salvo que el circuito esté abierto.
func (b *Breaker) Estimate(ctx context.Context, req ports.EstimateRequest) (domain.EstimatorResult, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		r, err := b.next.Estimate(ctx, req)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	if err != nil {
		return domain.EstimatorResult{}, fmt.Errorf("llm.Breaker: %w", err)
	}
	return out.(domain.EstimatorResult), nil
}

// State devuelve el nombre del estado: closed, half-open u open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
