package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Notifier presenta el resultado de cada pasada al usuario.
type Notifier interface {
	// NotifyPass muestra el resumen de una pasada.
	NotifyPass(ctx context.Context, summary domain.PassSummary) error
}

// Metrics registra contadores operativos. Puede ser nil.
type Metrics interface {
	ObserveOutcome(outcome domain.Outcome)
	ObservePass(summary domain.PassSummary)
}
