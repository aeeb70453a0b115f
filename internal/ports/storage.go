package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// DedupStore es el ledger de idempotencia de contenido: recuerda qué
// identificadores ya se procesaron. Durable entre reinicios.
//
// Asume un único proceso escritor; escritores concurrentes entre procesos
// no están soportados.
type DedupStore interface {
	// HasSeen devuelve true si el id ya fue marcado.
	HasSeen(ctx context.Context, id string) (bool, error)

	// MarkSeen registra el id. Marcar un id ya visto es un no-op, no un error.
	MarkSeen(ctx context.Context, id string) error
}

// DedupInspector es la vista de solo lectura del ledger de idempotencia
// que usa el modo -history.
type DedupInspector interface {
	// Record devuelve el registro del id, si existe.
	Record(ctx context.Context, id string) (domain.DedupRecord, bool, error)

	// Count devuelve cuántos ids hay registrados.
	Count(ctx context.Context) (int, error)
}

// TradeLedger persiste los TradeRecord de forma append-only.
type TradeLedger interface {
	// AppendTrade inserta el registro y lo devuelve con ID y CreatedAt asignados.
	AppendTrade(ctx context.Context, rec domain.TradeRecord) (domain.TradeRecord, error)

	// TradesByTicker devuelve los registros de un ticker, más antiguos primero.
	TradesByTicker(ctx context.Context, ticker string) ([]domain.TradeRecord, error)

	// TradesBetween devuelve los registros creados en [from, to].
	TradesBetween(ctx context.Context, from, to time.Time) ([]domain.TradeRecord, error)
}
