package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// OrderExecutor envía órdenes reales al venue. Las llamadas son síncronas y
// pueden fallar; quien llama nunca las reintenta.
type OrderExecutor interface {
	// Balance devuelve el saldo disponible en centavos.
	Balance(ctx context.Context) (int64, error)

	// CreateOrder envía una orden límite. Error nil significa que el venue la aceptó.
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error)
}

// Venue es el colaborador completo del venue: mercados + órdenes.
type Venue interface {
	MarketProvider
	OrderExecutor
}
