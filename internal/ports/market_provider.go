package ports

import (
	"context"
	"errors"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

var (
	// ErrMarketNotFound indica que el venue no conoce el ticker.
	ErrMarketNotFound = errors.New("market not found")
	// ErrNoLiquidity indica que el orderbook no tiene bids YES.
	ErrNoLiquidity = errors.New("no yes bids in orderbook")
)

// MarketProvider obtiene mercados y precios del venue.
type MarketProvider interface {
	// OpenMarkets devuelve todos los mercados abiertos.
	// Pagina automáticamente hasta obtener todos los resultados.
	OpenMarkets(ctx context.Context) ([]domain.Market, error)

	// Market devuelve el detalle de un mercado (título, reglas).
	Market(ctx context.Context, ticker string) (domain.Market, error)

	// BestYesBid devuelve el mejor bid YES en centavos, o ErrNoLiquidity.
	BestYesBid(ctx context.Context, ticker string) (int, error)
}
