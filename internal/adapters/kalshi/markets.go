package kalshi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const (
	marketsPageSize = 200
	orderbookDepth  = 5
	// maxMarketPages corta la paginación si el cursor nunca se vacía.
	maxMarketPages = 500
)

var _ ports.Venue = (*Client)(nil)

// OpenMarkets devuelve todos los mercados abiertos, paginando por cursor.
// Los mercados sin ticker se descartan aquí.
func (c *Client) OpenMarkets(ctx context.Context) ([]domain.Market, error) {
	var out []domain.Market
	cursor := ""

	for page := 0; page < maxMarketPages; page++ {
		q := url.Values{}
		q.Set("status", "open")
		q.Set("limit", strconv.Itoa(marketsPageSize))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp marketsResponse
		if err := c.get(ctx, "/markets", q, &resp); err != nil {
			return nil, fmt.Errorf("kalshi.OpenMarkets: page %d: %w", page, err)
		}

		for _, m := range resp.Markets {
			if m.Ticker == "" {
				continue
			}
			out = append(out, toDomainMarket(m))
		}

		if resp.Cursor == "" || len(resp.Markets) == 0 {
			slog.Debug("open markets fetched", "count", len(out), "pages", page+1)
			return out, nil
		}
		cursor = resp.Cursor
	}
	slog.Warn("market pagination cut short", "pages", maxMarketPages, "count", len(out))
	return out, nil
}

// Market devuelve el detalle de un mercado. 404 → ports.ErrMarketNotFound.
func (c *Client) Market(ctx context.Context, ticker string) (domain.Market, error) {
	var resp marketResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker), nil, &resp); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.Market{}, fmt.Errorf("kalshi.Market %s: %w", ticker, ports.ErrMarketNotFound)
		}
		return domain.Market{}, fmt.Errorf("kalshi.Market %s: %w", ticker, err)
	}
	return toDomainMarket(resp.Market), nil
}

// BestYesBid devuelve el mejor bid YES del orderbook (profundidad 5), en centavos.
func (c *Client) BestYesBid(ctx context.Context, ticker string) (int, error) {
	q := url.Values{}
	q.Set("depth", strconv.Itoa(orderbookDepth))

	var resp orderbookResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker)+"/orderbook", q, &resp); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return 0, fmt.Errorf("kalshi.BestYesBid %s: %w", ticker, ports.ErrMarketNotFound)
		}
		return 0, fmt.Errorf("kalshi.BestYesBid %s: %w", ticker, err)
	}

	cents, ok := bestYesBid(resp.Orderbook)
	if !ok {
		return 0, ports.ErrNoLiquidity
	}
	return cents, nil
}
