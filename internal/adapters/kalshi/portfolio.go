package kalshi

import (
	"context"
	"errors"
	"fmt"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// errNoSigner se devuelve en endpoints de portfolio sin credenciales.
var errNoSigner = errors.New("kalshi: credentials required for portfolio endpoints")

// Balance devuelve el balance disponible en centavos.
func (c *Client) Balance(ctx context.Context) (int64, error) {
	if c.signer == nil {
		return 0, fmt.Errorf("kalshi.Balance: %w", errNoSigner)
	}
	var resp balanceResponse
	if err := c.get(ctx, "/portfolio/balance", nil, &resp); err != nil {
		return 0, fmt.Errorf("kalshi.Balance: %w", err)
	}
	return resp.Balance, nil
}

// CreateOrder envía una orden límite. Un error nil significa que Kalshi la aceptó.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	if c.signer == nil {
		return domain.OrderAck{}, fmt.Errorf("kalshi.CreateOrder: %w", errNoSigner)
	}
	if req.Count <= 0 || req.PriceCents < 1 || req.PriceCents > 99 {
		return domain.OrderAck{}, fmt.Errorf("kalshi.CreateOrder %s: invalid order count=%d price=%d",
			req.Ticker, req.Count, req.PriceCents)
	}

	body := createOrderRequest{
		Ticker:        req.Ticker,
		Side:          req.Side,
		Action:        req.Action,
		Count:         req.Count,
		Type:          "limit",
		YesPrice:      req.PriceCents,
		TimeInForce:   req.TimeInForce,
		ClientOrderID: req.ClientOrderID,
	}

	var resp createOrderResponse
	if err := c.post(ctx, "/portfolio/orders", body, &resp); err != nil {
		return domain.OrderAck{}, fmt.Errorf("kalshi.CreateOrder %s: %w", req.Ticker, err)
	}
	return domain.OrderAck{OrderID: resp.Order.OrderID, Status: resp.Order.Status}, nil
}
