// Package kalshi implementa ports.Venue sobre la API REST v2 de Kalshi.
package kalshi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL es la API de producción.
	DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"
	// DemoBaseURL es el entorno demo.
	DemoBaseURL = "https://demo-api.kalshi.co/trade-api/v2"

	// Rate limits al 60% del tier básico: 20 lecturas/s → 12/s, 10 escrituras/s → 6/s.
	readRatePerSec  = 12
	writeRatePerSec = 6

	defaultMaxRetries    = 3
	defaultBaseRetryWait = 500 * time.Millisecond
)

// APIError es una respuesta 4xx/5xx de Kalshi.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kalshi API error %d: %s", e.StatusCode, e.Body)
}

// Client es el HTTP client de Kalshi con firma, rate limiting y retries.
type Client struct {
	http         *http.Client
	baseURL      string
	signer       *Signer // nil = solo endpoints públicos
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter

	maxRetries    int
	baseRetryWait time.Duration
}

// Option configura un Client.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetries configura los reintentos de lecturas.
func WithRetries(max int, baseWait time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max
		c.baseRetryWait = baseWait
	}
}

// NewClient crea un Client. Si baseURL está vacío usa producción.
// signer puede ser nil para uso solo-lectura.
func NewClient(baseURL string, signer *Signer, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:          &http.Client{Timeout: 15 * time.Second},
		baseURL:       baseURL,
		signer:        signer,
		readLimiter:   rate.NewLimiter(readRatePerSec, 5),
		writeLimiter:  rate.NewLimiter(writeRatePerSec, 2),
		maxRetries:    defaultMaxRetries,
		baseRetryWait: defaultBaseRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get hace un GET firmado con rate limiting y retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.doWithRetry(ctx, c.readLimiter, c.maxRetries, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}, out)
}

// post hace un POST JSON firmado. Las escrituras no se reintentan salvo 429:
// un 5xx o un error de red no dice si la orden llegó a entrar.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.doWithRetry(ctx, c.writeLimiter, 0, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

// doWithRetry ejecuta la request con backoff exponencial. 429 siempre se
// reintenta (hasta defaultMaxRetries); 5xx y errores de red solo hasta retries.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, retries int,
	build func() (*http.Request, error), out any) error {

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := build()
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if err := c.sign(req); err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt >= retries {
				return fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by Kalshi", "path", req.URL.Path, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 && attempt < retries {
			resp.Body.Close()
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", c.maxRetries)
}

// sign añade los headers de Kalshi firmando el path completo de la URL.
func (c *Client) sign(req *http.Request) error {
	if c.signer == nil {
		return nil
	}
	headers, err := c.signer.Headers(req.Method, req.URL.Path)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return nil
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func isStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
