// Package reddit implementa ports.Scraper sobre la API OAuth de Reddit
// (credenciales de aplicación, solo lectura).
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	DefaultBaseURL  = "https://oauth.reddit.com"

	// Reddit permite 100 req/min con OAuth; al 60% → 1 req/s.
	defaultRatePerSec = 1
)

// Credentials son las credenciales de la app de Reddit.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// Valid devuelve true si están los tres campos.
func (c Credentials) Valid() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.UserAgent != ""
}

// Client hace GETs autenticados contra oauth.reddit.com.
type Client struct {
	http    *http.Client
	baseURL string
	ua      string
	limiter *rate.Limiter
}

// ClientConfig configura el Client. Los campos vacíos usan los valores de producción.
type ClientConfig struct {
	Credentials Credentials
	TokenURL    string
	BaseURL     string
	RatePerSec  float64
	Timeout     time.Duration
}

// NewClient crea un Client con token app-only (client_credentials).
// El token se pide de forma perezosa en la primera request y se renueva solo.
func NewClient(cfg ClientConfig) (*Client, error) {
	if !cfg.Credentials.Valid() {
		return nil, errors.New("reddit.NewClient: client id, client secret and user agent are required")
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	// Reddit rechaza requests sin User-Agent propio, también en el endpoint de token.
	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &userAgentTransport{ua: cfg.Credentials.UserAgent, next: http.DefaultTransport},
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.Credentials.ClientID,
		ClientSecret: cfg.Credentials.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := cc.Client(ctx)
	authed.Timeout = cfg.Timeout

	return &Client{
		http:    authed,
		baseURL: cfg.BaseURL,
		ua:      cfg.Credentials.UserAgent,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 5),
	}, nil
}

// get hace un GET autenticado y decodifica el JSON en out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	query.Set("raw_json", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

type userAgentTransport struct {
	ua   string
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(r)
}
