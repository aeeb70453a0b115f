// Package web descarga páginas configuradas respetando robots.txt y las
// entrega como ContentItems, deduplicadas por URL.
package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const (
	// RobotsAgent es el user agent con el que se evalúa robots.txt.
	RobotsAgent = "SentimentAnalyzer"

	maxTextChars  = 50000
	maxTitleChars = 500
	maxBodyBytes  = 5 << 20
)

// Config configura el Fetcher.
type Config struct {
	URLs        []string
	DomainDelay time.Duration // pausa mínima entre requests al mismo host
	Timeout     time.Duration
}

// Fetcher implementa ports.Scraper sobre una lista fija de URLs. Ignora
// fuentes y keywords: cada URL se descarga una sola vez en la vida del store.
type Fetcher struct {
	cfg      Config
	http     *http.Client
	seen     ports.DedupStore
	limiters map[string]*rate.Limiter
	robots   map[string]*robotstxt.RobotsData
}

var _ ports.Scraper = (*Fetcher)(nil)

// NewFetcher crea un Fetcher. seen es el DedupStore del namespace urls.
func NewFetcher(cfg Config, seen ports.DedupStore) *Fetcher {
	if cfg.DomainDelay <= 0 {
		cfg.DomainDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Fetcher{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		seen:     seen,
		limiters: make(map[string]*rate.Limiter),
		robots:   make(map[string]*robotstxt.RobotsData),
	}
}

// Scrape descarga las URLs configuradas que no se hayan visto antes. Las URLs
// que fallan o que robots.txt prohíbe se saltan sin marcar.
func (f *Fetcher) Scrape(ctx context.Context, _, _ []string) ([]domain.ContentItem, error) {
	var items []domain.ContentItem
	for _, raw := range f.cfg.URLs {
		seen, err := f.seen.HasSeen(ctx, raw)
		if err != nil {
			return items, fmt.Errorf("web.Scrape: %w", err)
		}
		if seen {
			continue
		}

		item, err := f.fetch(ctx, raw)
		if err != nil {
			slog.Warn("web fetch failed", "url", raw, "err", err)
			continue
		}
		if item == nil {
			continue
		}
		if err := f.seen.MarkSeen(ctx, raw); err != nil {
			return items, fmt.Errorf("web.Scrape: mark seen: %w", err)
		}
		items = append(items, *item)
	}
	return items, nil
}

// fetch descarga una URL. Devuelve nil, nil si robots.txt la prohíbe.
func (f *Fetcher) fetch(ctx context.Context, raw string) (*domain.ContentItem, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", raw)
	}

	if !f.allowed(ctx, u) {
		slog.Debug("disallowed by robots.txt", "url", raw)
		return nil, nil
	}

	body, err := f.get(ctx, u, raw)
	if err != nil {
		return nil, err
	}

	title, text, err := extractText(body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &domain.ContentItem{
		ID:        raw,
		Title:     domain.Truncate(title, maxTitleChars),
		Body:      domain.Truncate(text, maxTextChars),
		Source:    u.Host,
		URL:       raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// allowed consulta (y cachea por host) robots.txt. Si robots.txt no se puede
// descargar, la URL no se permite.
func (f *Fetcher) allowed(ctx context.Context, u *url.URL) bool {
	data, ok := f.robots[u.Host]
	if !ok {
		robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
		status, body, err := f.getRaw(ctx, u.Host, robotsURL)
		if err != nil {
			slog.Debug("robots.txt unavailable", "host", u.Host, "err", err)
			return false
		}
		data, err = robotstxt.FromStatusAndBytes(status, body)
		if err != nil {
			return false
		}
		f.robots[u.Host] = data
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, RobotsAgent)
}

func (f *Fetcher) get(ctx context.Context, u *url.URL, raw string) ([]byte, error) {
	status, body, err := f.getRaw(ctx, u.Host, raw)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("status %d", status)
	}
	return body, nil
}

// getRaw hace el GET respetando el límite por host.
func (f *Fetcher) getRaw(ctx context.Context, host, target string) (int, []byte, error) {
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(f.cfg.DomainDelay), 1)
		f.limiters[host] = lim
	}
	if err := lim.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", RobotsAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// extractText devuelve el <title> y el texto visible del documento, sin
// script ni style, con los espacios colapsados.
func extractText(body []byte) (title, text string, err error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", "", err
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		if n.Type == html.TextNode {
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				parts = append(parts, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, strings.Join(parts, " "), nil
}
