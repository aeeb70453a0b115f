package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// Límites de contenido por hilo.
const (
	maxTitleChars   = 500
	maxBodyChars    = 5000
	maxCommentChars = 2000
)

// ScraperConfig contiene los parámetros de búsqueda.
type ScraperConfig struct {
	TimeFilter     string        // hour|day|week|month|year|all
	SearchLimit    int           // posts por (subreddit, keyword)
	CommentsLimit  int           // comentarios por hilo
	SubredditDelay time.Duration // pausa entre subreddits
	MaxKeywords    int           // keywords buscadas por grupo; 0 = todas
}

// DefaultScraperConfig devuelve los valores por defecto: último día, 100
// posts, 50 comentarios, 1.5s entre subreddits, 8 keywords por grupo.
func DefaultScraperConfig() ScraperConfig {
	return ScraperConfig{
		TimeFilter:     "day",
		SearchLimit:    100,
		CommentsLimit:  50,
		SubredditDelay: 1500 * time.Millisecond,
		MaxKeywords:    8,
	}
}

// Scraper busca posts por keyword en cada subreddit y devuelve solo hilos
// no vistos, con sus comentarios top.
type Scraper struct {
	cfg    ScraperConfig
	client *Client
	seen   ports.DedupStore
	sleep  func(context.Context, time.Duration)
}

var _ ports.Scraper = (*Scraper)(nil)

// NewScraper crea un Scraper. seen es el DedupStore del namespace posts.
func NewScraper(cfg ScraperConfig, client *Client, seen ports.DedupStore) *Scraper {
	return &Scraper{cfg: cfg, client: client, seen: seen, sleep: sleepCtx}
}

// Scrape busca cada keyword en cada subreddit. Los fallos de una búsqueda
// concreta se registran y se saltan. Si el contexto expira a mitad, deja de
// buscar y devuelve lo ya recogido junto con el error del contexto. Todos los
// hilos recogidos se marcan como vistos antes de devolverlos; el dedup usa un
// contexto sin cancelación para que un deadline no pierda lo recogido.
func (s *Scraper) Scrape(ctx context.Context, sources, keywords []string) ([]domain.ContentItem, error) {
	subs := normalizeSubreddits(sources)
	keywords = s.capKeywords(keywords)
	storeCtx := context.WithoutCancel(ctx)

	collected := make(map[string]domain.ContentItem)
	var order []string
	var failures []error
	searches := 0

subreddits:
	for i, sub := range subs {
		if i > 0 && s.cfg.SubredditDelay > 0 {
			s.sleep(ctx, s.cfg.SubredditDelay)
		}
		for _, kw := range keywords {
			if ctx.Err() != nil {
				break subreddits
			}
			searches++
			posts, err := s.search(ctx, sub, kw)
			if err != nil {
				slog.Warn("reddit search failed", "subreddit", sub, "keyword", kw, "err", err)
				failures = append(failures, err)
				continue
			}
			for _, p := range posts {
				if _, dup := collected[p.ID]; dup {
					continue
				}
				seen, err := s.seen.HasSeen(storeCtx, p.ID)
				if err != nil {
					return nil, fmt.Errorf("reddit.Scrape: %w", err)
				}
				if seen {
					continue
				}
				collected[p.ID] = s.thread(ctx, sub, p)
				order = append(order, p.ID)
			}
		}
	}

	items := make([]domain.ContentItem, 0, len(order))
	for _, id := range order {
		if err := s.seen.MarkSeen(storeCtx, id); err != nil {
			return nil, fmt.Errorf("reddit.Scrape: mark seen: %w", err)
		}
		items = append(items, collected[id])
	}

	if err := ctx.Err(); err != nil {
		slog.Warn("reddit scrape interrupted, returning partial result",
			"searches", searches, "planned", len(subs)*len(keywords), "new_threads", len(items))
		return items, fmt.Errorf("reddit.Scrape: stopped after %d of %d searches: %w",
			searches, len(subs)*len(keywords), err)
	}
	if len(items) == 0 && searches > 0 && len(failures) == searches {
		return nil, fmt.Errorf("reddit.Scrape: all %d searches failed: %w", searches, errors.Join(failures...))
	}
	slog.Debug("reddit scrape complete", "subreddits", len(subs), "keywords", len(keywords), "new_threads", len(items))
	return items, nil
}

// capKeywords limita las keywords buscadas a MaxKeywords, en el orden recibido.
func (s *Scraper) capKeywords(keywords []string) []string {
	if s.cfg.MaxKeywords <= 0 || len(keywords) <= s.cfg.MaxKeywords {
		return keywords
	}
	return keywords[:s.cfg.MaxKeywords]
}

// search devuelve los posts de un subreddit que casan con la keyword.
func (s *Scraper) search(ctx context.Context, sub, keyword string) ([]apiPost, error) {
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("restrict_sr", "1")
	q.Set("sort", "relevance")
	q.Set("t", s.cfg.TimeFilter)
	q.Set("limit", strconv.Itoa(s.cfg.SearchLimit))

	var l listing
	if err := s.client.get(ctx, "/r/"+url.PathEscape(sub)+"/search", q, &l); err != nil {
		return nil, err
	}

	posts := make([]apiPost, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		if ch.Kind != "t3" {
			continue
		}
		var p apiPost
		if err := json.Unmarshal(ch.Data, &p); err != nil || p.ID == "" {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// thread construye el ContentItem de un post. Si los comentarios fallan el
// hilo se devuelve sin ellos.
func (s *Scraper) thread(ctx context.Context, sub string, p apiPost) domain.ContentItem {
	source := strings.ToLower(p.Subreddit)
	if source == "" {
		source = sub
	}
	item := domain.ContentItem{
		ID:        p.ID,
		Title:     domain.Truncate(p.Title, maxTitleChars),
		Body:      domain.Truncate(p.Selftext, maxBodyChars),
		Source:    source,
		URL:       p.URL,
		Permalink: p.Permalink,
		CreatedAt: time.Unix(int64(p.CreatedUTC), 0).UTC(),
	}

	comments, err := s.comments(ctx, sub, p.ID)
	if err != nil {
		slog.Debug("reddit comments failed", "post", p.ID, "err", err)
	}
	item.Comments = comments
	return item
}

// comments devuelve los comentarios top del hilo, aplanados en anchura
// (primero los de nivel superior) hasta CommentsLimit.
func (s *Scraper) comments(ctx context.Context, sub, postID string) ([]domain.Comment, error) {
	q := url.Values{}
	q.Set("sort", "top")
	q.Set("limit", strconv.Itoa(s.cfg.CommentsLimit))

	var resp []listing
	if err := s.client.get(ctx, "/r/"+url.PathEscape(sub)+"/comments/"+url.PathEscape(postID), q, &resp); err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, nil
	}

	var out []domain.Comment
	queue := resp[1].Data.Children
	for len(queue) > 0 && len(out) < s.cfg.CommentsLimit {
		ch := queue[0]
		queue = queue[1:]
		if ch.Kind != "t1" {
			continue
		}
		var c apiComment
		if err := json.Unmarshal(ch.Data, &c); err != nil {
			continue
		}
		author := c.Author
		if author == "" {
			author = "[deleted]"
		}
		out = append(out, domain.Comment{
			Author: author,
			Body:   domain.Truncate(c.Body, maxCommentChars),
			Score:  c.Score,
		})
		queue = append(queue, replies(c.Replies)...)
	}
	return out, nil
}

// replies decodifica el campo replies, que es "" o un listing.
func replies(raw json.RawMessage) []thing {
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil
	}
	return l.Data.Children
}

// normalizeSubreddits quita "r/", pasa a minúscula y deduplica manteniendo el orden.
func normalizeSubreddits(sources []string) []string {
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "r/")
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
