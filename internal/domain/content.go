package domain

import "time"

// Comment es un comentario de un hilo.
type Comment struct {
	Author string
	Body   string
	Score  int
}

// ContentItem es un hilo (o página web) obtenido por un scraper.
// Inmutable una vez obtenido. El dedup store solo guarda el ID.
type ContentItem struct {
	ID        string
	Title     string
	Body      string
	Source    string // subreddit o host
	URL       string
	Permalink string
	Comments  []Comment
	CreatedAt time.Time
}

// Dedup namespaces: espacios de identificadores independientes en el mismo store.
const (
	NamespacePosts = "posts"
	NamespaceURLs  = "urls"
)

// DedupRecord es una entrada del ledger de idempotencia. Append-only.
type DedupRecord struct {
	Namespace string
	ID        string
	FirstSeen time.Time
}
