package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

var (
	_ ports.DedupStore     = (*Dedup)(nil)
	_ ports.DedupInspector = (*Dedup)(nil)
)

// namespaceTables mapea cada namespace de dedup a su tabla y columna de id.
var namespaceTables = map[string]struct{ table, column string }{
	domain.NamespacePosts: {"seen_posts", "post_id"},
	domain.NamespaceURLs:  {"seen_urls", "url"},
}

// Dedup implementa ports.DedupStore sobre una tabla seen_* de SQLiteStorage.
type Dedup struct {
	s         *SQLiteStorage
	namespace string
	hasQuery  string
	markQuery string
	now       func() time.Time
}

// Dedup devuelve el store de idempotencia del namespace dado
// (domain.NamespacePosts o domain.NamespaceURLs).
func (s *SQLiteStorage) Dedup(namespace string) (*Dedup, error) {
	t, ok := namespaceTables[namespace]
	if !ok {
		return nil, fmt.Errorf("storage.Dedup: unknown namespace %q", namespace)
	}
	return &Dedup{
		s:         s,
		namespace: namespace,
		hasQuery:  fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ?`, t.table, t.column),
		markQuery: fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s, seen_at) VALUES (?, ?)`, t.table, t.column),
		now:       time.Now,
	}, nil
}

// HasSeen devuelve true si el id ya está registrado.
func (d *Dedup) HasSeen(ctx context.Context, id string) (bool, error) {
	var one int
	err := d.s.db.QueryRowContext(ctx, d.hasQuery, id).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case isNoRows(err):
		return false, nil
	default:
		return false, fmt.Errorf("storage.HasSeen[%s]: %w", d.namespace, err)
	}
}

// MarkSeen registra el id. INSERT OR IGNORE: el first_seen original se conserva.
func (d *Dedup) MarkSeen(ctx context.Context, id string) error {
	if _, err := d.s.db.ExecContext(ctx, d.markQuery, id, d.now().Unix()); err != nil {
		return fmt.Errorf("storage.MarkSeen[%s]: %w", d.namespace, err)
	}
	return nil
}

// Record devuelve el DedupRecord del id, si existe.
func (d *Dedup) Record(ctx context.Context, id string) (domain.DedupRecord, bool, error) {
	t := namespaceTables[d.namespace]
	q := fmt.Sprintf(`SELECT seen_at FROM %s WHERE %s = ?`, t.table, t.column)

	var seenAt int64
	err := d.s.db.QueryRowContext(ctx, q, id).Scan(&seenAt)
	if isNoRows(err) {
		return domain.DedupRecord{}, false, nil
	}
	if err != nil {
		return domain.DedupRecord{}, false, fmt.Errorf("storage.Record[%s]: %w", d.namespace, err)
	}
	return domain.DedupRecord{
		Namespace: d.namespace,
		ID:        id,
		FirstSeen: time.Unix(seenAt, 0).UTC(),
	}, true, nil
}

// Count devuelve cuántos ids hay registrados en el namespace.
func (d *Dedup) Count(ctx context.Context) (int, error) {
	t := namespaceTables[d.namespace]
	var n int
	if err := d.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.Count[%s]: %w", d.namespace, err)
	}
	return n, nil
}
