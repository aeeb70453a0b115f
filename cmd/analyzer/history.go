package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/adapters/notify"
	"github.com/alejandrodnm/kalshibot/internal/adapters/storage"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// printHistory imprime el ledger filtrado por ticker y/o antigüedad.
func printHistory(ctx context.Context, store *storage.SQLiteStorage, n *notify.Console, ticker string, since time.Duration) error {
	var from time.Time
	if since > 0 {
		from = time.Now().Add(-since)
	}

	var (
		records []domain.TradeRecord
		err     error
	)
	if ticker != "" {
		records, err = store.TradesByTicker(ctx, ticker)
		records = filterSince(records, from)
	} else {
		records, err = store.TradesBetween(ctx, from, time.Now().Add(time.Second))
	}
	if err != nil {
		return err
	}

	n.PrintHistory(records)
	return nil
}

// printDedup imprime el tamaño de cada namespace y, si seenID no está vacío,
// cuándo se vio ese id por primera vez. Funciona igual con SQLite y Redis.
func printDedup(ctx context.Context, n *notify.Console, posts, urls ports.DedupStore, seenID string) error {
	stores := []struct {
		namespace string
		store     ports.DedupStore
	}{
		{domain.NamespacePosts, posts},
		{domain.NamespaceURLs, urls},
	}

	var (
		counts  []notify.DedupCount
		records []domain.DedupRecord
	)
	for _, s := range stores {
		insp, ok := s.store.(ports.DedupInspector)
		if !ok {
			continue
		}
		c, err := insp.Count(ctx)
		if err != nil {
			return fmt.Errorf("printDedup: %w", err)
		}
		counts = append(counts, notify.DedupCount{Namespace: s.namespace, Count: c})

		if seenID == "" {
			continue
		}
		rec, found, err := insp.Record(ctx, seenID)
		if err != nil {
			return fmt.Errorf("printDedup: %w", err)
		}
		if found {
			records = append(records, rec)
		}
	}

	n.PrintDedup(counts)
	if seenID != "" {
		n.PrintSeen(seenID, records)
	}
	return nil
}

func filterSince(records []domain.TradeRecord, from time.Time) []domain.TradeRecord {
	if from.IsZero() {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if !r.CreatedAt.Before(from) {
			out = append(out, r)
		}
	}
	return out
}
