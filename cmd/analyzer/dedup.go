package main

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/kalshibot/config"
	"github.com/alejandrodnm/kalshibot/internal/adapters/redisdedup"
	"github.com/alejandrodnm/kalshibot/internal/adapters/storage"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// openDedup devuelve los stores de los namespaces posts y urls según el backend
// configurado. El ledger de trades siempre vive en SQLite.
func openDedup(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage) (posts, urls ports.DedupStore, closeFn func(), err error) {
	if cfg.Dedup.Backend == "redis" {
		client, err := redisdedup.Dial(ctx, redisdedup.Options{
			Addr:     cfg.Dedup.RedisAddr,
			Password: cfg.Dedup.RedisPassword,
			DB:       cfg.Dedup.RedisDB,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		p, err := redisdedup.New(client, domain.NamespacePosts)
		if err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		u, err := redisdedup.New(client, domain.NamespaceURLs)
		if err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		return p, u, func() { client.Close() }, nil
	}

	p, err := store.Dedup(domain.NamespacePosts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("openDedup: %w", err)
	}
	u, err := store.Dedup(domain.NamespaceURLs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("openDedup: %w", err)
	}
	return p, u, func() {}, nil
}
