// Package redisdedup implementa ports.DedupStore sobre Redis, como alternativa
// a las tablas seen_* de SQLite cuando varias réplicas comparten el dedup.
package redisdedup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

// KeyPrefix es el prefijo común de todas las claves de dedup.
const KeyPrefix = "kalshibot:seen:"

// scanBatch es el COUNT de cada SCAN al contar claves.
const scanBatch = 1000

var (
	_ ports.DedupStore     = (*Store)(nil)
	_ ports.DedupInspector = (*Store)(nil)
)

// Options configura la conexión a Redis.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store es un DedupStore por namespace. Las claves no expiran: el dedup es
// append-only igual que en SQLite.
type Store struct {
	client    redis.Cmdable
	namespace string
	now       func() time.Time
}

// Dial abre un cliente Redis y comprueba la conexión con PING.
func Dial(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     4,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redisdedup.Dial: ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// New devuelve el store del namespace dado sobre un cliente ya abierto.
func New(client redis.Cmdable, namespace string) (*Store, error) {
	switch namespace {
	case domain.NamespacePosts, domain.NamespaceURLs:
	default:
		return nil, fmt.Errorf("redisdedup.New: unknown namespace %q", namespace)
	}
	return &Store{client: client, namespace: namespace, now: time.Now}, nil
}

func (s *Store) key(id string) string {
	return KeyPrefix + s.namespace + ":" + id
}

// HasSeen devuelve true si la clave del id existe.
func (s *Store) HasSeen(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redisdedup.HasSeen[%s]: %w", s.namespace, err)
	}
	return n > 0, nil
}

// MarkSeen registra el id con SETNX; si ya existía conserva el first_seen original.
func (s *Store) MarkSeen(ctx context.Context, id string) error {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.client.SetNX(ctx, s.key(id), ts, 0).Err(); err != nil {
		return fmt.Errorf("redisdedup.MarkSeen[%s]: %w", s.namespace, err)
	}
	return nil
}

// Record devuelve el DedupRecord del id, si existe.
func (s *Store) Record(ctx context.Context, id string) (domain.DedupRecord, bool, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.DedupRecord{}, false, nil
	}
	if err != nil {
		return domain.DedupRecord{}, false, fmt.Errorf("redisdedup.Record[%s]: %w", s.namespace, err)
	}
	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return domain.DedupRecord{}, false, fmt.Errorf("redisdedup.Record[%s]: bad timestamp %q: %w", s.namespace, val, err)
	}
	return domain.DedupRecord{
		Namespace: s.namespace,
		ID:        id,
		FirstSeen: time.Unix(sec, 0).UTC(),
	}, true, nil
}

// Count cuenta las claves del namespace con SCAN, sin bloquear Redis con KEYS.
func (s *Store) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, KeyPrefix+s.namespace+":*", scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("redisdedup.Count[%s]: %w", s.namespace, err)
		}
		n += len(keys)
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}
