// Package mirror is the durable, Postgres-backed streamteam.KVBackend
// spec.md §5/§6 call the "durable state mirror": every Put is mirrored
// into an append-only change log so a match's SingleValueStore/HistoryStore
// state can be rebuilt after a worker restart, before the match's first
// element is processed again.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"soccerstream/pkg/streamteam"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS state_changelog (
	id          BIGSERIAL PRIMARY KEY,
	match_id    TEXT NOT NULL,
	store_name  TEXT NOT NULL,
	inner_key   TEXT NOT NULL,
	value       JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS state_changelog_match_idx
	ON state_changelog (match_id, store_name, inner_key, recorded_at DESC);
`

// Decoder reconstructs a typed value from the JSON a changelog row carries.
// The worker registers one per store name it restores, since KVBackend is
// type-erased and only the caller knows each store's concrete T (or, for a
// HistoryStore, []T).
type Decoder func(raw json.RawMessage) (any, error)

// DecodeValue builds a Decoder for a concrete Go type via encoding/json.
// Use the store's element type for a SingleValueStore (e.g. DecodeValue[string]())
// and its slice type for a HistoryStore (e.g. DecodeValue[[]Vector3]()).
func DecodeValue[T any]() Decoder {
	return func(raw json.RawMessage) (any, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Backend implements streamteam.KVBackend. Reads are served from an
// in-memory cache so generic type assertions in store.go see the same
// live Go values a MemoryBackend would hold; writes additionally append a
// row to the durable change log, retried a fixed number of times on
// transient failure and logged (never surfaced — KVBackend.Put has no
// error return) if every attempt fails.
type Backend struct {
	pool *pgxpool.Pool

	mu    sync.RWMutex
	cache map[streamteam.StoreKey]any

	retryAttempts int
	retryDelay    time.Duration
}

// New constructs a Backend over an already-connected pool. Call
// EnsureSchema once at startup before using it.
func New(pool *pgxpool.Pool) *Backend {
	return &Backend{
		pool:          pool,
		cache:         make(map[streamteam.StoreKey]any),
		retryAttempts: 3,
		retryDelay:    200 * time.Millisecond,
	}
}

// EnsureSchema creates the change log table and its index if absent.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, schemaDDL)
	return err
}

func (b *Backend) Get(k streamteam.StoreKey) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.cache[k]
	return v, ok
}

func (b *Backend) Put(k streamteam.StoreKey, v any) {
	b.mu.Lock()
	b.cache[k] = v
	b.mu.Unlock()
	b.persist(k, v)
}

func (b *Backend) setCache(k streamteam.StoreKey, v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache[k] = v
}

func (b *Backend) persist(k streamteam.StoreKey, v any) {
	encoded, err := json.Marshal(v)
	if err != nil {
		log.Printf("mirror: dropping unencodable write for %s/%s/%s: %v", k.Store, k.Match, k.Inner, err)
		return
	}

	ctx := context.Background()
	var lastErr error
	for attempt := 0; attempt < b.retryAttempts; attempt++ {
		_, lastErr = b.pool.Exec(ctx, `
			INSERT INTO state_changelog (match_id, store_name, inner_key, value)
			VALUES ($1, $2, $3, $4)
		`, k.Match, k.Store, k.Inner, encoded)
		if lastErr == nil {
			return
		}
		log.Printf("mirror: write attempt %d/%d failed for %s/%s/%s: %v", attempt+1, b.retryAttempts, k.Store, k.Match, k.Inner, lastErr)
		time.Sleep(b.retryDelay)
	}
	log.Printf("mirror: giving up persisting %s/%s/%s after %d attempts: %v", k.Store, k.Match, k.Inner, b.retryAttempts, lastErr)
}

// Restore rebuilds matchID's cached state from the change log's latest
// value per (store, inner key), using decoders to reconstruct each store's
// concrete type. Unrecognized store names (no registered decoder) are
// skipped rather than failing the whole restore, since a worker restored
// against an older change log may no longer run every detector that wrote
// to it.
func (b *Backend) Restore(ctx context.Context, matchID string, decoders map[string]Decoder) error {
	rows, err := b.pool.Query(ctx, `
		SELECT DISTINCT ON (store_name, inner_key) store_name, inner_key, value
		FROM state_changelog
		WHERE match_id = $1
		ORDER BY store_name, inner_key, recorded_at DESC
	`, matchID)
	if err != nil {
		return fmt.Errorf("mirror.Restore: query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var store, inner string
		var raw json.RawMessage
		if err := rows.Scan(&store, &inner, &raw); err != nil {
			return fmt.Errorf("mirror.Restore: scan: %w", err)
		}
		decode, ok := decoders[store]
		if !ok {
			continue
		}
		v, err := decode(raw)
		if err != nil {
			return fmt.Errorf("mirror.Restore: decode %s: %w", store, err)
		}
		b.setCache(streamteam.StoreKey{Store: store, Match: matchID, Inner: inner}, v)
	}
	return rows.Err()
}
