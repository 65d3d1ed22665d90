// Package formstore keeps product form configuration documents in Redis.
package formstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/productform/internal/clock"
	"github.com/noah-isme/productform/internal/resilience"
	"github.com/noah-isme/productform/internal/tenant"
)

var (
	// ErrNotFound is returned when no document is stored for a product.
	ErrNotFound = errors.New("formstore: form not found")
	// ErrRevisionMismatch is returned when a conditional write sees a newer revision.
	ErrRevisionMismatch = errors.New("formstore: revision mismatch")
	// ErrUnavailable is returned while the store's circuit breaker is open.
	ErrUnavailable = errors.New("formstore: store unavailable")
)

// AnyRevision makes Put overwrite whatever revision is stored.
const AnyRevision int64 = -1

// Record is a stored configuration document.
type Record struct {
	ProductID string          `json:"product_id"`
	Revision  int64           `json:"revision"`
	UpdatedAt time.Time       `json:"updated_at"`
	Document  json.RawMessage `json:"document"`
}

// Config tunes the store.
type Config struct {
	Prefix  string
	TTL     time.Duration
	LockTTL time.Duration
	Breaker *resilience.Breaker
	Clock   clock.Clock
}

// Store reads and writes documents, namespaced by the shop in the request context.
type Store struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	breaker *resilience.Breaker
	clock   clock.Clock
	locker  locker
}

// New constructs a store. A zero TTL keeps documents until they are overwritten.
func New(client *redis.Client, cfg Config) *Store {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "form:"
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Store{
		client:  client,
		prefix:  prefix,
		ttl:     cfg.TTL,
		breaker: cfg.Breaker,
		clock:   clk,
		locker:  locker{client: client, ttl: cfg.LockTTL},
	}
}

// Key returns the Redis key holding productID for the shop in ctx.
func (s *Store) Key(ctx context.Context, productID string) string {
	id, _ := tenant.From(ctx)
	return tenant.PrefixKey(id, s.prefix+productID)
}

// Get returns the stored record for productID.
func (s *Store) Get(ctx context.Context, productID string) (Record, error) {
	if s == nil || s.client == nil {
		return Record{}, ErrUnavailable
	}
	var rec Record
	err := s.guard(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.read(ctx, s.Key(ctx, productID))
		return err
	})
	return rec, err
}

// Put stores doc for productID. With a revision other than AnyRevision the
// write only happens when the stored revision matches.
func (s *Store) Put(ctx context.Context, productID string, doc json.RawMessage, revision int64) (Record, error) {
	if s == nil || s.client == nil {
		return Record{}, ErrUnavailable
	}
	key := s.Key(ctx, productID)
	var rec Record
	err := s.guard(ctx, func(ctx context.Context) error {
		return s.locker.withLock(ctx, key+":lock", func(ctx context.Context) error {
			current, err := s.read(ctx, key)
			switch {
			case errors.Is(err, ErrNotFound):
				current = Record{}
			case err != nil:
				return err
			}
			if revision != AnyRevision && revision != current.Revision {
				return fmt.Errorf("%w: stored %d, expected %d", ErrRevisionMismatch, current.Revision, revision)
			}
			rec = Record{
				ProductID: productID,
				Revision:  current.Revision + 1,
				UpdatedAt: s.clock.Now().UTC(),
				Document:  doc,
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			return s.client.Set(ctx, key, data, s.ttl).Err()
		})
	})
	return rec, err
}

// Delete removes the document for productID.
func (s *Store) Delete(ctx context.Context, productID string) error {
	if s == nil || s.client == nil {
		return ErrUnavailable
	}
	return s.guard(ctx, func(ctx context.Context) error {
		n, err := s.client.Del(ctx, s.Key(ctx, productID)).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrUnavailable
	}
	return s.client.Ping(ctx).Err()
}

func (s *Store) read(ctx context.Context, key string) (Record, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("formstore: decode %s: %w", key, err)
	}
	return rec, nil
}

// guard runs fn behind the breaker. Misses, revision conflicts and caller
// cancellation do not count against Redis.
func (s *Store) guard(ctx context.Context, fn func(context.Context) error) error {
	err := s.breaker.Do(ctx, fn, func(err error) bool {
		return !errors.Is(err, ErrNotFound) &&
			!errors.Is(err, ErrRevisionMismatch) &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded)
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return ErrUnavailable
	}
	return err
}
