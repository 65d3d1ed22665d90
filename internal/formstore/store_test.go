package formstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/productform/internal/clock"
	"github.com/noah-isme/productform/internal/formstore"
	"github.com/noah-isme/productform/internal/resilience"
	"github.com/noah-isme/productform/internal/tenant"
)

var pinned = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T, cfg formstore.Config) (*formstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if cfg.Clock == nil {
		cfg.Clock = clock.Fixed{At: pinned}
	}
	return formstore.New(client, cfg), mr
}

func TestPutThenGet(t *testing.T) {
	store, mr := newStore(t, formstore.Config{})
	ctx := context.Background()

	_, err := store.Get(ctx, "p1")
	require.ErrorIs(t, err, formstore.ErrNotFound)

	doc := json.RawMessage(`{"settings":{"product_mode":"regular"}}`)
	rec, err := store.Put(ctx, "p1", doc, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.Revision)
	require.Equal(t, pinned, rec.UpdatedAt)
	require.True(t, mr.Exists("form:p1"))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "p1", got.ProductID)
	require.Equal(t, int64(1), got.Revision)
	require.JSONEq(t, string(doc), string(got.Document))
	require.False(t, mr.Exists("form:p1:lock"))
}

func TestPutRevisionMismatch(t *testing.T) {
	store, _ := newStore(t, formstore.Config{})
	ctx := context.Background()

	_, err := store.Put(ctx, "p1", json.RawMessage(`{}`), 0)
	require.NoError(t, err)

	_, err = store.Put(ctx, "p1", json.RawMessage(`{}`), 0)
	require.ErrorIs(t, err, formstore.ErrRevisionMismatch)

	rec, err := store.Put(ctx, "p1", json.RawMessage(`{"a":1}`), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), rec.Revision)

	rec, err = store.Put(ctx, "p1", json.RawMessage(`{"a":2}`), formstore.AnyRevision)
	require.NoError(t, err)
	require.Equal(t, int64(3), rec.Revision)
}

func TestConcurrentPutsKeepRevisionsLinear(t *testing.T) {
	store, _ := newStore(t, formstore.Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Put(ctx, "p1", json.RawMessage(`{}`), formstore.AnyRevision)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(8), rec.Revision)
}

func TestKeysAreScopedByTenant(t *testing.T) {
	store, mr := newStore(t, formstore.Config{Prefix: "pf:"})
	acme := tenant.With(context.Background(), "acme")
	globex := tenant.With(context.Background(), "globex")

	_, err := store.Put(acme, "p1", json.RawMessage(`{"shop":"acme"}`), 0)
	require.NoError(t, err)
	require.True(t, mr.Exists("acme:pf:p1"))

	_, err = store.Get(globex, "p1")
	require.ErrorIs(t, err, formstore.ErrNotFound)

	require.NoError(t, store.Delete(acme, "p1"))
	require.ErrorIs(t, store.Delete(acme, "p1"), formstore.ErrNotFound)
}

func TestTTLApplied(t *testing.T) {
	store, mr := newStore(t, formstore.Config{TTL: time.Hour})
	_, err := store.Put(context.Background(), "p1", json.RawMessage(`{}`), 0)
	require.NoError(t, err)
	require.Equal(t, time.Hour, mr.TTL("form:p1"))
}

func TestBreakerOpensWhenRedisFails(t *testing.T) {
	breaker := resilience.NewBreaker(2, 0.5, time.Minute).WithTarget("formstore_test")
	store, mr := newStore(t, formstore.Config{Breaker: breaker})
	ctx := context.Background()

	// misses are not failures
	for range 3 {
		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, formstore.ErrNotFound)
	}
	require.Equal(t, resilience.Closed, breaker.State())

	mr.SetError("boom")
	for range 4 {
		_, err := store.Get(ctx, "p1")
		require.Error(t, err)
		if errors.Is(err, formstore.ErrUnavailable) {
			break
		}
	}
	require.Equal(t, resilience.Open, breaker.State())

	mr.SetError("")
	_, err := store.Get(ctx, "p1")
	require.ErrorIs(t, err, formstore.ErrUnavailable)
}

func TestPing(t *testing.T) {
	store, mr := newStore(t, formstore.Config{})
	require.NoError(t, store.Ping(context.Background()))
	mr.SetError("down")
	require.Error(t, store.Ping(context.Background()))

	var nilStore *formstore.Store
	require.ErrorIs(t, nilStore.Ping(context.Background()), formstore.ErrUnavailable)
}
