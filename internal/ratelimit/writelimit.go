package ratelimit

import (
	"fmt"
	"net/http"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/productform/internal/common"
)

// WriteLimit throttles configuration document writes with a fixed-window
// limit such as "30-M".
type WriteLimit struct {
	Client *redis.Client
	Prefix string
	Rate   string
	Key    func(*http.Request) string
}

// Middleware builds the limiting middleware. An empty rate disables limiting.
func (l WriteLimit) Middleware() (func(http.Handler) http.Handler, error) {
	if l.Client == nil || l.Rate == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	rate, err := limiter.NewRateFromFormatted(l.Rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse write rate %q: %w", l.Rate, err)
	}
	prefix := l.Prefix
	if prefix == "" {
		prefix = "ratelimit:write"
	}
	store, err := limiterredis.NewStoreWithOptions(l.Client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: write store: %w", err)
	}
	key := l.Key
	if key == nil {
		key = ClientKey
	}
	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithKeyGetter(key),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many form writes", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate limiter unavailable", nil)
		}),
	)
	return mw.Handler, nil
}
