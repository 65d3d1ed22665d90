package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/productform/internal/clock"
	"github.com/noah-isme/productform/internal/common"
	"github.com/noah-isme/productform/internal/config"
	"github.com/noah-isme/productform/internal/formstore"
	"github.com/noah-isme/productform/internal/health"
	"github.com/noah-isme/productform/internal/obs"
	"github.com/noah-isme/productform/internal/quote"
	"github.com/noah-isme/productform/internal/ratelimit"
	"github.com/noah-isme/productform/internal/resilience"
	"github.com/noah-isme/productform/internal/security"
	"github.com/noah-isme/productform/internal/tenant"
)

// Dependencies enumerates the shared services the HTTP router is built from.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Redis     *redis.Client
	Clock     clock.Clock
	Validator *validator.Validate
	// Metrics is nil when Prometheus is disabled.
	Metrics *obs.HTTPMetrics
	// BreakerMetrics is nil when Prometheus is disabled.
	BreakerMetrics *resilience.Metrics
	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
	Tracing  bool
}

// NewFormStore builds the Redis form store guarded by a circuit breaker.
func NewFormStore(deps Dependencies) *formstore.Store {
	cfg := deps.Config
	breaker := resilience.NewBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).
		WithTarget("formstore").
		WithMetrics(deps.BreakerMetrics).
		WithLogger(deps.Logger)
	return formstore.New(deps.Redis, formstore.Config{
		Prefix:  cfg.FormStorePrefix,
		TTL:     cfg.FormStoreTTL,
		LockTTL: cfg.FormStoreLockTTL,
		Breaker: breaker,
		Clock:   deps.Clock,
	})
}

// NewRouter wires middleware, health probes and the quote API.
func NewRouter(deps Dependencies) (http.Handler, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	if deps.Validator == nil {
		deps.Validator = quote.NewValidator()
	}

	store := NewFormStore(deps)
	service := quote.NewService(quote.ServiceConfig{
		Store:         store,
		Clock:         deps.Clock,
		Logger:        deps.Logger,
		MaxWindowDays: cfg.CalendarMaxWindowDays,
	})
	quoteHandler := quote.NewHandler(quote.HandlerConfig{Service: service, Validator: deps.Validator})

	writeLimit, err := ratelimit.WriteLimit{
		Client: deps.Redis,
		Rate:   cfg.RateLimitWriteRate,
		Key:    ratelimit.ClientKey,
	}.Middleware()
	if err != nil {
		return nil, err
	}
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}
	resolver := tenant.NewResolver(cfg.TenantHeader, cfg.TenantDomain, cfg.TenantDefault)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(resolver.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if deps.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if deps.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: deps.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: deps.Logger}.Middleware)
	r.Use(contextLogger(deps.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", cfg.TenantHeader, common.IdempotencyHeader},
		MaxAge:         300,
	}))
	r.Use(security.Headers{
		Enable:                cfg.SecurityHeadersEnabled,
		EnableHSTS:            cfg.SecurityHSTSEnabled,
		HSTSIncludeSubdomains: true,
		NoStore:               true,
	}.Middleware)

	if deps.Metrics != nil {
		if deps.Gatherer != nil {
			r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
		} else {
			r.Handle("/metrics", promhttp.Handler())
		}
	}

	healthHandler := health.Handler{
		Checker:      redisChecker{client: deps.Redis},
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.HTTPBodyLimitBytes}.Middleware)
		if cfg.RateLimitMax > 0 {
			v.Use(ratelimit.Handler{
				Limiter: ratelimit.Limiter{Client: deps.Redis},
				Config:  ratelimit.Config{Key: ratelimit.ClientKey, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
				OnError: func(err error) { deps.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
			}.Middleware)
		}
		quoteHandler.Routes(v, idem.Middleware, writeLimit)
	})

	return r, nil
}

// contextLogger exposes a request scoped logger through zerolog.Ctx.
func contextLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			if id, ok := tenant.From(r.Context()); ok {
				l = l.With().Str("tenant_id", id).Logger()
			}
			next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
		})
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type redisChecker struct {
	client *redis.Client
}

func (c redisChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.client == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}
