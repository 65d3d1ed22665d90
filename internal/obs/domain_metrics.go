package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteRecomputeTotal counts price recomputations by product mode and outcome.
	QuoteRecomputeTotal *prometheus.CounterVec
	// QuoteRecomputeDuration records recomputation latency in milliseconds.
	QuoteRecomputeDuration *prometheus.HistogramVec
	// VariationFallbackTotal counts selections that fell back to the first active variation.
	VariationFallbackTotal prometheus.Counter
	// FormStoreWriteTotal counts configuration document writes by outcome.
	FormStoreWriteTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteRecomputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_recompute_total",
			Help:      "Count of price summary recomputations by outcome.",
		}, []string{"mode", "result"})
		QuoteRecomputeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_recompute_duration_ms",
			Help:      "Latency for price summary recomputation in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		}, []string{"mode"})
		VariationFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variation_fallback_total",
			Help:      "Number of selections replaced by the first active variation.",
		})
		FormStoreWriteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_store_write_total",
			Help:      "Count of configuration document writes by outcome.",
		}, []string{"result"})

		mustRegister(reg, &QuoteRecomputeTotal)
		mustRegister(reg, &QuoteRecomputeDuration)
		mustRegister(reg, &VariationFallbackTotal)
		mustRegister(reg, &FormStoreWriteTotal)
	})
}

// ObserveRecompute records one recomputation. It is a no-op before registration.
func ObserveRecompute(mode, result string, ms float64) {
	if QuoteRecomputeTotal != nil {
		QuoteRecomputeTotal.WithLabelValues(mode, result).Inc()
	}
	if QuoteRecomputeDuration != nil && result == "ok" {
		QuoteRecomputeDuration.WithLabelValues(mode).Observe(ms)
	}
}

// ObserveFallback records a variation fallback.
func ObserveFallback() {
	if VariationFallbackTotal != nil {
		VariationFallbackTotal.Inc()
	}
}

// ObserveStoreWrite records a document write outcome.
func ObserveStoreWrite(result string) {
	if FormStoreWriteTotal != nil {
		FormStoreWriteTotal.WithLabelValues(result).Inc()
	}
}
