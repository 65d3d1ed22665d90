package obs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainObserversAreNoopsWhenMetricsDisabled(t *testing.T) {
	recomputeTotal, recomputeDuration := QuoteRecomputeTotal, QuoteRecomputeDuration
	fallback, storeWrites := VariationFallbackTotal, FormStoreWriteTotal
	t.Cleanup(func() {
		QuoteRecomputeTotal, QuoteRecomputeDuration = recomputeTotal, recomputeDuration
		VariationFallbackTotal, FormStoreWriteTotal = fallback, storeWrites
	})
	QuoteRecomputeTotal, QuoteRecomputeDuration = nil, nil
	VariationFallbackTotal, FormStoreWriteTotal = nil, nil

	require.NotPanics(t, func() {
		ObserveRecompute("booking", "ok", 1.5)
		ObserveFallback()
		ObserveStoreWrite("ok")
	})
}
