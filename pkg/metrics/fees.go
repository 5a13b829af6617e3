package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "invoicedesk"

const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// FeeMetrics tracks fee quote traffic. A nil *FeeMetrics is a valid no-op.
type FeeMetrics struct {
	evaluations *prometheus.CounterVec
	quoteTime   *prometheus.HistogramVec
	cache       *prometheus.CounterVec
}

// NewFeeMetrics registers the fee metrics on the provided registerer.
func NewFeeMetrics(reg prometheus.Registerer) *FeeMetrics {
	if reg == nil {
		return &FeeMetrics{}
	}
	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fee_evaluations_total",
		Help:      "Fee evaluations by payment method and tier match outcome.",
	}, []string{"method", "outcome"})
	quoteTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fee_quote_duration_seconds",
		Help:      "Latency of fee quotes including schedule lookup.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"method"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fee_schedule_cache_total",
		Help:      "Fee schedule cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(evaluations, quoteTime, cache)
	return &FeeMetrics{
		evaluations: evaluations,
		quoteTime:   quoteTime,
		cache:       cache,
	}
}

// ObserveEvaluation counts a single evaluation.
func (f *FeeMetrics) ObserveEvaluation(method string, matched bool) {
	if f == nil || f.evaluations == nil {
		return
	}
	outcome := OutcomeUnmatched
	if matched {
		outcome = OutcomeMatched
	}
	f.evaluations.WithLabelValues(normalizeLabel(method), outcome).Inc()
}

func (f *FeeMetrics) ObserveQuote(method string, duration time.Duration) {
	if f == nil || f.quoteTime == nil {
		return
	}
	f.quoteTime.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

func (f *FeeMetrics) ObserveCache(result string) {
	if f == nil || f.cache == nil {
		return
	}
	f.cache.WithLabelValues(normalizeLabel(result)).Inc()
}
