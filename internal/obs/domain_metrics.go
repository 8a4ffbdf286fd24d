package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics holds calculator specific collectors.
type DomainMetrics struct {
	// CalculationsTotal counts calculation requests by regime and outcome.
	CalculationsTotal *prometheus.CounterVec
	// GrossCost records the distribution of accepted acquisition values.
	GrossCost *prometheus.HistogramVec
	// RateLimitRejections counts requests refused by the rate limiter.
	RateLimitRejections prometheus.Counter
}

// NewDomainMetrics registers domain collectors on reg, defaulting to the
// global registerer.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &DomainMetrics{
		CalculationsTotal: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Count of net cost calculations by regime and result.",
		}, []string{"regime", "result"})),
		GrossCost: registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_gross_cost",
			Help:      "Distribution of acquisition values submitted for calculation.",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 8),
		}, []string{"regime"})),
		RateLimitRejections: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Number of requests rejected by the rate limiter.",
		})),
	}
}

// ObserveCalculation records a calculation outcome. A nil receiver is a no-op.
func (m *DomainMetrics) ObserveCalculation(regime, result string, grossCost float64) {
	if m == nil {
		return
	}
	m.CalculationsTotal.WithLabelValues(regime, result).Inc()
	if result == "ok" {
		m.GrossCost.WithLabelValues(regime).Observe(grossCost)
	}
}

// ObserveRateLimited records a rejected request. A nil receiver is a no-op.
func (m *DomainMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitRejections.Inc()
}
