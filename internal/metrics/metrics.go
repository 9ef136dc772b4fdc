package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FeeAllocator/internal/model"
)

// Registry holds all Prometheus metrics of the fee allocator.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	Cycles        *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	Claimed       prometheus.Counter
	Actions       *prometheus.CounterVec
	Spent         *prometheus.CounterVec
	Pending       *prometheus.GaugeVec
	Stranded      *prometheus.GaugeVec
	Momentum      prometheus.Gauge
	MomentumReady prometheus.Gauge
}

// New creates a registry with Go runtime and process collectors attached.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feealloc_cycles_total",
				Help: "Claim-and-distribute cycles by outcome",
			},
			[]string{"status"},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feealloc_cycle_duration_seconds",
				Help:    "Wall time of one claim-and-distribute cycle",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		Claimed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "feealloc_claimed_native_total",
				Help: "Native units claimed from the fee source",
			},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feealloc_actions_total",
				Help: "Allocation action results by bucket and status",
			},
			[]string{"bucket", "status"},
		),
		Spent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feealloc_spent_native_total",
				Help: "Native units spent by successful actions",
			},
			[]string{"bucket"},
		),
		Pending: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "feealloc_pending_native",
				Help: "Native units accumulated per bucket",
			},
			[]string{"bucket"},
		),
		Stranded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "feealloc_stranded_asset",
				Help: "Tracked-asset units stranded by partial failures",
			},
			[]string{"bucket"},
		),
		Momentum: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "feealloc_momentum_value",
				Help: "Current momentum oscillator value",
			},
		),
		MomentumReady: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "feealloc_momentum_ready",
				Help: "1 when the oscillator has enough samples",
			},
		),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Cycles, r.CycleDuration, r.Claimed, r.Actions, r.Spent,
		r.Pending, r.Stranded, r.Momentum, r.MomentumReady,
	)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveCycle records one pipeline cycle.
func (r *Registry) ObserveCycle(c model.CycleResult) {
	if r == nil {
		return
	}
	r.Cycles.WithLabelValues(string(c.Status)).Inc()
	r.CycleDuration.Observe(c.Duration.Seconds())
	if c.Claimed > 0 {
		r.Claimed.Add(float64(c.Claimed))
	}
}

// ObserveDistribution records every action outcome of a distribution.
func (r *Registry) ObserveDistribution(d model.DistributionResult) {
	if r == nil {
		return
	}
	for _, a := range d.Actions {
		r.Actions.WithLabelValues(string(a.Bucket), string(a.Status)).Inc()
		if a.Moved() && a.Spent > 0 {
			r.Spent.WithLabelValues(string(a.Bucket)).Add(float64(a.Spent))
		}
	}
}

// SetBuckets publishes pending and stranded amounts.
func (r *Registry) SetBuckets(pending map[model.Bucket]int64, stranded map[model.Bucket]model.Stranded) {
	if r == nil {
		return
	}
	for _, b := range model.Buckets {
		r.Pending.WithLabelValues(string(b)).Set(float64(pending[b]))
		r.Stranded.WithLabelValues(string(b)).Set(float64(stranded[b].Asset))
	}
}

// SetMomentum publishes the oscillator reading.
func (r *Registry) SetMomentum(m model.MomentumReading) {
	if r == nil {
		return
	}
	r.Momentum.Set(m.Value)
	if m.Ready {
		r.MomentumReady.Set(1)
	} else {
		r.MomentumReady.Set(0)
	}
}
