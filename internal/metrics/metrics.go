// Package metrics exporta contadores operativos del pipeline en formato Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const namespace = "kalshibot"

// Recorder implementa ports.Metrics sobre un registry propio.
type Recorder struct {
	reg *prometheus.Registry

	outcomes     *prometheus.CounterVec
	passes       prometheus.Counter
	passErrors   prometheus.Counter
	passDuration prometheus.Histogram
	markets      prometheus.Gauge
	matched      prometheus.Gauge
	items        prometheus.Counter
	estimates    prometheus.Counter
}

// New crea un Recorder con sus colectores registrados en un registry nuevo.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "outcomes_total",
			Help:      "Execution results by outcome",
		}, []string{"outcome"}),
		passes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "passes_total",
			Help:      "Completed pipeline passes",
		}),
		passErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "collaborator_errors_total",
			Help:      "Collaborator errors absorbed during passes",
		}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a pipeline pass",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		markets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "open_markets",
			Help:      "Open markets listed in the last pass",
		}),
		matched: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "matched_markets",
			Help:      "Markets with at least one source in the last pass",
		}),
		items: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scrape",
			Name:      "items_total",
			Help:      "New content items scraped",
		}),
		estimates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "estimator",
			Name:      "estimates_total",
			Help:      "Successful estimator calls",
		}),
	}
}

// ObserveOutcome cuenta un resultado de Execute.
func (r *Recorder) ObserveOutcome(o domain.Outcome) {
	r.outcomes.WithLabelValues(string(o)).Inc()
}

// ObservePass registra los agregados de una pasada.
func (r *Recorder) ObservePass(s domain.PassSummary) {
	r.passes.Inc()
	r.passErrors.Add(float64(len(s.Errors)))
	r.passDuration.Observe(s.Duration.Seconds())
	r.markets.Set(float64(s.Markets))
	r.matched.Set(float64(s.Matched))
	r.items.Add(float64(s.ItemsScraped))
	r.estimates.Add(float64(s.Estimates))
}

// TrackBreaker publica el estado de un circuit breaker como gauge:
// 0 closed, 1 half-open, 2 open. state se lee en cada scrape.
func (r *Recorder) TrackBreaker(name string, state func() string) {
	promauto.With(r.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   "breaker",
		Name:        "state",
		Help:        "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		ConstLabels: prometheus.Labels{"breaker": name},
	}, func() float64 {
		switch state() {
		case "open":
			return 2
		case "half-open":
			return 1
		default:
			return 0
		}
	})
}

// Registry expone el registry para tests y para añadir colectores.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Handler devuelve el handler HTTP de /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
