package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry keeps the intake counters on a private Prometheus registry.
type Registry struct {
	reg       *prometheus.Registry
	submitted prometheus.Counter
	failures  *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	submitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_intake_submitted_total",
		Help: "Orders written to the orders table.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_intake_failures_total",
		Help: "Failed submissions by reason.",
	}, []string{"reason"})

	r.MustRegister(submitted, failures)
	return &Registry{
		reg:       r,
		submitted: submitted,
		failures:  failures,
	}
}

func (r *Registry) Submitted() { r.submitted.Inc() }

func (r *Registry) Failed(reason string) { r.failures.WithLabelValues(reason).Inc() }

// Flush is a no-op; the registry is scraped.
func (r *Registry) Flush(context.Context) {}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
