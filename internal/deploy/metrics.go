package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJob = "natify_deploy"

// Metrics records one deployment run. Each run owns its registry so the
// pushed series only describe that run.
type Metrics struct {
	registry *prometheus.Registry

	stackDeployments *prometheus.CounterVec
	stackDuration    *prometheus.HistogramVec
	gateChecks       prometheus.Counter
	gateOutcome      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stackDeployments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "natify_stack_deployments_total",
			Help: "Stack deployments by stack and terminal state",
		}, []string{"stack", "outcome"}),
		stackDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "natify_stack_deployment_duration_seconds",
			Help:    "Wall time from DEPLOYING to a terminal state",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"stack"}),
		gateChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "natify_gate_checks_total",
			Help: "CI gate checks performed",
		}),
		gateOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "natify_gate_outcomes_total",
			Help: "CI gate results",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveStack(stack string, state State, d time.Duration) {
	m.stackDeployments.WithLabelValues(stack, strings.ToLower(string(state))).Inc()
	m.stackDuration.WithLabelValues(stack).Observe(d.Seconds())
}

func (m *Metrics) ObserveGateCheck() {
	m.gateChecks.Inc()
}

func (m *Metrics) ObserveGate(state State) {
	m.gateOutcome.WithLabelValues(strings.ToLower(string(state))).Inc()
}

// Push sends the run's metrics to a Pushgateway.
func (m *Metrics) Push(ctx context.Context, url string) error {
	if err := push.New(url, pushJob).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
