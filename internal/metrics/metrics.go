// Package metrics exposes feed and decision metrics for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	price        *prometheus.GaugeVec
	expiry       *prometheus.GaugeVec
	breaker      *prometheus.GaugeVec
	decisions    *prometheus.CounterVec
	chainQueries *prometheus.CounterVec
}

// New registers the collectors under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_price",
			Help:      "Latest published price per pair direction.",
		}, []string{"label"}),
		expiry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_expiry_timestamp_seconds",
			Help:      "Expiry of the latest observation per feed.",
		}, []string{"feed"}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_tripped",
			Help:      "1 when the latest observation would trip the circuit breaker.",
		}, []string{"feed"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Validator decisions by action and result.",
		}, []string{"action", "result"}),
		chainQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_queries_total",
			Help:      "Chain queries by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.price, m.expiry, m.breaker, m.decisions, m.chainQueries)
	return m
}

// ObserveFeed records an observation and the breaker verdict on it.
func (m *Metrics) ObserveFeed(obs *feed.Observation, breaker validator.Result) {
	if m == nil || obs == nil {
		return
	}
	for i, label := range obs.PairLabels {
		f, _ := obs.Values[i].Rat().Float64()
		m.price.WithLabelValues(label).Set(f)
	}
	m.expiry.WithLabelValues(obs.Name()).Set(float64(obs.Expiry) / 1000)
	tripped := 0.0
	if breaker == validator.CircuitBreakerTripped {
		tripped = 1
	}
	m.breaker.WithLabelValues(obs.Name()).Set(tripped)
}

// ObserveDecision counts a validator decision.
func (m *Metrics) ObserveDecision(d validator.Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(d.Action.String(), d.Result.String()).Inc()
}

// ObserveQuery counts a chain query outcome.
func (m *Metrics) ObserveQuery(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.chainQueries.WithLabelValues(outcome).Inc()
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
