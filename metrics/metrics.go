// Package metrics exposes build-engine activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vimy_zerg"

// Collector implements resolver.Observer and bus.Observer.
type Collector struct {
	passes          prometheus.Counter
	targets         prometheus.Counter
	deferred        *prometheus.CounterVec
	supplyOverrides prometheus.Counter
	planSwitches    *prometheus.CounterVec
	stageChanges    *prometheus.CounterVec
	published       *prometheus.CounterVec
	delivered       *prometheus.CounterVec
	rulesFired      *prometheus.CounterVec
	passDuration    prometheus.Histogram
	connections     prometheus.Gauge
}

// NewCollector creates the collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_passes_total",
			Help:      "Total number of resolution passes",
		}),
		targets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "targets_total",
			Help:      "Total number of production targets handed to the executor",
		}),
		deferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deferred_total",
			Help:      "Deficits skipped during a pass, by reason",
		}, []string{"reason"}),
		supplyOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supply_overrides_total",
			Help:      "Passes answered with a supply provider instead of the build",
		}),
		planSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_switches_total",
			Help:      "Builds replaced at mid game or later, by stage",
		}, []string{"stage"}),
		stageChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Stage transitions, by stage entered",
		}, []string{"stage"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_published_total",
			Help:      "Bus publishes, by message kind",
		}, []string{"kind"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_delivered_total",
			Help:      "Mailbox deliveries, by message kind",
		}, []string{"kind"}),
		rulesFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_fired_total",
			Help:      "Reaction rules fired, by rule",
		}, []string{"rule"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Planner tick latency in seconds",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Game adapter connections currently open",
		}),
	}

	reg.MustRegister(
		c.passes,
		c.targets,
		c.deferred,
		c.supplyOverrides,
		c.planSwitches,
		c.stageChanges,
		c.published,
		c.delivered,
		c.rulesFired,
		c.passDuration,
		c.connections,
	)
	return c
}

func (c *Collector) ObservePass(targets int, deferred []string, supplyOverride bool, elapsed time.Duration) {
	c.passes.Inc()
	c.targets.Add(float64(targets))
	for _, reason := range deferred {
		c.deferred.WithLabelValues(reason).Inc()
	}
	if supplyOverride {
		c.supplyOverrides.Inc()
	}
	c.passDuration.Observe(elapsed.Seconds())
}

func (c *Collector) ObservePlanSwitch(stage string) {
	c.planSwitches.WithLabelValues(stage).Inc()
}

func (c *Collector) ObserveStageChange(stage string) {
	c.stageChanges.WithLabelValues(stage).Inc()
}

func (c *Collector) Published(kind string, delivered int) {
	c.published.WithLabelValues(kind).Inc()
	c.delivered.WithLabelValues(kind).Add(float64(delivered))
}

func (c *Collector) RecordRulesFired(names []string) {
	for _, n := range names {
		c.rulesFired.WithLabelValues(n).Inc()
	}
}

func (c *Collector) ConnectionOpened() { c.connections.Inc() }
func (c *Collector) ConnectionClosed() { c.connections.Dec() }

// Serve exposes g on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
