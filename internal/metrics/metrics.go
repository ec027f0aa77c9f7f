package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	sidecarSpawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hermes",
			Subsystem: "sidecar",
			Name:      "spawns_total",
			Help:      "Number of successful sidecar spawns.",
		}, []string{"name"},
	)
	sidecarKills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hermes",
			Subsystem: "sidecar",
			Name:      "kills_total",
			Help:      "Number of kill requests issued to the sidecar.",
		}, []string{"name"},
	)
	sidecarExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hermes",
			Subsystem: "sidecar",
			Name:      "exits_total",
			Help:      "Number of observed sidecar exits by outcome.",
		}, []string{"name", "outcome"},
	)
	sidecarOutputLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hermes",
			Subsystem: "sidecar",
			Name:      "output_lines_total",
			Help:      "Lines forwarded from the sidecar output streams.",
		}, []string{"name", "stream"},
	)
	sidecarPresent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hermes",
			Subsystem: "sidecar",
			Name:      "present",
			Help:      "1 while a sidecar handle is held, 0 otherwise.",
		}, []string{"name"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{sidecarSpawns, sidecarKills, sidecarExits, sidecarOutputLines, sidecarPresent}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncSpawn(name string) {
	if regOK.Load() {
		sidecarSpawns.WithLabelValues(name).Inc()
	}
}

func IncKill(name string) {
	if regOK.Load() {
		sidecarKills.WithLabelValues(name).Inc()
	}
}

// IncExit records a sidecar exit; outcome is "ok" for a zero exit code and
// "error" for anything else.
func IncExit(name string, success bool) {
	if regOK.Load() {
		outcome := "error"
		if success {
			outcome = "ok"
		}
		sidecarExits.WithLabelValues(name, outcome).Inc()
	}
}

func IncOutputLine(name, stream string) {
	if regOK.Load() {
		sidecarOutputLines.WithLabelValues(name, stream).Inc()
	}
}

func SetPresent(name string, present bool) {
	if regOK.Load() {
		var v float64
		if present {
			v = 1
		}
		sidecarPresent.WithLabelValues(name).Set(v)
	}
}
