/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Seednode/guessbox/game"
)

// Metrics is the set of collectors the game updates. Each server owns its own
// registry so tests can build several routers side by side.
type Metrics struct {
	registry *prometheus.Registry

	actions  *prometheus.CounterVec
	guesses  *prometheus.CounterVec
	captures *prometheus.CounterVec
	sessions prometheus.Gauge
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guessbox",
			Name:      "actions_total",
			Help:      "Player actions processed, by action and outcome.",
		}, []string{"action", "outcome"}),
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guessbox",
			Name:      "guesses_total",
			Help:      "Guesses scored, by result.",
		}, []string{"result"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guessbox",
			Name:      "voice_captures_total",
			Help:      "Voice captures received, by whether they reached the current turn.",
		}, []string{"outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "guessbox",
			Name:      "sessions_active",
			Help:      "Game sessions currently held in memory.",
		}),
	}

	m.registry.MustRegister(m.actions, m.guesses, m.captures, m.sessions)

	return m
}

func (m *Metrics) observeAction(kind game.ActionKind, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case game.IsValidation(err):
		outcome = "rejected"
	default:
		outcome = "error"
	}

	m.actions.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) observeGuesses(scored []game.Guess) {
	for _, g := range scored {
		m.guesses.WithLabelValues(string(g.Result)).Inc()
	}
}

func (m *Metrics) observeCapture(accepted bool) {
	if accepted {
		m.captures.WithLabelValues("accepted").Inc()
		return
	}

	m.captures.WithLabelValues("discarded").Inc()
}

func registerMetrics(cfg *Config, mux *httprouter.Router, m *Metrics) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	logf(cfg, "START: Registered metrics handler at %s/metrics", cfg.prefix)
}
