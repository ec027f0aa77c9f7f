// Package hermes exposes the desktop shell for embedding: load a config,
// pick a host, build the App and run it.
package hermes

import (
	"log/slog"
	"net/http"

	"github.com/hermes-app/hermes/internal/app"
	"github.com/hermes-app/hermes/internal/config"
	"github.com/hermes-app/hermes/internal/deeplink"
	"github.com/hermes-app/hermes/internal/host"
	"github.com/hermes-app/hermes/internal/metrics"
	"github.com/hermes-app/hermes/internal/plugin"
	"github.com/hermes-app/hermes/internal/server"
	"github.com/hermes-app/hermes/internal/sidecar"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.

type Config = config.Config

type App = app.App

type Option = app.Option

type Features = app.Features

type Host = host.Host

type Window = host.Window

type SidecarStatus = sidecar.Status

type Spawner = sidecar.Spawner

type SchemeRegistrar = deeplink.Registrar

type Plugin = plugin.Plugin

// LoadConfig reads path (may be empty) merged with defaults and HERMES_*
// environment overrides.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// New builds an App on top of h.
func New(cfg *Config, h Host, opts ...Option) *App { return app.New(cfg, h, opts...) }

func WithLogger(l *slog.Logger) Option             { return app.WithLogger(l) }
func WithSpawner(s Spawner) Option                 { return app.WithSpawner(s) }
func WithSchemeRegistrar(r SchemeRegistrar) Option { return app.WithSchemeRegistrar(r) }

// WithPlugins adds plugins initialised after the built-in set.
func WithPlugins(ps ...Plugin) Option { return app.WithPlugins(ps...) }
func NewHeadlessHost(log *slog.Logger, labels ...string) *host.Headless {
	return host.NewHeadless(log, labels...)
}

// RegisterMetrics registers the sidecar collectors with r.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// DiagnosticsHandler returns the read-only diagnostics API for a, mountable
// under basePath in any mux.
func DiagnosticsHandler(a *App, basePath string) http.Handler {
	return server.NewRouter(a, basePath).Handler()
}
