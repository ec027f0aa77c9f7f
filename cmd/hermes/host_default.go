//go:build !desktop

package main

import (
	"log/slog"

	"github.com/hermes-app/hermes/internal/config"
	"github.com/hermes-app/hermes/internal/host"
)

const webviewCompiled = false

func newHost(cfg *config.Config, log *slog.Logger, headless bool) (host.Host, error) {
	if !headless {
		log.Info("built without the desktop tag; running headless")
	}
	return host.NewHeadless(log, cfg.App.Window), nil
}
