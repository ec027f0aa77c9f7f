//go:build desktop

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hermes-app/hermes/internal/app"
	"github.com/hermes-app/hermes/internal/config"
	"github.com/hermes-app/hermes/internal/host"
)

const webviewCompiled = true

func newHost(cfg *config.Config, log *slog.Logger, headless bool) (host.Host, error) {
	if headless {
		return host.NewHeadless(log, cfg.App.Window), nil
	}
	dir, err := frontendDir(cfg)
	if err != nil {
		return nil, err
	}
	features := app.ResolveFeatures(cfg.App.Platform, cfg.App.DebugTools)
	return host.NewWails(host.WailsOptions{
		Title:     cfg.App.Title,
		Assets:    os.DirFS(dir),
		UniqueID:  cfg.App.Identifier,
		Inspector: features.DebugTools,
	}, log), nil
}

// frontendDir falls back to frontend/ next to the executable.
func frontendDir(cfg *config.Config) (string, error) {
	dir := cfg.App.FrontendDir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locate frontend: %w", err)
		}
		dir = filepath.Join(filepath.Dir(exe), "frontend")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("frontend dir: %w", err)
	}
	if !st.IsDir() {
		return "", fmt.Errorf("frontend dir %s is not a directory", dir)
	}
	return dir, nil
}
