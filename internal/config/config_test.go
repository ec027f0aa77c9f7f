package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hermes-app/hermes/internal/logger"
)

func writeTOML(t *testing.T, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "hermes.toml")
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	return p
}

func envMap(kvs []string) map[string]string {
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		if i := strings.IndexByte(kv, '='); i > 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	return m
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.App.Title != "Hermes" || c.App.Window != "main" {
		t.Fatalf("unexpected app defaults: %+v", c.App)
	}
	if c.DeepLink.Scheme != "hermes" || !c.DeepLink.Register {
		t.Fatalf("deeplink = %+v", c.DeepLink)
	}
	if c.Sidecar.Name != "hermes-server" || c.Sidecar.Port != 3003 || c.Sidecar.Host != "127.0.0.1" {
		t.Fatalf("unexpected sidecar defaults: %+v", c.Sidecar)
	}
	if c.Store.Path == "" || filepath.Base(c.Store.Path) != "hermes-store.db" {
		t.Fatalf("store path = %q", c.Store.Path)
	}
	if c.Debug.Addr != "" {
		t.Fatalf("debug server should be off by default, addr=%q", c.Debug.Addr)
	}
	if c.Log.MaxSizeMB != logger.DefaultMaxSizeMB {
		t.Fatalf("log max size = %d", c.Log.MaxSizeMB)
	}
}

func TestLoadFromTOML(t *testing.T) {
	p := writeTOML(t, `
[app]
title = "Hermes Beta"
platform = "Desktop"
debug_tools = "disabled"

[deeplink]
scheme = "hermes-beta"

[sidecar]
binaries_dir = "/opt/hermes/bin"
port = 4010
env = ["NODE_ENV=production"]

[store]
path = "/tmp/hermes.db"

[debug]
addr = "127.0.0.1:9191"

[log]
level = "debug"
format = "json"
dir = "/var/log/hermes"
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.App.Title != "Hermes Beta" || c.App.Platform != PlatformDesktop || c.App.DebugTools != DebugToolsDisabled {
		t.Fatalf("unexpected app: %+v", c.App)
	}
	if c.DeepLink.Scheme != "hermes-beta" {
		t.Fatalf("scheme = %q", c.DeepLink.Scheme)
	}
	if c.Sidecar.BinariesDir != "/opt/hermes/bin" || c.Sidecar.Port != 4010 || len(c.Sidecar.Env) != 1 {
		t.Fatalf("unexpected sidecar: %+v", c.Sidecar)
	}
	if c.Store.Path != "/tmp/hermes.db" || c.Debug.Addr != "127.0.0.1:9191" {
		t.Fatalf("unexpected store/debug: %+v %+v", c.Store, c.Debug)
	}

	lc := c.LoggerConfig()
	if lc.Slog.Level != logger.LevelDebug || lc.Slog.Format != logger.FormatJSON {
		t.Fatalf("unexpected slog config: %+v", lc.Slog)
	}
	if lc.FilePath() != filepath.Join("/var/log/hermes", logger.DefaultFileName) {
		t.Fatalf("log file = %q", lc.FilePath())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HERMES_SIDECAR_PORT", "5050")
	t.Setenv("HERMES_APP_TITLE", "From Env")
	t.Setenv("HERMES_DEBUG_ADDR", "127.0.0.1:0")
	p := writeTOML(t, "[sidecar]\nport = 4010\n")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Sidecar.Port != 5050 {
		t.Fatalf("env should override file: port=%d", c.Sidecar.Port)
	}
	if c.App.Title != "From Env" || c.Debug.Addr != "127.0.0.1:0" {
		t.Fatalf("unexpected: %+v %+v", c.App, c.Debug)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"platform":    "[app]\nplatform = \"tv\"\n",
		"debug_tools": "[app]\ndebug_tools = \"maybe\"\n",
		"scheme":      "[deeplink]\nscheme = \"1bad\"\n",
		"scheme_char": "[deeplink]\nscheme = \"bad_scheme\"\n",
		"port":        "[sidecar]\nport = 70000\n",
		"env":         "[sidecar]\nenv = [\"NOEQUALS\"]\n",
		"name":        "[sidecar]\nname = \" \"\n",
		"format":      "[log]\nformat = \"xml\"\n",
		"window":      "[app]\nwindow = \"\"\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeTOML(t, data)); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestValidScheme(t *testing.T) {
	for _, s := range []string{"hermes", "hermes-beta", "web+hermes", "h2.app"} {
		if !validScheme(s) {
			t.Errorf("validScheme(%q) = false", s)
		}
	}
	for _, s := range []string{"", "9x", "-x", "has space", "Ünïcode"} {
		if validScheme(s) {
			t.Errorf("validScheme(%q) = true", s)
		}
	}
}

func TestSidecarEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("# server\nDATABASE_URL=file:hermes.db\nHOST=0.0.0.0\nLOG=${PORT}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HERMES_TEST_OS_ONLY", "osv")
	t.Setenv("PORT", "1")

	c, err := Load(writeTOML(t, `
[sidecar]
port = 4123
env_files = ["`+filepath.ToSlash(dotenv)+`"]
env = ["DATABASE_URL=file:override.db"]
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	kvs, err := c.SidecarEnv()
	if err != nil {
		t.Fatalf("SidecarEnv: %v", err)
	}
	m := envMap(kvs)
	if m["HERMES_TEST_OS_ONLY"] != "osv" {
		t.Fatalf("OS env not inherited: %q", m["HERMES_TEST_OS_ONLY"])
	}
	if m["PORT"] != "4123" {
		t.Fatalf("PORT = %q, config should beat OS", m["PORT"])
	}
	if m["HOST"] != "0.0.0.0" {
		t.Fatalf("HOST = %q, env file should beat config", m["HOST"])
	}
	if m["DATABASE_URL"] != "file:override.db" {
		t.Fatalf("DATABASE_URL = %q, sidecar.env should win", m["DATABASE_URL"])
	}
	if m["LOG"] != "4123" {
		t.Fatalf("LOG = %q, expected expansion of PORT", m["LOG"])
	}
}

func TestSidecarEnvMissingFile(t *testing.T) {
	c, err := Load(writeTOML(t, "[sidecar]\nenv_files = [\"/definitely/not/exist.env\"]\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.SidecarEnv(); err == nil {
		t.Fatal("expected error for missing env file")
	}
}
