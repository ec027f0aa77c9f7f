// Package app wires the host, the plugins and the sidecar supervisor
// together and owns startup and shutdown sequencing.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hermes-app/hermes/internal/config"
	"github.com/hermes-app/hermes/internal/deeplink"
	"github.com/hermes-app/hermes/internal/host"
	"github.com/hermes-app/hermes/internal/osinfo"
	"github.com/hermes-app/hermes/internal/plugin"
	"github.com/hermes-app/hermes/internal/shell"
	"github.com/hermes-app/hermes/internal/sidecar"
	"github.com/hermes-app/hermes/internal/store"
)

var (
	ErrWindowNotFound   = errors.New("window not found")
	ErrDevtoolsDisabled = errors.New("devtools are disabled in this build")

	errNotInitialized = errors.New("app not initialized")
)

type App struct {
	cfg      *config.Config
	log      *slog.Logger
	host     host.Host
	features Features

	plugins  *plugin.Registry
	store    *store.Store
	shell    *shell.Shell
	osinfo   *osinfo.Plugin
	deeplink *deeplink.Handler
	sidecar  *sidecar.Supervisor

	spawner   sidecar.Spawner
	registrar deeplink.Registrar
	shellOpts *shell.Options
	extra     []plugin.Plugin

	initOnce  sync.Once
	initErr   error
	readyOnce sync.Once
	readyErr  error
}

type Option func(*App)

func WithLogger(l *slog.Logger) Option { return func(a *App) { a.log = l } }

// WithSpawner replaces the bundled-binary spawner.
func WithSpawner(s sidecar.Spawner) Option { return func(a *App) { a.spawner = s } }

func WithSchemeRegistrar(r deeplink.Registrar) Option { return func(a *App) { a.registrar = r } }

func WithShellOptions(o shell.Options) Option { return func(a *App) { a.shellOpts = &o } }

// WithPlugins registers additional plugins after the built-in set.
func WithPlugins(ps ...plugin.Plugin) Option {
	return func(a *App) { a.extra = append(a.extra, ps...) }
}

func New(cfg *config.Config, h host.Host, opts ...Option) *App {
	a := &App{
		cfg:      cfg,
		host:     h,
		features: ResolveFeatures(cfg.App.Platform, cfg.App.DebugTools),
		plugins:  plugin.NewRegistry(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

func (a *App) Features() Features           { return a.features }
func (a *App) Config() *config.Config       { return a.cfg }
func (a *App) Plugins() *plugin.Registry    { return a.plugins }
func (a *App) Store() *store.Store          { return a.store }
func (a *App) DeepLink() *deeplink.Handler  { return a.deeplink }
func (a *App) Sidecar() *sidecar.Supervisor { return a.sidecar }

// SidecarStatus is the zero status named after the configured sidecar until
// Initialize has run.
func (a *App) SidecarStatus() sidecar.Status {
	if a.sidecar == nil {
		return sidecar.Status{Name: a.cfg.Sidecar.Name}
	}
	return a.sidecar.Status()
}

// SidecarUsage samples the sidecar's resource use.
func (a *App) SidecarUsage(ctx context.Context) (sidecar.Usage, error) {
	if a.sidecar == nil {
		return sidecar.Usage{}, sidecar.ErrNotRunning
	}
	return a.sidecar.Usage(ctx)
}

func (a *App) PluginNames() []string { return a.plugins.Names() }

// StoreKeys lists the keys of a named store.
func (a *App) StoreKeys(ctx context.Context, name string) ([]string, error) {
	if a.store == nil {
		return nil, errNotInitialized
	}
	return a.store.Keys(ctx, name)
}

// OpenURL shows an http or https URL in the system browser.
func (a *App) OpenURL(u string) error {
	if a.shell == nil {
		return errNotInitialized
	}
	return a.shell.Open(u)
}

func (a *App) OSInfo() osinfo.Info {
	if a.osinfo == nil {
		return osinfo.Info{}
	}
	return a.osinfo.Info()
}

// Initialize registers the plugin set (store, shell, os, deep-link), starts
// the plugins and subscribes to the host lifecycle. It runs once.
func (a *App) Initialize(ctx context.Context) error {
	a.initOnce.Do(func() { a.initErr = a.initialize(ctx) })
	return a.initErr
}

func (a *App) initialize(ctx context.Context) error {
	shellOpts := shell.Options{BinariesDir: a.cfg.Sidecar.BinariesDir}
	if a.shellOpts != nil {
		shellOpts = *a.shellOpts
	}
	if bo, ok := a.host.(host.BrowserOpener); ok && shellOpts.Opener == nil {
		shellOpts.Opener = bo.OpenBrowser
	}
	a.store = store.New(a.cfg.Store.Path)
	a.shell = shell.New(shellOpts)
	a.osinfo = osinfo.New()
	a.deeplink = deeplink.New(a.cfg.DeepLink.Scheme, a.registrar)

	for _, p := range append([]plugin.Plugin{a.store, a.shell, a.osinfo, a.deeplink}, a.extra...) {
		if err := a.plugins.Register(p); err != nil {
			return err
		}
	}
	if err := a.plugins.InitAll(ctx); err != nil {
		if cerr := a.plugins.CloseAll(); cerr != nil {
			a.log.Warn("closing plugins", "error", cerr)
		}
		return err
	}

	if a.spawner == nil {
		envv, err := a.cfg.SidecarEnv()
		if err != nil {
			_ = a.plugins.CloseAll()
			return err
		}
		a.spawner = sidecar.CommandSpawner{
			Shell: a.shell,
			Name:  a.cfg.Sidecar.Name,
			Env:   envv,
			Dir:   a.cfg.Sidecar.WorkDir,
		}
	}
	a.sidecar = sidecar.New(a.cfg.Sidecar.Name, a.spawner, a.log)

	a.host.OnReady(a.OnReady)
	a.host.OnWindowEvent(a.onWindowEvent)
	a.host.OnExit(a.onExit)
	if src, ok := a.host.(host.URLSource); ok {
		src.OnOpenURL(a.HandleURL)
	}
	if b, ok := a.host.(host.Binder); ok {
		b.Bind(NewBridge(a))
	}
	a.deeplink.OnOpenURL(func(u string) {
		a.log.Info("deep link received", "scheme", a.deeplink.Scheme(), "url", u)
	})
	if em, ok := a.host.(host.Emitter); ok {
		a.deeplink.OnOpenURL(func(u string) {
			if err := em.Emit(host.EventDeepLinkOpen, []string{u}); err != nil {
				a.log.Debug("deep link not forwarded to frontend", "url", u, "error", err)
			}
		})
	}

	a.log.Info("initialized",
		"plugins", a.plugins.Names(),
		"platform", a.features.Platform,
		"debug_tools", a.features.DebugTools)
	return nil
}

// OnReady runs once after the main window exists: it titles the window and,
// on desktop, registers the URL scheme and spawns the sidecar. Any error is
// fatal to startup.
func (a *App) OnReady(ctx context.Context) error {
	a.readyOnce.Do(func() { a.readyErr = a.onReady(ctx) })
	return a.readyErr
}

func (a *App) onReady(ctx context.Context) error {
	if !a.features.Desktop() {
		a.log.Info("mobile platform, skipping window setup and sidecar")
		return nil
	}
	w, ok := a.host.Window(a.cfg.App.Window)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, a.cfg.App.Window)
	}
	if err := w.SetTitle(a.cfg.App.Title); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	if a.cfg.DeepLink.Register {
		if err := a.deeplink.Register(); err != nil {
			return err
		}
		a.log.Info("url scheme registered", "scheme", a.deeplink.Scheme())
	}
	return a.sidecar.Spawn(ctx)
}

// ToggleDebugPanel opens the inspector of w when closed and closes it when
// open. It fails with ErrDevtoolsDisabled when debug tools are off.
func (a *App) ToggleDebugPanel(w host.Window) error {
	if !a.features.DebugTools {
		return ErrDevtoolsDisabled
	}
	if w.IsDevtoolsOpen() {
		return w.CloseDevtools()
	}
	return w.OpenDevtools()
}

// ToggleMainDebugPanel toggles the inspector of the main window.
func (a *App) ToggleMainDebugPanel() error {
	w, ok := a.host.Window(a.cfg.App.Window)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, a.cfg.App.Window)
	}
	return a.ToggleDebugPanel(w)
}

// HandleURL forwards an activation URL to the deep-link plugin. Arguments
// of other schemes are ignored.
func (a *App) HandleURL(u string) {
	if err := a.deeplink.Dispatch(u); err != nil {
		a.log.Debug("ignored activation argument", "arg", u, "error", err)
	}
}

// HandleArgs dispatches deep links passed on the command line.
func (a *App) HandleArgs(args []string) {
	for _, u := range a.deeplink.ExtractURLs(args) {
		a.HandleURL(u)
	}
}

func (a *App) onWindowEvent(label string, ev host.WindowEvent) {
	if ev != host.WindowDestroyed || label != a.cfg.App.Window {
		return
	}
	a.log.Info("window destroyed", "window", label)
	a.sidecar.Terminate()
}

func (a *App) onExit() {
	a.log.Info("exit requested")
	a.sidecar.Terminate()
}

// Run blocks in the host event loop. On return the sidecar is terminated and
// the plugins are closed.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		return err
	}
	err := a.host.Run(ctx)
	a.sidecar.Terminate()
	if cerr := a.plugins.CloseAll(); cerr != nil {
		a.log.Warn("closing plugins", "error", cerr)
	}
	return err
}
