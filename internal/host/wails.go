//go:build desktop

package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

var errNotStarted = errors.New("host not started")

type WailsOptions struct {
	Title  string
	Width  int
	Height int
	Assets fs.FS
	// UniqueID enables the single instance lock; second launches forward
	// their arguments as activation URLs.
	UniqueID string
	// Inspector opens the web inspector on startup.
	Inspector bool
}

// Wails hosts a single webview window labelled MainWindow.
type Wails struct {
	opts WailsOptions
	log  *slog.Logger

	hooks hooks

	mu        sync.Mutex
	rctx      context.Context
	startErr  error
	destroyed bool
}

func NewWails(opts WailsOptions, log *slog.Logger) *Wails {
	if log == nil {
		log = slog.Default()
	}
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 800
	}
	return &Wails{opts: opts, log: log.With("component", "host", "host", "wails")}
}

func (w *Wails) OnReady(fn func(ctx context.Context) error) {
	w.hooks.ready = append(w.hooks.ready, fn)
}

func (w *Wails) OnWindowEvent(fn func(label string, ev WindowEvent)) {
	w.hooks.winEvents = append(w.hooks.winEvents, fn)
}

func (w *Wails) OnExit(fn func())              { w.hooks.exits = append(w.hooks.exits, fn) }
func (w *Wails) OnOpenURL(fn func(url string)) { w.hooks.urls = append(w.hooks.urls, fn) }
func (w *Wails) Bind(v any)                    { w.hooks.bound = append(w.hooks.bound, v) }

// Emit sends a runtime event to the frontend once the window is up.
func (w *Wails) Emit(event string, data ...any) error {
	rc := w.runtime()
	if rc == nil {
		return errNotStarted
	}
	runtime.EventsEmit(rc, event, data...)
	return nil
}

func (w *Wails) OpenBrowser(url string) error {
	rc := w.runtime()
	if rc == nil {
		return errNotStarted
	}
	runtime.BrowserOpenURL(rc, url)
	return nil
}

func (w *Wails) Window(label string) (Window, bool) {
	if label != MainWindow {
		return nil, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return nil, false
	}
	return &wailsWindow{host: w}, true
}

func (w *Wails) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			if rc := w.runtime(); rc != nil {
				runtime.Quit(rc)
			}
		case <-stop:
		}
	}()

	app := &options.App{
		Title:  w.opts.Title,
		Width:  w.opts.Width,
		Height: w.opts.Height,
		AssetServer: &assetserver.Options{
			Assets: w.opts.Assets,
		},
		OnStartup:     w.startup,
		OnBeforeClose: w.beforeClose,
		OnShutdown:    func(context.Context) { w.hooks.emitExit() },
		Bind:          w.hooks.bound,
		Mac: &mac.Options{
			OnUrlOpen: w.hooks.emitURL,
		},
		Debug: options.Debug{
			OpenInspectorOnStartup: w.opts.Inspector,
		},
	}
	if w.opts.UniqueID != "" {
		app.SingleInstanceLock = &options.SingleInstanceLock{
			UniqueId:               w.opts.UniqueID,
			OnSecondInstanceLaunch: w.secondInstance,
		}
	}

	if err := wails.Run(app); err != nil {
		return fmt.Errorf("wails: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.startErr
}

func (w *Wails) startup(ctx context.Context) {
	w.mu.Lock()
	w.rctx = ctx
	w.mu.Unlock()

	if err := w.hooks.runReady(ctx); err != nil {
		w.log.Error("startup failed", "error", err)
		w.mu.Lock()
		w.startErr = err
		w.mu.Unlock()
		runtime.Quit(ctx)
	}
}

func (w *Wails) beforeClose(ctx context.Context) bool {
	w.hooks.emitWindow(MainWindow, WindowCloseRequested)
	w.mu.Lock()
	first := !w.destroyed
	w.destroyed = true
	w.mu.Unlock()
	if first {
		w.hooks.emitWindow(MainWindow, WindowDestroyed)
	}
	return false
}

func (w *Wails) secondInstance(data options.SecondInstanceData) {
	w.log.Info("second instance launched", "args", data.Args)
	if rc := w.runtime(); rc != nil {
		runtime.WindowUnminimise(rc)
		runtime.Show(rc)
	}
	for _, a := range data.Args {
		w.hooks.emitURL(a)
	}
}

func (w *Wails) runtime() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rctx
}

type wailsWindow struct {
	host *Wails
}

func (ww *wailsWindow) Label() string { return MainWindow }

func (ww *wailsWindow) SetTitle(title string) error {
	rc := ww.host.runtime()
	if rc == nil {
		return errNotStarted
	}
	runtime.WindowSetTitle(rc, title)
	return nil
}

// Wails v2 exposes no API to toggle the inspector at runtime.
func (ww *wailsWindow) IsDevtoolsOpen() bool { return false }
func (ww *wailsWindow) OpenDevtools() error  { return ErrInspectorUnsupported }
func (ww *wailsWindow) CloseDevtools() error { return ErrInspectorUnsupported }
