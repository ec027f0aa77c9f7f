package host

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// VirtualWindow is a window without a view. It only records state.
type VirtualWindow struct {
	label string

	mu       sync.Mutex
	title    string
	devtools bool
}

func (w *VirtualWindow) Label() string { return w.label }

func (w *VirtualWindow) SetTitle(title string) error {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
	return nil
}

func (w *VirtualWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *VirtualWindow) IsDevtoolsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.devtools
}

func (w *VirtualWindow) OpenDevtools() error  { return w.setDevtools(true) }
func (w *VirtualWindow) CloseDevtools() error { return w.setDevtools(false) }

func (w *VirtualWindow) setDevtools(open bool) error {
	w.mu.Lock()
	w.devtools = open
	w.mu.Unlock()
	return nil
}

// Headless runs the application lifecycle without a GUI. SIGINT/SIGTERM or
// cancelling the Run context destroys every window and exits; the host also
// exits once its last window is destroyed.
type Headless struct {
	log *slog.Logger

	mu      sync.Mutex
	hooks   hooks
	windows map[string]*VirtualWindow
	order   []string
	emitted []Emitted

	destroyC chan string
	urlC     chan string
	exitC    chan struct{}
	exitOnce sync.Once
}

// NewHeadless creates a host with one virtual window per label; with no
// labels it creates the main window.
func NewHeadless(log *slog.Logger, labels ...string) *Headless {
	if log == nil {
		log = slog.Default()
	}
	if len(labels) == 0 {
		labels = []string{MainWindow}
	}
	h := &Headless{
		log:      log.With("component", "host", "host", "headless"),
		windows:  make(map[string]*VirtualWindow, len(labels)),
		destroyC: make(chan string, 16),
		urlC:     make(chan string, 16),
		exitC:    make(chan struct{}),
	}
	for _, l := range labels {
		if _, ok := h.windows[l]; ok {
			continue
		}
		h.windows[l] = &VirtualWindow{label: l}
		h.order = append(h.order, l)
	}
	return h
}

func (h *Headless) OnReady(fn func(ctx context.Context) error) {
	h.mu.Lock()
	h.hooks.ready = append(h.hooks.ready, fn)
	h.mu.Unlock()
}

func (h *Headless) OnWindowEvent(fn func(label string, ev WindowEvent)) {
	h.mu.Lock()
	h.hooks.winEvents = append(h.hooks.winEvents, fn)
	h.mu.Unlock()
}

func (h *Headless) OnExit(fn func()) {
	h.mu.Lock()
	h.hooks.exits = append(h.hooks.exits, fn)
	h.mu.Unlock()
}

func (h *Headless) OnOpenURL(fn func(url string)) {
	h.mu.Lock()
	h.hooks.urls = append(h.hooks.urls, fn)
	h.mu.Unlock()
}

func (h *Headless) Bind(v any) {
	h.mu.Lock()
	h.hooks.bound = append(h.hooks.bound, v)
	h.mu.Unlock()
}

// Emitted is a frontend event recorded by the headless host.
type Emitted struct {
	Event string
	Data  []any
}

// Emit records the event; there is no frontend to deliver it to.
func (h *Headless) Emit(event string, data ...any) error {
	h.mu.Lock()
	h.emitted = append(h.emitted, Emitted{Event: event, Data: data})
	h.mu.Unlock()
	h.log.Debug("frontend event", "event", event)
	return nil
}

// Events returns the events emitted so far, oldest first.
func (h *Headless) Events() []Emitted {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Emitted(nil), h.emitted...)
}

// Bound returns the values bound for the frontend.
func (h *Headless) Bound() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]any(nil), h.hooks.bound...)
}

func (h *Headless) Window(label string) (Window, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[label]
	if !ok {
		return nil, false
	}
	return w, true
}

// Destroy schedules destruction of the window with label.
func (h *Headless) Destroy(label string) { h.destroyC <- label }

// OpenURL delivers an activation URL as the OS would.
func (h *Headless) OpenURL(u string) { h.urlC <- u }

// RequestExit asks the running host to exit.
func (h *Headless) RequestExit() {
	h.exitOnce.Do(func() { close(h.exitC) })
}

func (h *Headless) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h.mu.Lock()
	hk := h.hooks
	h.mu.Unlock()

	h.log.Info("host started", "windows", h.labels())
	if err := hk.runReady(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			h.log.Info("host stopping", "reason", context.Cause(ctx))
			for _, l := range h.labels() {
				h.destroy(&hk, l)
			}
			hk.emitExit()
			return nil
		case <-h.exitC:
			h.log.Info("exit requested")
			hk.emitExit()
			return nil
		case u := <-h.urlC:
			hk.emitURL(u)
		case l := <-h.destroyC:
			if !h.destroy(&hk, l) {
				h.log.Warn("destroy for unknown window", "window", l)
				continue
			}
			if len(h.labels()) == 0 {
				hk.emitExit()
				return nil
			}
		}
	}
}

func (h *Headless) labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

func (h *Headless) destroy(hk *hooks, label string) bool {
	h.mu.Lock()
	_, ok := h.windows[label]
	if ok {
		delete(h.windows, label)
		for i, l := range h.order {
			if l == label {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
	h.mu.Unlock()
	if ok {
		hk.emitWindow(label, WindowDestroyed)
	}
	return ok
}
