// Package host abstracts the GUI runtime behind lifecycle hooks so the
// application logic does not depend on a particular webview framework.
package host

import (
	"context"
	"errors"
)

// MainWindow is the label of the primary window.
const MainWindow = "main"

// EventDeepLinkOpen carries activation URLs to the frontend as a []string.
const EventDeepLinkOpen = "deep-link://open"

var ErrInspectorUnsupported = errors.New("inspector is not supported by this host")

type WindowEvent int

const (
	WindowCloseRequested WindowEvent = iota
	WindowDestroyed
	WindowFocused
)

func (e WindowEvent) String() string {
	switch e {
	case WindowCloseRequested:
		return "close-requested"
	case WindowDestroyed:
		return "destroyed"
	case WindowFocused:
		return "focused"
	default:
		return "unknown"
	}
}

type Window interface {
	Label() string
	SetTitle(title string) error
	IsDevtoolsOpen() bool
	OpenDevtools() error
	CloseDevtools() error
}

// Host is a GUI runtime. Hooks must be registered before Run; they are
// invoked on whatever goroutine the runtime dispatches lifecycle events on.
type Host interface {
	// OnReady hooks run once after the windows exist. A hook error is a
	// startup failure and makes Run return it.
	OnReady(fn func(ctx context.Context) error)
	OnWindowEvent(fn func(label string, ev WindowEvent))
	OnExit(fn func())
	Window(label string) (Window, bool)
	Run(ctx context.Context) error
}

// Binder is implemented by hosts that expose Go methods to the frontend.
type Binder interface {
	Bind(v any)
}

// URLSource is implemented by hosts that receive activation URLs from the
// operating system.
type URLSource interface {
	OnOpenURL(fn func(url string))
}

// Emitter is implemented by hosts that push named events to the frontend.
type Emitter interface {
	Emit(event string, data ...any) error
}

// BrowserOpener is implemented by hosts that can show a URL in the system
// browser themselves.
type BrowserOpener interface {
	OpenBrowser(url string) error
}

// hooks is the callback bookkeeping shared by host implementations.
type hooks struct {
	ready     []func(context.Context) error
	winEvents []func(string, WindowEvent)
	exits     []func()
	urls      []func(string)
	bound     []any
}

func (h *hooks) runReady(ctx context.Context) error {
	for _, fn := range h.ready {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (h *hooks) emitWindow(label string, ev WindowEvent) {
	for _, fn := range h.winEvents {
		fn(label, ev)
	}
}

func (h *hooks) emitExit() {
	for _, fn := range h.exits {
		fn()
	}
}

func (h *hooks) emitURL(u string) {
	for _, fn := range h.urls {
		fn(u)
	}
}
