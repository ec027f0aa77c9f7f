// Package deeplink is the deep-link plugin: it registers a custom URL scheme
// with the operating system and fans inbound activation URLs out to
// listeners.
package deeplink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
)

var ErrSchemeMismatch = errors.New("deeplink: unexpected scheme")

// Registrar makes the OS launch exe when a URL with scheme is opened.
type Registrar interface {
	Register(scheme, exe string) error
}

// RegistrarFunc adapts a function to Registrar.
type RegistrarFunc func(scheme, exe string) error

func (f RegistrarFunc) Register(scheme, exe string) error { return f(scheme, exe) }

type Handler struct {
	scheme    string
	registrar Registrar

	mu        sync.Mutex
	listeners []func(string)
	pending   []string
	current   string
}

// New returns a handler for scheme. A nil registrar selects the platform
// default.
func New(scheme string, r Registrar) *Handler {
	if r == nil {
		r = DefaultRegistrar()
	}
	return &Handler{scheme: strings.ToLower(scheme), registrar: r}
}

func (h *Handler) Name() string                   { return "deep-link" }
func (h *Handler) Init(ctx context.Context) error { return nil }
func (h *Handler) Close() error                   { return nil }

func (h *Handler) Scheme() string { return h.scheme }

// Register registers the scheme for the running executable.
func (h *Handler) Register() error {
	if h.scheme == "" {
		return errors.New("deeplink: empty scheme")
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := h.registrar.Register(h.scheme, exe); err != nil {
		return fmt.Errorf("register scheme %s: %w", h.scheme, err)
	}
	return nil
}

// Dispatch delivers raw to every listener. URLs arriving before the first
// listener are buffered and flushed to it on subscription.
func (h *Handler) Dispatch(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse deep link: %w", err)
	}
	if !strings.EqualFold(u.Scheme, h.scheme) {
		return fmt.Errorf("%w: %q", ErrSchemeMismatch, u.Scheme)
	}
	s := u.String()

	h.mu.Lock()
	h.current = s
	if len(h.listeners) == 0 {
		h.pending = append(h.pending, s)
		h.mu.Unlock()
		return nil
	}
	ls := slices.Clone(h.listeners)
	h.mu.Unlock()

	for _, fn := range ls {
		fn(s)
	}
	return nil
}

// OnOpenURL subscribes fn to inbound URLs.
func (h *Handler) OnOpenURL(fn func(string)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, s := range pending {
		fn(s)
	}
}

// Current returns the most recently dispatched URL.
func (h *Handler) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// ExtractURLs picks the arguments that are URLs of this handler's scheme,
// as passed on the command line when the OS launches the app for a link.
func (h *Handler) ExtractURLs(args []string) []string {
	var out []string
	prefix := h.scheme + ":"
	for _, a := range args {
		if len(a) > len(prefix) && strings.EqualFold(a[:len(prefix)], prefix) {
			out = append(out, a)
		}
	}
	return out
}
