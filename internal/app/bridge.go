package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hermes-app/hermes/internal/osinfo"
	"github.com/hermes-app/hermes/internal/sidecar"
)

const bridgeTimeout = 5 * time.Second

// Bridge is the command surface bound to the frontend. Methods return plain
// values and errors; the host turns errors into rejected promises.
type Bridge struct {
	app *App
}

func NewBridge(a *App) *Bridge { return &Bridge{app: a} }

// ToggleDevtools toggles the inspector of the main window. It fails with
// ErrDevtoolsDisabled when debug tools are off. The desktop webview host has
// no runtime inspector toggle, so there it always returns
// host.ErrInspectorUnsupported; show the message rather than retrying.
func (b *Bridge) ToggleDevtools() error { return b.app.ToggleMainDebugPanel() }

func (b *Bridge) StoreGet(name, key string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()
	return b.app.store.Get(ctx, name, key)
}

func (b *Bridge) StoreSet(name, key string, value json.RawMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()
	return b.app.store.Set(ctx, name, key, value)
}

func (b *Bridge) StoreDelete(name, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()
	return b.app.store.Delete(ctx, name, key)
}

func (b *Bridge) StoreKeys(name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()
	return b.app.store.Keys(ctx, name)
}

func (b *Bridge) StoreClear(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()
	return b.app.store.Clear(ctx, name)
}

func (b *Bridge) OSInfo() osinfo.Info { return b.app.OSInfo() }

// CurrentDeepLink returns the last activation URL, or "".
func (b *Bridge) CurrentDeepLink() string { return b.app.deeplink.Current() }

func (b *Bridge) SidecarStatus() sidecar.Status { return b.app.SidecarStatus() }

// OpenURL opens an http or https URL, such as an OAuth authorize page, in
// the system browser.
func (b *Bridge) OpenURL(u string) error { return b.app.OpenURL(u) }
