// Package osinfo is the OS-information plugin.
package osinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/host"
)

// Info is the snapshot handed to the front-end.
type Info struct {
	OS       string `json:"os"`       // GOOS
	Arch     string `json:"arch"`     // GOARCH
	Platform string `json:"platform"` // e.g. ubuntu, darwin, Microsoft Windows 11 Pro
	Family   string `json:"family"`
	Version  string `json:"version"`
	Kernel   string `json:"kernel"`
	Hostname string `json:"hostname"`
	Locale   string `json:"locale"`
}

type Plugin struct {
	mu   sync.RWMutex
	info Info
	// hostInfo is swapped in tests.
	hostInfo func(ctx context.Context) (*host.InfoStat, error)
}

func New() *Plugin { return &Plugin{hostInfo: host.InfoWithContext} }

func (p *Plugin) Name() string { return "os" }

// Init gathers host information once; later calls to Info are served from
// the cached snapshot.
func (p *Plugin) Init(ctx context.Context) error {
	hi, err := p.hostInfo(ctx)
	// partial results are kept
	if hi == nil {
		if err == nil {
			err = errors.New("no data")
		}
		return fmt.Errorf("host info: %w", err)
	}
	info := Info{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Platform: hi.Platform,
		Family:   hi.PlatformFamily,
		Version:  hi.PlatformVersion,
		Kernel:   hi.KernelVersion,
		Hostname: hi.Hostname,
		Locale:   Locale(),
	}
	p.mu.Lock()
	p.info = info
	p.mu.Unlock()
	return nil
}

func (p *Plugin) Close() error { return nil }

func (p *Plugin) Info() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info
}

// Locale reports the user locale as a BCP 47 tag derived from the POSIX
// locale variables, or "" when unset.
func Locale() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			return NormalizeLocale(v)
		}
	}
	return ""
}

// NormalizeLocale turns "en_US.UTF-8@euro" into "en-US". C and POSIX map to "".
func NormalizeLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "" || v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "_", "-")
}
