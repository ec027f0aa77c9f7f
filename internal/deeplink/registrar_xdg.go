//go:build !windows && !darwin

package deeplink

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// XDGRegistrar installs a .desktop handler and makes it the default for
// x-scheme-handler/<scheme>.
type XDGRegistrar struct {
	// DataHome overrides $XDG_DATA_HOME.
	DataHome string
	// Run executes helper tools; defaults to running them with os/exec.
	Run func(name string, args ...string) error
}

func DefaultRegistrar() Registrar { return &XDGRegistrar{} }

func (r *XDGRegistrar) Register(scheme, exe string) error {
	dir := filepath.Join(r.dataHome(), "applications")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create applications dir: %w", err)
	}
	file := DesktopFileName(scheme)
	// #nosec G306 -- desktop entries must be world readable
	if err := os.WriteFile(filepath.Join(dir, file), []byte(DesktopEntry(scheme, exe)), 0o644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	run := r.Run
	if run == nil {
		run = runTool
	}
	if err := run("xdg-mime", "default", file, "x-scheme-handler/"+scheme); err != nil {
		return fmt.Errorf("xdg-mime: %w", err)
	}
	// database refresh is optional on most desktops
	_ = run("update-desktop-database", dir)
	return nil
}

func (r *XDGRegistrar) dataHome() string {
	if r.DataHome != "" {
		return r.DataHome
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share")
}

// DesktopFileName is the handler file name for scheme.
func DesktopFileName(scheme string) string { return scheme + "-handler.desktop" }

// DesktopEntry renders the handler entry launching exe with the URL.
func DesktopEntry(scheme, exe string) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=Hermes\n")
	fmt.Fprintf(&b, "Exec=%q %%u\n", exe)
	b.WriteString("Terminal=false\n")
	b.WriteString("NoDisplay=true\n")
	fmt.Fprintf(&b, "MimeType=x-scheme-handler/%s;\n", scheme)
	return b.String()
}

func runTool(name string, args ...string) error {
	// #nosec G204 -- fixed tool names
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
