// Package shell locates bundled executables and runs them as child processes
// whose output is delivered as an ordered stream of events.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

var ErrSidecarNotFound = errors.New("sidecar executable not found")

// Options configures where bundled sidecars are looked up.
type Options struct {
	// BinariesDir is searched first when set.
	BinariesDir string
	// ExecutableDir overrides the directory of the running executable; tests
	// use it, production leaves it empty.
	ExecutableDir string
	// Opener replaces the platform browser launcher used by Open.
	Opener OpenFunc
}

// Shell is the process-execution plugin.
type Shell struct {
	dirs   []string
	opener OpenFunc
}

func New(opts Options) *Shell {
	s := &Shell{opener: opts.Opener}
	if opts.BinariesDir != "" {
		s.dirs = append(s.dirs, opts.BinariesDir)
	}
	exeDir := opts.ExecutableDir
	if exeDir == "" {
		if exe, err := os.Executable(); err == nil {
			exeDir = filepath.Dir(exe)
		}
	}
	if exeDir != "" {
		s.dirs = append(s.dirs, exeDir, filepath.Join(exeDir, "binaries"))
	}
	return s
}

func (s *Shell) Name() string                   { return "shell" }
func (s *Shell) Init(ctx context.Context) error { return nil }
func (s *Shell) Close() error                   { return nil }

// Dirs returns the search directories in lookup order.
func (s *Shell) Dirs() []string { return append([]string(nil), s.dirs...) }

// Sidecar resolves a bundled executable by logical name and returns a
// command that runs it without arguments.
func (s *Shell) Sidecar(name string) (*Command, error) {
	p, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	return NewCommand(p), nil
}

// Resolve returns the first existing candidate for name. Each directory is
// searched for <name>-<target-triple><ext> and then <name><ext>.
func (s *Shell) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrSidecarNotFound)
	}
	ext := ""
	if runtime.GOOS == "windows" {
		ext = ".exe"
	}
	candidates := []string{name + "-" + TargetTriple(runtime.GOOS, runtime.GOARCH) + ext, name + ext}
	for _, dir := range s.dirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if isExecutableFile(p) {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s (searched %v)", ErrSidecarNotFound, name, s.dirs)
}

// TargetTriple maps GOOS/GOARCH to the target triple used in bundled
// sidecar file names.
func TargetTriple(goos, goarch string) string {
	arch := "x86_64"
	switch goarch {
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	}
	switch goos {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	default:
		return arch + "-unknown-linux-gnu"
	}
}

func isExecutableFile(p string) bool {
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return fi.Mode().Perm()&0o111 != 0
}
