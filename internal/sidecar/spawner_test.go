package sidecar

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hermes-app/hermes/internal/shell"
)

func TestCommandSpawnerRunsBundledBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	dir := t.TempDir()
	name := "hermes-server-" + shell.TargetTriple(runtime.GOOS, runtime.GOARCH)
	script := "#!/bin/sh\necho \"port=$PORT\"\nsleep 30\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	sp := CommandSpawner{
		Shell: shell.New(shell.Options{BinariesDir: dir}),
		Name:  "hermes-server",
		Env:   []string{"PATH=" + os.Getenv("PATH"), "PORT=3003"},
	}
	s := New("hermes-server", sp, nil)
	if err := s.Spawn(context.Background()); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if !s.Present() || s.Status().PID == 0 {
		t.Fatalf("Status = %+v", s.Status())
	}
	if !s.Terminate() {
		t.Fatal("Terminate should kill the child")
	}
	select {
	case <-s.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("child was not reaped after kill")
	}
	if st := s.Status(); st.Running || st.Exit == "" {
		t.Fatalf("Status after kill = %+v", st)
	}
}

func TestCommandSpawnerMissingBinary(t *testing.T) {
	sp := CommandSpawner{
		Shell: shell.New(shell.Options{BinariesDir: t.TempDir(), ExecutableDir: t.TempDir()}),
		Name:  "hermes-server",
	}
	h, events, err := sp.Spawn(context.Background())
	if !errors.Is(err, shell.ErrSidecarNotFound) {
		t.Fatalf("err = %v, want ErrSidecarNotFound", err)
	}
	if h != nil || events != nil {
		t.Fatal("handle and events must be nil on failure")
	}
}

func TestCommandSpawnerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := (CommandSpawner{Name: "x"}).Spawn(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
