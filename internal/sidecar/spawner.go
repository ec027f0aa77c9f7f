package sidecar

import (
	"context"

	"github.com/hermes-app/hermes/internal/shell"
)

// Spawner starts the backend process and returns its kill handle together
// with its output stream. The stream must end with one shell.EventTerminated.
type Spawner interface {
	Spawn(ctx context.Context) (Handle, <-chan shell.Event, error)
}

type SpawnFunc func(ctx context.Context) (Handle, <-chan shell.Event, error)

func (f SpawnFunc) Spawn(ctx context.Context) (Handle, <-chan shell.Event, error) { return f(ctx) }

// CommandSpawner resolves a bundled binary through the shell plugin and runs
// it without arguments.
type CommandSpawner struct {
	Shell *shell.Shell
	Name  string
	// Env is the complete child environment; empty inherits the parent's.
	Env []string
	Dir string
}

func (c CommandSpawner) Spawn(ctx context.Context) (Handle, <-chan shell.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	cmd, err := c.Shell.Sidecar(c.Name)
	if err != nil {
		return nil, nil, err
	}
	if len(c.Env) > 0 {
		cmd = cmd.WithEnv(c.Env)
	}
	if c.Dir != "" {
		cmd = cmd.WithDir(c.Dir)
	}
	child, events, err := cmd.Spawn()
	if err != nil {
		return nil, nil, err
	}
	return child, events, nil
}
