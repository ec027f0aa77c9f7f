// Package sidecar owns the bundled backend server process for the lifetime
// of the main window.
package sidecar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/hermes-app/hermes/internal/metrics"
	"github.com/hermes-app/hermes/internal/shell"
)

// LogPrefix marks backend output in the application log.
const LogPrefix = "[sidecar] "

var ErrAlreadySpawned = errors.New("sidecar already spawned")

type Supervisor struct {
	name    string
	spawner Spawner
	log     *slog.Logger

	slot     Slot
	spawned  atomic.Bool
	done     chan struct{}
	lastExit atomic.Pointer[shell.ExitStatus]
}

// Status is a point-in-time view used by diagnostics.
type Status struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Exit    string `json:"exit,omitempty"`
}

func New(name string, sp Spawner, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		name:    name,
		spawner: sp,
		log:     log.With("component", "sidecar", "name", name),
		done:    make(chan struct{}),
	}
}

func (s *Supervisor) Name() string { return s.name }

// Spawn starts the process once per supervisor lifetime, stores its handle
// and starts pumping its output in the background.
func (s *Supervisor) Spawn(ctx context.Context) error {
	if !s.spawned.CompareAndSwap(false, true) {
		return ErrAlreadySpawned
	}
	h, events, err := s.spawner.Spawn(ctx)
	if err != nil {
		return fmt.Errorf("spawn sidecar %s: %w", s.name, err)
	}
	if prev := s.slot.Store(h); prev != nil {
		s.log.Warn("replaced existing sidecar handle", "pid", prev.PID())
	}
	metrics.IncSpawn(s.name)
	metrics.SetPresent(s.name, true)
	s.log.Info("sidecar started", "pid", h.PID())

	go func() {
		defer close(s.done)
		s.Pump(events)
	}()
	return nil
}

// Pump forwards output lines to the log in arrival order until the
// terminated event, which it logs before returning. Nothing is logged for
// events that follow it.
func (s *Supervisor) Pump(events <-chan shell.Event) {
	for ev := range events {
		switch ev.Kind {
		case shell.EventStdout:
			metrics.IncOutputLine(s.name, "stdout")
			s.log.Info(LogPrefix + decodeLine(ev.Line))
		case shell.EventStderr:
			metrics.IncOutputLine(s.name, "stderr")
			s.log.Warn(LogPrefix + decodeLine(ev.Line))
		case shell.EventTerminated:
			st := ev.Status
			s.lastExit.Store(&st)
			metrics.IncExit(s.name, st.Success())
			s.log.Info(LogPrefix+"terminated", "status", st.String(), "code", st.Code, "signal", st.Signal)
			return
		}
	}
}

// Terminate takes the handle out of the slot and kills it outside the lock.
// It reports whether a kill was issued; later calls are no-ops. Kill errors
// are logged at debug level and otherwise ignored.
func (s *Supervisor) Terminate() bool {
	h := s.slot.Take()
	if h == nil {
		return false
	}
	metrics.SetPresent(s.name, false)
	metrics.IncKill(s.name)
	if err := h.Kill(); err != nil {
		s.log.Debug("sidecar kill failed", "pid", h.PID(), "error", err)
	} else {
		s.log.Info("sidecar kill requested", "pid", h.PID())
	}
	return true
}

// Done is closed once the output pump has finished. It never closes if
// Spawn did not succeed.
func (s *Supervisor) Done() <-chan struct{} { return s.done }

func (s *Supervisor) Present() bool { return s.slot.Present() }

func (s *Supervisor) Status() Status {
	st := Status{Name: s.name, PID: s.slot.PID()}
	exit := s.lastExit.Load()
	st.Running = st.PID != 0 && exit == nil
	if exit != nil {
		st.Exit = exit.String()
	}
	return st
}

func decodeLine(b []byte) string {
	return strings.TrimRight(strings.ToValidUTF8(string(b), "\uFFFD"), "\r")
}
