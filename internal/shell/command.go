package shell

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// MaxLineBytes bounds a single output event; longer lines are delivered as
// consecutive events of at most MaxLineBytes each.
const MaxLineBytes = 1 << 20

type EventKind int

const (
	EventStdout EventKind = iota
	EventStderr
	EventTerminated
)

func (k EventKind) String() string {
	switch k {
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ExitStatus describes how a child process ended.
type ExitStatus struct {
	Code   int    // -1 when the process was terminated by a signal
	Signal string // signal name (e.g. SIGKILL) when signaled
}

func (s ExitStatus) Success() bool { return s.Code == 0 && s.Signal == "" }

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "signal " + s.Signal
	}
	return "exit code " + strconv.Itoa(s.Code)
}

// Event is one item of a child's output stream. Line is set for stdout and
// stderr events and excludes the trailing newline; Status is set for the
// terminated event, which is always the last event before the channel closes.
type Event struct {
	Kind   EventKind
	Line   []byte
	Status ExitStatus
}

// Command is a resolved executable ready to be spawned.
type Command struct {
	path string
	args []string
	env  []string
	dir  string
}

func NewCommand(path string, args ...string) *Command {
	return &Command{path: path, args: args}
}

func (c *Command) Path() string { return c.path }

// WithEnv returns a copy of c using env as the complete child environment.
func (c *Command) WithEnv(env []string) *Command {
	cp := *c
	cp.env = append([]string(nil), env...)
	return &cp
}

// WithDir returns a copy of c that runs in dir.
func (c *Command) WithDir(dir string) *Command {
	cp := *c
	cp.dir = dir
	return &cp
}

// Spawn starts the command in its own process group. The returned channel
// yields stdout and stderr lines as they arrive and ends with exactly one
// EventTerminated; it is closed afterwards. Stdin is not connected.
func (c *Command) Spawn() (*Child, <-chan Event, error) {
	// #nosec G204 -- path comes from the bundled binaries lookup
	cmd := exec.Command(c.path, c.args...)
	if len(c.env) > 0 {
		cmd.Env = c.env
	}
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	configureSysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", c.path, err)
	}

	child := &Child{cmd: cmd, pid: cmd.Process.Pid}
	events := make(chan Event, 64)

	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(stdout, EventStdout, events, &wg)
	go scanLines(stderr, EventStderr, events, &wg)
	go func() {
		// Wait must not run before the pipes are drained.
		wg.Wait()
		err := cmd.Wait()
		child.exited.Store(true)
		events <- Event{Kind: EventTerminated, Status: exitStatus(cmd.ProcessState, err)}
		close(events)
	}()
	return child, events, nil
}

func scanLines(r io.Reader, kind EventKind, out chan<- Event, wg *sync.WaitGroup) {
	defer wg.Done()
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		frag, err := br.ReadSlice('\n')
		line = append(line, frag...)
		complete := err == nil
		if complete {
			line = bytes.TrimSuffix(line[:len(line)-1], []byte{'\r'})
		}
		for len(line) > MaxLineBytes {
			out <- Event{Kind: kind, Line: line[:MaxLineBytes:MaxLineBytes]}
			line = append([]byte(nil), line[MaxLineBytes:]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if complete || len(line) > 0 {
			out <- Event{Kind: kind, Line: line}
		}
		if !complete {
			// EOF or a broken pipe
			return
		}
		line = nil
	}
}

func exitStatus(ps *os.ProcessState, err error) ExitStatus {
	if ps == nil {
		return ExitStatus{Code: -1}
	}
	return ExitStatus{Code: ps.ExitCode(), Signal: signalName(ps)}
}

// Child is the handle of a spawned command.
type Child struct {
	cmd    *exec.Cmd
	pid    int
	exited atomic.Bool
}

func (c *Child) PID() int { return c.pid }

// Kill forcibly terminates the child and its process group without waiting
// for it to exit. Killing a child that was already reaped returns
// os.ErrProcessDone.
func (c *Child) Kill() error {
	if c.exited.Load() {
		return os.ErrProcessDone
	}
	return killTree(c.cmd.Process)
}
