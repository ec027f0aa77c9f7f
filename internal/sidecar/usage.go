package sidecar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

var ErrNotRunning = errors.New("sidecar not running")

// Usage is a point-in-time resource sample of a running process.
type Usage struct {
	PID        int       `json:"pid"`
	RSSBytes   uint64    `json:"rss_bytes"`
	CPUPercent float64   `json:"cpu_percent"`
	Threads    int32     `json:"threads"`
	StartedAt  time.Time `json:"started_at"`
}

// SampleUsage samples pid. Fields the platform cannot report stay zero; an error
// is returned only when the process is gone.
func SampleUsage(ctx context.Context, pid int) (Usage, error) {
	if pid <= 0 {
		return Usage{}, ErrNotRunning
	}
	p, err := gopsproc.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Usage{}, fmt.Errorf("%w: pid %d: %v", ErrNotRunning, pid, err)
	}
	if ok, err := p.IsRunningWithContext(ctx); err == nil && !ok {
		return Usage{}, fmt.Errorf("%w: pid %d", ErrNotRunning, pid)
	}
	u := Usage{PID: pid}
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		u.RSSBytes = mi.RSS
	}
	if c, err := p.CPUPercentWithContext(ctx); err == nil {
		u.CPUPercent = c
	}
	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		u.Threads = n
	}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil && ms > 0 {
		u.StartedAt = time.UnixMilli(ms)
	}
	return u, nil
}

// Usage samples the child while it is running.
func (s *Supervisor) Usage(ctx context.Context) (Usage, error) {
	st := s.Status()
	if !st.Running {
		return Usage{}, ErrNotRunning
	}
	return SampleUsage(ctx, st.PID)
}
