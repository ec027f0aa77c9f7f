package sidecar

import "sync"

// Handle is the kill side of a running child process.
type Handle interface {
	Kill() error
	PID() int
}

// Slot owns at most one Handle. Every access holds the mutex only for the
// read or swap itself.
type Slot struct {
	mu sync.Mutex
	h  Handle
}

// Store puts h into the slot and returns the value it replaced.
func (s *Slot) Store(h Handle) Handle {
	s.mu.Lock()
	prev := s.h
	s.h = h
	s.mu.Unlock()
	return prev
}

// Take empties the slot and hands its previous content to the caller.
func (s *Slot) Take() Handle {
	s.mu.Lock()
	h := s.h
	s.h = nil
	s.mu.Unlock()
	return h
}

func (s *Slot) Present() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h != nil
}

// PID returns the pid of the held process, or 0 when empty.
func (s *Slot) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return 0
	}
	return s.h.PID()
}
