package timer

import (
	"errors"
	"time"
)

// ErrInvalidState is returned when an operation is called in the wrong phase,
// e.g. Start while already running or Pause while stopped.
var ErrInvalidState = errors.New("stopwatch: invalid state")

// Stopwatch tracks total active duration across start/pause/resume cycles
// without double-counting or losing time. It holds an accumulated duration
// plus the start of the current segment while running. All operations take an
// explicit now so callers control the clock.
type Stopwatch struct {
	accumulated  time.Duration
	segmentStart time.Time
	running      bool
}

// NewStopwatch returns a stopped stopwatch with zero accumulated time
func NewStopwatch() *Stopwatch {
	return &Stopwatch{}
}

// Start opens a new running segment
func (s *Stopwatch) Start(now time.Time) error {
	if s.running {
		return ErrInvalidState
	}
	s.segmentStart = now
	s.running = true
	return nil
}

// Pause closes the current segment, folding it into the accumulated total
func (s *Stopwatch) Pause(now time.Time) error {
	if !s.running {
		return ErrInvalidState
	}
	s.accumulated += now.Sub(s.segmentStart)
	s.segmentStart = time.Time{}
	s.running = false
	return nil
}

// Elapsed returns the total active duration as of now. Safe to call at any
// polling cadence; it has no side effects.
func (s *Stopwatch) Elapsed(now time.Time) time.Duration {
	if s.running {
		return s.accumulated + now.Sub(s.segmentStart)
	}
	return s.accumulated
}

// Finalize closes a running segment if there is one and returns the total
// active duration. Finalizing an already-paused stopwatch returns the
// accumulated total unchanged.
func (s *Stopwatch) Finalize(now time.Time) time.Duration {
	if s.running {
		s.accumulated += now.Sub(s.segmentStart)
		s.segmentStart = time.Time{}
		s.running = false
	}
	return s.accumulated
}

// Running reports whether a segment is currently open
func (s *Stopwatch) Running() bool {
	return s.running
}

// Reset zeroes the stopwatch. Used only when beginning a brand-new session,
// never when resuming a paused one.
func (s *Stopwatch) Reset() {
	s.accumulated = 0
	s.segmentStart = time.Time{}
	s.running = false
}
