package kernel

import "sync/atomic"

// RunState is the kernel's own lifecycle, distinct from any single task's
// ProcessState. Real firmware only ever goes Boot -> Running -> Halted (on
// a fault) and never returns; Shutdown exists purely so a hosted simulator
// (i.e. a test process) can tear its goroutines down cleanly.
type RunState uint64

const (
	// StateBoot is set by New, before Init has spawned the first task.
	StateBoot RunState = iota
	// StateRunning is set once Init has spawned the first task and the
	// scheduler is eligible to tick.
	StateRunning
	// StateHalted is terminal: a FatalError has been raised and every
	// task goroutine has parked forever.
	StateHalted
	// StateShutdown is terminal: Shutdown was called. Simulator-only; has
	// no hardware analogue.
	StateShutdown
)

func (s RunState) String() string {
	switch s {
	case StateBoot:
		return "boot"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// runState is a lock-free state machine guarding the kernel's lifecycle,
// grounded on the same atomic-CAS approach as any other concurrent state
// flag in this codebase, sized to a single word so Load/Store never tear.
type runState struct {
	v atomic.Uint64
}

func (s *runState) Load() RunState { return RunState(s.v.Load()) }
func (s *runState) Store(v RunState) { s.v.Store(uint64(v)) }

// TryTransition attempts to atomically move from one state to another.
func (s *runState) TryTransition(from, to RunState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// IsTerminal reports whether the kernel has stopped ticking for good.
func (s *runState) IsTerminal() bool {
	v := s.Load()
	return v == StateHalted || v == StateShutdown
}
