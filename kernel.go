// Package kernel implements a hosted simulation of a minimal preemptive
// multitasking kernel for an 8-bit microcontroller: a round-robin scheduler
// over fixed-entrypoint tasks, a process-aware first-fit heap allocator
// sharing flat RAM with the task stacks, and a monotonic millisecond clock
// with a wrap-safe blocking delay.
//
// See doc.go for the full package overview.
package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Kernel is one instance of the simulated machine: one RAM region, one
// process table, one heap, one clock, all guarded by a single mutex that
// stands in for disabling interrupts around a critical section on real
// hardware (spec's "atomic with respect to the scheduler").
type Kernel struct {
	ram *RAM
	mu  sync.Mutex

	// Process manager state. rootProcess never changes after New; current
	// is the Pid that SchedulerTick will resume next.
	rootProcess Addr
	current     atomic.Int64

	// Allocator state.
	rootChunk Addr
	lastChunk Addr

	// Clock state: milliseconds elapsed since Init, incremented by Run's
	// ticker (or by an explicit ClockTick in a driven test).
	clockMs atomic.Uint32

	state       runState
	logger      Logger
	errorSink   ErrorSink
	metrics     *Metrics
	allocations *allocationIndex

	schedulerInterval time.Duration
	defaultStackSize  int
	metricsEnabled    bool

	// tasksMu guards tasks; it is distinct from mu because scheduler
	// bookkeeping (registering a new task's runtime) happens inside
	// spawnLocked, which already holds mu, while a task's own goroutine
	// reads its own runtime without mu held.
	tasksMu sync.Mutex
	tasks   map[Addr]*taskRuntime

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a Kernel but does not start it: call Init to spawn the
// first task, then Run to start ticking.
func New(opts ...Option) (*Kernel, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	k := &Kernel{
		ram:               NewRAM(cfg.ramSize),
		logger:            cfg.logger,
		errorSink:         cfg.errorSink,
		schedulerInterval: cfg.schedulerInterval,
		defaultStackSize:  cfg.defaultStackSize,
		metricsEnabled:    cfg.metricsEnabled,
		allocations:       newAllocationIndex(),
		tasks:             make(map[Addr]*taskRuntime),
	}
	if k.logger == nil {
		k.logger = NewDefaultLogger(LevelInfo)
	}
	if k.errorSink == nil {
		k.errorSink = noopErrorSink{}
	}
	// The plain counters (and the context-switch rate) are always recorded;
	// WithMetrics gates only the heap-used EMA, scheduler tick jitter and
	// delay overshoot recordings.
	k.metrics = newMetrics()
	k.current.Store(int64(NullAddr))
	k.state.Store(StateBoot)

	k.mu.Lock()
	defer k.mu.Unlock()
	k.initHeapLocked()
	k.initRootProcessLocked()

	return k, nil
}

// initRootProcessLocked places root_process at the top of RAM, exactly like
// any other steady-state tail PCB: unused, no next, no stack yet. Init then
// spawns the first task into this slot through the ordinary Spawn path, so
// bootstrap never needs a code path distinct from steady-state spawning.
func (k *Kernel) initRootProcessLocked() {
	top := k.ram.RAMTop() - Addr(pcbHeaderSize) + 1
	root := pcb{k.ram, top}
	root.setNext(NullAddr)
	root.setState(Unused)
	root.setStackTop(NullAddr)
	k.rootProcess = top
}

// Init spawns the first task (the target's init_task) and transitions the
// kernel into the running state. It must be called exactly once, before Run.
func (k *Kernel) Init(initTask Program) error {
	if !k.state.TryTransition(StateBoot, StateRunning) {
		return &FatalError{Kind: AssertionFailed, Message: "Init: kernel already initialized"}
	}
	pid := k.Spawn(initTask, k.defaultStackSize)
	if pid == NullPid {
		return &FatalError{Kind: OutOfMemory, Message: "Init: could not spawn init task"}
	}
	k.current.Store(int64(pid))
	return nil
}

// Run drives the scheduler and the millisecond clock in real time, until ctx
// is cancelled, Shutdown is called, or a fatal error halts the kernel. It is
// the hosted simulator's analogue of the target's two timer ISRs firing
// forever: timer A (the scheduler, SCHEDULER_INTERVAL_MS, configurable via
// WithSchedulerInterval) and timer B (the millisecond clock, fixed at 1ms).
// The two are independent real-time tickers, not one ticker driving both —
// the clock's rate must not follow the scheduler's, or delay's "at least ms
// milliseconds" wall-clock contract breaks the moment the scheduler interval
// is configured away from 1ms.
func (k *Kernel) Run(ctx context.Context) error {
	if k.state.Load() != StateRunning {
		return &FatalError{Kind: AssertionFailed, Message: "Run: Init must be called first"}
	}
	ctx, cancel := context.WithCancel(ctx)
	k.cancel = cancel
	k.done = make(chan struct{})
	defer close(k.done)

	schedulerTicker := time.NewTicker(k.schedulerInterval)
	defer schedulerTicker.Stop()
	clockTicker := time.NewTicker(clockTickInterval)
	defer clockTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-clockTicker.C:
			if k.state.IsTerminal() {
				return nil
			}
			k.ClockTick()
		case due := <-schedulerTicker.C:
			if k.state.IsTerminal() {
				return nil
			}
			k.SchedulerTick()
			if k.metricsEnabled {
				if jitter := time.Since(due); jitter > 0 {
					k.metrics.Scheduler.RecordTickJitter(jitter)
				}
			}
		}
	}
}

// Shutdown stops Run and ends every task goroutine. It has no hardware
// analogue; it exists so a hosted simulator (a test, or an embedding
// process) can tear a Kernel down cleanly instead of leaking goroutines.
// Calling it more than once is safe.
func (k *Kernel) Shutdown() {
	if !k.state.TryTransition(StateRunning, StateShutdown) {
		k.state.Store(StateShutdown)
	}
	if k.cancel != nil {
		k.cancel()
	}
	k.tasksMu.Lock()
	for _, rt := range k.tasks {
		select {
		case <-rt.stop:
		default:
			close(rt.stop)
		}
	}
	k.tasksMu.Unlock()
	k.allocations.Reset()
}

// Metrics returns the kernel's metrics collection. It is always non-nil;
// its counters are always populated, while the heap-used EMA, tick jitter
// and delay overshoot are populated only under WithMetrics(true).
func (k *Kernel) Metrics() *Metrics { return k.metrics }

// fatal raises a FatalError from a context that does not already hold mu
// (e.g. an argument-validation check at the top of a public method).
func (k *Kernel) fatal(err FatalError) {
	k.mu.Lock()
	k.fatalLocked(err)
	k.mu.Unlock()
}

// fatalLocked raises a FatalError from a context that already holds mu. It
// is idempotent: only the first caller after boot/running actually notifies
// the error sink and transitions state; later callers (a second fault
// discovered while already halted) are logged but otherwise no-ops, since
// there is nothing further for the kernel to do once halted.
func (k *Kernel) fatalLocked(err FatalError) {
	k.logf(LevelError, catFatal, "%s", err.Error())
	if err.Kind == OutOfMemory {
		k.metrics.Memory.OutOfMemory.Add(1)
	}
	if k.state.Load() == StateHalted {
		return
	}
	k.state.Store(StateHalted)
	k.errorSink.Fatal(err)
}

// stampAllocationLocked and removeAllocationLocked are thin forwarders onto
// the kernel's allocationIndex, called by Allocate/Free while mu is held.
func (k *Kernel) stampAllocationLocked(addr Addr, owner Pid, count int) {
	k.allocations.stampAllocationLocked(addr, owner, count)
	if k.metricsEnabled {
		k.metrics.Memory.RecordHeapUsed(int(k.topOfHeapLocked() - k.ram.HeapBase()))
	}
}

func (k *Kernel) removeAllocationLocked(addr Addr) {
	k.allocations.removeAllocationLocked(addr)
}
