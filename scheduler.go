package kernel

import "runtime"

// taskRuntime is the goroutine-side half of a running task: the channels
// used to hand control back and forth with the scheduler. It is the hosted
// simulator's stand-in for a real interrupt: since Go gives no way to
// suspend an arbitrary goroutine at an arbitrary instruction the way a
// timer interrupt suspends arbitrary machine instructions, a task instead
// calls Controller.Yield at its own chosen points, which blocks until the
// scheduler resumes it again. Every invariant a real preemptive scheduler
// must hold (full context save/restore, round-robin fairness, a collision-
// checked stack region) still holds across this boundary; only the trigger
// is cooperative instead of interrupt-driven.
type taskRuntime struct {
	resume chan struct{}
	parked chan struct{}
	stop   chan struct{}
	frame  Addr
}

// Controller is the handle a running Program uses to touch its own register
// file and to give up the processor. A task owns exactly one Controller,
// created when it is spawned, for its entire lifetime.
type Controller struct {
	k   *Kernel
	pid Pid
	rt  *taskRuntime
	ctx *Context
}

// Pid returns the identity of the task this Controller belongs to.
func (c *Controller) Pid() Pid { return c.pid }

// Registers exposes the task's general-purpose register file for direct
// manipulation, mirroring how a task on the target touches its own
// registers between yields.
func (c *Controller) Registers() *Registers { return &c.ctx.Regs }

// Allocate requests count bytes from the shared heap, attributed to this
// task's Pid.
func (c *Controller) Allocate(count int) Addr { return c.k.Allocate(c.pid, count) }

// Free releases a previous allocation.
func (c *Controller) Free(ptr Addr) { c.k.Free(ptr) }

// TimeSinceInit returns the kernel's monotonic millisecond counter.
func (c *Controller) TimeSinceInit() uint32 { return c.k.TimeSinceInit() }

// Delay blocks the calling task, yielding repeatedly, until at least ms
// milliseconds have elapsed since it was called.
func (c *Controller) Delay(ms uint32) { c.k.delay(c, ms) }

// Yield saves the task's full context to its stack frame, hands control
// back to the scheduler, and blocks until the scheduler resumes it — the
// one preemption point a Program must call to make forward progress
// observable to anything else in the kernel. On resume, the context is
// reloaded from the same frame, exactly as a real interrupt epilogue would
// pop it back off the stack.
func (c *Controller) Yield() {
	saveContext(c.k.ram, c.rt.frame, c.ctx)
	select {
	case c.rt.parked <- struct{}{}:
	case <-c.rt.stop:
		runtime.Goexit()
	}
	select {
	case <-c.rt.resume:
	case <-c.rt.stop:
		runtime.Goexit()
	}
	c.ctx = loadContext(c.k.ram, c.rt.frame)
}

// parkForever is entered when a Program returns. There is no task
// termination primitive in this kernel (per its non-goals): a task that
// returns runs nothing more, handing every later quantum straight back to
// the scheduler, and its PCB slot is never reclaimed.
func (c *Controller) parkForever() {
	for {
		select {
		case c.rt.parked <- struct{}{}:
		case <-c.rt.stop:
			return
		}
		select {
		case <-c.rt.resume:
		case <-c.rt.stop:
			return
		}
	}
}

// startTask registers a task's runtime and launches its goroutine, blocked
// until the scheduler's first resume. Called with mu held, from
// spawnLocked.
func (k *Kernel) startTask(pid Pid, program Program, frame Addr) {
	rt := &taskRuntime{
		resume: make(chan struct{}),
		parked: make(chan struct{}),
		stop:   make(chan struct{}),
		frame:  frame,
	}
	k.tasksMu.Lock()
	k.tasks[pid] = rt
	k.tasksMu.Unlock()

	go func() {
		c := &Controller{k: k, pid: pid, rt: rt, ctx: loadContext(k.ram, frame)}
		select {
		case <-rt.resume:
		case <-rt.stop:
			return
		}
		program(c)
		c.parkForever()
	}()
}

// SchedulerTick runs one quantum: it resumes the task selected for this
// tick, blocks until that task yields (or returns), then picks the task
// that will run on the next tick. current always names the task that WILL
// run next, including immediately after Init, which keeps the bootstrap
// tick and every steady-state tick the same code path.
func (k *Kernel) SchedulerTick() {
	if k.state.IsTerminal() {
		return
	}

	k.mu.Lock()
	current := Addr(k.current.Load())
	k.mu.Unlock()
	if current == NullAddr {
		return
	}

	k.tasksMu.Lock()
	rt := k.tasks[current]
	k.tasksMu.Unlock()
	if rt == nil {
		k.fatal(FatalError{Kind: Unreachable, Message: "SchedulerTick: no runtime registered for current pid"})
		return
	}

	select {
	case rt.resume <- struct{}{}:
	case <-rt.stop:
		return
	}
	select {
	case <-rt.parked:
	case <-rt.stop:
		return
	}

	k.metrics.Scheduler.RecordContextSwitch()

	k.mu.Lock()
	next := k.pick(current)
	k.current.Store(int64(next))
	k.mu.Unlock()
}
