// Package kernel is a hosted simulator of a minimal preemptive multitasking
// kernel for an 8-bit microcontroller-class target: fixed-entrypoint tasks
// scheduled round-robin off a periodic timer, a process-aware linked-list
// heap allocator sharing flat RAM with the task stacks, and a monotonic
// millisecond clock with a wrap-safe blocking delay.
//
// # Architecture
//
// A [Kernel] owns one [RAM] region. Task stacks and process control blocks
// grow down from the top of RAM; heap chunks grow up from the bottom. The
// two must never collide — [Kernel.Allocate] and [Kernel.Spawn] both check
// the boundary and fail (fatally, or with [NullPid], respectively) rather
// than let it happen.
//
// Real hardware timers don't exist under `go test`, so the scheduler timer
// and the millisecond-clock timer are both driven through an explicit tick
// API ([Kernel.SchedulerTick], [Kernel.ClockTick]) that tests call directly,
// or through [Kernel.Run], which drives each off its own independent
// real-time ticker (timer A for the scheduler, timer B for the clock — the
// clock runs at a fixed 1ms regardless of the scheduler's configured
// interval). Tasks
// are goroutines that cooperatively yield at a call to [Controller.Yield],
// which performs the save/restore a hardware ISR would: serialize the
// calling task's register file to its own stack region in RAM, hand control
// to the next ready task per the round-robin picker, and deserialize that
// task's register file back out.
//
// # Usage
//
//	k, err := kernel.New(kernel.WithRAMSize(2048))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer k.Shutdown()
//
//	if err := k.Init(func(c *kernel.Controller) {
//	    for {
//	        c.Registers()[0] = 0xAA
//	        c.Yield()
//	    }
//	}); err != nil {
//	    log.Fatal(err)
//	}
//
//	go k.Run(context.Background())
//
// # Error Types
//
// Kernel faults are reported through [FatalError] with a [FatalKind] of
// [Unreachable], [ISRStackTooSmall], [OutOfMemory], or [AssertionFailed] —
// all of them unrecoverable by design. [Kernel.Spawn] failure is not one of
// these; it returns [NullPid], which the caller is expected to handle.
package kernel
