package kernel

import "time"

// clockTickInterval is timer B's fixed period: the millisecond clock runs at
// exactly 1ms regardless of SCHEDULER_INTERVAL_MS, independent of the
// scheduler's own timer.
const clockTickInterval = time.Millisecond

// TimeSinceInit returns the number of milliseconds elapsed since Init,
// wrapping silently at the width of uint32 exactly like the target's
// free-running millisecond counter.
func (k *Kernel) TimeSinceInit() uint32 { return k.clockMs.Load() }

// ClockTick advances the millisecond counter by one. Run calls this once per
// clockTickInterval, off its own ticker independent of the scheduler's; a
// driven test (one not using Run's real-time tickers) calls it directly to
// advance time deterministically.
func (k *Kernel) ClockTick() {
	k.clockMs.Add(1)
	k.metrics.Clock.Ticks.Add(1)
}

// delay blocks the calling task, yielding on every iteration, until at
// least ms milliseconds have elapsed.
//
// The original source compared now <= target directly, which breaks the
// instant the free-running counter wraps past zero: a target computed
// before the wrap looks, numerically, larger than a now that has wrapped
// past it, so the task would block for the rest of the counter's entire
// period. That bug is not reproduced here: the comparison is done on the
// signed difference of the two unsigned values, which stays correct across
// exactly one wraparound (the only case a bounded ms delay can ever span).
func (k *Kernel) delay(c *Controller, ms uint32) {
	start := k.TimeSinceInit()
	target := start + ms
	for int32(k.TimeSinceInit()-target) < 0 {
		c.Yield()
	}
	if c.k.metricsEnabled {
		c.k.metrics.Clock.RecordDelayOvershoot(k.TimeSinceInit() - target)
	}
}
