package kernel

import (
	"sync"
	"sync/atomic"
	"time"
)

// counter is a simple thread-safe monotonic counter, used for the plain
// tallies (spawns, allocations, frees, ...) that don't need a distribution.
type counter struct {
	v atomic.Int64
}

func (c *counter) Add(delta int64) { c.v.Add(delta) }
func (c *counter) Load() int64     { return c.v.Load() }

// Metrics is an optional collection of runtime statistics, grounded on the
// same low-overhead, thread-safe design as the teacher event loop's Metrics:
// every recording method is safe to call from any task goroutine or from the
// scheduler tick.
//
// Metrics are entirely instrumentation: nothing in the scheduler, allocator,
// or clock changes behaviour because metrics are enabled or disabled.
type Metrics struct {
	Scheduler SchedulerMetrics
	Memory    MemoryMetrics
	Clock     ClockMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		Scheduler: newSchedulerMetrics(),
		Memory:    newMemoryMetrics(),
		Clock:     newClockMetrics(),
	}
}

// SchedulerMetrics tracks context-switch throughput and scheduler tick
// jitter: the gap between when a tick was due and when SchedulerTick actually
// ran, which on real hardware would show up as interrupt latency.
type SchedulerMetrics struct {
	Spawns          counter
	ContextSwitches counter
	tps             *TPSCounter

	mu     sync.Mutex
	jitter *latencyDistribution
}

func newSchedulerMetrics() SchedulerMetrics {
	return SchedulerMetrics{
		tps: NewTPSCounter(10*time.Second, 100*time.Millisecond),
	}
}

// RecordContextSwitch marks one scheduler tick having handed control to a
// (possibly different) task.
func (m *SchedulerMetrics) RecordContextSwitch() {
	m.ContextSwitches.Add(1)
	m.tps.Increment()
}

// RecordTickJitter records how late a scheduler tick fired relative to its
// nominal period.
func (m *SchedulerMetrics) RecordTickJitter(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jitter == nil {
		m.jitter = newLatencyDistribution(0.50, 0.90, 0.99)
	}
	m.jitter.Update(float64(d))
}

// ContextSwitchRate returns the context-switch rate over the trailing window.
func (m *SchedulerMetrics) ContextSwitchRate() float64 { return m.tps.TPS() }

// TickJitterP99 returns the estimated P99 scheduler tick jitter.
func (m *SchedulerMetrics) TickJitterP99() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jitter == nil {
		return 0
	}
	return time.Duration(m.jitter.Quantile(2))
}

// MemoryMetrics tracks allocator activity: counts, out-of-memory events, and
// a smoothed estimate of heap occupancy.
type MemoryMetrics struct {
	Allocations counter
	Frees       counter
	OutOfMemory counter

	mu           sync.Mutex
	heapUsedEMA  float64
	heapUsedInit bool
}

func newMemoryMetrics() MemoryMetrics { return MemoryMetrics{} }

// RecordHeapUsed updates the exponential moving average of bytes used on the
// heap, observed after every allocate/free.
func (m *MemoryMetrics) RecordHeapUsed(bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.heapUsedInit {
		m.heapUsedEMA = float64(bytes)
		m.heapUsedInit = true
		return
	}
	m.heapUsedEMA = 0.9*m.heapUsedEMA + 0.1*float64(bytes)
}

// HeapUsedEMA returns the current smoothed heap-used estimate, in bytes.
func (m *MemoryMetrics) HeapUsedEMA() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heapUsedEMA
}

// ClockMetrics tracks how far delay_ms wakeups overshoot their target.
type ClockMetrics struct {
	Ticks counter

	mu        sync.Mutex
	overshoot *latencyDistribution
}

func newClockMetrics() ClockMetrics { return ClockMetrics{} }

// RecordDelayOvershoot records how many milliseconds past its target a
// Delay call actually woke up at.
func (m *ClockMetrics) RecordDelayOvershoot(ms uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overshoot == nil {
		m.overshoot = newLatencyDistribution(0.50, 0.90, 0.99)
	}
	m.overshoot.Update(float64(ms))
}

// DelayOvershootP99 returns the estimated P99 delay overshoot, in
// milliseconds.
func (m *ClockMetrics) DelayOvershootP99() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overshoot == nil {
		return 0
	}
	return m.overshoot.Quantile(2)
}
