package kernel

import (
	"sync"
	"sync/atomic"
	"time"
)

// TPSCounter tracks transactions per second (here, scheduler context
// switches per second) with a rolling window.
//
// Implementation: a ring of fixed-width time buckets, rotated lazily on
// every Increment/TPS call rather than by a background goroutine.
//
// Thread safety: all methods are safe for concurrent use.
type TPSCounter struct {
	lastRotation atomic.Value // time.Time
	buckets      []int64
	bucketSize   time.Duration
	windowSize   time.Duration
	mu           sync.Mutex
}

// NewTPSCounter creates a counter over windowSize, divided into buckets of
// bucketSize. Both must be positive, and bucketSize must not exceed
// windowSize.
func NewTPSCounter(windowSize, bucketSize time.Duration) *TPSCounter {
	if windowSize <= 0 {
		panic("kernel: windowSize must be positive")
	}
	if bucketSize <= 0 {
		panic("kernel: bucketSize must be positive")
	}
	if bucketSize > windowSize {
		panic("kernel: bucketSize cannot exceed windowSize")
	}

	bucketCount := int(windowSize / bucketSize)
	c := &TPSCounter{
		buckets:    make([]int64, bucketCount),
		bucketSize: bucketSize,
		windowSize: windowSize,
	}
	c.lastRotation.Store(time.Now())
	return c
}

// Increment records one event in the current bucket.
func (t *TPSCounter) Increment() {
	t.rotate()
	t.mu.Lock()
	t.buckets[len(t.buckets)-1]++
	t.mu.Unlock()
}

// rotate advances the bucket window to the present, zeroing buckets that
// have aged out.
func (t *TPSCounter) rotate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	lastRotation := t.lastRotation.Load().(time.Time)
	elapsed := now.Sub(lastRotation)

	advance64 := int64(elapsed) / int64(t.bucketSize)
	if advance64 < 0 || advance64 > int64(len(t.buckets)) {
		advance64 = int64(len(t.buckets))
	}
	advance := int(advance64)

	if advance >= len(t.buckets) {
		for i := range t.buckets {
			t.buckets[i] = 0
		}
		t.lastRotation.Store(now)
		return
	}
	if advance <= 0 {
		return
	}

	copy(t.buckets, t.buckets[advance:])
	for i := len(t.buckets) - advance; i < len(t.buckets); i++ {
		t.buckets[i] = 0
	}
	t.lastRotation.Store(lastRotation.Add(time.Duration(advance) * t.bucketSize))
}

// TPS returns the current rate over the trailing window, in events per
// second.
func (t *TPSCounter) TPS() float64 {
	t.rotate()

	t.mu.Lock()
	defer t.mu.Unlock()

	var sum int64
	for _, count := range t.buckets {
		sum += count
	}
	if sum == 0 {
		return 0
	}
	monitoredDuration := float64(len(t.buckets)) * t.bucketSize.Seconds()
	return float64(sum) / monitoredDuration
}
