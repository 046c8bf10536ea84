package kernel

import (
	"math"
)

// latencyQuantile streams a single quantile estimate of a latency-like
// measurement (scheduler tick jitter, delay overshoot) using the P-Square
// algorithm: O(1) per-observation updates and O(1) retrieval, without
// storing any observations.
//
// Reference: Jain, R. and Chlamtac, I. (1985). "The P^2 Algorithm for
// Dynamic Calculation of Quantiles and Histograms Without Storing
// Observations". Communications of the ACM, 28(10), pp. 1076-1085.
//
// Not safe for concurrent use; callers hold their own mutex (see
// SchedulerMetrics.mu / ClockMetrics.mu).
type latencyQuantile struct {
	// target is the quantile this estimator tracks (0.0 to 1.0).
	target float64

	// q holds the 5 marker heights (observed values at each marker).
	q [5]float64

	// n holds the 5 marker positions (actual, integer).
	n [5]int

	// np holds the 5 desired marker positions (idealized, float).
	np [5]float64

	// dn holds the increment applied to each desired position per observation.
	dn [5]float64

	count int

	// initBuffer holds the first 5 observations, sorted once count reaches 5
	// and the marker array above is seeded from them.
	initBuffer [5]float64
}

// newLatencyQuantile creates an estimator for the given quantile, clamped to
// [0.0, 1.0].
func newLatencyQuantile(target float64) *latencyQuantile {
	if target < 0 {
		target = 0
	}
	if target > 1 {
		target = 1
	}
	return &latencyQuantile{
		target: target,
		dn:     [5]float64{0, target / 2, target, (1 + target) / 2, 1},
	}
}

// Update folds in one new observation. O(1).
func (lq *latencyQuantile) Update(x float64) {
	lq.count++

	if lq.count <= 5 {
		lq.initBuffer[lq.count-1] = x
		if lq.count == 5 {
			lq.seedMarkers()
		}
		return
	}

	// Find the cell k such that q[k] <= x < q[k+1].
	var k int
	switch {
	case x < lq.q[0]:
		lq.q[0] = x
		k = 0
	case x >= lq.q[4]:
		lq.q[4] = x
		k = 3
	default:
		for k = 0; k < 4; k++ {
			if lq.q[k] <= x && x < lq.q[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		lq.n[i]++
	}
	for i := 0; i < 5; i++ {
		lq.np[i] += lq.dn[i]
	}

	for i := 1; i < 4; i++ {
		d := lq.np[i] - float64(lq.n[i])
		if (d >= 1 && lq.n[i+1]-lq.n[i] > 1) || (d <= -1 && lq.n[i-1]-lq.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}

			qPrime := lq.parabolic(i, sign)
			if lq.q[i-1] < qPrime && qPrime < lq.q[i+1] {
				lq.q[i] = qPrime
			} else {
				lq.q[i] = lq.linear(i, sign)
			}
			lq.n[i] += sign
		}
	}
}

// seedMarkers initializes the 5 markers from the first 5 observations.
func (lq *latencyQuantile) seedMarkers() {
	// Insertion sort: fine for 5 elements, avoids pulling in sort for this.
	for i := 1; i < 5; i++ {
		key := lq.initBuffer[i]
		j := i - 1
		for j >= 0 && lq.initBuffer[j] > key {
			lq.initBuffer[j+1] = lq.initBuffer[j]
			j--
		}
		lq.initBuffer[j+1] = key
	}

	for i := 0; i < 5; i++ {
		lq.q[i] = lq.initBuffer[i]
		lq.n[i] = i
	}
	lq.np = [5]float64{0, 2 * lq.target, 4 * lq.target, 2 + 2*lq.target, 4}
}

// parabolic computes the P-Square parabolic marker adjustment.
func (lq *latencyQuantile) parabolic(i, d int) float64 {
	df := float64(d)
	ni := float64(lq.n[i])
	niPrev := float64(lq.n[i-1])
	niNext := float64(lq.n[i+1])

	term1 := df / (niNext - niPrev)
	term2 := (ni - niPrev + df) * (lq.q[i+1] - lq.q[i]) / (niNext - ni)
	term3 := (niNext - ni - df) * (lq.q[i] - lq.q[i-1]) / (ni - niPrev)
	return lq.q[i] + term1*(term2+term3)
}

// linear computes the P-Square linear marker adjustment, the fallback when
// the parabolic estimate would leave markers out of order.
func (lq *latencyQuantile) linear(i, d int) float64 {
	if d == 1 {
		return lq.q[i] + (lq.q[i+1]-lq.q[i])/float64(lq.n[i+1]-lq.n[i])
	}
	return lq.q[i] - (lq.q[i]-lq.q[i-1])/float64(lq.n[i]-lq.n[i-1])
}

// Quantile returns the current estimate. O(1).
func (lq *latencyQuantile) Quantile() float64 {
	if lq.count == 0 {
		return 0
	}
	if lq.count < 5 {
		sorted := make([]float64, lq.count)
		copy(sorted, lq.initBuffer[:lq.count])
		for i := 1; i < lq.count; i++ {
			key := sorted[i]
			j := i - 1
			for j >= 0 && sorted[j] > key {
				sorted[j+1] = sorted[j]
				j--
			}
			sorted[j+1] = key
		}
		index := int(float64(lq.count-1) * lq.target)
		if index >= lq.count {
			index = lq.count - 1
		}
		return sorted[index]
	}
	return lq.q[2]
}

// latencyDistribution tracks several quantiles of the same latency-like
// measurement at once (e.g. p50/p90/p99 of scheduler tick jitter, or of
// clock delay overshoot), plus running sum/count/max for a cheap mean.
//
// Not safe for concurrent use; callers hold their own mutex.
type latencyDistribution struct {
	quantiles []*latencyQuantile
	sum       float64
	count     int
	max       float64
}

// newLatencyDistribution creates a tracker for the given quantiles, each in
// [0.0, 1.0].
func newLatencyDistribution(quantiles ...float64) *latencyDistribution {
	d := &latencyDistribution{
		quantiles: make([]*latencyQuantile, len(quantiles)),
		max:       -math.MaxFloat64,
	}
	for i, q := range quantiles {
		d.quantiles[i] = newLatencyQuantile(q)
	}
	return d
}

// Update folds in one new observation across every tracked quantile. O(k)
// in the number of quantiles tracked.
func (d *latencyDistribution) Update(x float64) {
	d.count++
	d.sum += x
	if x > d.max {
		d.max = x
	}
	for _, q := range d.quantiles {
		q.Update(x)
	}
}

// Quantile returns the estimate for the i-th configured quantile.
func (d *latencyDistribution) Quantile(i int) float64 {
	if i < 0 || i >= len(d.quantiles) {
		return 0
	}
	return d.quantiles[i].Quantile()
}

// Count returns the total number of observations folded in.
func (d *latencyDistribution) Count() int { return d.count }

// Sum returns the running sum of all observations.
func (d *latencyDistribution) Sum() float64 { return d.sum }

// Max returns the largest observation seen.
func (d *latencyDistribution) Max() float64 {
	if d.count == 0 {
		return 0
	}
	return d.max
}

// Mean returns the arithmetic mean of all observations.
func (d *latencyDistribution) Mean() float64 {
	if d.count == 0 {
		return 0
	}
	return d.sum / float64(d.count)
}

// Reset clears all state for reuse.
func (d *latencyDistribution) Reset() {
	d.sum = 0
	d.count = 0
	d.max = -math.MaxFloat64
	for _, q := range d.quantiles {
		*q = *newLatencyQuantile(q.target)
	}
}
