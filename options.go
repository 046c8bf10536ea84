// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package kernel

import "time"

// kernelOptions holds configuration resolved once at New.
type kernelOptions struct {
	ramSize           int
	schedulerInterval time.Duration
	defaultStackSize  int
	logger            Logger
	errorSink         ErrorSink
	metricsEnabled    bool
}

// Option configures a Kernel instance.
type Option interface {
	applyKernel(*kernelOptions) error
}

type kernelOptionFunc func(*kernelOptions) error

func (f kernelOptionFunc) applyKernel(opts *kernelOptions) error { return f(opts) }

// WithRAMSize sets the size, in bytes, of the simulated flat RAM region
// shared between the heap and the task stacks. Default 2048.
func WithRAMSize(size int) Option {
	return kernelOptionFunc(func(opts *kernelOptions) error {
		if size <= 0 {
			return &FatalError{Kind: AssertionFailed, Message: "WithRAMSize: size must be positive"}
		}
		opts.ramSize = size
		return nil
	})
}

// minSchedulerInterval and maxSchedulerInterval bound SCHEDULER_INTERVAL_MS
// to the 0.02ms-4.0ms range dictated by the target's timer resolution. This
// is timer A; the millisecond clock (timer B) is driven by its own
// fixed-rate ticker and never varies with this setting.
const (
	minSchedulerInterval = 20 * time.Microsecond
	maxSchedulerInterval = 4 * time.Millisecond
)

// WithSchedulerInterval sets SCHEDULER_INTERVAL_MS, the period of the
// scheduler timer, used by Run's real-time ticker. Default 1ms. Must fall
// within the timer's 0.02ms-4.0ms resolution range.
func WithSchedulerInterval(d time.Duration) Option {
	return kernelOptionFunc(func(opts *kernelOptions) error {
		if d < minSchedulerInterval || d > maxSchedulerInterval {
			return &FatalError{Kind: AssertionFailed, Message: "WithSchedulerInterval: duration must be within 0.02ms-4.0ms"}
		}
		opts.schedulerInterval = d
		return nil
	})
}

// WithDefaultStackSize overrides DEFAULT_STACK_SIZE (spec default: 64 bytes).
func WithDefaultStackSize(n int) Option {
	return kernelOptionFunc(func(opts *kernelOptions) error {
		if n <= 0 {
			return &FatalError{Kind: AssertionFailed, Message: "WithDefaultStackSize: size must be positive"}
		}
		opts.defaultStackSize = n
		return nil
	})
}

// WithLogger sets the structured logger used for scheduler/memory/clock
// diagnostics. Default is a DefaultLogger at LevelInfo writing to stdout.
func WithLogger(l Logger) Option {
	return kernelOptionFunc(func(opts *kernelOptions) error {
		opts.logger = l
		return nil
	})
}

// WithErrorSink sets the fatal-error collaborator (the hardware
// error-indicator driver, or a test double). The default sink discards the
// error; the kernel still moves to StateHalted either way.
func WithErrorSink(sink ErrorSink) Option {
	return kernelOptionFunc(func(opts *kernelOptions) error {
		opts.errorSink = sink
		return nil
	})
}

// WithMetrics enables the distribution and gauge metrics (heap-used EMA,
// scheduler tick jitter, delay overshoot). The plain counters and the
// context-switch rate are recorded regardless. Disabled by default to keep
// the hot path minimal, consistent with the target's code-size budget.
func WithMetrics(enabled bool) Option {
	return kernelOptionFunc(func(opts *kernelOptions) error {
		opts.metricsEnabled = enabled
		return nil
	})
}

func resolveOptions(opts []Option) (*kernelOptions, error) {
	cfg := &kernelOptions{
		ramSize:           defaultRAMSize,
		schedulerInterval: time.Millisecond,
		defaultStackSize:  DefaultStackSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyKernel(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
