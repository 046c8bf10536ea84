package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSchedulerIntervalRejectsOutOfRangeDurations(t *testing.T) {
	_, err := New(WithSchedulerInterval(10 * time.Microsecond))
	require.Error(t, err, "below the 0.02ms timer resolution floor")

	_, err = New(WithSchedulerInterval(5 * time.Millisecond))
	require.Error(t, err, "above the 4.0ms timer resolution ceiling")

	_, err = New(WithSchedulerInterval(0))
	require.Error(t, err)
}

func TestWithSchedulerIntervalAcceptsBoundaryValues(t *testing.T) {
	k, err := New(WithSchedulerInterval(minSchedulerInterval))
	require.NoError(t, err)
	k.Shutdown()

	k, err = New(WithSchedulerInterval(maxSchedulerInterval))
	require.NoError(t, err)
	k.Shutdown()
}

func TestWithRAMSizeRejectsNonPositive(t *testing.T) {
	_, err := New(WithRAMSize(0))
	assert.Error(t, err)
	_, err = New(WithRAMSize(-1))
	assert.Error(t, err)
}

func TestWithDefaultStackSizeRejectsNonPositive(t *testing.T) {
	_, err := New(WithDefaultStackSize(0))
	assert.Error(t, err)
}
