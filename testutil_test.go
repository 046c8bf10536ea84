package kernel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingSink is an ErrorSink that remembers every fault it was handed,
// so a test can assert a kernel either did or did not halt.
type recordingSink struct {
	mu   sync.Mutex
	errs []FatalError
}

func (s *recordingSink) Fatal(err FatalError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) Errors() []FatalError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FatalError(nil), s.errs...)
}

// newTestKernel builds a Kernel with a recordingSink and a quiet logger, the
// combination every other test in this package starts from.
func newTestKernel(t *testing.T, opts ...Option) (*Kernel, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	allOpts := append([]Option{WithLogger(NoOpLogger{}), WithErrorSink(sink)}, opts...)
	k, err := New(allOpts...)
	require.NoError(t, err)
	t.Cleanup(k.Shutdown)
	return k, sink
}
