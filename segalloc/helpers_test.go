package segalloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/segheap/segheap/simheap"
)

func newTestAllocator(t testing.TB, capacity int) *Allocator {
	t.Helper()
	sim, err := simheap.New(capacity)
	require.NoError(t, err)
	t.Cleanup(sim.Close)

	a, err := NewAllocator(sim)
	require.NoError(t, err)
	return a
}
