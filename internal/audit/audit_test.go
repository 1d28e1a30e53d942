package audit

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edison-dev/edison/internal/paths"
)

func newTestResolver(t *testing.T) *paths.Resolver {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(root+"/.edison", 0o755))
	r, err := paths.Resolve(root)
	require.NoError(t, err)
	return r
}

func TestAppendThenTailPreservesOrder(t *testing.T) {
	sink := NewSink(newTestResolver(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, sink.Append("tasks", map[string]int{"seq": i}))
	}

	events, err := sink.Tail("tasks")
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "tasks", events[0].Stream)
	for i, e := range events {
		require.Equal(t, map[string]any{"seq": float64(i)}, e.Data)
	}
}

func TestTailEmptyStreamReturnsNil(t *testing.T) {
	sink := NewSink(newTestResolver(t))
	events, err := sink.Tail("never-written")
	require.NoError(t, err)
	require.Nil(t, events)
}
