package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/internal/testutil"
)

func TestRegistry_EnsureIdempotent(t *testing.T) {
	rt := testutil.NewScriptedRuntime()
	reg := NewRegistry(rt, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, reg.Ensure(context.Background(), "user-1", "sess-1"))
	}
	assert.Equal(t, 1, rt.CreateCalls())
	assert.True(t, reg.Known("user-1", "sess-1"))
}

func TestRegistry_PairsAreIndependent(t *testing.T) {
	rt := testutil.NewScriptedRuntime()
	reg := NewRegistry(rt, nil)

	require.NoError(t, reg.Ensure(context.Background(), "user-1", "sess-1"))
	require.NoError(t, reg.Ensure(context.Background(), "user-2", "sess-1"))
	require.NoError(t, reg.Ensure(context.Background(), "user-1", "sess-2"))
	assert.Equal(t, 3, rt.CreateCalls())
}

func TestRegistry_ConcurrentEnsureCreatesOnce(t *testing.T) {
	rt := testutil.NewScriptedRuntime()
	reg := NewRegistry(rt, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, reg.Ensure(context.Background(), "user-1", "sess-1"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, rt.CreateCalls())
}

func TestRegistry_FailedCreationIsRetryable(t *testing.T) {
	rt := testutil.NewScriptedRuntime()
	rt.CreateErr = assert.AnError
	reg := NewRegistry(rt, nil)

	err := reg.Ensure(context.Background(), "user-1", "sess-1")
	require.ErrorIs(t, err, core.ErrRuntimeUnavailable)
	assert.False(t, reg.Known("user-1", "sess-1"))

	rt.CreateErr = nil
	require.NoError(t, reg.Ensure(context.Background(), "user-1", "sess-1"))
	assert.True(t, reg.Known("user-1", "sess-1"))
}

func TestRegistry_DropForgetsPair(t *testing.T) {
	rt := testutil.NewScriptedRuntime()
	reg := NewRegistry(rt, nil)

	require.NoError(t, reg.Ensure(context.Background(), "user-1", "sess-1"))
	reg.Drop("user-1", "sess-1")
	assert.False(t, reg.Known("user-1", "sess-1"))

	require.NoError(t, reg.Ensure(context.Background(), "user-1", "sess-1"))
	assert.Equal(t, 2, rt.CreateCalls())
}
