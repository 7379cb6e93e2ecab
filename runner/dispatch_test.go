package runner

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/internal/testutil"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"
)

func testRunLogger() *logging.RunLogger {
	return logging.NewRunLogger(logging.NoOpLogger{}, "test")
}

func TestDispatcher_ForwardsFramesInOrder(t *testing.T) {
	out := make(chan json.RawMessage)
	done := make(chan struct{})
	d := newDispatcher(out, done, 0, func() {}, testRunLogger())

	go func() {
		d.dispatch(Normalize(testutil.NewRawEventBuilder().ID("e1").Text("a").Build()))
		d.dispatch(Normalize(testutil.NewRawEventBuilder().ID("e2").Text("b").Build()))
		d.dispatchSentinel()
		close(out)
	}()

	var ids []string
	var sawSentinel bool
	for frame := range out {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(frame, &decoded))
		if done, ok := decoded["done"]; ok {
			assert.Equal(t, true, done)
			sawSentinel = true
			continue
		}
		ids = append(ids, decoded["event_id"].(string))
	}
	assert.Equal(t, []string{"e1", "e2"}, ids)
	assert.True(t, sawSentinel)
}

func TestDispatcher_WriteTimeoutCancelsRun(t *testing.T) {
	out := make(chan json.RawMessage) // nobody reads
	done := make(chan struct{})
	cancelled := false
	d := newDispatcher(out, done, 10*time.Millisecond, func() { cancelled = true }, testRunLogger())

	d.dispatch(Normalize(testutil.NewRawEventBuilder().Text("stuck").Build()))

	assert.True(t, cancelled, "a stalled caller must cancel the agent run")
	assert.True(t, d.stalled)

	// Further dispatches are silent no-ops so aggregation can continue.
	d.dispatch(Normalize(testutil.NewRawEventBuilder().Text("late").Build()))
	d.dispatchSentinel()
	select {
	case frame := <-out:
		t.Fatalf("unexpected frame after stall: %s", frame)
	default:
	}
}

func TestDispatcher_CallerGoneStopsForwarding(t *testing.T) {
	out := make(chan json.RawMessage)
	done := make(chan struct{})
	close(done)
	cancelled := false
	d := newDispatcher(out, done, 0, func() { cancelled = true }, testRunLogger())

	d.dispatch(Normalize(testutil.NewRawEventBuilder().Text("gone").Build()))

	assert.True(t, cancelled)
	assert.True(t, d.stalled)
}
