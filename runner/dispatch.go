package runner

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"
)

// errStreamStalled is returned by the dispatcher when the caller failed to
// accept a frame within the configured write timeout. The pipeline then
// cancels the agent run but keeps aggregating whatever events still arrive so
// the partial turn is persisted.
var errStreamStalled = errors.New("caller stream stalled")

// sentinel is the single terminal frame emitted after the event stream ends,
// distinguishable from any AgentEvent payload by its lone completion marker.
type sentinel struct {
	Done bool `json:"done"`
}

// dispatcher forwards each event to the caller as a framed JSON object the
// moment it is produced, before the pipeline proceeds to the next event. It
// never buffers more than the single in-flight frame: the out channel is
// unbuffered, so backpressure from a slow caller stalls consumption from the
// agent runtime.
type dispatcher struct {
	out     chan<- json.RawMessage
	done    <-chan struct{}
	timeout time.Duration // 0 disables the write timeout
	cancel  func()        // cancels the agent run when the caller stalls
	logger  *logging.RunLogger

	stalled bool
}

func newDispatcher(out chan<- json.RawMessage, done <-chan struct{}, timeout time.Duration, cancel func(), logger *logging.RunLogger) *dispatcher {
	return &dispatcher{out: out, done: done, timeout: timeout, cancel: cancel, logger: logger}
}

// dispatch serializes ev and hands it to the caller. After a stall or caller
// disconnect it becomes a no-op so aggregation can continue undisturbed.
func (d *dispatcher) dispatch(ev core.AgentEvent) {
	if d.stalled {
		return
	}
	frame, err := json.Marshal(ev)
	if err != nil {
		// Events are built from JSON-safe fields; a marshal failure is a bug,
		// but it must not take down the run.
		d.logger.Error("failed to serialize event frame", "event_id", ev.EventID, "error", err.Error())
		return
	}
	if err := d.send(frame); err != nil {
		d.handleSendFailure(err)
	}
}

// dispatchSentinel emits the terminal frame. Exactly one sentinel is sent per
// successful stream; a stalled or disconnected caller receives none.
func (d *dispatcher) dispatchSentinel() {
	if d.stalled {
		return
	}
	frame, _ := json.Marshal(sentinel{Done: true})
	if err := d.send(frame); err != nil {
		d.handleSendFailure(err)
	}
}

func (d *dispatcher) send(frame json.RawMessage) error {
	if d.timeout <= 0 {
		select {
		case d.out <- frame:
			return nil
		case <-d.done:
			return d.contextError()
		}
	}

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	select {
	case d.out <- frame:
		return nil
	case <-d.done:
		return d.contextError()
	case <-timer.C:
		return errStreamStalled
	}
}

func (d *dispatcher) contextError() error { return errors.New("caller context done") }

func (d *dispatcher) handleSendFailure(err error) {
	d.stalled = true
	if errors.Is(err, errStreamStalled) {
		d.logger.Warn("caller stalled, cancelling agent run", "write_timeout", d.timeout.String())
	} else {
		d.logger.Debug("caller gone, stopping event forwarding", "reason", err.Error())
	}
	if d.cancel != nil {
		d.cancel()
	}
}
