package runner

import "github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"

// Phase names the orchestration stage a message run is in. Runs move strictly
// forward through the phases; PhaseErrored is reachable from any of them.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseSessionEnsuring Phase = "session_ensuring"
	PhaseHumanPersisting Phase = "human_persisting"
	PhaseAgentStreaming  Phase = "agent_streaming"
	PhaseFinalizing      Phase = "finalizing"
	PhaseDone            Phase = "done"
	PhaseErrored         Phase = "errored"
)

// phaseTracker records phase transitions for one run. Transitions are logged
// rather than enforced; the orchestrator's control flow is the machine.
type phaseTracker struct {
	current Phase
	logger  *logging.RunLogger
}

func newPhaseTracker(logger *logging.RunLogger) *phaseTracker {
	return &phaseTracker{current: PhaseIdle, logger: logger}
}

func (t *phaseTracker) advance(to Phase) {
	t.logger.LogPhase(string(t.current), string(to))
	t.current = to
}

func (t *phaseTracker) fail() { t.advance(PhaseErrored) }
