package core

import (
	"strings"
	"time"
)

// Role identifies which side of the conversation authored a turn.
type Role string

const (
	// RoleHuman marks a turn holding the user's prompt.
	RoleHuman Role = "human"
	// RoleAssistant marks a turn holding the aggregated agent response.
	RoleAssistant Role = "assistant"
	// RoleSystem marks backend-injected turns (announcements, migrations).
	RoleSystem Role = "system"
)

// TurnError summarizes one erroneous event inside a turn, keyed by event id in
// ConversationTurn.ErrorSummary.
type TurnError struct {
	Code    string  `json:"error_code"`
	Message *string `json:"error_message,omitempty"`
}

// ConversationTurn is one logical unit of dialogue. A human turn carries
// HumanContent; an assistant turn carries the ordered Events collected during
// the run plus the derived fields computed on finalize (Authors,
// AggregateUsage, HasErrors, ProcessingComplete). SessionID and UserID are
// immutable once set. Events are append-only while the turn is live and frozen
// once ProcessingComplete is decided.
type ConversationTurn struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"session_id"`
	UserID       string       `json:"user_id"`
	Role         Role         `json:"role"`
	HumanContent *string      `json:"human_content,omitempty"`
	Events       []AgentEvent `json:"events,omitempty"`
	ParentTurnID *string      `json:"parent_turn_id,omitempty"`

	// Derived fields, computed once when the event stream ends.
	Authors            []string             `json:"authors,omitempty"`
	AggregateUsage     *UsageMetadata       `json:"aggregate_usage,omitempty"`
	HasErrors          bool                 `json:"has_errors"`
	ErrorSummary       map[string]TurnError `json:"error_summary,omitempty"`
	ProcessingComplete bool                 `json:"processing_complete"`

	Artifacts []string       `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewHumanTurn constructs a human turn ready for persistence.
func NewHumanTurn(sessionID, userID, content string) *ConversationTurn {
	now := time.Now().UTC()
	return &ConversationTurn{
		ID:           NewID(),
		SessionID:    sessionID,
		UserID:       userID,
		Role:         RoleHuman,
		HumanContent: &content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Text returns the turn's conversational text: the human prompt for human
// turns, or the in-order concatenation of event text fragments for assistant
// turns.
func (t *ConversationTurn) Text() string {
	if t.Role == RoleHuman {
		if t.HumanContent == nil {
			return ""
		}
		return *t.HumanContent
	}
	var b strings.Builder
	for _, ev := range t.Events {
		b.WriteString(ev.Text())
	}
	return b.String()
}

// Clone returns a deep copy safe for independent mutation by callers.
func (t *ConversationTurn) Clone() *ConversationTurn {
	cp := *t
	if t.HumanContent != nil {
		v := *t.HumanContent
		cp.HumanContent = &v
	}
	if t.ParentTurnID != nil {
		v := *t.ParentTurnID
		cp.ParentTurnID = &v
	}
	cp.Events = append([]AgentEvent(nil), t.Events...)
	cp.Authors = append([]string(nil), t.Authors...)
	cp.Artifacts = append([]string(nil), t.Artifacts...)
	if t.AggregateUsage != nil {
		u := *t.AggregateUsage
		cp.AggregateUsage = &u
	}
	if t.ErrorSummary != nil {
		cp.ErrorSummary = make(map[string]TurnError, len(t.ErrorSummary))
		for k, v := range t.ErrorSummary {
			cp.ErrorSummary[k] = v
		}
	}
	if t.Metadata != nil {
		cp.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
