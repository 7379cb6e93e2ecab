package core

import (
	"encoding/json"
	"time"
)

// ArtifactType categorizes artifact payloads.
type ArtifactType string

// AI-generated artifact types.
const (
	ArtifactChart          ArtifactType = "chart"
	ArtifactReport         ArtifactType = "report"
	ArtifactAnalysis       ArtifactType = "analysis"
	ArtifactRecommendation ArtifactType = "recommendation"
	ArtifactVisualization  ArtifactType = "visualization"
	ArtifactDataExport     ArtifactType = "data_export"
)

// User-uploaded artifact types.
const (
	ArtifactPDF         ArtifactType = "pdf"
	ArtifactCSV         ArtifactType = "csv"
	ArtifactImage       ArtifactType = "image"
	ArtifactDocument    ArtifactType = "document"
	ArtifactSpreadsheet ArtifactType = "spreadsheet"
	ArtifactOther       ArtifactType = "other"
)

// ArtifactSource records where an artifact came from.
type ArtifactSource string

const (
	SourceUserUpload  ArtifactSource = "user_upload"
	SourceAIGenerated ArtifactSource = "ai_generated"
)

// ArtifactStatus tracks an artifact through its lifecycle. The consent states
// are set by the external consent workflow; this backend only records them.
type ArtifactStatus string

const (
	ArtifactPending         ArtifactStatus = "pending"
	ArtifactProcessing      ArtifactStatus = "processing"
	ArtifactCompleted       ArtifactStatus = "completed"
	ArtifactFailed          ArtifactStatus = "failed"
	ArtifactConsentRequired ArtifactStatus = "consent_required"
	ArtifactConsentDenied   ArtifactStatus = "consent_denied"
)

// Artifact is a generated or uploaded asset (chart, report, file) attached to
// a turn within a session.
type Artifact struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	UserID      string          `json:"user_id"`
	TurnID      string          `json:"turn_id"`
	Type        ArtifactType    `json:"artifact_type"`
	Source      ArtifactSource  `json:"source"`
	Status      ArtifactStatus  `json:"status"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`

	// Consent flags are owned by the external consent workflow.
	ConsentRequired bool  `json:"consent_required"`
	ConsentGranted  *bool `json:"consent_granted,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy safe for independent mutation.
func (a *Artifact) Clone() *Artifact {
	cp := *a
	if a.Description != nil {
		v := *a.Description
		cp.Description = &v
	}
	cp.Content = append(json.RawMessage(nil), a.Content...)
	if a.Metadata != nil {
		cp.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			cp.Metadata[k] = v
		}
	}
	if a.ConsentGranted != nil {
		v := *a.ConsentGranted
		cp.ConsentGranted = &v
	}
	return &cp
}
