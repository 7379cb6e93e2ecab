package artifact

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// InMemoryStore is an in-process ArtifactStore implementation useful for
// tests, examples and single-process prototypes. Records are guarded by an
// RWMutex and deep-copied on save and retrieval so callers never mutate
// internal state.
//
// It does not enforce retention limits, size quotas or eviction. For
// production, prefer a durable implementation that survives process restarts.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]*core.Artifact
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: map[string]*core.Artifact{}}
}

// SaveArtifact stores the artifact, assigning an id and timestamps when
// absent, and returns the stored copy.
func (s *InMemoryStore) SaveArtifact(ctx context.Context, artifact *core.Artifact) (*core.Artifact, error) {
	if artifact.SessionID == "" || artifact.UserID == "" {
		return nil, fmt.Errorf("artifact requires session and user ids")
	}
	stored := artifact.Clone()
	if stored.ID == "" {
		stored.ID = core.NewID()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[stored.ID] = stored
	return stored.Clone(), nil
}

// GetArtifact returns the artifact by id, or core.ErrNotFound.
func (s *InMemoryStore) GetArtifact(ctx context.Context, artifactID string) (*core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[artifactID]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", artifactID, core.ErrNotFound)
	}
	return a.Clone(), nil
}

// ListSessionArtifacts returns the session's artifacts in creation order.
func (s *InMemoryStore) ListSessionArtifacts(ctx context.Context, sessionID string) ([]*core.Artifact, error) {
	return s.list(func(a *core.Artifact) bool { return a.SessionID == sessionID }), nil
}

// ListTurnArtifacts returns the artifacts attached to one turn in creation
// order.
func (s *InMemoryStore) ListTurnArtifacts(ctx context.Context, turnID string) ([]*core.Artifact, error) {
	return s.list(func(a *core.Artifact) bool { return a.TurnID == turnID }), nil
}

// UpdateArtifactStatus moves the artifact to the given lifecycle status.
func (s *InMemoryStore) UpdateArtifactStatus(ctx context.Context, artifactID string, status core.ArtifactStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[artifactID]
	if !ok {
		return fmt.Errorf("artifact %s: %w", artifactID, core.ErrNotFound)
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteArtifact removes the artifact.
func (s *InMemoryStore) DeleteArtifact(ctx context.Context, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[artifactID]; !ok {
		return fmt.Errorf("artifact %s: %w", artifactID, core.ErrNotFound)
	}
	delete(s.artifacts, artifactID)
	return nil
}

func (s *InMemoryStore) list(match func(*core.Artifact) bool) []*core.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Artifact
	for _, a := range s.artifacts {
		if match(a) {
			out = append(out, a.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Interface compliance (compile-time assertion).
var _ core.ArtifactStore = (*InMemoryStore)(nil)
