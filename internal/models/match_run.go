package models

import (
	"fmt"
	"time"
)

var _ Model = (*MatchRun)(nil)

// MatchRun records one match submission that reached a terminal state.
type MatchRun struct {
	id        string
	createdAt time.Time
	updatedAt time.Time

	Reference ImageReference
	Gallery   []ImageReference
	Matches   []ImageReference
	State     WorkflowState
	Error     string
	ElapsedMS float64
}

// NewMatchRun creates a MatchRun with the given id and timestamps set to now.
func NewMatchRun(id string, reference ImageReference, gallery []ImageReference) *MatchRun {
	now := time.Now().UTC()
	return &MatchRun{
		id:        id,
		createdAt: now,
		updatedAt: now,
		Reference: reference,
		Gallery:   append([]ImageReference(nil), gallery...),
	}
}

// RestoreMatchRun rebuilds a MatchRun loaded from storage.
func RestoreMatchRun(id string, createdAt, updatedAt time.Time) *MatchRun {
	return &MatchRun{id: id, createdAt: createdAt, updatedAt: updatedAt}
}

func (m *MatchRun) ID() string           { return m.id }
func (m *MatchRun) CreatedAt() time.Time { return m.createdAt }
func (m *MatchRun) UpdatedAt() time.Time { return m.updatedAt }

// Touch bumps the update timestamp.
func (m *MatchRun) Touch() { m.updatedAt = time.Now().UTC() }

// Validate requires an id and a terminal state.
func (m *MatchRun) Validate() error {
	if m.id == "" {
		return fmt.Errorf("match run id is required")
	}
	if !m.State.Terminal() {
		return fmt.Errorf("match run %s has non-terminal state %s", m.id, m.State)
	}
	return nil
}
