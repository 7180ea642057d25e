// Package events defines the domain events emitted by the ingestion engine.
package events

import (
	"github.com/google/uuid"
)

// Event names, matched by Subscribe calls.
const (
	NameCandidateCreated       = "candidate.created"
	NameStageTransitionApplied = "candidate.stage_transition_applied"
	NameCandidateClosed        = "candidate.closed"
	NameOwnerChanged           = "candidate.owner_changed"
)

// CandidateCreated fires once per external opportunity id, on first creation.
type CandidateCreated struct {
	BaseEvent
	CandidateID   uuid.UUID
	OpportunityID string
	InitialStage  string
}

// EventName returns the unique event identifier.
func (e CandidateCreated) EventName() string { return NameCandidateCreated }

// StageTransitionApplied fires after a stage-history entry is appended and
// the candidate projection updated.
type StageTransitionApplied struct {
	BaseEvent
	CandidateID      *uuid.UUID
	OpportunityID    string
	OriginStage      *string
	DestinationStage string
}

// EventName returns the unique event identifier.
func (e StageTransitionApplied) EventName() string { return NameStageTransitionApplied }

// CandidateClosed fires after a terminal transition (lost or abandoned).
// The CRM adapter subscribes to clear the external assignee so the
// opportunity can be reassigned.
type CandidateClosed struct {
	BaseEvent
	CandidateID   uuid.UUID
	OpportunityID string
	State         string
	Reason        *string
}

// EventName returns the unique event identifier.
func (e CandidateClosed) EventName() string { return NameCandidateClosed }

// OwnerChanged fires after an ownership change is recorded.
type OwnerChanged struct {
	BaseEvent
	CandidateID   uuid.UUID
	PreviousOwner *uuid.UUID
	NewOwner      uuid.UUID
	ChangedBy     uuid.UUID
}

// EventName returns the unique event identifier.
func (e OwnerChanged) EventName() string { return NameOwnerChanged }
