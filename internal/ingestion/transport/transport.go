// Package transport defines the response payloads the webhook endpoints
// return to the CRM. Every accepted event answers 200 with an outcome code;
// the CRM only retries on 5xx, so "we decided to do nothing" must never look
// like a failure.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// Outcome codes reported back to the CRM.
const (
	OutcomeCreated            = "created"
	OutcomeAlreadyExists      = "already_exists"
	OutcomeApplied            = "applied"
	OutcomeUpdated            = "updated"
	OutcomeNothingToDo        = "nothing_to_update"
	OutcomeNoStageChange      = "no_stage_change"
	OutcomeDebounced          = "debounced_initial_stage"
	OutcomeSkippedNoCandidate = "skipped_no_candidate"
	OutcomeSkippedNoContact   = "skipped_no_contact"
	OutcomeOwnerChanged       = "owner_changed"
	OutcomeOwnerUnchanged     = "owner_unchanged"
	OutcomeClosed             = "closed"
	OutcomeRecorded           = "recorded"
)

// CreateResult answers opportunity-created events.
type CreateResult struct {
	Outcome       string     `json:"outcome"`
	CandidateID   uuid.UUID  `json:"candidate_id"`
	OpportunityID string     `json:"opportunity_id"`
	InitialStage  string     `json:"initial_stage,omitempty"`
}

// UpdateResult answers opportunity-modified events.
type UpdateResult struct {
	Outcome     string    `json:"outcome"`
	CandidateID uuid.UUID `json:"candidate_id"`
}

// StageResult answers stage-change events.
type StageResult struct {
	Outcome          string     `json:"outcome"`
	EntryID          *uuid.UUID `json:"entry_id,omitempty"`
	CandidateID      *uuid.UUID `json:"candidate_id,omitempty"`
	OriginStage      *string    `json:"origin_stage,omitempty"`
	DestinationStage string     `json:"destination_stage,omitempty"`
}

// TerminalResult answers lost/abandoned events.
type TerminalResult struct {
	Outcome     string    `json:"outcome"`
	CandidateID uuid.UUID `json:"candidate_id"`
	State       string    `json:"state"`
}

// OwnershipResult answers owner-changed events.
type OwnershipResult struct {
	Outcome       string     `json:"outcome"`
	CandidateID   uuid.UUID  `json:"candidate_id"`
	PreviousOwner *uuid.UUID `json:"previous_owner,omitempty"`
	NewOwner      uuid.UUID  `json:"new_owner"`
}

// ContactResult answers contact-created/modified events.
type ContactResult struct {
	Outcome   string    `json:"outcome"`
	ContactID uuid.UUID `json:"contact_id"`
}

// NoteResult answers note-created events.
type NoteResult struct {
	Outcome string     `json:"outcome"`
	NoteID  *uuid.UUID `json:"note_id,omitempty"`
}

// AppointmentResult answers appointment-created events.
type AppointmentResult struct {
	Outcome       string    `json:"outcome"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	CandidateID   uuid.UUID `json:"candidate_id"`
	Kind          string    `json:"kind"`
}

// StageHistoryItem is one row of the admin stage-history view.
type StageHistoryItem struct {
	ID               uuid.UUID  `json:"id"`
	OriginStage      *string    `json:"origin_stage"`
	DestinationStage string     `json:"destination_stage"`
	ChangedAt        time.Time  `json:"changed_at"`
	Source           string     `json:"source"`
	ActorID          *uuid.UUID `json:"actor_id,omitempty"`
}

// OwnershipChangeItem is one row of the admin ownership-ledger view.
type OwnershipChangeItem struct {
	ID            uuid.UUID  `json:"id"`
	PreviousOwner *uuid.UUID `json:"previous_owner"`
	NewOwner      uuid.UUID  `json:"new_owner"`
	ChangedBy     uuid.UUID  `json:"changed_by"`
	ChangedAt     time.Time  `json:"changed_at"`
}
