// Package domain holds the ingestion engine's core types: the candidate
// projection, the append-only stage and ownership records, and the supporting
// contact, user, note and appointment records.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CandidateState is the lifecycle state of a candidate.
type CandidateState string

// Lifecycle states. LOST and ABANDONED are terminal.
const (
	StateOpen      CandidateState = "OPEN"
	StateLost      CandidateState = "LOST"
	StateAbandoned CandidateState = "ABANDONED"
)

// IsTerminal reports whether the state ends the candidate's lifecycle.
func (s CandidateState) IsTerminal() bool {
	return s == StateLost || s == StateAbandoned
}

// NormalizeState maps the free-form status strings the CRM emits onto the
// lifecycle states. Workflows were configured by different operators over the
// years, in two languages, so the mapping is deliberately tolerant. An
// unrecognized value is uppercased and passed through rather than dropped;
// a bad label in the projection is easier to find than a silently discarded
// update.
func NormalizeState(raw string) CandidateState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open", "abierto", "abierta":
		return StateOpen
	case "lost", "perdida", "perdido":
		return StateLost
	case "abandoned", "abandonada", "abandonado":
		return StateAbandoned
	default:
		return CandidateState(strings.ToUpper(strings.TrimSpace(raw)))
	}
}

// StageSource labels who recorded a stage-history entry.
type StageSource string

// Stage-history sources. SYSTEM entries are written by this service
// (creation snapshots); WEBHOOK entries reflect transitions reported by the
// CRM.
const (
	SourceSystem  StageSource = "SYSTEM"
	SourceWebhook StageSource = "WEBHOOK"
)

// StageUnspecified is recorded when a stage event arrives without a usable
// stage name.
const StageUnspecified = "UNSPECIFIED"

// Candidate is the mutable projection of an opportunity's current truth.
// Historical facts live in StageHistoryEntry and OwnershipChangeEntry; the
// projection only answers "where is this candidate right now".
type Candidate struct {
	ID             uuid.UUID
	OpportunityID  string
	PipelineID     *string
	ContactID      *uuid.UUID
	OwnerID        *uuid.UUID
	State          CandidateState
	CurrentStage   string
	StageChangedAt *time.Time
	InterestLevel  *string
	ClientType     *string
	Product        *string
	Project        *string
	PaymentMode    *string
	LossReason     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StageHistoryEntry is one append-only stage transition record.
// CandidateID is nullable: a WEBHOOK entry can be recorded against an
// opportunity id alone when the transition raced ahead of candidate creation.
type StageHistoryEntry struct {
	ID               uuid.UUID
	CandidateID      *uuid.UUID
	OpportunityID    string
	OriginStage      *string
	DestinationStage string
	ChangedAt        time.Time
	Source           StageSource
	ActorID          *uuid.UUID
	CreatedAt        time.Time
}

// OwnershipChangeEntry is one append-only ownership transfer record.
type OwnershipChangeEntry struct {
	ID            uuid.UUID
	CandidateID   uuid.UUID
	PreviousOwner *uuid.UUID
	NewOwner      uuid.UUID
	ChangedBy     uuid.UUID
	CreatedAt     time.Time
}

// TerminationRecord is the audit row for a terminal transition. One row per
// (candidate, state): replays of the same terminal event refresh the row
// instead of duplicating it.
type TerminationRecord struct {
	CandidateID  uuid.UUID
	State        CandidateState
	Reason       *string
	StageAtClose *string
	RecordedAt   time.Time
}

// Contact is a person record synced from the CRM.
type Contact struct {
	ID              uuid.UUID
	CRMContactID    string
	FullName        *string
	Email           *string
	Phone           *string
	NationalID      *string
	MaritalStatus   *string
	District        *string
	Profession      *string
	Source          *string
	Detail          *string
	SubDetail       *string
	SubSubDetail    *string
	SubSubSubDetail *string
	BirthDate       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// User is an internal user mirrored from the CRM user directory.
type User struct {
	ID        uuid.UUID
	CRMUserID string
	FullName  string
	Email     *string
	CreatedAt time.Time
}

// Note is a free-form note attached to a contact.
type Note struct {
	ID        uuid.UUID
	ContactID uuid.UUID
	AuthorID  *uuid.UUID
	Body      *string
	CreatedAt time.Time
}

// AppointmentKind classifies an appointment from its title.
type AppointmentKind string

// Appointment kinds inferred from title keywords.
const (
	KindPresentation AppointmentKind = "PRESENTATION"
	KindProjectVisit AppointmentKind = "PROJECT_VISIT"
	KindOther        AppointmentKind = "OTHER"
)

// InferAppointmentKind classifies an appointment title by keyword. Sales
// books these through the CRM calendar with semi-structured titles, so a
// substring match is the best signal available.
func InferAppointmentKind(title string) AppointmentKind {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "pres") || strings.Contains(lower, "office") || strings.Contains(lower, "ofic"):
		return KindPresentation
	case strings.Contains(lower, "visit") || strings.Contains(lower, "visita") || strings.Contains(lower, "proy") || strings.Contains(lower, "project"):
		return KindProjectVisit
	default:
		return KindOther
	}
}

// Appointment links a CRM calendar booking to a candidate.
type Appointment struct {
	ID               uuid.UUID
	CandidateID      uuid.UUID
	CRMAppointmentID string
	Kind             AppointmentKind
	Title            *string
	StartsAt         time.Time
	CreatedAt        time.Time
}
