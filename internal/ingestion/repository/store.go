// Package repository persists the ingestion engine's records in Postgres.
package repository

import (
	"context"
	"time"

	"candidate_pipeline_backend/internal/ingestion/domain"

	"github.com/google/uuid"
)

// CreateCandidateParams carries the initial projection written when an
// opportunity is first seen.
type CreateCandidateParams struct {
	OpportunityID string
	PipelineID    *string
	ContactID     *uuid.UUID
	OwnerID       *uuid.UUID
	State         domain.CandidateState
	InitialStage  string
	InterestLevel *string
	ClientType    *string
	Product       *string
	Project       *string
	PaymentMode   *string
	CreatedAt     time.Time
}

// CandidatePatch is a partial projection update. Nil fields are left
// untouched. Stage and owner are deliberately absent: those columns are
// written only through their dedicated recording paths.
type CandidatePatch struct {
	PipelineID    *string
	ContactID     *uuid.UUID
	State         *domain.CandidateState
	InterestLevel *string
	ClientType    *string
	Product       *string
	Project       *string
	PaymentMode   *string
}

// IsEmpty reports whether the patch would change nothing.
func (p CandidatePatch) IsEmpty() bool {
	return p.PipelineID == nil && p.ContactID == nil && p.State == nil &&
		p.InterestLevel == nil && p.ClientType == nil && p.Product == nil &&
		p.Project == nil && p.PaymentMode == nil
}

// InsertStageEntryParams carries one stage-history append.
type InsertStageEntryParams struct {
	CandidateID      *uuid.UUID
	OpportunityID    string
	OriginStage      *string
	DestinationStage string
	ChangedAt        time.Time
	Source           domain.StageSource
	ActorID          *uuid.UUID
}

// OwnershipChangeParams carries one ownership-ledger append.
type OwnershipChangeParams struct {
	CandidateID   uuid.UUID
	PreviousOwner *uuid.UUID
	NewOwner      uuid.UUID
	ChangedBy     uuid.UUID
}

// UpsertContactParams carries a contact sync. Nil fields do not overwrite
// existing values on conflict.
type UpsertContactParams struct {
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
}

// NoteParams carries one note insert.
type NoteParams struct {
	ContactID uuid.UUID
	AuthorID  *uuid.UUID
	Body      *string
	CreatedAt time.Time
}

// AppointmentParams carries one appointment insert.
type AppointmentParams struct {
	CandidateID      uuid.UUID
	CRMAppointmentID string
	Kind             domain.AppointmentKind
	Title            *string
	StartsAt         time.Time
}

// Store is the persistence surface the ingestion service depends on.
// Lookup methods return (nil, nil) when no row matches; errors are reserved
// for infrastructure failures.
type Store interface {
	// Candidates.
	CreateCandidate(ctx context.Context, params CreateCandidateParams) (uuid.UUID, bool, error)
	GetCandidateByOpportunityID(ctx context.Context, opportunityID string) (*domain.Candidate, error)
	GetLatestCandidateByContact(ctx context.Context, contactID uuid.UUID) (*domain.Candidate, error)
	GetLatestCandidateByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Candidate, error)
	UpdateCandidateStage(ctx context.Context, candidateID uuid.UUID, stage string, changedAt time.Time) error
	UpdateCandidateProfile(ctx context.Context, candidateID uuid.UUID, patch CandidatePatch) error
	UpdateCandidateOwner(ctx context.Context, candidateID, ownerID uuid.UUID) error
	MarkCandidateClosed(ctx context.Context, candidateID uuid.UUID, state domain.CandidateState, reason *string) error

	// Stage history.
	InsertStageEntry(ctx context.Context, params InsertStageEntryParams) (uuid.UUID, error)
	LatestStageEntry(ctx context.Context, opportunityID string) (*domain.StageHistoryEntry, error)
	ListStageHistory(ctx context.Context, candidateID uuid.UUID) ([]domain.StageHistoryEntry, error)

	// Terminations.
	UpsertTermination(ctx context.Context, record domain.TerminationRecord) error

	// Ownership ledger.
	InsertOwnershipChange(ctx context.Context, params OwnershipChangeParams) (uuid.UUID, error)
	ListOwnershipChanges(ctx context.Context, candidateID uuid.UUID) ([]domain.OwnershipChangeEntry, error)

	// Contacts and users.
	UpsertContact(ctx context.Context, params UpsertContactParams) (uuid.UUID, error)
	GetContactByCRMID(ctx context.Context, crmContactID string) (*domain.Contact, error)
	GetUserByCRMID(ctx context.Context, crmUserID string) (*domain.User, error)

	// Activity records.
	InsertNote(ctx context.Context, params NoteParams) (uuid.UUID, error)
	InsertAppointment(ctx context.Context, params AppointmentParams) (uuid.UUID, error)
}
