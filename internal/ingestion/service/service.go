// Package service implements the ingestion engine's event processing: it
// turns tolerant payload reads into decisions against stored state and
// records the outcome.
package service

import (
	"context"
	"time"

	"candidate_pipeline_backend/internal/events"
	"candidate_pipeline_backend/internal/ingestion/domain"
	"candidate_pipeline_backend/internal/ingestion/payload"
	"candidate_pipeline_backend/internal/ingestion/repository"
	"candidate_pipeline_backend/internal/ingestion/resolver"
	"candidate_pipeline_backend/internal/ingestion/transport"
	"candidate_pipeline_backend/platform/apperr"
	"candidate_pipeline_backend/platform/config"
	"candidate_pipeline_backend/platform/logger"
	"candidate_pipeline_backend/platform/phone"
	"candidate_pipeline_backend/platform/validator"

	"github.com/google/uuid"
)

// Service processes inbound CRM webhook events.
type Service struct {
	store    repository.Store
	resolver *resolver.Resolver
	bus      events.Bus
	log      *logger.Logger
	validate *validator.Validator
	debounce time.Duration

	// now is swapped in tests.
	now func() time.Time
}

// New creates the ingestion service.
func New(store repository.Store, res *resolver.Resolver, bus events.Bus, log *logger.Logger, cfg config.WebhookConfig) *Service {
	return &Service{
		store:    store,
		resolver: res,
		bus:      bus,
		log:      log,
		validate: validator.New(),
		debounce: cfg.GetStageDebounceWindow(),
		now:      time.Now,
	}
}

// candidateQuery collects every identifier the payload offers for the
// resolution chain.
func candidateQuery(doc payload.Document) resolver.CandidateQuery {
	q := resolver.CandidateQuery{}
	q.OpportunityID, _ = doc.ExternalID(payload.FieldOpportunityID)
	q.ContactID, _ = doc.ExternalID(payload.FieldContactID)
	q.Email, _ = doc.String(payload.FieldEmail)
	if raw, ok := doc.String(payload.FieldPhone); ok {
		q.Phone = phone.NormalizeE164(raw)
	}
	return q
}

func optional(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

// CreateOpportunity handles opportunity-created events. Creation is
// insert-if-absent: a replayed event acknowledges without touching the
// stored projection or appending history.
func (s *Service) CreateOpportunity(ctx context.Context, doc payload.Document) (transport.CreateResult, error) {
	opportunityID, ok := doc.ExternalID(payload.FieldOpportunityID)
	if !ok {
		return transport.CreateResult{}, apperr.BadRequest("missing opportunity id")
	}

	contact, err := s.resolver.ResolveContact(ctx, externalID(doc, payload.FieldContactID))
	if err != nil {
		return transport.CreateResult{}, apperr.StoreFailure("create_opportunity", err)
	}
	owner, err := s.resolver.ResolveUser(ctx, externalID(doc, payload.FieldOwnerID))
	if err != nil {
		return transport.CreateResult{}, apperr.StoreFailure("create_opportunity", err)
	}

	initialStage := doc.StringOr(payload.FieldStage, domain.StageUnspecified)
	createdAt := doc.TimestampOr(payload.FieldEventAt, s.now())

	params := repository.CreateCandidateParams{
		OpportunityID: opportunityID,
		PipelineID:    optional(doc.String(payload.FieldPipelineID)),
		State:         domain.StateOpen,
		InitialStage:  initialStage,
		InterestLevel: optional(doc.String(payload.FieldInterestLevel)),
		ClientType:    optional(doc.String(payload.FieldClientType)),
		Product:       optional(doc.String(payload.FieldProduct)),
		Project:       optional(doc.String(payload.FieldProject)),
		PaymentMode:   optional(doc.String(payload.FieldPaymentMode)),
		CreatedAt:     createdAt,
	}
	if contact != nil {
		params.ContactID = &contact.ID
	}
	if owner != nil {
		params.OwnerID = &owner.ID
	}

	candidateID, created, err := s.store.CreateCandidate(ctx, params)
	if err != nil {
		return transport.CreateResult{}, apperr.StoreFailure("create_opportunity", err)
	}
	if !created {
		s.log.WebhookEvent("opportunity_created", transport.OutcomeAlreadyExists, opportunityID)
		return transport.CreateResult{
			Outcome:       transport.OutcomeAlreadyExists,
			CandidateID:   candidateID,
			OpportunityID: opportunityID,
		}, nil
	}

	// The creation snapshot anchors the history: origin is nil because no
	// prior stage existed.
	_, err = s.store.InsertStageEntry(ctx, repository.InsertStageEntryParams{
		CandidateID:      &candidateID,
		OpportunityID:    opportunityID,
		DestinationStage: initialStage,
		ChangedAt:        createdAt,
		Source:           domain.SourceSystem,
	})
	if err != nil {
		return transport.CreateResult{}, apperr.StoreFailure("create_opportunity", err)
	}

	s.bus.Publish(ctx, events.CandidateCreated{
		BaseEvent:     events.NewBaseEvent(),
		CandidateID:   candidateID,
		OpportunityID: opportunityID,
		InitialStage:  initialStage,
	})
	s.log.WebhookEvent("opportunity_created", transport.OutcomeCreated, opportunityID)

	return transport.CreateResult{
		Outcome:       transport.OutcomeCreated,
		CandidateID:   candidateID,
		OpportunityID: opportunityID,
		InitialStage:  initialStage,
	}, nil
}

// ModifyOpportunity handles opportunity-modified events with a partial
// projection update. Stage and owner are never written here; those columns
// belong to RecordStageChange and ChangeOwner respectively.
func (s *Service) ModifyOpportunity(ctx context.Context, doc payload.Document) (transport.UpdateResult, error) {
	opportunityID, ok := doc.ExternalID(payload.FieldOpportunityID)
	if !ok {
		return transport.UpdateResult{}, apperr.BadRequest("missing opportunity id")
	}

	cand, err := s.store.GetCandidateByOpportunityID(ctx, opportunityID)
	if err != nil {
		return transport.UpdateResult{}, apperr.StoreFailure("modify_opportunity", err)
	}
	if cand == nil {
		return transport.UpdateResult{}, apperr.NotFound("candidate not found")
	}

	patch := repository.CandidatePatch{
		PipelineID:    optional(doc.String(payload.FieldPipelineID)),
		InterestLevel: optional(doc.String(payload.FieldInterestLevel)),
		ClientType:    optional(doc.String(payload.FieldClientType)),
		Product:       optional(doc.String(payload.FieldProduct)),
		Project:       optional(doc.String(payload.FieldProject)),
		PaymentMode:   optional(doc.String(payload.FieldPaymentMode)),
	}
	if raw, ok := doc.String(payload.FieldState); ok {
		state := domain.NormalizeState(raw)
		patch.State = &state
	}
	if contactID := externalID(doc, payload.FieldContactID); contactID != "" {
		contact, err := s.resolver.ResolveContact(ctx, contactID)
		if err != nil {
			return transport.UpdateResult{}, apperr.StoreFailure("modify_opportunity", err)
		}
		if contact != nil {
			patch.ContactID = &contact.ID
		}
	}

	if patch.IsEmpty() {
		s.log.WebhookEvent("opportunity_modified", transport.OutcomeNothingToDo, opportunityID)
		return transport.UpdateResult{Outcome: transport.OutcomeNothingToDo, CandidateID: cand.ID}, nil
	}

	if err := s.store.UpdateCandidateProfile(ctx, cand.ID, patch); err != nil {
		return transport.UpdateResult{}, apperr.StoreFailure("modify_opportunity", err)
	}
	s.log.WebhookEvent("opportunity_modified", transport.OutcomeUpdated, opportunityID)
	return transport.UpdateResult{Outcome: transport.OutcomeUpdated, CandidateID: cand.ID}, nil
}

// RecordStageChange handles stage-change events. The read-decide-write
// sequence settles the effective origin, suppresses no-op transitions and
// creation echoes, then appends and refreshes the projection.
func (s *Service) RecordStageChange(ctx context.Context, doc payload.Document) (transport.StageResult, error) {
	opportunityID, ok := doc.ExternalID(payload.FieldOpportunityID)
	if !ok {
		return transport.StageResult{}, apperr.BadRequest("missing opportunity id")
	}

	destination := doc.StringOr(payload.FieldDestinationStage, domain.StageUnspecified)
	eventOrigin := optional(doc.String(payload.FieldOriginStage))
	changedAt := doc.TimestampOr(payload.FieldEventAt, s.now())

	cand, err := s.resolver.ResolveCandidate(ctx, candidateQuery(doc))
	if err != nil {
		return transport.StageResult{}, apperr.StoreFailure("record_stage_change", err)
	}
	latest, err := s.store.LatestStageEntry(ctx, opportunityID)
	if err != nil {
		return transport.StageResult{}, apperr.StoreFailure("record_stage_change", err)
	}

	// Stage events regularly race ahead of opportunity creation. With no
	// candidate and no history there is nothing to anchor the transition to,
	// so acknowledge and let the CRM's later events rebuild the picture.
	if cand == nil && latest == nil {
		s.log.WebhookEvent("stage_change", transport.OutcomeSkippedNoCandidate, opportunityID)
		return transport.StageResult{Outcome: transport.OutcomeSkippedNoCandidate}, nil
	}

	origin := effectiveOrigin(eventOrigin, cand, latest)

	if origin != nil && *origin == destination {
		s.log.WebhookEvent("stage_change", transport.OutcomeNoStageChange, opportunityID)
		return transport.StageResult{
			Outcome:          transport.OutcomeNoStageChange,
			OriginStage:      origin,
			DestinationStage: destination,
		}, nil
	}

	// The CRM echoes the initial stage back through the stage-change webhook
	// shortly after creation. A webhook transition landing on the same stage
	// the creation snapshot just recorded, within the window, is that echo.
	if latest != nil && latest.Source == domain.SourceSystem &&
		latest.DestinationStage == destination &&
		absDuration(changedAt.Sub(latest.ChangedAt)) <= s.debounce {
		s.log.WebhookEvent("stage_change", transport.OutcomeDebounced, opportunityID)
		return transport.StageResult{
			Outcome:          transport.OutcomeDebounced,
			DestinationStage: destination,
		}, nil
	}

	actor, err := s.resolver.ResolveUser(ctx, externalID(doc, payload.FieldUserID))
	if err != nil {
		return transport.StageResult{}, apperr.StoreFailure("record_stage_change", err)
	}

	params := repository.InsertStageEntryParams{
		OpportunityID:    opportunityID,
		OriginStage:      origin,
		DestinationStage: destination,
		ChangedAt:        changedAt,
		Source:           domain.SourceWebhook,
	}
	if cand != nil {
		params.CandidateID = &cand.ID
	}
	if actor != nil {
		params.ActorID = &actor.ID
	}

	entryID, err := s.store.InsertStageEntry(ctx, params)
	if err != nil {
		return transport.StageResult{}, apperr.StoreFailure("record_stage_change", err)
	}

	result := transport.StageResult{
		Outcome:          transport.OutcomeApplied,
		EntryID:          &entryID,
		OriginStage:      origin,
		DestinationStage: destination,
	}
	if cand != nil {
		if err := s.store.UpdateCandidateStage(ctx, cand.ID, destination, changedAt); err != nil {
			return transport.StageResult{}, apperr.StoreFailure("record_stage_change", err)
		}
		result.CandidateID = &cand.ID
	}

	evt := events.StageTransitionApplied{
		BaseEvent:        events.NewBaseEvent(),
		CandidateID:      result.CandidateID,
		OpportunityID:    opportunityID,
		OriginStage:      origin,
		DestinationStage: destination,
	}
	s.bus.Publish(ctx, evt)
	s.log.WebhookEvent("stage_change", transport.OutcomeApplied, opportunityID)
	return result, nil
}

// effectiveOrigin settles where the candidate was before this transition:
// the event's claim wins, then the projection, then the last recorded
// destination. All three can be absent for pre-creation entries.
func effectiveOrigin(eventOrigin *string, cand *domain.Candidate, latest *domain.StageHistoryEntry) *string {
	if eventOrigin != nil {
		return eventOrigin
	}
	if cand != nil && cand.CurrentStage != "" {
		stage := cand.CurrentStage
		return &stage
	}
	if latest != nil {
		stage := latest.DestinationStage
		return &stage
	}
	return nil
}

// MarkLost handles opportunity-lost events.
func (s *Service) MarkLost(ctx context.Context, doc payload.Document) (transport.TerminalResult, error) {
	return s.terminal(ctx, doc, domain.StateLost, "opportunity_lost")
}

// MarkAbandoned handles opportunity-abandoned events.
func (s *Service) MarkAbandoned(ctx context.Context, doc payload.Document) (transport.TerminalResult, error) {
	return s.terminal(ctx, doc, domain.StateAbandoned, "opportunity_abandoned")
}

// terminal closes a candidate and upserts the termination audit row. A
// terminal event for an unknown candidate is a hard failure: losing a close
// silently would leave the projection open forever.
func (s *Service) terminal(ctx context.Context, doc payload.Document, state domain.CandidateState, eventType string) (transport.TerminalResult, error) {
	opportunityID, ok := doc.ExternalID(payload.FieldOpportunityID)
	if !ok {
		return transport.TerminalResult{}, apperr.BadRequest("missing opportunity id")
	}

	cand, err := s.resolver.ResolveCandidate(ctx, candidateQuery(doc))
	if err != nil {
		return transport.TerminalResult{}, apperr.StoreFailure(eventType, err)
	}
	if cand == nil {
		return transport.TerminalResult{}, apperr.NotFound("candidate not found")
	}

	reason := optional(doc.String(payload.FieldLossReason))

	if err := s.store.MarkCandidateClosed(ctx, cand.ID, state, reason); err != nil {
		return transport.TerminalResult{}, apperr.StoreFailure(eventType, err)
	}

	var stageAtClose *string
	if cand.CurrentStage != "" {
		stage := cand.CurrentStage
		stageAtClose = &stage
	}
	record := domain.TerminationRecord{
		CandidateID:  cand.ID,
		State:        state,
		Reason:       reason,
		StageAtClose: stageAtClose,
		RecordedAt:   s.now(),
	}
	if err := s.store.UpsertTermination(ctx, record); err != nil {
		return transport.TerminalResult{}, apperr.StoreFailure(eventType, err)
	}

	s.bus.Publish(ctx, events.CandidateClosed{
		BaseEvent:     events.NewBaseEvent(),
		CandidateID:   cand.ID,
		OpportunityID: cand.OpportunityID,
		State:         string(state),
		Reason:        reason,
	})
	s.log.WebhookEvent(eventType, transport.OutcomeClosed, opportunityID)

	return transport.TerminalResult{
		Outcome:     transport.OutcomeClosed,
		CandidateID: cand.ID,
		State:       string(state),
	}, nil
}

// ChangeOwner handles owner-changed events with compare-and-log semantics:
// the ledger gains a row only when ownership actually moves. Unknown new
// owners and unknown actors fail hard; an unattributable transfer is worse
// than a retried one.
func (s *Service) ChangeOwner(ctx context.Context, doc payload.Document) (transport.OwnershipResult, error) {
	opportunityID, ok := doc.ExternalID(payload.FieldOpportunityID)
	if !ok {
		return transport.OwnershipResult{}, apperr.BadRequest("missing opportunity id")
	}
	newOwnerID, ok := doc.ExternalID(payload.FieldNewOwnerID)
	if !ok {
		return transport.OwnershipResult{}, apperr.BadRequest("missing new owner id")
	}
	changedByID, ok := doc.ExternalID(payload.FieldChangedBy)
	if !ok {
		return transport.OwnershipResult{}, apperr.BadRequest("missing changed_by")
	}

	cand, err := s.resolver.ResolveCandidate(ctx, candidateQuery(doc))
	if err != nil {
		return transport.OwnershipResult{}, apperr.StoreFailure("owner_changed", err)
	}
	if cand == nil {
		return transport.OwnershipResult{}, apperr.NotFound("candidate not found")
	}

	newOwner, err := s.resolver.ResolveUser(ctx, newOwnerID)
	if err != nil {
		return transport.OwnershipResult{}, apperr.StoreFailure("owner_changed", err)
	}
	if newOwner == nil {
		return transport.OwnershipResult{}, apperr.NotFound("new owner not found")
	}
	actor, err := s.resolver.ResolveUser(ctx, changedByID)
	if err != nil {
		return transport.OwnershipResult{}, apperr.StoreFailure("owner_changed", err)
	}
	if actor == nil {
		return transport.OwnershipResult{}, apperr.NotFound("acting user not found")
	}

	if cand.OwnerID != nil && *cand.OwnerID == newOwner.ID {
		s.log.WebhookEvent("owner_changed", transport.OutcomeOwnerUnchanged, opportunityID)
		return transport.OwnershipResult{
			Outcome:     transport.OutcomeOwnerUnchanged,
			CandidateID: cand.ID,
			NewOwner:    newOwner.ID,
		}, nil
	}

	_, err = s.store.InsertOwnershipChange(ctx, repository.OwnershipChangeParams{
		CandidateID:   cand.ID,
		PreviousOwner: cand.OwnerID,
		NewOwner:      newOwner.ID,
		ChangedBy:     actor.ID,
	})
	if err != nil {
		return transport.OwnershipResult{}, apperr.StoreFailure("owner_changed", err)
	}
	if err := s.store.UpdateCandidateOwner(ctx, cand.ID, newOwner.ID); err != nil {
		return transport.OwnershipResult{}, apperr.StoreFailure("owner_changed", err)
	}

	s.bus.Publish(ctx, events.OwnerChanged{
		BaseEvent:     events.NewBaseEvent(),
		CandidateID:   cand.ID,
		PreviousOwner: cand.OwnerID,
		NewOwner:      newOwner.ID,
		ChangedBy:     actor.ID,
	})
	s.log.WebhookEvent("owner_changed", transport.OutcomeOwnerChanged, opportunityID)

	return transport.OwnershipResult{
		Outcome:       transport.OutcomeOwnerChanged,
		CandidateID:   cand.ID,
		PreviousOwner: cand.OwnerID,
		NewOwner:      newOwner.ID,
	}, nil
}

// UpsertContact handles contact-created and contact-modified events.
func (s *Service) UpsertContact(ctx context.Context, doc payload.Document) (transport.ContactResult, error) {
	crmContactID, ok := doc.ExternalID(payload.FieldContactID)
	if !ok {
		return transport.ContactResult{}, apperr.BadRequest("missing contact id")
	}

	params := repository.UpsertContactParams{
		CRMContactID:    crmContactID,
		FullName:        optional(doc.String(payload.FieldFullName)),
		NationalID:      optional(doc.String(payload.FieldNationalID)),
		MaritalStatus:   optional(doc.String(payload.FieldMaritalStatus)),
		District:        optional(doc.String(payload.FieldDistrict)),
		Profession:      optional(doc.String(payload.FieldProfession)),
		Source:          optional(doc.String(payload.FieldSource)),
		Detail:          optional(doc.String(payload.FieldDetail)),
		SubDetail:       optional(doc.String(payload.FieldSubDetail)),
		SubSubDetail:    optional(doc.String(payload.FieldSubSubDetail)),
		SubSubSubDetail: optional(doc.String(payload.FieldSubSubSubDetail)),
		BirthDate:       optional(doc.String(payload.FieldBirthDate)),
	}
	if raw, ok := doc.String(payload.FieldPhone); ok {
		normalized := phone.NormalizeE164(raw)
		params.Phone = &normalized
	}
	// The CRM lets operators type anything into the email field; junk is
	// dropped rather than stored.
	if email, ok := doc.String(payload.FieldEmail); ok {
		if err := s.validate.Var(email, "email"); err == nil {
			params.Email = &email
		} else {
			s.log.Warn("malformed email dropped", "contact_id", crmContactID)
		}
	}

	contactID, err := s.store.UpsertContact(ctx, params)
	if err != nil {
		return transport.ContactResult{}, apperr.StoreFailure("contact_upserted", err)
	}
	s.log.WebhookEvent("contact_upserted", transport.OutcomeRecorded, crmContactID)
	return transport.ContactResult{Outcome: transport.OutcomeRecorded, ContactID: contactID}, nil
}

// AddNote handles note-created events. Notes for unknown contacts are
// soft-skipped: the CRM fires note webhooks before contact sync settles and
// a lost note is not worth a retry storm.
func (s *Service) AddNote(ctx context.Context, doc payload.Document) (transport.NoteResult, error) {
	crmContactID, ok := doc.ExternalID(payload.FieldContactID)
	if !ok {
		return transport.NoteResult{}, apperr.BadRequest("missing contact id")
	}

	contact, err := s.resolver.ResolveContact(ctx, crmContactID)
	if err != nil {
		return transport.NoteResult{}, apperr.StoreFailure("note_created", err)
	}
	if contact == nil {
		s.log.WebhookEvent("note_created", transport.OutcomeSkippedNoContact, crmContactID)
		return transport.NoteResult{Outcome: transport.OutcomeSkippedNoContact}, nil
	}

	author, err := s.resolver.ResolveUser(ctx, externalID(doc, payload.FieldUserID))
	if err != nil {
		return transport.NoteResult{}, apperr.StoreFailure("note_created", err)
	}

	params := repository.NoteParams{
		ContactID: contact.ID,
		Body:      optional(doc.String(payload.FieldNoteBody)),
		CreatedAt: doc.TimestampOr(payload.FieldEventAt, s.now()),
	}
	if author != nil {
		params.AuthorID = &author.ID
	}

	noteID, err := s.store.InsertNote(ctx, params)
	if err != nil {
		return transport.NoteResult{}, apperr.StoreFailure("note_created", err)
	}
	s.log.WebhookEvent("note_created", transport.OutcomeRecorded, crmContactID)
	return transport.NoteResult{Outcome: transport.OutcomeRecorded, NoteID: &noteID}, nil
}

// AddAppointment handles appointment-created events. Appointments attach to
// the contact's most recent candidate; an unknown contact or a contact with
// no candidate is a hard failure so the CRM redelivers once sync catches up.
func (s *Service) AddAppointment(ctx context.Context, doc payload.Document) (transport.AppointmentResult, error) {
	crmContactID, ok := doc.ExternalID(payload.FieldContactID)
	if !ok {
		return transport.AppointmentResult{}, apperr.BadRequest("missing contact id")
	}
	crmAppointmentID, ok := doc.ExternalID(payload.FieldAppointmentID)
	if !ok {
		return transport.AppointmentResult{}, apperr.BadRequest("missing appointment id")
	}

	contact, err := s.resolver.ResolveContact(ctx, crmContactID)
	if err != nil {
		return transport.AppointmentResult{}, apperr.StoreFailure("appointment_created", err)
	}
	if contact == nil {
		return transport.AppointmentResult{}, apperr.NotFound("contact not found")
	}

	cand, err := s.store.GetLatestCandidateByContact(ctx, contact.ID)
	if err != nil {
		return transport.AppointmentResult{}, apperr.StoreFailure("appointment_created", err)
	}
	if cand == nil {
		return transport.AppointmentResult{}, apperr.NotFound("no candidate for contact")
	}

	title := optional(doc.String(payload.FieldAppointmentTitle))
	kind := domain.KindOther
	if title != nil {
		kind = domain.InferAppointmentKind(*title)
	}

	appointmentID, err := s.store.InsertAppointment(ctx, repository.AppointmentParams{
		CandidateID:      cand.ID,
		CRMAppointmentID: crmAppointmentID,
		Kind:             kind,
		Title:            title,
		StartsAt:         doc.TimestampOr(payload.FieldAppointmentStart, s.now()),
	})
	if err != nil {
		return transport.AppointmentResult{}, apperr.StoreFailure("appointment_created", err)
	}
	s.log.WebhookEvent("appointment_created", transport.OutcomeRecorded, crmContactID)
	return transport.AppointmentResult{
		Outcome:       transport.OutcomeRecorded,
		AppointmentID: appointmentID,
		CandidateID:   cand.ID,
		Kind:          string(kind),
	}, nil
}

// StageHistory returns a candidate's ordered stage transitions for the
// admin view.
func (s *Service) StageHistory(ctx context.Context, candidateID uuid.UUID) ([]transport.StageHistoryItem, error) {
	entries, err := s.store.ListStageHistory(ctx, candidateID)
	if err != nil {
		return nil, apperr.StoreFailure("stage_history", err)
	}
	items := make([]transport.StageHistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, transport.StageHistoryItem{
			ID:               e.ID,
			OriginStage:      e.OriginStage,
			DestinationStage: e.DestinationStage,
			ChangedAt:        e.ChangedAt,
			Source:           string(e.Source),
			ActorID:          e.ActorID,
		})
	}
	return items, nil
}

// OwnershipChanges returns a candidate's ownership ledger for the admin view.
func (s *Service) OwnershipChanges(ctx context.Context, candidateID uuid.UUID) ([]transport.OwnershipChangeItem, error) {
	entries, err := s.store.ListOwnershipChanges(ctx, candidateID)
	if err != nil {
		return nil, apperr.StoreFailure("ownership_changes", err)
	}
	items := make([]transport.OwnershipChangeItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, transport.OwnershipChangeItem{
			ID:            e.ID,
			PreviousOwner: e.PreviousOwner,
			NewOwner:      e.NewOwner,
			ChangedBy:     e.ChangedBy,
			ChangedAt:     e.CreatedAt,
		})
	}
	return items, nil
}

func externalID(doc payload.Document, field payload.Field) string {
	id, _ := doc.ExternalID(field)
	return id
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
