package service

import (
	"context"
	"testing"
	"time"

	"candidate_pipeline_backend/internal/events"
	"candidate_pipeline_backend/internal/ingestion/domain"
	"candidate_pipeline_backend/internal/ingestion/payload"
	"candidate_pipeline_backend/internal/ingestion/repository"
	"candidate_pipeline_backend/internal/ingestion/resolver"
	"candidate_pipeline_backend/internal/ingestion/transport"
	"candidate_pipeline_backend/platform/apperr"
	"candidate_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for exercising the decision logic.
type fakeStore struct {
	candidates   map[string]*domain.Candidate
	contacts     map[string]*domain.Contact
	users        map[string]*domain.User
	stageEntries []domain.StageHistoryEntry
	ownership    []domain.OwnershipChangeEntry
	terminations map[string]domain.TerminationRecord
	notes        []repository.NoteParams
	appointments []repository.AppointmentParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		candidates:   make(map[string]*domain.Candidate),
		contacts:     make(map[string]*domain.Contact),
		users:        make(map[string]*domain.User),
		terminations: make(map[string]domain.TerminationRecord),
	}
}

func (f *fakeStore) CreateCandidate(_ context.Context, p repository.CreateCandidateParams) (uuid.UUID, bool, error) {
	if existing, ok := f.candidates[p.OpportunityID]; ok {
		return existing.ID, false, nil
	}
	c := &domain.Candidate{
		ID:            uuid.New(),
		OpportunityID: p.OpportunityID,
		PipelineID:    p.PipelineID,
		ContactID:     p.ContactID,
		OwnerID:       p.OwnerID,
		State:         p.State,
		CurrentStage:  p.InitialStage,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.CreatedAt,
	}
	f.candidates[p.OpportunityID] = c
	return c.ID, true, nil
}

func (f *fakeStore) GetCandidateByOpportunityID(_ context.Context, id string) (*domain.Candidate, error) {
	return f.candidates[id], nil
}

func (f *fakeStore) GetLatestCandidateByContact(_ context.Context, contactID uuid.UUID) (*domain.Candidate, error) {
	var latest *domain.Candidate
	for _, c := range f.candidates {
		if c.ContactID == nil || *c.ContactID != contactID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (f *fakeStore) GetLatestCandidateByEmailOrPhone(_ context.Context, email, phone string) (*domain.Candidate, error) {
	return nil, nil
}

func (f *fakeStore) UpdateCandidateStage(_ context.Context, candidateID uuid.UUID, stage string, changedAt time.Time) error {
	for _, c := range f.candidates {
		if c.ID == candidateID {
			c.CurrentStage = stage
			c.StageChangedAt = &changedAt
		}
	}
	return nil
}

func (f *fakeStore) UpdateCandidateProfile(_ context.Context, candidateID uuid.UUID, patch repository.CandidatePatch) error {
	for _, c := range f.candidates {
		if c.ID != candidateID {
			continue
		}
		if patch.State != nil {
			c.State = *patch.State
		}
		if patch.PipelineID != nil {
			c.PipelineID = patch.PipelineID
		}
		if patch.Product != nil {
			c.Product = patch.Product
		}
	}
	return nil
}

func (f *fakeStore) UpdateCandidateOwner(_ context.Context, candidateID, ownerID uuid.UUID) error {
	for _, c := range f.candidates {
		if c.ID == candidateID {
			owner := ownerID
			c.OwnerID = &owner
		}
	}
	return nil
}

func (f *fakeStore) MarkCandidateClosed(_ context.Context, candidateID uuid.UUID, state domain.CandidateState, reason *string) error {
	for _, c := range f.candidates {
		if c.ID == candidateID {
			c.State = state
			c.CurrentStage = string(state)
			if reason != nil {
				c.LossReason = reason
			}
		}
	}
	return nil
}

func (f *fakeStore) InsertStageEntry(_ context.Context, p repository.InsertStageEntryParams) (uuid.UUID, error) {
	e := domain.StageHistoryEntry{
		ID:               uuid.New(),
		CandidateID:      p.CandidateID,
		OpportunityID:    p.OpportunityID,
		OriginStage:      p.OriginStage,
		DestinationStage: p.DestinationStage,
		ChangedAt:        p.ChangedAt,
		Source:           p.Source,
		ActorID:          p.ActorID,
		CreatedAt:        time.Now(),
	}
	f.stageEntries = append(f.stageEntries, e)
	return e.ID, nil
}

func (f *fakeStore) LatestStageEntry(_ context.Context, opportunityID string) (*domain.StageHistoryEntry, error) {
	var latest *domain.StageHistoryEntry
	for i := range f.stageEntries {
		e := &f.stageEntries[i]
		if e.OpportunityID != opportunityID {
			continue
		}
		if latest == nil || e.ChangedAt.After(latest.ChangedAt) ||
			(e.ChangedAt.Equal(latest.ChangedAt) && e.CreatedAt.After(latest.CreatedAt)) {
			latest = e
		}
	}
	return latest, nil
}

func (f *fakeStore) ListStageHistory(_ context.Context, candidateID uuid.UUID) ([]domain.StageHistoryEntry, error) {
	var out []domain.StageHistoryEntry
	for _, e := range f.stageEntries {
		if e.CandidateID != nil && *e.CandidateID == candidateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertTermination(_ context.Context, r domain.TerminationRecord) error {
	f.terminations[r.CandidateID.String()+"/"+string(r.State)] = r
	return nil
}

func (f *fakeStore) InsertOwnershipChange(_ context.Context, p repository.OwnershipChangeParams) (uuid.UUID, error) {
	e := domain.OwnershipChangeEntry{
		ID:            uuid.New(),
		CandidateID:   p.CandidateID,
		PreviousOwner: p.PreviousOwner,
		NewOwner:      p.NewOwner,
		ChangedBy:     p.ChangedBy,
		CreatedAt:     time.Now(),
	}
	f.ownership = append(f.ownership, e)
	return e.ID, nil
}

func (f *fakeStore) ListOwnershipChanges(_ context.Context, candidateID uuid.UUID) ([]domain.OwnershipChangeEntry, error) {
	var out []domain.OwnershipChangeEntry
	for _, e := range f.ownership {
		if e.CandidateID == candidateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertContact(_ context.Context, p repository.UpsertContactParams) (uuid.UUID, error) {
	if existing, ok := f.contacts[p.CRMContactID]; ok {
		if p.FullName != nil {
			existing.FullName = p.FullName
		}
		if p.Phone != nil {
			existing.Phone = p.Phone
		}
		return existing.ID, nil
	}
	c := &domain.Contact{ID: uuid.New(), CRMContactID: p.CRMContactID, FullName: p.FullName, Phone: p.Phone, Email: p.Email}
	f.contacts[p.CRMContactID] = c
	return c.ID, nil
}

func (f *fakeStore) GetContactByCRMID(_ context.Context, id string) (*domain.Contact, error) {
	return f.contacts[id], nil
}

func (f *fakeStore) GetUserByCRMID(_ context.Context, id string) (*domain.User, error) {
	return f.users[id], nil
}

func (f *fakeStore) InsertNote(_ context.Context, p repository.NoteParams) (uuid.UUID, error) {
	f.notes = append(f.notes, p)
	return uuid.New(), nil
}

func (f *fakeStore) InsertAppointment(_ context.Context, p repository.AppointmentParams) (uuid.UUID, error) {
	f.appointments = append(f.appointments, p)
	return uuid.New(), nil
}

var _ repository.Store = (*fakeStore)(nil)

type testConfig struct{ window time.Duration }

func (c testConfig) GetWebhookToken() string               { return "secret" }
func (c testConfig) GetStageDebounceWindow() time.Duration { return c.window }

func newTestService(store *fakeStore) *Service {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	return New(store, resolver.New(store), bus, log, testConfig{window: 10 * time.Second})
}

func doc(fields map[string]interface{}) payload.Document {
	return payload.Document(fields)
}

func TestCreateOpportunityIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	body := doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id": "opp-1",
			"stage":          "New",
		},
	})

	first, err := svc.CreateOpportunity(context.Background(), body)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.Outcome != transport.OutcomeCreated {
		t.Fatalf("expected created, got %s", first.Outcome)
	}

	second, err := svc.CreateOpportunity(context.Background(), body)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Outcome != transport.OutcomeAlreadyExists {
		t.Fatalf("expected already_exists, got %s", second.Outcome)
	}
	if second.CandidateID != first.CandidateID {
		t.Fatal("replay must return the original candidate id")
	}
	if len(store.stageEntries) != 1 {
		t.Fatalf("replay must not append history, have %d entries", len(store.stageEntries))
	}
}

func TestCreateOpportunityWritesInitialSnapshot(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
	}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(store.stageEntries) != 1 {
		t.Fatalf("expected 1 snapshot entry, got %d", len(store.stageEntries))
	}
	entry := store.stageEntries[0]
	if entry.Source != domain.SourceSystem {
		t.Fatalf("snapshot source must be SYSTEM, got %s", entry.Source)
	}
	if entry.OriginStage != nil {
		t.Fatal("snapshot origin must be nil")
	}
	if entry.DestinationStage != "New" {
		t.Fatalf("snapshot destination must be the initial stage, got %q", entry.DestinationStage)
	}
}

func TestCreateOpportunityMissingIDIsBadRequest(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{}))
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestStageChangeAppliedAndProjectionUpdated(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	created, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
		"createdAt":      "2026-06-01T10:00:00Z",
	}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.RecordStageChange(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id":    "opp-1",
			"destination_stage": "Qualified",
		},
		"createdAt": "2026-06-01T11:00:00Z",
	}))
	if err != nil {
		t.Fatalf("stage change: %v", err)
	}
	if res.Outcome != transport.OutcomeApplied {
		t.Fatalf("expected applied, got %s", res.Outcome)
	}
	if res.OriginStage == nil || *res.OriginStage != "New" {
		t.Fatalf("expected effective origin New, got %v", res.OriginStage)
	}

	cand := store.candidates["opp-1"]
	if cand.CurrentStage != "Qualified" {
		t.Fatalf("projection not updated, stage %q", cand.CurrentStage)
	}
	if res.CandidateID == nil || *res.CandidateID != created.CandidateID {
		t.Fatal("result must carry the candidate id")
	}
}

func TestStageChangeNoOpWhenOriginEqualsDestination(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "Qualified",
		"createdAt":      "2026-06-01T10:00:00Z",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.RecordStageChange(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id":    "opp-1",
			"origin_stage":      "Qualified",
			"destination_stage": "Qualified",
		},
		"createdAt": "2026-06-02T10:00:00Z",
	}))
	if err != nil {
		t.Fatalf("stage change: %v", err)
	}
	if res.Outcome != transport.OutcomeNoStageChange {
		t.Fatalf("expected no_stage_change, got %s", res.Outcome)
	}
	if len(store.stageEntries) != 1 {
		t.Fatalf("no-op must not append, have %d entries", len(store.stageEntries))
	}
}

func TestStageChangeDebouncesCreationEcho(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
		"createdAt":      "2026-06-01T10:00:00Z",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Same destination as the snapshot, 3 seconds later, no origin claim:
	// the fallback origin is "New" so this is also origin==destination, but
	// the echo must be recognized even when the event claims an origin.
	res, err := svc.RecordStageChange(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id":    "opp-1",
			"origin_stage":      "Contacted",
			"destination_stage": "New",
		},
		"createdAt": "2026-06-01T10:00:03Z",
	}))
	if err != nil {
		t.Fatalf("stage change: %v", err)
	}
	if res.Outcome != transport.OutcomeDebounced {
		t.Fatalf("expected debounced_initial_stage, got %s", res.Outcome)
	}
	if len(store.stageEntries) != 1 {
		t.Fatalf("debounced echo must not append, have %d entries", len(store.stageEntries))
	}
}

func TestStageChangeOutsideDebounceWindowIsApplied(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
		"createdAt":      "2026-06-01T10:00:00Z",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.RecordStageChange(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id":    "opp-1",
			"origin_stage":      "Contacted",
			"destination_stage": "New",
		},
		"createdAt": "2026-06-01T10:05:00Z",
	}))
	if err != nil {
		t.Fatalf("stage change: %v", err)
	}
	if res.Outcome != transport.OutcomeApplied {
		t.Fatalf("expected applied outside window, got %s", res.Outcome)
	}
}

func TestStageChangeSoftSkipsUnknownOpportunity(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.RecordStageChange(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id":    "opp-racing",
			"destination_stage": "Qualified",
		},
	}))
	if err != nil {
		t.Fatalf("expected soft skip, got error %v", err)
	}
	if res.Outcome != transport.OutcomeSkippedNoCandidate {
		t.Fatalf("expected skipped_no_candidate, got %s", res.Outcome)
	}
	if len(store.stageEntries) != 0 {
		t.Fatal("soft skip must not append history")
	}
}

func TestStageChangeResolvesThroughContactFallback(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	contactID := uuid.New()
	store.contacts["crm-contact-1"] = &domain.Contact{ID: contactID, CRMContactID: "crm-contact-1"}
	cand := &domain.Candidate{
		ID:            uuid.New(),
		OpportunityID: "opp-known",
		ContactID:     &contactID,
		State:         domain.StateOpen,
		CurrentStage:  "New",
		CreatedAt:     time.Now(),
	}
	store.candidates["opp-known"] = cand

	// Event carries an opportunity id we have never stored plus the contact.
	res, err := svc.RecordStageChange(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id":    "opp-unknown",
			"contact_id":        "crm-contact-1",
			"destination_stage": "Qualified",
		},
	}))
	if err != nil {
		t.Fatalf("stage change: %v", err)
	}
	if res.Outcome != transport.OutcomeApplied {
		t.Fatalf("expected applied via contact fallback, got %s", res.Outcome)
	}
	if res.CandidateID == nil || *res.CandidateID != cand.ID {
		t.Fatal("expected transition attached to the contact's candidate")
	}
	if cand.CurrentStage != "Qualified" {
		t.Fatalf("projection not updated, stage %q", cand.CurrentStage)
	}
}

func TestStageChangeOrderedSequenceAppendsEveryTransition(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
		"createdAt":      "2026-06-01T10:00:00Z",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	stages := []struct {
		dest string
		at   string
	}{
		{"Contacted", "2026-06-01T11:00:00Z"},
		{"Qualified", "2026-06-01T12:00:00Z"},
		{"Negotiation", "2026-06-01T13:00:00Z"},
	}
	for _, step := range stages {
		res, err := svc.RecordStageChange(context.Background(), doc(map[string]interface{}{
			"customData": map[string]interface{}{
				"opportunity_id":    "opp-1",
				"destination_stage": step.dest,
			},
			"createdAt": step.at,
		}))
		if err != nil {
			t.Fatalf("stage change to %s: %v", step.dest, err)
		}
		if res.Outcome != transport.OutcomeApplied {
			t.Fatalf("stage change to %s: expected applied, got %s", step.dest, res.Outcome)
		}
	}

	// Initial snapshot plus one entry per transition.
	if len(store.stageEntries) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(store.stageEntries))
	}
	if store.candidates["opp-1"].CurrentStage != "Negotiation" {
		t.Fatalf("projection stage %q", store.candidates["opp-1"].CurrentStage)
	}
}

func TestStageChangeRedeliveryCollapsesToNoOp(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "OPP-1",
		"stage":          "New",
		"createdAt":      "2026-06-01T10:00:00Z",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	body := doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id":    "OPP-1",
			"destination_stage": "Contacted",
		},
		"createdAt": "2026-06-01T11:00:00Z",
	})

	var applied, noop int
	for range [3]int{} {
		res, err := svc.RecordStageChange(context.Background(), body)
		if err != nil {
			t.Fatalf("stage change: %v", err)
		}
		switch res.Outcome {
		case transport.OutcomeApplied:
			applied++
		case transport.OutcomeNoStageChange:
			noop++
		default:
			t.Fatalf("unexpected outcome %s", res.Outcome)
		}
	}

	if applied != 1 || noop != 2 {
		t.Fatalf("expected 1 applied and 2 no-ops, got %d/%d", applied, noop)
	}
	if len(store.stageEntries) != 2 {
		t.Fatalf("expected snapshot + 1 transition, got %d entries", len(store.stageEntries))
	}
}

func TestMarkLostClosesAndRecordsTermination(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	created, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "Negotiation",
	}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.MarkLost(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id": "opp-1",
			"loss_reason":    "chose competitor",
		},
	}))
	if err != nil {
		t.Fatalf("mark lost: %v", err)
	}
	if res.Outcome != transport.OutcomeClosed || res.State != string(domain.StateLost) {
		t.Fatalf("unexpected result %+v", res)
	}

	cand := store.candidates["opp-1"]
	if cand.State != domain.StateLost {
		t.Fatalf("projection state %s, want LOST", cand.State)
	}
	if cand.LossReason == nil || *cand.LossReason != "chose competitor" {
		t.Fatalf("loss reason not stored: %v", cand.LossReason)
	}

	record, ok := store.terminations[created.CandidateID.String()+"/LOST"]
	if !ok {
		t.Fatal("termination record missing")
	}
	if record.StageAtClose == nil || *record.StageAtClose != "Negotiation" {
		t.Fatalf("stage snapshot missing: %v", record.StageAtClose)
	}
}

func TestMarkLostUnknownCandidateIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.MarkLost(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-nope",
	}))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkLostReplayKeepsSingleTerminationRow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	body := doc(map[string]interface{}{
		"customData": map[string]interface{}{"opportunity_id": "opp-1"},
	})
	if _, err := svc.MarkLost(context.Background(), body); err != nil {
		t.Fatalf("first lost: %v", err)
	}
	if _, err := svc.MarkLost(context.Background(), body); err != nil {
		t.Fatalf("replayed lost: %v", err)
	}
	if len(store.terminations) != 1 {
		t.Fatalf("expected single termination row, got %d", len(store.terminations))
	}
}

func TestChangeOwnerCompareAndLog(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	previous := &domain.User{ID: uuid.New(), CRMUserID: "crm-user-prev"}
	next := &domain.User{ID: uuid.New(), CRMUserID: "crm-user-next"}
	admin := &domain.User{ID: uuid.New(), CRMUserID: "crm-user-admin"}
	store.users[previous.CRMUserID] = previous
	store.users[next.CRMUserID] = next
	store.users[admin.CRMUserID] = admin

	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"owner_id":       "crm-user-prev",
		"stage":          "New",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.ChangeOwner(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id": "opp-1",
			"new_owner_id":   "crm-user-next",
			"changed_by":     "crm-user-admin",
		},
	}))
	if err != nil {
		t.Fatalf("change owner: %v", err)
	}
	if res.Outcome != transport.OutcomeOwnerChanged {
		t.Fatalf("expected owner_changed, got %s", res.Outcome)
	}
	if res.PreviousOwner == nil || *res.PreviousOwner != previous.ID {
		t.Fatalf("previous owner not recorded: %v", res.PreviousOwner)
	}
	if len(store.ownership) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(store.ownership))
	}
	if store.ownership[0].ChangedBy != admin.ID {
		t.Fatal("ledger must attribute the change to the actor")
	}
	cand := store.candidates["opp-1"]
	if cand.OwnerID == nil || *cand.OwnerID != next.ID {
		t.Fatal("projection owner not updated")
	}
}

func TestChangeOwnerSameOwnerIsNoOp(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	owner := &domain.User{ID: uuid.New(), CRMUserID: "crm-user-1"}
	admin := &domain.User{ID: uuid.New(), CRMUserID: "crm-user-admin"}
	store.users[owner.CRMUserID] = owner
	store.users[admin.CRMUserID] = admin

	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"owner_id":       "crm-user-1",
		"stage":          "New",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.ChangeOwner(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id": "opp-1",
			"new_owner_id":   "crm-user-1",
			"changed_by":     "crm-user-admin",
		},
	}))
	if err != nil {
		t.Fatalf("change owner: %v", err)
	}
	if res.Outcome != transport.OutcomeOwnerUnchanged {
		t.Fatalf("expected owner_unchanged, got %s", res.Outcome)
	}
	if len(store.ownership) != 0 {
		t.Fatal("no-op transfer must not touch the ledger")
	}
}

func TestChangeOwnerUnknownNewOwnerFailsHard(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := &domain.User{ID: uuid.New(), CRMUserID: "crm-user-admin"}
	store.users[admin.CRMUserID] = admin

	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.ChangeOwner(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id": "opp-1",
			"new_owner_id":   "crm-user-ghost",
			"changed_by":     "crm-user-admin",
		},
	}))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown new owner, got %v", err)
	}
	if len(store.ownership) != 0 {
		t.Fatal("failed transfer must not touch the ledger")
	}
}

func TestModifyOpportunityPartialUpdate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
		"product":        "Tower A",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.ModifyOpportunity(context.Background(), doc(map[string]interface{}{
		"customData": map[string]interface{}{
			"opportunity_id": "opp-1",
			"product":        "Tower B",
		},
	}))
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if res.Outcome != transport.OutcomeUpdated {
		t.Fatalf("expected updated, got %s", res.Outcome)
	}
	cand := store.candidates["opp-1"]
	if cand.Product == nil || *cand.Product != "Tower B" {
		t.Fatalf("product not updated: %v", cand.Product)
	}
	if cand.CurrentStage != "New" {
		t.Fatal("modify must never touch the stage projection")
	}
}

func TestModifyOpportunityNothingToUpdate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	if _, err := svc.CreateOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
		"stage":          "New",
	})); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.ModifyOpportunity(context.Background(), doc(map[string]interface{}{
		"opportunity_id": "opp-1",
	}))
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if res.Outcome != transport.OutcomeNothingToDo {
		t.Fatalf("expected nothing_to_update, got %s", res.Outcome)
	}
}

func TestAddNoteSoftSkipsUnknownContact(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.AddNote(context.Background(), doc(map[string]interface{}{
		"contact_id": "crm-contact-ghost",
		"customData": map[string]interface{}{"note": "call back tomorrow"},
	}))
	if err != nil {
		t.Fatalf("expected soft skip, got %v", err)
	}
	if res.Outcome != transport.OutcomeSkippedNoContact {
		t.Fatalf("expected skipped_no_contact, got %s", res.Outcome)
	}
	if len(store.notes) != 0 {
		t.Fatal("skipped note must not be stored")
	}
}

func TestAddAppointmentAttachesToLatestCandidate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	contactID := uuid.New()
	store.contacts["crm-contact-1"] = &domain.Contact{ID: contactID, CRMContactID: "crm-contact-1"}

	older := &domain.Candidate{ID: uuid.New(), OpportunityID: "opp-old", ContactID: &contactID, CreatedAt: time.Now().Add(-48 * time.Hour)}
	newer := &domain.Candidate{ID: uuid.New(), OpportunityID: "opp-new", ContactID: &contactID, CreatedAt: time.Now()}
	store.candidates["opp-old"] = older
	store.candidates["opp-new"] = newer

	res, err := svc.AddAppointment(context.Background(), doc(map[string]interface{}{
		"contact_id": "crm-contact-1",
		"customData": map[string]interface{}{
			"appointment_id": "appt-1",
			"title":          "Project visit - Tower B",
		},
	}))
	if err != nil {
		t.Fatalf("add appointment: %v", err)
	}
	if res.CandidateID != newer.ID {
		t.Fatal("appointment must attach to the most recent candidate")
	}
	if res.Kind != string(domain.KindProjectVisit) {
		t.Fatalf("expected PROJECT_VISIT, got %s", res.Kind)
	}
}

func TestAddAppointmentUnknownContactFailsHard(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.AddAppointment(context.Background(), doc(map[string]interface{}{
		"contact_id": "crm-contact-ghost",
		"customData": map[string]interface{}{"appointment_id": "appt-1"},
	}))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpsertContactNormalizesPhone(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.UpsertContact(context.Background(), doc(map[string]interface{}{
		"contact_id": "crm-contact-1",
		"customData": map[string]interface{}{
			"full_name": "Maria Perez",
			"phone":     "987 654 321",
		},
	}))
	if err != nil {
		t.Fatalf("upsert contact: %v", err)
	}
	if res.Outcome != transport.OutcomeRecorded {
		t.Fatalf("expected recorded, got %s", res.Outcome)
	}
	contact := store.contacts["crm-contact-1"]
	if contact.Phone == nil || *contact.Phone != "+51987654321" {
		t.Fatalf("phone not normalized: %v", contact.Phone)
	}
}

func TestUpsertContactDropsMalformedEmail(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	if _, err := svc.UpsertContact(context.Background(), doc(map[string]interface{}{
		"contact_id": "crm-contact-1",
		"customData": map[string]interface{}{"email": "not-an-email"},
	})); err != nil {
		t.Fatalf("upsert contact: %v", err)
	}
	if store.contacts["crm-contact-1"].Email != nil {
		t.Fatal("malformed email must not be stored")
	}

	if _, err := svc.UpsertContact(context.Background(), doc(map[string]interface{}{
		"contact_id": "crm-contact-2",
		"customData": map[string]interface{}{"email": "maria@example.com"},
	})); err != nil {
		t.Fatalf("upsert contact: %v", err)
	}
	got := store.contacts["crm-contact-2"].Email
	if got == nil || *got != "maria@example.com" {
		t.Fatalf("valid email not stored: %v", got)
	}
}
