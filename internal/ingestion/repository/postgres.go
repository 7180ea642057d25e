package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"candidate_pipeline_backend/internal/ingestion/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the Postgres store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const candidateColumns = `
	id, opportunity_id, pipeline_id, contact_id, owner_id, state,
	current_stage, stage_changed_at, interest_level, client_type,
	product, project, payment_mode, loss_reason, created_at, updated_at`

func scanCandidate(row pgx.Row) (*domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(
		&c.ID, &c.OpportunityID, &c.PipelineID, &c.ContactID, &c.OwnerID,
		&c.State, &c.CurrentStage, &c.StageChangedAt, &c.InterestLevel,
		&c.ClientType, &c.Product, &c.Project, &c.PaymentMode, &c.LossReason,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// CreateCandidate inserts a candidate projection if the opportunity id has
// not been seen before. The second return value reports whether a row was
// actually created; on conflict the existing row's id is returned unchanged.
func (p *Postgres) CreateCandidate(ctx context.Context, params CreateCandidateParams) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := p.pool.QueryRow(ctx, `
		INSERT INTO candidates (
			opportunity_id, pipeline_id, contact_id, owner_id, state,
			current_stage, stage_changed_at, interest_level, client_type,
			product, project, payment_mode, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (opportunity_id) DO NOTHING
		RETURNING id`,
		params.OpportunityID, params.PipelineID, params.ContactID,
		params.OwnerID, params.State, params.InitialStage, params.CreatedAt,
		params.InterestLevel, params.ClientType, params.Product,
		params.Project, params.PaymentMode, params.CreatedAt,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, fmt.Errorf("insert candidate: %w", err)
	}

	// Lost the insert race or a replayed event; fetch the winner's id.
	err = p.pool.QueryRow(ctx,
		`SELECT id FROM candidates WHERE opportunity_id = $1`,
		params.OpportunityID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("select existing candidate: %w", err)
	}
	return id, false, nil
}

func (p *Postgres) GetCandidateByOpportunityID(ctx context.Context, opportunityID string) (*domain.Candidate, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE opportunity_id = $1`,
		opportunityID)
	c, err := scanCandidate(row)
	if err != nil {
		return nil, fmt.Errorf("get candidate by opportunity id: %w", err)
	}
	return c, nil
}

func (p *Postgres) GetLatestCandidateByContact(ctx context.Context, contactID uuid.UUID) (*domain.Candidate, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+`
		 FROM candidates
		 WHERE contact_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		contactID)
	c, err := scanCandidate(row)
	if err != nil {
		return nil, fmt.Errorf("get latest candidate by contact: %w", err)
	}
	return c, nil
}

// GetLatestCandidateByEmailOrPhone matches through the contacts table and
// picks the most recently updated candidate when both channels match
// different people.
func (p *Postgres) GetLatestCandidateByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Candidate, error) {
	if email == "" && phone == "" {
		return nil, nil
	}
	row := p.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+`
		 FROM candidates
		 WHERE contact_id IN (
			SELECT id FROM contacts
			WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2)
		 )
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		email, phone)
	c, err := scanCandidate(row)
	if err != nil {
		return nil, fmt.Errorf("get candidate by email or phone: %w", err)
	}
	return c, nil
}

func (p *Postgres) UpdateCandidateStage(ctx context.Context, candidateID uuid.UUID, stage string, changedAt time.Time) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE candidates
		SET current_stage = $2, stage_changed_at = $3, updated_at = now()
		WHERE id = $1`,
		candidateID, stage, changedAt)
	if err != nil {
		return fmt.Errorf("update candidate stage: %w", err)
	}
	return nil
}

// UpdateCandidateProfile applies a partial update; nil patch fields keep the
// stored value via COALESCE.
func (p *Postgres) UpdateCandidateProfile(ctx context.Context, candidateID uuid.UUID, patch CandidatePatch) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE candidates
		SET pipeline_id    = COALESCE($2, pipeline_id),
		    contact_id     = COALESCE($3, contact_id),
		    state          = COALESCE($4, state),
		    interest_level = COALESCE($5, interest_level),
		    client_type    = COALESCE($6, client_type),
		    product        = COALESCE($7, product),
		    project        = COALESCE($8, project),
		    payment_mode   = COALESCE($9, payment_mode),
		    updated_at     = now()
		WHERE id = $1`,
		candidateID, patch.PipelineID, patch.ContactID, patch.State,
		patch.InterestLevel, patch.ClientType, patch.Product, patch.Project,
		patch.PaymentMode)
	if err != nil {
		return fmt.Errorf("update candidate profile: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateCandidateOwner(ctx context.Context, candidateID, ownerID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE candidates
		SET owner_id = $2, updated_at = now()
		WHERE id = $1`,
		candidateID, ownerID)
	if err != nil {
		return fmt.Errorf("update candidate owner: %w", err)
	}
	return nil
}

// MarkCandidateClosed moves the projection to a terminal state. The stage
// label is replaced by the terminal state name; the pre-close stage survives
// in the termination audit row.
func (p *Postgres) MarkCandidateClosed(ctx context.Context, candidateID uuid.UUID, state domain.CandidateState, reason *string) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE candidates
		SET state = $2, current_stage = $2,
		    loss_reason = COALESCE($3, loss_reason), updated_at = now()
		WHERE id = $1`,
		candidateID, state, reason)
	if err != nil {
		return fmt.Errorf("mark candidate closed: %w", err)
	}
	return nil
}

func (p *Postgres) InsertStageEntry(ctx context.Context, params InsertStageEntryParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := p.pool.QueryRow(ctx, `
		INSERT INTO stage_history (
			candidate_id, opportunity_id, origin_stage, destination_stage,
			changed_at, source, actor_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		params.CandidateID, params.OpportunityID, params.OriginStage,
		params.DestinationStage, params.ChangedAt, params.Source,
		params.ActorID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert stage entry: %w", err)
	}
	return id, nil
}

const stageEntryColumns = `
	id, candidate_id, opportunity_id, origin_stage, destination_stage,
	changed_at, source, actor_id, created_at`

func scanStageEntry(row pgx.Row) (*domain.StageHistoryEntry, error) {
	var e domain.StageHistoryEntry
	err := row.Scan(
		&e.ID, &e.CandidateID, &e.OpportunityID, &e.OriginStage,
		&e.DestinationStage, &e.ChangedAt, &e.Source, &e.ActorID, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// LatestStageEntry returns the most recent entry for the opportunity,
// breaking changed_at ties by insertion order.
func (p *Postgres) LatestStageEntry(ctx context.Context, opportunityID string) (*domain.StageHistoryEntry, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+stageEntryColumns+`
		 FROM stage_history
		 WHERE opportunity_id = $1
		 ORDER BY changed_at DESC, created_at DESC
		 LIMIT 1`,
		opportunityID)
	e, err := scanStageEntry(row)
	if err != nil {
		return nil, fmt.Errorf("latest stage entry: %w", err)
	}
	return e, nil
}

func (p *Postgres) ListStageHistory(ctx context.Context, candidateID uuid.UUID) ([]domain.StageHistoryEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+stageEntryColumns+`
		 FROM stage_history
		 WHERE candidate_id = $1
		 ORDER BY changed_at ASC, created_at ASC`,
		candidateID)
	if err != nil {
		return nil, fmt.Errorf("list stage history: %w", err)
	}
	defer rows.Close()

	var entries []domain.StageHistoryEntry
	for rows.Next() {
		var e domain.StageHistoryEntry
		if err := rows.Scan(
			&e.ID, &e.CandidateID, &e.OpportunityID, &e.OriginStage,
			&e.DestinationStage, &e.ChangedAt, &e.Source, &e.ActorID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stage entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage history: %w", err)
	}
	return entries, nil
}

// UpsertTermination keeps one audit row per (candidate, state); a replayed
// terminal event refreshes reason and snapshot instead of duplicating.
func (p *Postgres) UpsertTermination(ctx context.Context, record domain.TerminationRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO candidate_terminations (
			candidate_id, state, reason, stage_at_close, recorded_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (candidate_id, state) DO UPDATE SET
			reason         = COALESCE(EXCLUDED.reason, candidate_terminations.reason),
			stage_at_close = EXCLUDED.stage_at_close,
			recorded_at    = EXCLUDED.recorded_at`,
		record.CandidateID, record.State, record.Reason, record.StageAtClose,
		record.RecordedAt)
	if err != nil {
		return fmt.Errorf("upsert termination: %w", err)
	}
	return nil
}

func (p *Postgres) InsertOwnershipChange(ctx context.Context, params OwnershipChangeParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := p.pool.QueryRow(ctx, `
		INSERT INTO ownership_changes (
			candidate_id, previous_owner, new_owner, changed_by
		) VALUES ($1, $2, $3, $4)
		RETURNING id`,
		params.CandidateID, params.PreviousOwner, params.NewOwner,
		params.ChangedBy,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert ownership change: %w", err)
	}
	return id, nil
}

func (p *Postgres) ListOwnershipChanges(ctx context.Context, candidateID uuid.UUID) ([]domain.OwnershipChangeEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, candidate_id, previous_owner, new_owner, changed_by, created_at
		FROM ownership_changes
		WHERE candidate_id = $1
		ORDER BY created_at ASC`,
		candidateID)
	if err != nil {
		return nil, fmt.Errorf("list ownership changes: %w", err)
	}
	defer rows.Close()

	var entries []domain.OwnershipChangeEntry
	for rows.Next() {
		var e domain.OwnershipChangeEntry
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.PreviousOwner, &e.NewOwner, &e.ChangedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ownership change: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ownership changes: %w", err)
	}
	return entries, nil
}

// UpsertContact inserts or refreshes a contact keyed by CRM contact id.
// Absent fields never erase previously synced values.
func (p *Postgres) UpsertContact(ctx context.Context, params UpsertContactParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := p.pool.QueryRow(ctx, `
		INSERT INTO contacts (
			crm_contact_id, full_name, email, phone, national_id,
			marital_status, district, profession, source, detail,
			sub_detail, sub_sub_detail, sub_sub_sub_detail, birth_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (crm_contact_id) DO UPDATE SET
			full_name          = COALESCE(EXCLUDED.full_name, contacts.full_name),
			email              = COALESCE(EXCLUDED.email, contacts.email),
			phone              = COALESCE(EXCLUDED.phone, contacts.phone),
			national_id        = COALESCE(EXCLUDED.national_id, contacts.national_id),
			marital_status     = COALESCE(EXCLUDED.marital_status, contacts.marital_status),
			district           = COALESCE(EXCLUDED.district, contacts.district),
			profession         = COALESCE(EXCLUDED.profession, contacts.profession),
			source             = COALESCE(EXCLUDED.source, contacts.source),
			detail             = COALESCE(EXCLUDED.detail, contacts.detail),
			sub_detail         = COALESCE(EXCLUDED.sub_detail, contacts.sub_detail),
			sub_sub_detail     = COALESCE(EXCLUDED.sub_sub_detail, contacts.sub_sub_detail),
			sub_sub_sub_detail = COALESCE(EXCLUDED.sub_sub_sub_detail, contacts.sub_sub_sub_detail),
			birth_date         = COALESCE(EXCLUDED.birth_date, contacts.birth_date),
			updated_at         = now()
		RETURNING id`,
		params.CRMContactID, params.FullName, params.Email, params.Phone,
		params.NationalID, params.MaritalStatus, params.District,
		params.Profession, params.Source, params.Detail, params.SubDetail,
		params.SubSubDetail, params.SubSubSubDetail, params.BirthDate,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert contact: %w", err)
	}
	return id, nil
}

func (p *Postgres) GetContactByCRMID(ctx context.Context, crmContactID string) (*domain.Contact, error) {
	var c domain.Contact
	err := p.pool.QueryRow(ctx, `
		SELECT id, crm_contact_id, full_name, email, phone, national_id,
		       marital_status, district, profession, source, detail,
		       sub_detail, sub_sub_detail, sub_sub_sub_detail, birth_date,
		       created_at, updated_at
		FROM contacts
		WHERE crm_contact_id = $1`,
		crmContactID,
	).Scan(
		&c.ID, &c.CRMContactID, &c.FullName, &c.Email, &c.Phone, &c.NationalID,
		&c.MaritalStatus, &c.District, &c.Profession, &c.Source, &c.Detail,
		&c.SubDetail, &c.SubSubDetail, &c.SubSubSubDetail, &c.BirthDate,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact by crm id: %w", err)
	}
	return &c, nil
}

func (p *Postgres) GetUserByCRMID(ctx context.Context, crmUserID string) (*domain.User, error) {
	var u domain.User
	err := p.pool.QueryRow(ctx, `
		SELECT id, crm_user_id, full_name, email, created_at
		FROM users
		WHERE crm_user_id = $1`,
		crmUserID,
	).Scan(&u.ID, &u.CRMUserID, &u.FullName, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by crm id: %w", err)
	}
	return &u, nil
}

func (p *Postgres) InsertNote(ctx context.Context, params NoteParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := p.pool.QueryRow(ctx, `
		INSERT INTO notes (contact_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		params.ContactID, params.AuthorID, params.Body, params.CreatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert note: %w", err)
	}
	return id, nil
}

func (p *Postgres) InsertAppointment(ctx context.Context, params AppointmentParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := p.pool.QueryRow(ctx, `
		INSERT INTO appointments (candidate_id, crm_appointment_id, kind, title, starts_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (crm_appointment_id) DO UPDATE SET
			kind      = EXCLUDED.kind,
			title     = COALESCE(EXCLUDED.title, appointments.title),
			starts_at = EXCLUDED.starts_at
		RETURNING id`,
		params.CandidateID, params.CRMAppointmentID, params.Kind, params.Title,
		params.StartsAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert appointment: %w", err)
	}
	return id, nil
}

var _ Store = (*Postgres)(nil)
