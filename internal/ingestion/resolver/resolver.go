// Package resolver locates existing records for the external identifiers a
// webhook carries. The CRM omits or scrambles identifiers often enough that
// candidate resolution is a fallback chain rather than a single lookup.
package resolver

import (
	"context"

	"candidate_pipeline_backend/internal/ingestion/domain"

	"github.com/google/uuid"
)

// Store is the read surface the resolver needs.
type Store interface {
	GetCandidateByOpportunityID(ctx context.Context, opportunityID string) (*domain.Candidate, error)
	GetLatestCandidateByContact(ctx context.Context, contactID uuid.UUID) (*domain.Candidate, error)
	GetLatestCandidateByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Candidate, error)
	GetContactByCRMID(ctx context.Context, crmContactID string) (*domain.Contact, error)
	GetUserByCRMID(ctx context.Context, crmUserID string) (*domain.User, error)
}

// Resolver resolves CRM identifiers to stored records.
type Resolver struct {
	store Store
}

// New creates a Resolver.
func New(store Store) *Resolver {
	return &Resolver{store: store}
}

// CandidateQuery carries every identifier the event offered. Empty fields
// skip their chain step.
type CandidateQuery struct {
	OpportunityID string
	ContactID     string
	Email         string
	Phone         string
}

// ResolveCandidate walks the fallback chain: opportunity id first, then the
// contact's most recent candidate, then an email/phone match through the
// contacts table. Returns (nil, nil) when every step misses; the caller
// decides whether that is a hard failure or a soft skip.
func (r *Resolver) ResolveCandidate(ctx context.Context, q CandidateQuery) (*domain.Candidate, error) {
	if q.OpportunityID != "" {
		cand, err := r.store.GetCandidateByOpportunityID(ctx, q.OpportunityID)
		if err != nil {
			return nil, err
		}
		if cand != nil {
			return cand, nil
		}
	}

	if q.ContactID != "" {
		contact, err := r.store.GetContactByCRMID(ctx, q.ContactID)
		if err != nil {
			return nil, err
		}
		if contact != nil {
			cand, err := r.store.GetLatestCandidateByContact(ctx, contact.ID)
			if err != nil {
				return nil, err
			}
			if cand != nil {
				return cand, nil
			}
		}
	}

	if q.Email != "" || q.Phone != "" {
		cand, err := r.store.GetLatestCandidateByEmailOrPhone(ctx, q.Email, q.Phone)
		if err != nil {
			return nil, err
		}
		if cand != nil {
			return cand, nil
		}
	}

	return nil, nil
}

// ResolveContact maps a CRM contact id to the stored contact, (nil, nil)
// when unknown or the id is empty.
func (r *Resolver) ResolveContact(ctx context.Context, crmContactID string) (*domain.Contact, error) {
	if crmContactID == "" {
		return nil, nil
	}
	return r.store.GetContactByCRMID(ctx, crmContactID)
}

// ResolveUser maps a CRM user id to the stored user, (nil, nil) when unknown
// or the id is empty.
func (r *Resolver) ResolveUser(ctx context.Context, crmUserID string) (*domain.User, error) {
	if crmUserID == "" {
		return nil, nil
	}
	return r.store.GetUserByCRMID(ctx, crmUserID)
}
