// Package ingestion is the webhook ingestion bounded context: it receives
// CRM lifecycle events and reconciles them into candidate, stage-history and
// ownership records.
package ingestion

import (
	"net/http"

	"candidate_pipeline_backend/internal/ingestion/payload"
	"candidate_pipeline_backend/internal/ingestion/service"
	"candidate_pipeline_backend/platform/httpkit"
	"candidate_pipeline_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the webhook and admin endpoints.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

// NewHandler creates the ingestion handler.
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// bindDocument decodes the request body into a raw document. Webhook bodies
// are never bound to structs; the payload package owns all interpretation.
func bindDocument(c *gin.Context) (payload.Document, bool) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "body must be a json object", nil)
		return nil, false
	}
	return payload.Document(raw), true
}

// OpportunityCreated handles POST /crm/opportunity-created.
func (h *Handler) OpportunityCreated(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.CreateOpportunity(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// OpportunityModified handles POST /crm/opportunity-modified.
func (h *Handler) OpportunityModified(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.ModifyOpportunity(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// StageChange handles POST /crm/stage-change.
func (h *Handler) StageChange(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.RecordStageChange(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// OpportunityLost handles POST /crm/opportunity-lost.
func (h *Handler) OpportunityLost(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.MarkLost(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// OpportunityAbandoned handles POST /crm/opportunity-abandoned.
func (h *Handler) OpportunityAbandoned(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.MarkAbandoned(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// OwnerChanged handles POST /crm/owner-changed.
func (h *Handler) OwnerChanged(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.ChangeOwner(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// ContactUpserted handles POST /crm/contact-created and
// POST /crm/contact-modified; both carry the same shape and semantics.
func (h *Handler) ContactUpserted(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.UpsertContact(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// NoteCreated handles POST /crm/note-created.
func (h *Handler) NoteCreated(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.AddNote(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// AppointmentCreated handles POST /crm/appointment-created.
func (h *Handler) AppointmentCreated(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.AddAppointment(c.Request.Context(), doc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, res)
}

// StageHistory handles GET /admin/candidates/:candidateID/stage-history.
func (h *Handler) StageHistory(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("candidateID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid candidate id", nil)
		return
	}
	items, err := h.svc.StageHistory(c.Request.Context(), candidateID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

// OwnershipChanges handles GET /admin/candidates/:candidateID/ownership-changes.
func (h *Handler) OwnershipChanges(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("candidateID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid candidate id", nil)
		return
	}
	items, err := h.svc.OwnershipChanges(c.Request.Context(), candidateID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}
