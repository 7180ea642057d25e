package ingestion

import (
	"candidate_pipeline_backend/internal/events"
	apphttp "candidate_pipeline_backend/internal/http"
	"candidate_pipeline_backend/internal/ingestion/repository"
	"candidate_pipeline_backend/internal/ingestion/resolver"
	"candidate_pipeline_backend/internal/ingestion/service"
	"candidate_pipeline_backend/platform/config"
	"candidate_pipeline_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the ingestion bounded context.
type Module struct {
	handler *Handler
	cfg     config.WebhookConfig
}

// NewModule assembles the ingestion module from shared infrastructure.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, cfg config.WebhookConfig) *Module {
	store := repository.NewPostgres(pool)
	svc := service.New(store, resolver.New(store), bus, log, cfg)
	return &Module{
		handler: NewHandler(svc, log),
		cfg:     cfg,
	}
}

// Name implements http.Module.
func (m *Module) Name() string { return "ingestion" }

// RegisterRoutes mounts the webhook endpoints under /api/v1/crm and the
// inspection endpoints under the JWT-protected admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	crm := ctx.V1.Group("/crm")
	crm.Use(ctx.WebhookRateLimiter.RateLimit())
	crm.Use(TokenAuth(m.cfg))

	crm.POST("/opportunity-created", m.handler.OpportunityCreated)
	crm.POST("/opportunity-modified", m.handler.OpportunityModified)
	crm.POST("/stage-change", m.handler.StageChange)
	crm.POST("/opportunity-lost", m.handler.OpportunityLost)
	crm.POST("/opportunity-abandoned", m.handler.OpportunityAbandoned)
	crm.POST("/owner-changed", m.handler.OwnerChanged)
	crm.POST("/contact-created", m.handler.ContactUpserted)
	crm.POST("/contact-modified", m.handler.ContactUpserted)
	crm.POST("/note-created", m.handler.NoteCreated)
	crm.POST("/appointment-created", m.handler.AppointmentCreated)

	candidates := ctx.Admin.Group("/candidates")
	candidates.GET("/:candidateID/stage-history", m.handler.StageHistory)
	candidates.GET("/:candidateID/ownership-changes", m.handler.OwnershipChanges)
}
