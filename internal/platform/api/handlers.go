package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go.aocore.tech/internal/dispatch"
	"go.aocore.tech/internal/platform/audit"
	"go.aocore.tech/internal/platform/auth"
	"go.aocore.tech/internal/platform/brand"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/query"
	"go.aocore.tech/internal/platform/webhook"
)

// WorkflowExecutor runs one workflow dispatch.
type WorkflowExecutor interface {
	Execute(ctx context.Context, req dispatch.ExecuteRequest, execCtx *common.ExecutionContext) (*dispatch.ExecutionResult, error)
}

// Dependencies are the services the API is built from.
type Dependencies struct {
	Dispatcher  WorkflowExecutor
	Query       *query.Service
	Endpoints   webhook.Repository
	Brands      brand.Repository
	Audit       *audit.Service
	UnitOfWork  common.UnitOfWork
	Auth        *auth.Middleware
	RateLimiter *UserRateLimiter
}

// Handlers contains all API handlers
type Handlers struct {
	auth    *auth.Middleware
	limiter *UserRateLimiter

	workflowHandler  *WorkflowHandler
	webhookHandler   *WebhookHandler
	executionHandler *ExecutionHandler
	brandHandler     *BrandHandler
	auditLogHandler  *AuditLogHandler
}

// NewHandlers creates all API handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		auth:             deps.Auth,
		limiter:          deps.RateLimiter,
		workflowHandler:  NewWorkflowHandler(deps.Dispatcher),
		webhookHandler:   NewWebhookHandler(deps.Query, deps.Endpoints, deps.UnitOfWork),
		executionHandler: NewExecutionHandler(deps.Query),
		brandHandler:     NewBrandHandler(deps.Brands, deps.UnitOfWork),
		auditLogHandler:  NewAuditLogHandler(deps.Audit),
	}
}

// Routes mounts the API under the router it is given (normally /api).
func (h *Handlers) Routes(r chi.Router) {
	r.Use(h.auth.Authenticate)

	r.Route("/workflows", func(r chi.Router) {
		r.With(h.limiter.Middleware).Post("/execute", h.workflowHandler.Execute)
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Get("/", h.webhookHandler.List)
		r.Get("/by-name/{workflowName}", h.webhookHandler.GetByName)
		r.Get("/{id}", h.webhookHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAdmin)
			r.Post("/", h.webhookHandler.Register)
			r.Patch("/{id}", h.webhookHandler.Update)
			r.Delete("/{id}", h.webhookHandler.Delete)
		})
	})

	r.Route("/executions", func(r chi.Router) {
		r.Get("/", h.executionHandler.List)
		r.Get("/{id}", h.executionHandler.Get)
	})

	r.Route("/brands", func(r chi.Router) {
		r.Get("/", h.brandHandler.List)
		r.Get("/{key}", h.brandHandler.GetByKey)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAdmin)
			r.Post("/", h.brandHandler.Create)
			r.Patch("/{id}", h.brandHandler.Update)
			r.Delete("/{id}", h.brandHandler.Delete)
		})
	})

	r.Route("/audit-logs", func(r chi.Router) {
		r.Use(h.auth.RequireAdmin)
		r.Get("/", h.auditLogHandler.List)
		r.Get("/entity/{entityType}/{entityId}", h.auditLogHandler.History)
		r.Get("/{id}", h.auditLogHandler.Get)
	})
}

// executionContext builds the use case context for the authenticated caller.
func executionContext(r *http.Request) *common.ExecutionContext {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		return common.ExecutionContextFromRequest(r, "")
	}
	return common.ExecutionContextFromRequest(r, p.UserID).WithPrincipal(p.OrgID, string(p.Role))
}

// optionalQuery returns the trimmed query parameter, or nil when absent or blank.
func optionalQuery(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil
	}
	return &v
}
