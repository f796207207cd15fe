package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/events"
	"go.aocore.tech/internal/platform/query"
	"go.aocore.tech/internal/platform/webhook"
	"go.aocore.tech/internal/platform/webhook/operations"
)

// WebhookHandler handles webhook registry requests
type WebhookHandler struct {
	query    *query.Service
	register *operations.RegisterEndpointUseCase
	update   *operations.UpdateEndpointUseCase
	delete   *operations.DeleteEndpointUseCase
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(q *query.Service, repo webhook.Repository, uow common.UnitOfWork) *WebhookHandler {
	return &WebhookHandler{
		query:    q,
		register: operations.NewRegisterEndpointUseCase(repo, uow),
		update:   operations.NewUpdateEndpointUseCase(repo, uow),
		delete:   operations.NewDeleteEndpointUseCase(repo, uow),
	}
}

// List handles GET /api/webhooks
//
//	@Summary		List webhook endpoints
//	@Tags			Webhooks
//	@Produce		json
//	@Param			brand		query		string	false	"Filter by brand"
//	@Param			unbranded	query		bool	false	"Only endpoints without a brand"
//	@Param			status		query		string	false	"Filter by status (active, inactive, testing)"
//	@Success		200		{array}		webhook.Endpoint
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/webhooks [get]
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	in := query.ListEndpointsInput{
		Brand:  optionalQuery(r, "brand"),
		Status: r.URL.Query().Get("status"),
	}
	if raw := optionalQuery(r, "unbranded"); raw != nil {
		unbranded, err := strconv.ParseBool(*raw)
		if err != nil {
			WriteUseCaseError(w, common.ValidationError(common.ErrCodeInvalidValue,
				"unbranded must be true or false", map[string]any{"unbranded": *raw}))
			return
		}
		in.Unbranded = unbranded
	}

	endpoints, err := h.query.ListEndpoints(r.Context(), in)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, endpoints)
}

// Get handles GET /api/webhooks/{id}
func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	endpoint, err := h.query.GetEndpoint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, endpoint)
}

// GetByName handles GET /api/webhooks/by-name/{workflowName}
func (h *WebhookHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	endpoint, err := h.query.GetActiveEndpointByName(r.Context(), chi.URLParam(r, "workflowName"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, endpoint)
}

// Register handles POST /api/webhooks
//
//	@Summary		Register a webhook endpoint
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		operations.RegisterEndpointCommand	true	"Endpoint"
//	@Success		201		{object}	webhook.Endpoint
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/webhooks [post]
func (h *WebhookHandler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd operations.RegisterEndpointCommand
	if err := DecodeJSON(r, &cmd); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	result := h.register.Execute(r.Context(), cmd, executionContext(r))
	if result.IsFailure() {
		WriteUseCaseError(w, result.Error())
		return
	}

	h.writeEndpoint(w, r, http.StatusCreated, result.Value().(*events.EndpointRegistered).EndpointID)
}

// Update handles PATCH /api/webhooks/{id}
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cmd operations.UpdateEndpointCommand
	if err := DecodeJSON(r, &cmd); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	cmd.ID = chi.URLParam(r, "id")

	result := h.update.Execute(r.Context(), cmd, executionContext(r))
	if result.IsFailure() {
		WriteUseCaseError(w, result.Error())
		return
	}

	h.writeEndpoint(w, r, http.StatusOK, cmd.ID)
}

// Delete handles DELETE /api/webhooks/{id}
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cmd := operations.DeleteEndpointCommand{ID: chi.URLParam(r, "id")}

	result := h.delete.Execute(r.Context(), cmd, executionContext(r))
	if result.IsFailure() {
		WriteUseCaseError(w, result.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeEndpoint responds with the endpoint as stored after a committed change.
func (h *WebhookHandler) writeEndpoint(w http.ResponseWriter, r *http.Request, status int, id string) {
	endpoint, err := h.query.GetEndpoint(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, status, endpoint)
}
