package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/query"
)

// ExecutionHandler handles execution ledger queries
type ExecutionHandler struct {
	query *query.Service
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(q *query.Service) *ExecutionHandler {
	return &ExecutionHandler{query: q}
}

// List handles GET /api/executions
//
//	@Summary		List workflow executions
//	@Description	Newest first, each with a summary of its endpoint when the endpoint still exists
//	@Tags			Executions
//	@Produce		json
//	@Param			endpointId	query		string	false	"Filter by endpoint ID"
//	@Param			userId		query		string	false	"Filter by initiating user"
//	@Param			status		query		string	false	"Filter by status (pending, success, failed, timeout)"
//	@Param			limit		query		int		false	"Maximum records (1-100)"	default(50)
//	@Success		200			{array}		query.ExecutionView
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/executions [get]
func (h *ExecutionHandler) List(w http.ResponseWriter, r *http.Request) {
	in := query.ListExecutionsInput{
		EndpointID: optionalQuery(r, "endpointId"),
		UserID:     optionalQuery(r, "userId"),
		Status:     r.URL.Query().Get("status"),
	}

	if raw := optionalQuery(r, "limit"); raw != nil {
		limit, err := strconv.Atoi(*raw)
		if err != nil {
			WriteUseCaseError(w, common.ValidationError(common.ErrCodeInvalidLimit,
				"Limit must be an integer", map[string]any{"limit": *raw}))
			return
		}
		in.Limit = &limit
	}

	views, err := h.query.ListExecutions(r.Context(), in)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, views)
}

// Get handles GET /api/executions/{id}
func (h *ExecutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.query.GetExecution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}
