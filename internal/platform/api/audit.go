package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go.aocore.tech/internal/platform/audit"
	"go.aocore.tech/internal/platform/common"
)

// AuditLogHandler handles audit log admin API requests
type AuditLogHandler struct {
	service *audit.Service
}

// NewAuditLogHandler creates a new audit log handler
func NewAuditLogHandler(service *audit.Service) *AuditLogHandler {
	return &AuditLogHandler{service: service}
}

// List handles GET /api/audit-logs
//
//	@Summary		List audit logs
//	@Description	Returns audit logs newest first, optionally filtered by entity type
//	@Tags			Audit Logs
//	@Produce		json
//	@Param			entityType	query		string	false	"Filter by entity type"
//	@Param			page		query		int		false	"Page number (0-based)"	default(0)
//	@Param			pageSize	query		int		false	"Page size (1-100)"		default(20)
//	@Success		200			{object}	audit.AuditLogListResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/audit-logs [get]
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 0
	if raw := optionalQuery(r, "page"); raw != nil {
		n, err := strconv.Atoi(*raw)
		if err != nil {
			WriteUseCaseError(w, common.ValidationError(common.ErrCodeInvalidValue,
				"Page must be an integer", map[string]any{"page": *raw}))
			return
		}
		page = n
	}

	var pageSize *int
	if raw := optionalQuery(r, "pageSize"); raw != nil {
		n, err := strconv.Atoi(*raw)
		if err != nil {
			WriteUseCaseError(w, common.ValidationError(common.ErrCodeInvalidLimit,
				"Page size must be an integer", map[string]any{"pageSize": *raw}))
			return
		}
		pageSize = &n
	}

	resp, uce := h.service.List(r.Context(), r.URL.Query().Get("entityType"), page, pageSize)
	if uce != nil {
		WriteUseCaseError(w, uce)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// History handles GET /api/audit-logs/entity/{entityType}/{entityId}
func (h *AuditLogHandler) History(w http.ResponseWriter, r *http.Request) {
	logs, uce := h.service.History(r.Context(), chi.URLParam(r, "entityType"), chi.URLParam(r, "entityId"))
	if uce != nil {
		WriteUseCaseError(w, uce)
		return
	}
	WriteJSON(w, http.StatusOK, logs)
}

// Get handles GET /api/audit-logs/{id}
func (h *AuditLogHandler) Get(w http.ResponseWriter, r *http.Request) {
	log, uce := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if uce != nil {
		WriteUseCaseError(w, uce)
		return
	}
	WriteJSON(w, http.StatusOK, log)
}
