package api

import (
	"errors"
	"log/slog"
	"net/http"

	"go.aocore.tech/internal/dispatch"
	"go.aocore.tech/internal/platform/auth"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/webhook"
)

// WorkflowHandler handles workflow execution requests
type WorkflowHandler struct {
	dispatcher WorkflowExecutor
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(dispatcher WorkflowExecutor) *WorkflowHandler {
	return &WorkflowHandler{dispatcher: dispatcher}
}

// Execute handles POST /api/workflows/execute
//
//	@Summary		Execute a workflow
//	@Description	Resolves the active endpoint for the workflow and brand, records the attempt and calls the endpoint synchronously
//	@Tags			Workflows
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dispatch.ExecuteRequest	true	"Workflow name, payload and optional brand"
//	@Success		200		{object}	dispatch.ExecutionResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Failure		502		{object}	DispatchErrorResponse
//	@Failure		500		{object}	DispatchErrorResponse
//	@Failure		504		{object}	DispatchErrorResponse
//	@Security		BearerAuth
//	@Router			/workflows/execute [post]
func (h *WorkflowHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req dispatch.ExecuteRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	if p := auth.PrincipalFromContext(r.Context()); !p.CanAccessBrand(webhook.NormalizeOptional(req.Brand)) {
		WriteForbidden(w, "No access to this brand")
		return
	}

	result, err := h.dispatcher.Execute(r.Context(), req, executionContext(r))
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func writeDispatchError(w http.ResponseWriter, err error) {
	var (
		uce       *common.UseCaseError
		notFound  *dispatch.EndpointNotFoundError
		failed    *dispatch.DispatchFailedError
		transport *dispatch.TransportError
		ledger    *dispatch.LedgerWriteError
	)

	switch {
	case errors.As(err, &uce):
		WriteUseCaseError(w, uce)

	case errors.As(err, &notFound):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   common.ErrCodeEndpointNotFound,
			Message: notFound.Error(),
			Details: map[string]any{"workflowName": notFound.WorkflowName, "brand": notFound.Brand},
		})

	case errors.As(err, &failed):
		code := failed.StatusCode
		WriteJSON(w, http.StatusBadGateway, DispatchErrorResponse{
			Error:       "DISPATCH_FAILED",
			Message:     failed.Error(),
			ExecutionID: failed.ExecutionID,
			StatusCode:  &code,
		})

	case errors.As(err, &transport):
		status, code := http.StatusBadGateway, "TRANSPORT_ERROR"
		if transport.Timeout {
			status, code = http.StatusGatewayTimeout, "WORKFLOW_TIMEOUT"
		}
		WriteJSON(w, status, DispatchErrorResponse{
			Error:       code,
			Message:     transport.Error(),
			ExecutionID: transport.ExecutionID,
		})

	case errors.As(err, &ledger):
		slog.Error("Workflow outcome could not be recorded", "executionId", ledger.ExecutionID, "error", err)
		WriteJSON(w, http.StatusInternalServerError, DispatchErrorResponse{
			Error:       "LEDGER_WRITE_FAILED",
			Message:     "Workflow outcome could not be recorded",
			ExecutionID: ledger.ExecutionID,
		})

	default:
		slog.Error("Workflow execution failed", "error", err)
		WriteInternalError(w, "Workflow execution could not be recorded")
	}
}
