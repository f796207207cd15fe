package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go.aocore.tech/internal/platform/brand"
	"go.aocore.tech/internal/platform/brand/operations"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/events"
)

// BrandHandler handles brand configuration requests
type BrandHandler struct {
	repo   brand.Repository
	create *operations.CreateBrandUseCase
	update *operations.UpdateBrandUseCase
	delete *operations.DeleteBrandUseCase
}

// NewBrandHandler creates a new brand handler
func NewBrandHandler(repo brand.Repository, uow common.UnitOfWork) *BrandHandler {
	return &BrandHandler{
		repo:   repo,
		create: operations.NewCreateBrandUseCase(repo, uow),
		update: operations.NewUpdateBrandUseCase(repo, uow),
		delete: operations.NewDeleteBrandUseCase(repo, uow),
	}
}

// List handles GET /api/brands
//
//	@Summary	List brand configurations
//	@Tags		Brands
//	@Produce	json
//	@Success	200	{array}	brand.Configuration
//	@Security	BearerAuth
//	@Router		/brands [get]
func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	brands, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("Failed to list brands", "error", err)
		WriteInternalError(w, "Failed to list brands")
		return
	}
	WriteJSON(w, http.StatusOK, brands)
}

// GetByKey handles GET /api/brands/{key}
func (h *BrandHandler) GetByKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	h.writeBrand(w, r, http.StatusOK, func() (*brand.Configuration, error) {
		return h.repo.FindByKey(r.Context(), key)
	}, key)
}

// Create handles POST /api/brands
//
//	@Summary	Create a brand configuration
//	@Tags		Brands
//	@Accept		json
//	@Produce	json
//	@Param		request	body		operations.CreateBrandCommand	true	"Brand"
//	@Success	201		{object}	brand.Configuration
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/brands [post]
func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd operations.CreateBrandCommand
	if err := DecodeJSON(r, &cmd); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	result := h.create.Execute(r.Context(), cmd, executionContext(r))
	if result.IsFailure() {
		WriteUseCaseError(w, result.Error())
		return
	}

	id := result.Value().(*events.BrandCreated).BrandID
	h.writeBrand(w, r, http.StatusCreated, func() (*brand.Configuration, error) {
		return h.repo.FindByID(r.Context(), id)
	}, id)
}

// Update handles PATCH /api/brands/{id}
func (h *BrandHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cmd operations.UpdateBrandCommand
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

	h.writeBrand(w, r, http.StatusOK, func() (*brand.Configuration, error) {
		return h.repo.FindByID(r.Context(), cmd.ID)
	}, cmd.ID)
}

// Delete handles DELETE /api/brands/{id}
func (h *BrandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cmd := operations.DeleteBrandCommand{ID: chi.URLParam(r, "id")}

	result := h.delete.Execute(r.Context(), cmd, executionContext(r))
	if result.IsFailure() {
		WriteUseCaseError(w, result.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BrandHandler) writeBrand(w http.ResponseWriter, r *http.Request, status int, find func() (*brand.Configuration, error), ref string) {
	cfg, err := find()
	if errors.Is(err, brand.ErrNotFound) {
		WriteUseCaseError(w, common.NotFoundError(common.ErrCodeBrandNotFound,
			"Brand not found", map[string]any{"brand": ref}))
		return
	}
	if err != nil {
		slog.Error("Failed to load brand", "brand", ref, "error", err, "path", r.URL.Path)
		WriteInternalError(w, "Failed to load brand")
		return
	}
	WriteJSON(w, status, cfg)
}
