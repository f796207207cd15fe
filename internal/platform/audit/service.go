package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.aocore.tech/internal/platform/common"
)

const (
	// SystemPrincipalID marks entries written by background jobs.
	SystemPrincipalID = "SYSTEM"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service provides the audit log read API and system-entry logging.
type Service struct {
	repo Repository
}

// NewService creates a new audit service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of entries. page is zero-based; a nil pageSize means DefaultPageSize.
func (s *Service) List(ctx context.Context, entityType string, page int, pageSize *int) (*AuditLogListResponse, *common.UseCaseError) {
	if page < 0 {
		return nil, common.ValidationError(common.ErrCodeInvalidValue, "page must not be negative",
			map[string]any{"page": page})
	}
	size := DefaultPageSize
	if pageSize != nil {
		if *pageSize < 1 || *pageSize > MaxPageSize {
			return nil, common.ValidationError(common.ErrCodeInvalidLimit, "pageSize must be between 1 and 100",
				map[string]any{"pageSize": *pageSize})
		}
		size = *pageSize
	}

	logs, total, err := s.repo.List(ctx, entityType, Page{Number: page, Size: size})
	if err != nil {
		return nil, dbError(err)
	}

	dtos := make([]AuditLogDTO, 0, len(logs))
	for _, l := range logs {
		dtos = append(dtos, ToDTO(l))
	}
	return &AuditLogListResponse{AuditLogs: dtos, Total: total, Page: page, PageSize: size}, nil
}

// History returns every entry recorded for one entity, newest first.
func (s *Service) History(ctx context.Context, entityType, entityID string) ([]AuditLogDetailDTO, *common.UseCaseError) {
	logs, err := s.repo.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, dbError(err)
	}

	dtos := make([]AuditLogDetailDTO, 0, len(logs))
	for _, l := range logs {
		dtos = append(dtos, ToDetailDTO(l))
	}
	return dtos, nil
}

// Get returns one entry including its operation JSON.
func (s *Service) Get(ctx context.Context, id string) (*AuditLogDetailDTO, *common.UseCaseError) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFoundError(common.ErrCodeEntityNotFound, "Audit log not found", map[string]any{"id": id})
		}
		return nil, dbError(err)
	}
	dto := ToDetailDTO(l)
	return &dto, nil
}

// LogSystem records a system-initiated operation. Failures are logged, not returned.
func (s *Service) LogSystem(ctx context.Context, entityType, entityID, operation string, operationData any) {
	var operationJSON string
	if operationData != nil {
		data, err := json.Marshal(operationData)
		if err != nil {
			slog.Warn("Failed to serialize operation data for audit log", "error", err)
		} else {
			operationJSON = string(data)
		}
	}

	entry := &AuditLog{
		EntityType:    entityType,
		EntityID:      entityID,
		Operation:     operation,
		OperationJSON: operationJSON,
		PrincipalID:   SystemPrincipalID,
		CorrelationID: common.CorrelationIDFromContext(ctx),
		PerformedAt:   time.Now(),
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		slog.Error("Failed to insert audit log", "error", err, "entityType", entityType, "entityId", entityID, "operation", operation)
	}
}

func dbError(err error) *common.UseCaseError {
	return common.InternalError("DB_ERROR", "Failed to read audit logs", map[string]any{"error": err.Error()})
}
