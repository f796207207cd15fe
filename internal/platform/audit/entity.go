package audit

import (
	"time"

	"go.aocore.tech/internal/platform/common"
)

// AuditLog is the entry written by the unit of work for every committed mutation.
// Collection: audit_logs
type AuditLog = common.AuditLog

// AuditLogDTO is the list response shape (without the full operation JSON)
type AuditLogDTO struct {
	ID            string    `json:"id"`
	EntityType    string    `json:"entityType"`
	EntityID      string    `json:"entityId,omitempty"`
	Operation     string    `json:"operation"`
	PrincipalID   string    `json:"principalId,omitempty"`
	CorrelationID string    `json:"correlationId,omitempty"`
	PerformedAt   time.Time `json:"performedAt"`
}

// AuditLogDetailDTO includes the recorded command JSON
type AuditLogDetailDTO struct {
	AuditLogDTO
	OperationJSON string `json:"operationJson,omitempty"`
}

// AuditLogListResponse is the response for list operations
type AuditLogListResponse struct {
	AuditLogs []AuditLogDTO `json:"auditLogs"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	PageSize  int           `json:"pageSize"`
}

// ToDTO converts an AuditLog to AuditLogDTO
func ToDTO(a *AuditLog) AuditLogDTO {
	return AuditLogDTO{
		ID:            a.ID,
		EntityType:    a.EntityType,
		EntityID:      a.EntityID,
		Operation:     a.Operation,
		PrincipalID:   a.PrincipalID,
		CorrelationID: a.CorrelationID,
		PerformedAt:   a.PerformedAt,
	}
}

// ToDetailDTO converts an AuditLog to AuditLogDetailDTO
func ToDetailDTO(a *AuditLog) AuditLogDetailDTO {
	return AuditLogDetailDTO{AuditLogDTO: ToDTO(a), OperationJSON: a.OperationJSON}
}
