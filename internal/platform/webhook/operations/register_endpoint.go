package operations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/events"
	"go.aocore.tech/internal/platform/webhook"
)

// RegisterEndpointCommand contains the data needed to register a workflow endpoint
type RegisterEndpointCommand struct {
	WorkflowName string         `json:"workflowName"`
	TargetURL    string         `json:"targetUrl"`
	Brand        *string        `json:"brand,omitempty"`
	Channel      *string        `json:"channel,omitempty"`
	Status       string         `json:"status,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ToAuditJSON keeps the signing secret reference out of the audit trail.
func (c RegisterEndpointCommand) ToAuditJSON() string {
	c.Metadata = redactMetadata(c.Metadata)
	return common.MarshalDataJSON(c)
}

// RegisterEndpointUseCase handles registering a new workflow endpoint
type RegisterEndpointUseCase struct {
	repo       webhook.Repository
	unitOfWork common.UnitOfWork
	now        func() time.Time
}

// NewRegisterEndpointUseCase creates a new RegisterEndpointUseCase
func NewRegisterEndpointUseCase(repo webhook.Repository, uow common.UnitOfWork) *RegisterEndpointUseCase {
	return &RegisterEndpointUseCase{
		repo:       repo,
		unitOfWork: uow,
		now:        time.Now,
	}
}

// Execute registers an endpoint. Status defaults to active.
func (uc *RegisterEndpointUseCase) Execute(
	ctx context.Context,
	cmd RegisterEndpointCommand,
	execCtx *common.ExecutionContext,
) common.Result[common.DomainEvent] {
	workflowName := strings.TrimSpace(cmd.WorkflowName)
	if workflowName == "" {
		return common.Failure[common.DomainEvent](
			common.ValidationError(common.ErrCodeMissingWorkflowName, "Workflow name is required", nil),
		)
	}

	if failure := validateTargetURL(cmd.TargetURL); failure != nil {
		return common.Failure[common.DomainEvent](failure)
	}

	status := webhook.StatusActive
	if cmd.Status != "" {
		parsed, ok := webhook.ParseStatus(cmd.Status)
		if !ok {
			return common.Failure[common.DomainEvent](invalidStatus(cmd.Status))
		}
		status = parsed
	}

	if failure := validateMetadata(cmd.Metadata); failure != nil {
		return common.Failure[common.DomainEvent](failure)
	}

	now := uc.now().UTC()
	endpoint := &webhook.Endpoint{
		ID:           uuid.NewString(),
		WorkflowName: workflowName,
		TargetURL:    strings.TrimSpace(cmd.TargetURL),
		Brand:        webhook.NormalizeOptional(cmd.Brand),
		Channel:      webhook.NormalizeOptional(cmd.Channel),
		Status:       status,
		Metadata:     cmd.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if endpoint.IsActive() {
		if failure := checkActiveSlot(ctx, uc.repo, endpoint); failure != nil {
			return common.Failure[common.DomainEvent](failure)
		}
	}

	event := events.NewEndpointRegistered(execCtx, endpoint)

	return common.MapError(uc.unitOfWork.Commit(ctx, endpoint, event, cmd), activeConflict(endpoint))
}

func validateTargetURL(raw string) *common.UseCaseError {
	if err := webhook.ValidateTargetURL(raw); err != nil {
		return common.ValidationError(common.ErrCodeInvalidTargetURL,
			"Target URL must be an absolute http or https URL",
			map[string]any{"targetUrl": raw, "reason": err.Error()})
	}
	return nil
}

func invalidStatus(status string) *common.UseCaseError {
	return common.ValidationError(common.ErrCodeInvalidStatus,
		"Status must be one of active, inactive, testing",
		map[string]any{"status": status})
}

func validateMetadata(metadata map[string]any) *common.UseCaseError {
	if _, present := metadata[webhook.MetadataTimeoutSeconds]; !present {
		return nil
	}
	candidate := webhook.Endpoint{Metadata: metadata}
	if _, ok := candidate.TimeoutOverride(); !ok {
		return common.ValidationError(common.ErrCodeInvalidValue,
			"metadata.timeout_seconds must be a whole number between 1 and 900",
			map[string]any{"timeout_seconds": metadata[webhook.MetadataTimeoutSeconds]})
	}
	return nil
}

// checkActiveSlot rejects a write that would leave two active endpoints on one key.
func checkActiveSlot(ctx context.Context, repo webhook.Repository, endpoint *webhook.Endpoint) *common.UseCaseError {
	exists, err := repo.ActiveExists(ctx, endpoint.WorkflowName, endpoint.Brand, endpoint.ID)
	if err != nil {
		return common.InternalError("DB_ERROR", "Failed to check for an active endpoint", map[string]any{"error": err.Error()})
	}
	if exists {
		return activeEndpointExists(endpoint)
	}
	return nil
}

func activeEndpointExists(endpoint *webhook.Endpoint) *common.UseCaseError {
	return common.BusinessRuleError(common.ErrCodeActiveEndpointExists,
		"An active endpoint already exists for this workflow and brand",
		map[string]any{"workflowName": endpoint.WorkflowName, "brand": endpoint.Brand})
}

// activeConflict maps a unique-index violation raised at commit time (a
// concurrent registration won the race) to the same error as the pre-check.
func activeConflict(endpoint *webhook.Endpoint) func(*common.UseCaseError) *common.UseCaseError {
	return func(err *common.UseCaseError) *common.UseCaseError {
		if err.Code == common.ErrCodeAlreadyExists {
			return activeEndpointExists(endpoint)
		}
		return err
	}
}

func redactMetadata(metadata map[string]any) map[string]any {
	if _, ok := metadata[webhook.MetadataSigningSecretRef]; !ok {
		return metadata
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	out[webhook.MetadataSigningSecretRef] = "***"
	return out
}

func lookupFailure(id string, err error) *common.UseCaseError {
	if errors.Is(err, webhook.ErrNotFound) {
		return common.NotFoundError(common.ErrCodeEndpointNotFound, "Endpoint not found", map[string]any{"id": id})
	}
	return common.InternalError("DB_ERROR", "Failed to find endpoint", map[string]any{"error": err.Error()})
}
