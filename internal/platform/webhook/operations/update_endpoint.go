package operations

import (
	"context"
	"strings"
	"time"

	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/events"
	"go.aocore.tech/internal/platform/webhook"
)

// UpdateEndpointCommand is a partial update; nil fields are left unchanged.
// An empty Brand or Channel string clears the value.
type UpdateEndpointCommand struct {
	ID           string         `json:"id"`
	WorkflowName *string        `json:"workflowName,omitempty"`
	TargetURL    *string        `json:"targetUrl,omitempty"`
	Brand        *string        `json:"brand,omitempty"`
	Channel      *string        `json:"channel,omitempty"`
	Status       *string        `json:"status,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (c UpdateEndpointCommand) ToAuditJSON() string {
	c.Metadata = redactMetadata(c.Metadata)
	return common.MarshalDataJSON(c)
}

// UpdateEndpointUseCase handles partial updates of a registered endpoint
type UpdateEndpointUseCase struct {
	repo       webhook.Repository
	unitOfWork common.UnitOfWork
	now        func() time.Time
}

// NewUpdateEndpointUseCase creates a new UpdateEndpointUseCase
func NewUpdateEndpointUseCase(repo webhook.Repository, uow common.UnitOfWork) *UpdateEndpointUseCase {
	return &UpdateEndpointUseCase{
		repo:       repo,
		unitOfWork: uow,
		now:        time.Now,
	}
}

// Execute applies the update
func (uc *UpdateEndpointUseCase) Execute(
	ctx context.Context,
	cmd UpdateEndpointCommand,
	execCtx *common.ExecutionContext,
) common.Result[common.DomainEvent] {
	if cmd.ID == "" {
		return common.Failure[common.DomainEvent](
			common.ValidationError("MISSING_ID", "Endpoint ID is required", nil),
		)
	}

	endpoint, err := uc.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return common.Failure[common.DomainEvent](lookupFailure(cmd.ID, err))
	}
	previousStatus := endpoint.Status
	wasActive := endpoint.IsActive()
	keyChanged := false

	if cmd.WorkflowName != nil {
		name := strings.TrimSpace(*cmd.WorkflowName)
		if name == "" {
			return common.Failure[common.DomainEvent](
				common.ValidationError(common.ErrCodeMissingWorkflowName, "Workflow name cannot be empty", nil),
			)
		}
		keyChanged = keyChanged || name != endpoint.WorkflowName
		endpoint.WorkflowName = name
	}

	if cmd.TargetURL != nil {
		if failure := validateTargetURL(*cmd.TargetURL); failure != nil {
			return common.Failure[common.DomainEvent](failure)
		}
		endpoint.TargetURL = strings.TrimSpace(*cmd.TargetURL)
	}

	if cmd.Brand != nil {
		brand := webhook.NormalizeOptional(cmd.Brand)
		keyChanged = keyChanged || !webhook.SameBrand(brand, endpoint.Brand)
		endpoint.Brand = brand
	}

	if cmd.Channel != nil {
		endpoint.Channel = webhook.NormalizeOptional(cmd.Channel)
	}

	if cmd.Status != nil {
		status, ok := webhook.ParseStatus(*cmd.Status)
		if !ok {
			return common.Failure[common.DomainEvent](invalidStatus(*cmd.Status))
		}
		endpoint.Status = status
	}

	if cmd.Metadata != nil {
		if failure := validateMetadata(cmd.Metadata); failure != nil {
			return common.Failure[common.DomainEvent](failure)
		}
		endpoint.Metadata = cmd.Metadata
	}

	// Only moving into an active slot can create a duplicate.
	if endpoint.IsActive() && (!wasActive || keyChanged) {
		if failure := checkActiveSlot(ctx, uc.repo, endpoint); failure != nil {
			return common.Failure[common.DomainEvent](failure)
		}
	}

	endpoint.UpdatedAt = uc.now().UTC()
	event := events.NewEndpointUpdated(execCtx, endpoint, previousStatus)

	return common.MapError(uc.unitOfWork.Commit(ctx, endpoint, event, cmd), activeConflict(endpoint))
}
