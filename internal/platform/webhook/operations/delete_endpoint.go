package operations

import (
	"context"

	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/events"
	"go.aocore.tech/internal/platform/webhook"
)

// DeleteEndpointCommand contains the data needed to delete an endpoint
type DeleteEndpointCommand struct {
	ID string `json:"id"`
}

// DeleteEndpointUseCase permanently removes an endpoint. Execution records
// keep their historical workflow_id reference.
type DeleteEndpointUseCase struct {
	repo       webhook.Repository
	unitOfWork common.UnitOfWork
}

// NewDeleteEndpointUseCase creates a new DeleteEndpointUseCase
func NewDeleteEndpointUseCase(repo webhook.Repository, uow common.UnitOfWork) *DeleteEndpointUseCase {
	return &DeleteEndpointUseCase{
		repo:       repo,
		unitOfWork: uow,
	}
}

// Execute deletes an endpoint
func (uc *DeleteEndpointUseCase) Execute(
	ctx context.Context,
	cmd DeleteEndpointCommand,
	execCtx *common.ExecutionContext,
) common.Result[common.DomainEvent] {
	if cmd.ID == "" {
		return common.Failure[common.DomainEvent](
			common.ValidationError("MISSING_ID", "Endpoint ID is required", nil),
		)
	}

	existing, err := uc.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return common.Failure[common.DomainEvent](lookupFailure(cmd.ID, err))
	}

	event := events.NewEndpointDeleted(execCtx, existing)

	return uc.unitOfWork.CommitDelete(ctx, existing, event, cmd)
}
