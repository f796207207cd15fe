package operations

import (
	"context"

	"go.aocore.tech/internal/platform/brand"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/events"
)

type DeleteBrandCommand struct {
	ID string `json:"id"`
}

// DeleteBrandUseCase removes a brand configuration. Endpoints and
// executions tagged with the brand key are left untouched.
type DeleteBrandUseCase struct {
	repo       brand.Repository
	unitOfWork common.UnitOfWork
}

func NewDeleteBrandUseCase(repo brand.Repository, uow common.UnitOfWork) *DeleteBrandUseCase {
	return &DeleteBrandUseCase{repo: repo, unitOfWork: uow}
}

func (uc *DeleteBrandUseCase) Execute(
	ctx context.Context,
	cmd DeleteBrandCommand,
	execCtx *common.ExecutionContext,
) common.Result[common.DomainEvent] {
	if cmd.ID == "" {
		return common.Failure[common.DomainEvent](
			common.ValidationError("MISSING_ID", "Brand ID is required", nil),
		)
	}

	existing, err := uc.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return common.Failure[common.DomainEvent](lookupFailure(cmd.ID, err))
	}

	return uc.unitOfWork.CommitDelete(ctx, existing, events.NewBrandDeleted(execCtx, existing), cmd)
}
