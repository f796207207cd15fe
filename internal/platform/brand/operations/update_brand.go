package operations

import (
	"context"
	"strings"
	"time"

	"go.aocore.tech/internal/platform/brand"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/events"
)

// UpdateBrandCommand is a partial update; nil fields are left unchanged.
// The brand key is immutable once created.
type UpdateBrandCommand struct {
	ID                 string         `json:"id"`
	DisplayName        *string        `json:"brandDisplayName,omitempty"`
	GHLLocationID      *string        `json:"ghlLocationId,omitempty"`
	EmailFrom          *string        `json:"emailFrom,omitempty"`
	InstagramAccountID *string        `json:"instagramAccountId,omitempty"`
	SMSEnabled         *bool          `json:"smsEnabled,omitempty"`
	EmailEnabled       *bool          `json:"emailEnabled,omitempty"`
	DMEnabled          *bool          `json:"dmEnabled,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

type UpdateBrandUseCase struct {
	repo       brand.Repository
	unitOfWork common.UnitOfWork
	now        func() time.Time
}

func NewUpdateBrandUseCase(repo brand.Repository, uow common.UnitOfWork) *UpdateBrandUseCase {
	return &UpdateBrandUseCase{repo: repo, unitOfWork: uow, now: time.Now}
}

func (uc *UpdateBrandUseCase) Execute(
	ctx context.Context,
	cmd UpdateBrandCommand,
	execCtx *common.ExecutionContext,
) common.Result[common.DomainEvent] {
	if cmd.ID == "" {
		return common.Failure[common.DomainEvent](
			common.ValidationError("MISSING_ID", "Brand ID is required", nil),
		)
	}

	config, err := uc.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return common.Failure[common.DomainEvent](lookupFailure(cmd.ID, err))
	}

	if cmd.DisplayName != nil {
		name := strings.TrimSpace(*cmd.DisplayName)
		if name == "" {
			return common.Failure[common.DomainEvent](common.ValidationError(common.ErrCodeRequired,
				"Brand display name cannot be empty", map[string]any{"field": "brandDisplayName"}))
		}
		config.DisplayName = name
	}
	if cmd.EmailFrom != nil {
		email := brand.Optional(cmd.EmailFrom)
		if failure := validateEmail(email); failure != nil {
			return common.Failure[common.DomainEvent](failure)
		}
		config.EmailFrom = email
	}
	if cmd.GHLLocationID != nil {
		config.GHLLocationID = brand.Optional(cmd.GHLLocationID)
	}
	if cmd.InstagramAccountID != nil {
		config.InstagramAccountID = brand.Optional(cmd.InstagramAccountID)
	}
	if cmd.SMSEnabled != nil {
		config.SMSEnabled = *cmd.SMSEnabled
	}
	if cmd.EmailEnabled != nil {
		config.EmailEnabled = *cmd.EmailEnabled
	}
	if cmd.DMEnabled != nil {
		config.DMEnabled = *cmd.DMEnabled
	}
	if cmd.Metadata != nil {
		config.Metadata = cmd.Metadata
	}

	config.UpdatedAt = uc.now().UTC()
	event := events.NewBrandUpdated(execCtx, config)

	return uc.unitOfWork.Commit(ctx, config, event, cmd)
}
