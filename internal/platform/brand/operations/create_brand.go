package operations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.aocore.tech/internal/platform/brand"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/events"
)

// CreateBrandCommand contains the data needed to create a brand configuration
type CreateBrandCommand struct {
	BrandKey           string         `json:"brandKey"`
	DisplayName        string         `json:"brandDisplayName"`
	GHLLocationID      *string        `json:"ghlLocationId,omitempty"`
	EmailFrom          *string        `json:"emailFrom,omitempty"`
	InstagramAccountID *string        `json:"instagramAccountId,omitempty"`
	SMSEnabled         bool           `json:"smsEnabled"`
	EmailEnabled       bool           `json:"emailEnabled"`
	DMEnabled          bool           `json:"dmEnabled"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// CreateBrandUseCase handles creating a brand configuration
type CreateBrandUseCase struct {
	repo       brand.Repository
	unitOfWork common.UnitOfWork
	now        func() time.Time
}

func NewCreateBrandUseCase(repo brand.Repository, uow common.UnitOfWork) *CreateBrandUseCase {
	return &CreateBrandUseCase{repo: repo, unitOfWork: uow, now: time.Now}
}

// Execute creates the brand. Channel flags default to false.
func (uc *CreateBrandUseCase) Execute(
	ctx context.Context,
	cmd CreateBrandCommand,
	execCtx *common.ExecutionContext,
) common.Result[common.DomainEvent] {
	key := strings.TrimSpace(cmd.BrandKey)
	if !brand.ValidKey(key) {
		return common.Failure[common.DomainEvent](common.ValidationError(common.ErrCodeInvalidBrandKey,
			"Brand key must be a lowercase slug (letters, digits and single hyphens)",
			map[string]any{"brandKey": cmd.BrandKey}))
	}

	displayName := strings.TrimSpace(cmd.DisplayName)
	if displayName == "" {
		return common.Failure[common.DomainEvent](common.ValidationError(common.ErrCodeRequired,
			"Brand display name is required", map[string]any{"field": "brandDisplayName"}))
	}

	emailFrom := brand.Optional(cmd.EmailFrom)
	if failure := validateEmail(emailFrom); failure != nil {
		return common.Failure[common.DomainEvent](failure)
	}

	_, err := uc.repo.FindByKey(ctx, key)
	if err == nil {
		return common.Failure[common.DomainEvent](duplicateKey(key))
	}
	if !errors.Is(err, brand.ErrNotFound) {
		return common.Failure[common.DomainEvent](common.InternalError("DB_ERROR", "Failed to check brand key",
			map[string]any{"error": err.Error()}))
	}

	metadata := cmd.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := uc.now().UTC()
	config := &brand.Configuration{
		ID:                 uuid.NewString(),
		BrandKey:           key,
		DisplayName:        displayName,
		GHLLocationID:      brand.Optional(cmd.GHLLocationID),
		EmailFrom:          emailFrom,
		InstagramAccountID: brand.Optional(cmd.InstagramAccountID),
		SMSEnabled:         cmd.SMSEnabled,
		EmailEnabled:       cmd.EmailEnabled,
		DMEnabled:          cmd.DMEnabled,
		Metadata:           metadata,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	event := events.NewBrandCreated(execCtx, config)

	return common.MapError(uc.unitOfWork.Commit(ctx, config, event, cmd), func(e *common.UseCaseError) *common.UseCaseError {
		if e.Code == common.ErrCodeAlreadyExists {
			return duplicateKey(key)
		}
		return e
	})
}

func validateEmail(email *string) *common.UseCaseError {
	if email != nil && !brand.ValidEmail(*email) {
		return common.ValidationError(common.ErrCodeInvalidEmail, "emailFrom must be a valid e-mail address",
			map[string]any{"emailFrom": *email})
	}
	return nil
}

func duplicateKey(key string) *common.UseCaseError {
	return common.BusinessRuleError(common.ErrCodeDuplicateBrandKey, "A brand with this key already exists",
		map[string]any{"brandKey": key})
}

func lookupFailure(id string, err error) *common.UseCaseError {
	if errors.Is(err, brand.ErrNotFound) {
		return common.NotFoundError(common.ErrCodeBrandNotFound, "Brand not found", map[string]any{"id": id})
	}
	return common.InternalError("DB_ERROR", "Failed to find brand", map[string]any{"error": err.Error()})
}
