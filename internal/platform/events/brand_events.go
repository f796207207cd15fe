package events

import (
	"go.aocore.tech/internal/platform/brand"
	"go.aocore.tech/internal/platform/common"
)

type brandData struct {
	BrandID      string `json:"brandId"`
	BrandKey     string `json:"brandKey"`
	DisplayName  string `json:"brandDisplayName"`
	SMSEnabled   bool   `json:"smsEnabled"`
	EmailEnabled bool   `json:"emailEnabled"`
	DMEnabled    bool   `json:"dmEnabled"`
}

func newBrandData(c *brand.Configuration) brandData {
	return brandData{
		BrandID:      c.ID,
		BrandKey:     c.BrandKey,
		DisplayName:  c.DisplayName,
		SMSEnabled:   c.SMSEnabled,
		EmailEnabled: c.EmailEnabled,
		DMEnabled:    c.DMEnabled,
	}
}

// BrandCreated is emitted when a brand configuration is created
type BrandCreated struct {
	common.BaseDomainEvent
	brandData
}

func (e *BrandCreated) ToDataJSON() string {
	return common.MarshalDataJSON(e.brandData)
}

func NewBrandCreated(ctx *common.ExecutionContext, c *brand.Configuration) *BrandCreated {
	return &BrandCreated{
		BaseDomainEvent: newBase(ctx, EventTypeBrandCreated, "brands", "brand", c.ID),
		brandData:       newBrandData(c),
	}
}

// BrandUpdated is emitted when any brand field changes
type BrandUpdated struct {
	common.BaseDomainEvent
	brandData
}

func (e *BrandUpdated) ToDataJSON() string {
	return common.MarshalDataJSON(e.brandData)
}

func NewBrandUpdated(ctx *common.ExecutionContext, c *brand.Configuration) *BrandUpdated {
	return &BrandUpdated{
		BaseDomainEvent: newBase(ctx, EventTypeBrandUpdated, "brands", "brand", c.ID),
		brandData:       newBrandData(c),
	}
}

// BrandDeleted is emitted when a brand configuration is removed
type BrandDeleted struct {
	common.BaseDomainEvent
	BrandID  string `json:"brandId"`
	BrandKey string `json:"brandKey"`
}

func (e *BrandDeleted) ToDataJSON() string {
	return common.MarshalDataJSON(struct {
		BrandID  string `json:"brandId"`
		BrandKey string `json:"brandKey"`
	}{e.BrandID, e.BrandKey})
}

func NewBrandDeleted(ctx *common.ExecutionContext, c *brand.Configuration) *BrandDeleted {
	return &BrandDeleted{
		BaseDomainEvent: newBase(ctx, EventTypeBrandDeleted, "brands", "brand", c.ID),
		BrandID:         c.ID,
		BrandKey:        c.BrandKey,
	}
}
