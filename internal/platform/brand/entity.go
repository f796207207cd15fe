package brand

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// CollectionName is the MongoDB collection holding brand configurations.
const CollectionName = "brand_configurations"

var keyPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Configuration holds the per-brand channel settings used by workflows.
// Collection: brand_configurations
type Configuration struct {
	ID                 string         `bson:"_id" json:"id"`
	BrandKey           string         `bson:"brand_key" json:"brandKey"`
	DisplayName        string         `bson:"brand_display_name" json:"brandDisplayName"`
	GHLLocationID      *string        `bson:"ghl_location_id" json:"ghlLocationId"`
	EmailFrom          *string        `bson:"email_from" json:"emailFrom"`
	InstagramAccountID *string        `bson:"instagram_account_id" json:"instagramAccountId"`
	SMSEnabled         bool           `bson:"sms_enabled" json:"smsEnabled"`
	EmailEnabled       bool           `bson:"email_enabled" json:"emailEnabled"`
	DMEnabled          bool           `bson:"dm_enabled" json:"dmEnabled"`
	Metadata           map[string]any `bson:"metadata" json:"metadata"`
	CreatedAt          time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `bson:"updated_at" json:"updatedAt"`
}

func (c *Configuration) AggregateID() string    { return c.ID }
func (c *Configuration) CollectionName() string { return CollectionName }

// ValidKey reports whether key is a lowercase slug such as "acme" or "acme-east".
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// ValidEmail reports whether s is a single bare e-mail address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Optional trims s and returns nil for empty input.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
