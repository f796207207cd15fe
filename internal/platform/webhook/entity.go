package webhook

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CollectionName is the MongoDB collection holding registered endpoints.
const CollectionName = "webhook_registry"

// EndpointStatus controls dispatch eligibility. Only active endpoints are dispatched to.
type EndpointStatus string

const (
	StatusActive   EndpointStatus = "active"
	StatusInactive EndpointStatus = "inactive"
	StatusTesting  EndpointStatus = "testing"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (EndpointStatus, bool) {
	switch EndpointStatus(s) {
	case StatusActive, StatusInactive, StatusTesting:
		return EndpointStatus(s), true
	}
	return "", false
}

// Metadata keys read by the dispatcher.
const (
	MetadataTimeoutSeconds   = "timeout_seconds"
	MetadataSigningSecretRef = "signing_secret_ref"

	MaxTimeoutSeconds = 900
)

// Endpoint is a registered external workflow endpoint.
// Collection: webhook_registry
type Endpoint struct {
	ID           string         `bson:"_id" json:"id"`
	WorkflowName string         `bson:"workflow_name" json:"workflowName"`
	TargetURL    string         `bson:"n8n_endpoint" json:"targetUrl"`
	Brand        *string        `bson:"brand" json:"brand"`
	Channel      *string        `bson:"channel" json:"channel"`
	Status       EndpointStatus `bson:"status" json:"status"`
	Metadata     map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt    time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updatedAt"`
}

func (e *Endpoint) AggregateID() string    { return e.ID }
func (e *Endpoint) CollectionName() string { return CollectionName }

// IsActive returns true if the endpoint may be dispatched to.
func (e *Endpoint) IsActive() bool {
	return e.Status == StatusActive
}

// BrandValue returns the brand or "" when the endpoint is brand-agnostic.
func (e *Endpoint) BrandValue() string {
	if e.Brand == nil {
		return ""
	}
	return *e.Brand
}

// Host returns the target URL host, used to key per-host circuit breakers.
func (e *Endpoint) Host() string {
	u, err := url.Parse(e.TargetURL)
	if err != nil {
		return e.TargetURL
	}
	return u.Host
}

// TimeoutOverride returns metadata.timeout_seconds when it is a whole number in 1..900.
func (e *Endpoint) TimeoutOverride() (time.Duration, bool) {
	raw, ok := e.Metadata[MetadataTimeoutSeconds]
	if !ok {
		return 0, false
	}

	var seconds int64
	switch v := raw.(type) {
	case int:
		seconds = int64(v)
	case int32:
		seconds = int64(v)
	case int64:
		seconds = v
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		seconds = int64(v)
	default:
		return 0, false
	}

	if seconds < 1 || seconds > MaxTimeoutSeconds {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// SigningSecretRef returns the secrets-provider key configured for this endpoint, if any.
func (e *Endpoint) SigningSecretRef() string {
	ref, _ := e.Metadata[MetadataSigningSecretRef].(string)
	return ref
}

// ValidateTargetURL checks that raw is an absolute http(s) URL with a host.
func ValidateTargetURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host")
	}
	return nil
}

// NormalizeOptional trims s and returns nil for empty input.
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SameBrand compares two optional brands; two missing brands are equal.
func SameBrand(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ListFilter narrows List. Nil fields are not filtered on. Unbranded keeps
// only brand-agnostic endpoints and is not combined with Brand.
type ListFilter struct {
	Brand     *string
	Unbranded bool
	Status    *EndpointStatus
}

// Matches reports whether e satisfies the filter.
func (f ListFilter) Matches(e *Endpoint) bool {
	if f.Brand != nil && !SameBrand(f.Brand, e.Brand) {
		return false
	}
	if f.Unbranded && e.Brand != nil {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	return true
}
