// Package events defines the domain events emitted when registry and brand
// aggregates change. Each event is persisted to domain_events together with
// the aggregate by the unit of work.
package events

import (
	"fmt"

	"go.aocore.tech/internal/platform/common"
)

// Event type codes follow the format: {app}:{domain}:{aggregate}:{action}

// Endpoint event codes
const (
	EventTypeEndpointRegistered = "aocore:registry:endpoint:registered"
	EventTypeEndpointUpdated    = "aocore:registry:endpoint:updated"
	EventTypeEndpointDeleted    = "aocore:registry:endpoint:deleted"
)

// Brand event codes
const (
	EventTypeBrandCreated = "aocore:brands:brand:created"
	EventTypeBrandUpdated = "aocore:brands:brand:updated"
	EventTypeBrandDeleted = "aocore:brands:brand:deleted"
)

// subject builds a subject string for domain events
// Format: {domain}.{aggregate}.{id}
func subject(domain, aggregate, id string) string {
	return fmt.Sprintf("%s.%s.%s", domain, aggregate, id)
}

// messageGroup builds a message group key for ordered delivery
// Format: {domain}:{aggregate}:{id}
func messageGroup(domain, aggregate, id string) string {
	return fmt.Sprintf("%s:%s:%s", domain, aggregate, id)
}

// newBase creates a BaseDomainEvent with standard settings
func newBase(ctx *common.ExecutionContext, eventType, domain, aggregate, id string) common.BaseDomainEvent {
	return common.NewBaseDomainEvent(
		ctx,
		eventType,
		subject(domain, aggregate, id),
		messageGroup(domain, aggregate, id),
	)
}
