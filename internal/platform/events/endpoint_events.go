package events

import (
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/webhook"
)

type endpointData struct {
	EndpointID   string                 `json:"endpointId"`
	WorkflowName string                 `json:"workflowName"`
	TargetURL    string                 `json:"targetUrl"`
	Brand        *string                `json:"brand"`
	Channel      *string                `json:"channel"`
	Status       webhook.EndpointStatus `json:"status"`
}

func newEndpointData(e *webhook.Endpoint) endpointData {
	return endpointData{
		EndpointID:   e.ID,
		WorkflowName: e.WorkflowName,
		TargetURL:    e.TargetURL,
		Brand:        e.Brand,
		Channel:      e.Channel,
		Status:       e.Status,
	}
}

// EndpointRegistered is emitted when a workflow endpoint is registered
type EndpointRegistered struct {
	common.BaseDomainEvent
	endpointData
}

func (e *EndpointRegistered) ToDataJSON() string {
	return common.MarshalDataJSON(e.endpointData)
}

func NewEndpointRegistered(ctx *common.ExecutionContext, endpoint *webhook.Endpoint) *EndpointRegistered {
	return &EndpointRegistered{
		BaseDomainEvent: newBase(ctx, EventTypeEndpointRegistered, "registry", "endpoint", endpoint.ID),
		endpointData:    newEndpointData(endpoint),
	}
}

// EndpointUpdated is emitted when any endpoint field changes
type EndpointUpdated struct {
	common.BaseDomainEvent
	endpointData
	PreviousStatus webhook.EndpointStatus `json:"previousStatus"`
}

func (e *EndpointUpdated) ToDataJSON() string {
	return common.MarshalDataJSON(struct {
		endpointData
		PreviousStatus webhook.EndpointStatus `json:"previousStatus"`
	}{e.endpointData, e.PreviousStatus})
}

func NewEndpointUpdated(ctx *common.ExecutionContext, endpoint *webhook.Endpoint, previousStatus webhook.EndpointStatus) *EndpointUpdated {
	return &EndpointUpdated{
		BaseDomainEvent: newBase(ctx, EventTypeEndpointUpdated, "registry", "endpoint", endpoint.ID),
		endpointData:    newEndpointData(endpoint),
		PreviousStatus:  previousStatus,
	}
}

// EndpointDeleted is emitted when an endpoint is permanently removed
type EndpointDeleted struct {
	common.BaseDomainEvent
	EndpointID   string `json:"endpointId"`
	WorkflowName string `json:"workflowName"`
}

func (e *EndpointDeleted) ToDataJSON() string {
	return common.MarshalDataJSON(struct {
		EndpointID   string `json:"endpointId"`
		WorkflowName string `json:"workflowName"`
	}{e.EndpointID, e.WorkflowName})
}

func NewEndpointDeleted(ctx *common.ExecutionContext, endpoint *webhook.Endpoint) *EndpointDeleted {
	return &EndpointDeleted{
		BaseDomainEvent: newBase(ctx, EventTypeEndpointDeleted, "registry", "endpoint", endpoint.ID),
		EndpointID:      endpoint.ID,
		WorkflowName:    endpoint.WorkflowName,
	}
}
