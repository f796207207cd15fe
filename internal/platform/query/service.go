// Package query is the read side over the webhook registry and the
// execution ledger. It validates caller filters and passes through.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.aocore.tech/internal/common/repository"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/execution"
	"go.aocore.tech/internal/platform/webhook"
)

// EndpointReader is the registry read access the query side needs.
type EndpointReader interface {
	FindByID(ctx context.Context, id string) (*webhook.Endpoint, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*webhook.Endpoint, error)
	FindActiveByName(ctx context.Context, workflowName string) (*webhook.Endpoint, error)
	List(ctx context.Context, filter webhook.ListFilter) ([]*webhook.Endpoint, error)
}

// ExecutionReader is the ledger read access the query side needs.
type ExecutionReader interface {
	GetByID(ctx context.Context, id string) (*execution.Record, error)
	List(ctx context.Context, filter execution.ListFilter, limit int) ([]*execution.Record, error)
}

// EndpointSummary is the endpoint projection attached to an execution.
type EndpointSummary struct {
	WorkflowName string  `json:"workflowName"`
	Brand        *string `json:"brand"`
	Channel      *string `json:"channel"`
}

// ExecutionView is an execution record with its endpoint summary. The
// summary is nil when the endpoint has since been deleted.
type ExecutionView struct {
	*execution.Record
	Endpoint *EndpointSummary `json:"endpoint"`
}

// ListEndpointsInput filters ListEndpoints.
type ListEndpointsInput struct {
	Brand *string
	// Unbranded lists only endpoints without a brand.
	Unbranded bool
	Status    string
}

// ListExecutionsInput filters ListExecutions. Limit nil means the default.
type ListExecutionsInput struct {
	EndpointID *string
	UserID     *string
	Status     string
	Limit      *int
}

// Service answers registry and ledger queries.
type Service struct {
	endpoints  EndpointReader
	executions ExecutionReader
}

// NewService creates a query Service.
func NewService(endpoints EndpointReader, executions ExecutionReader) *Service {
	return &Service{endpoints: endpoints, executions: executions}
}

// ListEndpoints lists endpoints newest first.
func (s *Service) ListEndpoints(ctx context.Context, in ListEndpointsInput) ([]*webhook.Endpoint, error) {
	filter := webhook.ListFilter{Brand: webhook.NormalizeOptional(in.Brand), Unbranded: in.Unbranded}
	if filter.Unbranded && filter.Brand != nil {
		return nil, common.ValidationError(common.ErrCodeInvalidValue,
			"brand and unbranded cannot be combined", map[string]any{"brand": *filter.Brand})
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		parsed, ok := webhook.ParseStatus(status)
		if !ok {
			return nil, invalidStatus(status, "active, inactive, testing")
		}
		filter.Status = &parsed
	}

	endpoints, err := s.endpoints.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	return endpoints, nil
}

// ListExecutions lists executions newest first, enriched with endpoint summaries.
func (s *Service) ListExecutions(ctx context.Context, in ListExecutionsInput) ([]*ExecutionView, error) {
	filter := execution.ListFilter{
		EndpointID: webhook.NormalizeOptional(in.EndpointID),
		UserID:     webhook.NormalizeOptional(in.UserID),
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		parsed, ok := execution.ParseStatus(status)
		if !ok {
			return nil, invalidStatus(status, "pending, success, failed, timeout")
		}
		filter.Status = &parsed
	}

	limit := execution.DefaultLimit
	if in.Limit != nil {
		if *in.Limit < 1 || *in.Limit > execution.MaxLimit {
			return nil, common.ValidationError(common.ErrCodeInvalidLimit,
				fmt.Sprintf("limit must be between 1 and %d", execution.MaxLimit),
				map[string]any{"limit": *in.Limit})
		}
		limit = *in.Limit
	}

	records, err := s.executions.List(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return s.enrich(ctx, records)
}

// GetExecution returns one execution with its endpoint summary.
func (s *Service) GetExecution(ctx context.Context, id string) (*ExecutionView, error) {
	record, err := s.executions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NotFoundError(common.ErrCodeExecutionNotFound, "execution not found", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("get execution: %w", err)
	}

	views, err := s.enrich(ctx, []*execution.Record{record})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// GetEndpoint returns one endpoint by id.
func (s *Service) GetEndpoint(ctx context.Context, id string) (*webhook.Endpoint, error) {
	endpoint, err := s.endpoints.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NotFoundError(common.ErrCodeEndpointNotFound, "endpoint not found", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("get endpoint: %w", err)
	}
	return endpoint, nil
}

// GetActiveEndpointByName returns the first active endpoint for a workflow, any brand.
func (s *Service) GetActiveEndpointByName(ctx context.Context, workflowName string) (*webhook.Endpoint, error) {
	name := strings.TrimSpace(workflowName)
	if name == "" {
		return nil, common.ValidationError(common.ErrCodeMissingWorkflowName, "workflowName is required", nil)
	}
	endpoint, err := s.endpoints.FindActiveByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NotFoundError(common.ErrCodeEndpointNotFound, "no active endpoint for workflow",
				map[string]any{"workflowName": name})
		}
		return nil, fmt.Errorf("find active endpoint: %w", err)
	}
	return endpoint, nil
}

func (s *Service) enrich(ctx context.Context, records []*execution.Record) ([]*ExecutionView, error) {
	ids := make([]string, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if !seen[r.WorkflowEndpointID] {
			seen[r.WorkflowEndpointID] = true
			ids = append(ids, r.WorkflowEndpointID)
		}
	}

	endpoints := map[string]*webhook.Endpoint{}
	if len(ids) > 0 {
		var err error
		endpoints, err = s.endpoints.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load endpoints: %w", err)
		}
	}

	views := make([]*ExecutionView, len(records))
	for i, r := range records {
		view := &ExecutionView{Record: r}
		if e, ok := endpoints[r.WorkflowEndpointID]; ok {
			view.Endpoint = &EndpointSummary{
				WorkflowName: e.WorkflowName,
				Brand:        e.Brand,
				Channel:      e.Channel,
			}
		}
		views[i] = view
	}
	return views, nil
}

func invalidStatus(status, allowed string) *common.UseCaseError {
	return common.ValidationError(common.ErrCodeInvalidStatus,
		fmt.Sprintf("status must be one of: %s", allowed),
		map[string]any{"status": status})
}
