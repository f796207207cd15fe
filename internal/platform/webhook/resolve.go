package webhook

import (
	"context"
	"log/slog"

	"go.aocore.tech/internal/common/metrics"
)

// resolveActive picks the endpoint to dispatch to from candidates sorted by
// created_at ascending. More than one candidate means the uniqueness rule was
// bypassed (legacy rows), so the oldest wins and the ambiguity is reported.
func resolveActive(ctx context.Context, workflowName string, brand *string, candidates []*Endpoint) (*Endpoint, error) {
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}
	if len(candidates) > 1 {
		metrics.RegistryAmbiguousResolutions.Inc()
		slog.WarnContext(ctx, "Multiple active endpoints match workflow, using oldest",
			"workflowName", workflowName,
			"brand", brandLabel(brand),
			"selectedId", candidates[0].ID,
			"ignoredId", candidates[1].ID)
	}
	return candidates[0], nil
}

func brandLabel(brand *string) string {
	if brand == nil {
		return "<none>"
	}
	return *brand
}
