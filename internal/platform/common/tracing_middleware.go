package common

import (
	"net/http"

	"github.com/google/uuid"
)

// TracingMiddleware extracts distributed tracing headers from incoming requests
// and adds them to the request context. The correlation ID is echoed on the
// response so clients can quote it when looking up an execution.
//
// Supported headers:
//   - X-Correlation-ID: Primary distributed tracing ID
//   - X-Request-ID: Alternative to correlation ID (some clients use this)
//   - X-Causation-ID: ID of the event that caused this request
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = r.Header.Get(HeaderRequestID)
		}
		if correlationID == "" {
			correlationID = "trace-" + uuid.NewString()
		}

		ctx := WithCorrelationID(r.Context(), correlationID)
		if causationID := r.Header.Get(HeaderCausationID); causationID != "" {
			ctx = WithCausationID(ctx, causationID)
		}

		w.Header().Set(HeaderCorrelationID, correlationID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PropagateTracingHeaders copies tracing headers to an outgoing request.
func PropagateTracingHeaders(ctx interface{ Value(any) any }, req *http.Request) {
	if correlationID, ok := ctx.Value(correlationIDKey).(string); ok && correlationID != "" {
		req.Header.Set(HeaderCorrelationID, correlationID)
	}
	if causationID, ok := ctx.Value(causationIDKey).(string); ok && causationID != "" {
		req.Header.Set(HeaderCausationID, causationID)
	}
}
