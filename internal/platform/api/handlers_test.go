package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.aocore.tech/internal/dispatch"
	"go.aocore.tech/internal/dispatch/mediator"
	"go.aocore.tech/internal/platform/audit"
	"go.aocore.tech/internal/platform/auth"
	"go.aocore.tech/internal/platform/brand"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/execution"
	"go.aocore.tech/internal/platform/query"
	"go.aocore.tech/internal/platform/webhook"
)

const testSecret = "api-test-secret"

// stores routes aggregates to the in-memory repository that owns them.
type stores struct {
	endpoints *webhook.MemoryRepository
	brands    *brand.MemoryRepository
}

func (s stores) Save(ctx context.Context, aggregate any) error {
	if _, ok := aggregate.(*brand.Configuration); ok {
		return s.brands.Save(ctx, aggregate)
	}
	return s.endpoints.Save(ctx, aggregate)
}

func (s stores) Remove(ctx context.Context, aggregate any) error {
	if _, ok := aggregate.(*brand.Configuration); ok {
		return s.brands.Remove(ctx, aggregate)
	}
	return s.endpoints.Remove(ctx, aggregate)
}

type testServer struct {
	router    chi.Router
	endpoints *webhook.MemoryRepository
	records   *execution.MemoryRepository
	brands    *brand.MemoryRepository
	auditRepo *audit.MemoryRepository
	uow       *common.MemoryUnitOfWork
}

type option func(*Dependencies)

func withExecutor(e WorkflowExecutor) option {
	return func(d *Dependencies) { d.Dispatcher = e }
}

func withAuth(enabled bool) option {
	return func(d *Dependencies) {
		if !enabled {
			return
		}
		v, err := auth.NewVerifier(auth.Config{HMACSecret: testSecret})
		if err != nil {
			panic(err)
		}
		d.Auth = auth.NewMiddleware(v, false)
	}
}

func withRateLimit(rpm, burst int) option {
	return func(d *Dependencies) {
		d.RateLimiter = NewUserRateLimiter(RateLimitConfig{RequestsPerMinute: rpm, Burst: burst})
	}
}

func newTestServer(t *testing.T, opts ...option) *testServer {
	t.Helper()

	s := &testServer{
		endpoints: webhook.NewMemoryRepository(),
		records:   execution.NewMemoryRepository(),
		brands:    brand.NewMemoryRepository(),
		auditRepo: audit.NewMemoryRepository(),
	}
	s.uow = common.NewMemoryUnitOfWork(stores{endpoints: s.endpoints, brands: s.brands})

	medCfg := mediator.DefaultHTTPMediatorConfig()
	medCfg.HTTPVersion = mediator.HTTPVersion1
	medCfg.CircuitBreakerEnabled = false
	ledger := execution.NewLedger(s.records)

	deps := Dependencies{
		Dispatcher: dispatch.NewDispatcher(s.endpoints, ledger, mediator.NewHTTPMediator(medCfg), nil, nil, dispatch.Config{}),
		Query:      query.NewService(s.endpoints, ledger),
		Endpoints:  s.endpoints,
		Brands:     s.brands,
		Audit:      audit.NewService(s.auditRepo),
		UnitOfWork: s.uow,
		Auth:       auth.NewMiddleware(nil, true),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	r := chi.NewRouter()
	r.Route("/api", NewHandlers(deps).Routes)
	s.router = r
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func token(t *testing.T, sub, role string, brands ...string) string {
	t.Helper()
	c := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		OrgID:  "org-1",
		Role:   role,
		Brands: brands,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func strPtr(s string) *string { return &s }

func TestExecute_EndToEnd(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer remote.Close()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/webhooks", map[string]any{
		"workflowName": "welcome",
		"targetUrl":    remote.URL,
		"brand":        "acme",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	endpoint := decode[webhook.Endpoint](t, rec)
	assert.Equal(t, "welcome", endpoint.WorkflowName)
	assert.Equal(t, webhook.StatusActive, endpoint.Status)

	rec = s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{
		"workflowName": "welcome",
		"brand":        "acme",
		"payload":      map[string]any{"name": "Ada"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[dispatch.ExecutionResult](t, rec)
	assert.Equal(t, execution.StatusSuccess, result.Status)
	assert.Equal(t, map[string]any{"ok": true}, result.OutputPayload)

	rec = s.do(t, http.MethodGet, "/api/executions?endpointId="+endpoint.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[[]map[string]any](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, result.ExecutionID, views[0]["id"])
	assert.Equal(t, "anonymous", views[0]["userId"])
	assert.Equal(t, "welcome", views[0]["endpoint"].(map[string]any)["workflowName"])

	rec = s.do(t, http.MethodGet, "/api/executions/"+result.ExecutionID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExecute_UnknownWorkflow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"workflowName": "missing"}, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, common.ErrCodeEndpointNotFound, decode[ErrorResponse](t, rec).Error)
	assert.Zero(t, s.records.Count())
}

func TestExecute_MissingWorkflowName(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"payload": map[string]any{}}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.ErrCodeMissingWorkflowName, decode[ErrorResponse](t, rec).Error)
}

func TestExecute_InvalidBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"payload": "not-an-object"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubExecutor struct {
	err     error
	request dispatch.ExecuteRequest
	execCtx *common.ExecutionContext
}

func (s *stubExecutor) Execute(_ context.Context, req dispatch.ExecuteRequest, execCtx *common.ExecutionContext) (*dispatch.ExecutionResult, error) {
	s.request, s.execCtx = req, execCtx
	if s.err != nil {
		return nil, s.err
	}
	return &dispatch.ExecutionResult{ExecutionID: "exec-1", Status: execution.StatusSuccess, OutputPayload: map[string]any{}}, nil
}

func TestExecute_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantExecID string
	}{
		{"remote rejected", &dispatch.DispatchFailedError{ExecutionID: "exec-1", StatusCode: 500}, http.StatusBadGateway, "DISPATCH_FAILED", "exec-1"},
		{"timeout", &dispatch.TransportError{ExecutionID: "exec-2", Cause: context.DeadlineExceeded, Timeout: true}, http.StatusGatewayTimeout, "WORKFLOW_TIMEOUT", "exec-2"},
		{"connection refused", &dispatch.TransportError{ExecutionID: "exec-3", Cause: errors.New("refused")}, http.StatusBadGateway, "TRANSPORT_ERROR", "exec-3"},
		{"wrapped", fmt.Errorf("dispatch: %w", &dispatch.DispatchFailedError{ExecutionID: "exec-4", StatusCode: 422}), http.StatusBadGateway, "DISPATCH_FAILED", "exec-4"},
		{"outcome not recorded", &dispatch.LedgerWriteError{ExecutionID: "exec-5", Cause: errors.New("storage down")}, http.StatusInternalServerError, "LEDGER_WRITE_FAILED", "exec-5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, withExecutor(&stubExecutor{err: tc.err}))

			rec := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"workflowName": "wf"}, "")

			assert.Equal(t, tc.wantStatus, rec.Code)
			body := decode[DispatchErrorResponse](t, rec)
			assert.Equal(t, tc.wantCode, body.Error)
			assert.Equal(t, tc.wantExecID, body.ExecutionID)
		})
	}

	t.Run("begin failure", func(t *testing.T) {
		s := newTestServer(t, withExecutor(&stubExecutor{err: errors.New("mongo down")}))

		rec := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"workflowName": "wf"}, "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "mongo down")
	})
}

func TestExecute_UnrecordedOutcomeReturnsExecutionID(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer remote.Close()

	s := newTestServer(t)
	s.endpoints.Seed(&webhook.Endpoint{
		ID:           "ep-1",
		WorkflowName: "welcome",
		TargetURL:    remote.URL,
		Status:       webhook.StatusActive,
		CreatedAt:    time.Now(),
	})
	s.records.TransitionErrs = []error{execution.ErrInvalidState}

	rec := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"workflowName": "welcome"}, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
	body := decode[DispatchErrorResponse](t, rec)
	assert.Equal(t, "LEDGER_WRITE_FAILED", body.Error)
	require.NotEmpty(t, body.ExecutionID)

	rec = s.do(t, http.MethodGet, "/api/executions/"+body.ExecutionID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExecute_Authenticated(t *testing.T) {
	stub := &stubExecutor{}
	s := newTestServer(t, withAuth(true), withExecutor(stub))

	rec := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"workflowName": "wf"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/workflows/execute",
		map[string]any{"workflowName": "wf", "brand": "acme"}, token(t, "user-7", "staff", "acme"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "user-7", stub.execCtx.PrincipalID)
	assert.Equal(t, "acme", *stub.request.Brand)

	rec = s.do(t, http.MethodPost, "/api/workflows/execute",
		map[string]any{"workflowName": "wf", "brand": "globex"}, token(t, "user-7", "staff", "acme"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/workflows/execute",
		map[string]any{"workflowName": "wf", "brand": "globex"}, token(t, "admin-1", "admin", "acme"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExecute_RateLimited(t *testing.T) {
	s := newTestServer(t, withExecutor(&stubExecutor{}), withRateLimit(1, 1))

	first := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"workflowName": "wf"}, "")
	second := s.do(t, http.MethodPost, "/api/workflows/execute", map[string]any{"workflowName": "wf"}, "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestWebhooks_CRUD(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/webhooks", map[string]any{
		"workflowName": "reminder",
		"targetUrl":    "https://n8n.example.com/webhook/reminder",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[webhook.Endpoint](t, rec)

	rec = s.do(t, http.MethodPost, "/api/webhooks", map[string]any{
		"workflowName": "reminder",
		"targetUrl":    "https://n8n.example.com/webhook/other",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, common.ErrCodeActiveEndpointExists, decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPost, "/api/webhooks", map[string]any{
		"workflowName": "broken",
		"targetUrl":    "ftp://example.com",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/webhooks/by-name/reminder", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[webhook.Endpoint](t, rec).ID)

	rec = s.do(t, http.MethodPatch, "/api/webhooks/"+created.ID, map[string]any{"status": "inactive"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, webhook.StatusInactive, decode[webhook.Endpoint](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/api/webhooks?status=active", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]webhook.Endpoint](t, rec))

	rec = s.do(t, http.MethodGet, "/api/webhooks?status=bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/webhooks?unbranded=true", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	unbranded := decode[[]webhook.Endpoint](t, rec)
	require.Len(t, unbranded, 1)
	assert.Equal(t, created.ID, unbranded[0].ID)

	rec = s.do(t, http.MethodGet, "/api/webhooks?unbranded=maybe", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/webhooks/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/webhooks/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Len(t, s.uow.AuditLogs(), 3)
}

func TestWebhooks_MutationsRequireAdmin(t *testing.T) {
	s := newTestServer(t, withAuth(true))
	body := map[string]any{"workflowName": "wf", "targetUrl": "https://example.com/hook"}

	rec := s.do(t, http.MethodPost, "/api/webhooks", body, token(t, "user-1", "staff"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/webhooks", body, token(t, "owner-1", "owner"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/webhooks", nil, token(t, "user-1", "staff"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]webhook.Endpoint](t, rec), 1)
}

func TestExecutions_InvalidLimit(t *testing.T) {
	s := newTestServer(t)

	for _, limit := range []string{"abc", "0", "501"} {
		rec := s.do(t, http.MethodGet, "/api/executions?limit="+limit, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
		assert.Equal(t, common.ErrCodeInvalidLimit, decode[ErrorResponse](t, rec).Error, limit)
	}

	rec := s.do(t, http.MethodGet, "/api/executions/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrands_CRUD(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/brands", map[string]any{
		"brandKey":         "acme",
		"brandDisplayName": "Acme Co",
		"emailFrom":        "hello@acme.test",
		"emailEnabled":     true,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[brand.Configuration](t, rec)
	assert.Equal(t, "acme", created.BrandKey)
	assert.True(t, created.EmailEnabled)

	rec = s.do(t, http.MethodPost, "/api/brands", map[string]any{"brandKey": "acme", "brandDisplayName": "Again"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/brands", map[string]any{"brandKey": "Not A Slug", "brandDisplayName": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/brands/"+created.ID, map[string]any{"smsEnabled": true}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[brand.Configuration](t, rec).SMSEnabled)

	rec = s.do(t, http.MethodGet, "/api/brands/acme", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[brand.Configuration](t, rec).ID)

	rec = s.do(t, http.MethodDelete, "/api/brands/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/brands/acme", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, common.ErrCodeBrandNotFound, decode[ErrorResponse](t, rec).Error)
}

func TestAuditLogs(t *testing.T) {
	s := newTestServer(t, withAuth(true))
	ctx := context.Background()

	for i := range 3 {
		require.NoError(t, s.auditRepo.Insert(ctx, &audit.AuditLog{
			ID:          fmt.Sprintf("log-%d", i),
			EntityType:  "Endpoint",
			EntityID:    "ep-1",
			Operation:   "UpdateEndpoint",
			PrincipalID: "owner-1",
			PerformedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	rec := s.do(t, http.MethodGet, "/api/audit-logs", nil, token(t, "user-1", "manager"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := token(t, "owner-1", "owner")

	rec = s.do(t, http.MethodGet, "/api/audit-logs?entityType=Endpoint&pageSize=2", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[audit.AuditLogListResponse](t, rec)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.AuditLogs, 2)
	assert.Equal(t, "log-2", page.AuditLogs[0].ID)

	rec = s.do(t, http.MethodGet, "/api/audit-logs?pageSize=abc", nil, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/audit-logs/entity/Endpoint/ep-1", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]audit.AuditLogDetailDTO](t, rec), 3)

	rec = s.do(t, http.MethodGet, "/api/audit-logs/log-1", nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}
