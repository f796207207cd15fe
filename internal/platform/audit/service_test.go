package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.aocore.tech/internal/platform/common"
)

func intPtr(i int) *int { return &i }

func seed(t *testing.T, repo *MemoryRepository) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(context.Background(), &AuditLog{
			EntityType:    "Endpoint",
			EntityID:      "ep-1",
			Operation:     fmt.Sprintf("Op%d", i),
			OperationJSON: "{}",
			PerformedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Insert(context.Background(), &AuditLog{
		EntityType:  "Brand",
		EntityID:    "b-1",
		Operation:   "CreateBrandCommand",
		PerformedAt: base,
	}))
}

func TestList_FilterAndPaging(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo)
	svc := NewService(repo)

	resp, err := svc.List(context.Background(), "Endpoint", 1, intPtr(2))
	require.Nil(t, err)
	assert.Equal(t, int64(5), resp.Total)
	require.Len(t, resp.AuditLogs, 2)
	assert.Equal(t, "Op2", resp.AuditLogs[0].Operation)
	assert.Equal(t, "Op1", resp.AuditLogs[1].Operation)

	resp, err = svc.List(context.Background(), "", 0, nil)
	require.Nil(t, err)
	assert.Equal(t, int64(6), resp.Total)
	assert.Equal(t, DefaultPageSize, resp.PageSize)

	resp, err = svc.List(context.Background(), "Endpoint", 9, intPtr(2))
	require.Nil(t, err)
	assert.Empty(t, resp.AuditLogs)
}

func TestList_Validation(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.List(context.Background(), "", -1, nil)
	require.NotNil(t, err)
	assert.Equal(t, common.ErrCodeInvalidValue, err.Code)

	_, err = svc.List(context.Background(), "", 0, intPtr(101))
	require.NotNil(t, err)
	assert.Equal(t, common.ErrCodeInvalidLimit, err.Code)
}

func TestHistory(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo)
	svc := NewService(repo)

	history, err := svc.History(context.Background(), "Brand", "b-1")
	require.Nil(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "CreateBrandCommand", history[0].Operation)
}

func TestLogSystem(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := common.WithCorrelationID(context.Background(), "sweeper-1")

	svc.LogSystem(ctx, "Execution", "exec-1", "SweepStaleExecution", map[string]string{"status": "timeout"})

	logs, err := repo.FindByEntity(context.Background(), "Execution", "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, SystemPrincipalID, logs[0].PrincipalID)
	assert.Equal(t, "sweeper-1", logs[0].CorrelationID)
	assert.JSONEq(t, `{"status":"timeout"}`, logs[0].OperationJSON)

	got, uerr := svc.Get(context.Background(), logs[0].ID)
	require.Nil(t, uerr)
	assert.Equal(t, "SweepStaleExecution", got.Operation)

	_, uerr = svc.Get(context.Background(), "missing")
	require.NotNil(t, uerr)
	assert.Equal(t, common.ErrorKindNotFound, uerr.Kind)
}
