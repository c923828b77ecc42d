package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gymos/internal/adapter/memory"
	"gymos/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryServices(t *testing.T, db *memory.DB) (*RecordStore, *HistoryService) {
	t.Helper()
	store := NewRecordStore(db, db, nil)
	return store, NewHistoryService(store)
}

func TestCheckInService_SubmitRefreshesAfterWrite(t *testing.T) {
	db := memory.New()
	store, history := newMemoryServices(t, db)
	plans := NewPlanGenerator(store, nil, PlanGeneratorConfig{Timeout: time.Second}, nil, nil)
	svc := NewCheckInService(plans, history, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, alice, PlanRequest{Weight: 85})
	require.NoError(t, err)
	p, err := svc.Submit(ctx, alice, PlanRequest{Weight: 83.4})
	require.NoError(t, err)

	require.NotNil(t, p.Result)
	assert.False(t, p.Stale)
	require.Equal(t, 2, p.History.Len(), "refresh must include the row just written")
	assert.Equal(t, 83.4, p.History.CurrentWeight())
	assert.Equal(t, p.Result.Plan.HTML, p.History.CurrentPlan.HTML)
	assert.Equal(t, 85.0, p.Stats.StartWeight)
	assert.InDelta(t, 1.6, p.Stats.TotalChange, 1e-9)
	assert.InDelta(t, 1.6, p.Stats.RecentChange, 1e-9)
	assert.Equal(t, domain.StatusActive, p.Stats.Status.Status)
}

func TestCheckInService_SubmitOrdersWriteBeforeRead(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(op string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, op)
	}

	repo := &mockCheckInRepo{
		createFn: func(_ context.Context, id domain.MemberID, w float64, plan *domain.Plan) (domain.CheckIn, error) {
			record("write")
			return domain.CheckIn{ID: 7, MemberID: id, Weight: w, Plan: plan, CreatedAt: time.Now()}, nil
		},
		listFn: func(_ context.Context, id domain.MemberID) ([]domain.CheckIn, error) {
			record("read")
			return []domain.CheckIn{{ID: 7, MemberID: id, Weight: 80, CreatedAt: time.Now()}}, nil
		},
	}
	store := NewRecordStore(repo, &mockMemberRepo{}, nil)
	plans := NewPlanGenerator(store, nil, PlanGeneratorConfig{}, nil, nil)
	svc := NewCheckInService(plans, NewHistoryService(store), nil)

	_, err := svc.Submit(context.Background(), alice, PlanRequest{Weight: 80})
	require.NoError(t, err)
	assert.Equal(t, []string{"write", "read"}, order)
}

func TestCheckInService_SubmitStaleWhenRefreshFails(t *testing.T) {
	repo := &mockCheckInRepo{
		listFn: func(context.Context, domain.MemberID) ([]domain.CheckIn, error) {
			return nil, errors.New("replica lagging")
		},
	}
	store := NewRecordStore(repo, &mockMemberRepo{}, nil)
	plans := NewPlanGenerator(store, nil, PlanGeneratorConfig{}, nil, nil)
	svc := NewCheckInService(plans, NewHistoryService(store), nil)

	p, err := svc.Submit(context.Background(), alice, PlanRequest{Weight: 80})
	require.NoError(t, err, "a persisted check-in is not reported as failed")
	assert.True(t, p.Stale)
	require.NotNil(t, p.Result)
	assert.EqualValues(t, 1, repo.creates.Load())
}

func TestCheckInService_SubmitInvalid(t *testing.T) {
	db := memory.New()
	store, history := newMemoryServices(t, db)
	svc := NewCheckInService(NewPlanGenerator(store, nil, PlanGeneratorConfig{}, nil, nil), history, nil)

	_, err := svc.Submit(context.Background(), alice, PlanRequest{Weight: -3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := svc.Progress(context.Background(), alice)
	require.NoError(t, err)
	assert.True(t, p.History.Empty())
	assert.Equal(t, domain.StatusNew, p.Stats.Status.Status)
}

func TestHistoryService_Chart(t *testing.T) {
	db := memory.New()
	store, history := newMemoryServices(t, db)
	ctx := context.Background()

	_, err := store.CreateCheckIn(ctx, alice, "alice", 100, nil, "")
	require.NoError(t, err)

	kg, err := history.Chart(ctx, alice, "alice", domain.UnitKg)
	require.NoError(t, err)
	require.Len(t, kg, 1)
	assert.Equal(t, 100.0, kg[0].Weight)

	lb, err := history.Chart(ctx, alice, "alice", domain.UnitLb)
	require.NoError(t, err)
	assert.Equal(t, 220.5, lb[0].Weight)
	assert.Equal(t, domain.UnitLb, lb[0].Unit)

	_, err = history.Chart(ctx, alice, "alice", "stone")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = history.Chart(ctx, domain.Caller{MemberID: "bob"}, "alice", domain.UnitKg)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestHistoryService_LoadHistoryAfterEachWrite(t *testing.T) {
	db := memory.New()
	store, history := newMemoryServices(t, db)
	ctx := context.Background()

	for i, w := range []float64{90, 89, 88} {
		_, err := store.CreateCheckIn(ctx, alice, "alice", w, nil, "")
		require.NoError(t, err)
		h, err := history.LoadHistory(ctx, alice, "alice")
		require.NoError(t, err)
		assert.Equal(t, i+1, h.Len())
		assert.Equal(t, w, h.CurrentWeight())
	}
}
