package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gymos/internal/domain"
	"gymos/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type planFixture struct {
	repo *mockCheckInRepo
	ai   *mockCompleter
	rec  *metrics.Recorder
	logs *observer.ObservedLogs
	gen  *PlanGenerator
}

func newPlanFixture(t *testing.T, ai *mockCompleter, timeout time.Duration) *planFixture {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	f := &planFixture{repo: &mockCheckInRepo{}, ai: ai, rec: metrics.New(), logs: logs}
	store := NewRecordStore(f.repo, &mockMemberRepo{}, zap.New(core))

	var completer domain.Completer
	if ai != nil {
		completer = ai
	}
	f.gen = NewPlanGenerator(store, completer, PlanGeneratorConfig{Timeout: timeout, CallCeiling: time.Second}, f.rec, zap.New(core))
	return f
}

func (f *planFixture) scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	f.rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

func TestGeneratePlan_AIReply(t *testing.T) {
	var prompt string
	ai := &mockCompleter{completeFn: func(_ context.Context, p string) (string, error) {
		prompt = p
		return "Here you go: " + validPlanJSON, nil
	}}
	f := newPlanFixture(t, ai, time.Second)

	res, err := f.gen.GeneratePlan(context.Background(), alice, PlanRequest{Weight: 82, DietPreference: "veg", BreakfastNote: "poha"})
	require.NoError(t, err)

	assert.Equal(t, PlanCompleted, res.Outcome.State)
	assert.Empty(t, res.Outcome.Reason)
	assert.Equal(t, domain.PlanSourceAI, res.Plan.Source)
	assert.Equal(t, 1250, res.Plan.TotalCalories)
	assert.Equal(t, res.Plan.HTML, res.CheckIn.Plan.HTML)
	assert.EqualValues(t, 1, f.repo.creates.Load())

	assert.Contains(t, prompt, "User Weight: 82kg")
	assert.Contains(t, prompt, "Goal: weight loss")
	assert.Contains(t, prompt, "Diet Preference: veg")
	assert.Contains(t, prompt, "Breakfast Preference: poha")

	assert.Contains(t, f.scrape(t), `gymos_plan_outcomes_total{reason="",state="completed"} 1`)
}

func TestGeneratePlan_FallsBack(t *testing.T) {
	tests := []struct {
		name       string
		completeFn func(context.Context, string) (string, error)
		wantReason string
	}{
		{
			name:       "malformed reply",
			completeFn: replyText("I am just a trainer, no JSON today."),
			wantReason: ReasonMalformed,
		},
		{
			name:       "reply without meals",
			completeFn: replyText(`{"meals":[]}`),
			wantReason: ReasonMalformed,
		},
		{
			name: "transport failure",
			completeFn: func(context.Context, string) (string, error) {
				return "", errors.New("dial tcp: connection refused")
			},
			wantReason: ReasonTransport,
		},
		{
			name: "breaker open",
			completeFn: func(context.Context, string) (string, error) {
				return "", domain.ErrAICircuitOpen
			},
			wantReason: ReasonBreakerOpen,
		},
		{
			name: "completer reports malformed reply",
			completeFn: func(context.Context, string) (string, error) {
				return "", fmt.Errorf("%w: empty gemini reply", domain.ErrAIMalformed)
			},
			wantReason: ReasonMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPlanFixture(t, &mockCompleter{completeFn: tt.completeFn}, time.Second)

			res, err := f.gen.GeneratePlan(context.Background(), alice, PlanRequest{Weight: 80})
			require.NoError(t, err)

			assert.Equal(t, PlanFallenBack, res.Outcome.State)
			assert.Equal(t, tt.wantReason, res.Outcome.Reason)
			assert.Equal(t, FallbackPlan(), res.Plan)
			assert.EqualValues(t, 1, f.repo.creates.Load(), "exactly one check-in per call")
			assert.Equal(t, 1, f.logs.FilterMessage("plan generation fell back").Len())
		})
	}
}

func TestGeneratePlan_Disabled(t *testing.T) {
	f := newPlanFixture(t, nil, time.Second)

	res, err := f.gen.GeneratePlan(context.Background(), alice, PlanRequest{Weight: 80})
	require.NoError(t, err)
	assert.Equal(t, ReasonDisabled, res.Outcome.Reason)
	assert.Equal(t, domain.PlanSourceFallback, res.Plan.Source)
	assert.EqualValues(t, 1, f.repo.creates.Load())
}

func TestGeneratePlan_TimeoutDiscardsLateReply(t *testing.T) {
	release := make(chan struct{})
	ai := &mockCompleter{completeFn: func(context.Context, string) (string, error) {
		<-release
		return validPlanJSON, nil
	}}
	f := newPlanFixture(t, ai, 20*time.Millisecond)

	res, err := f.gen.GeneratePlan(context.Background(), alice, PlanRequest{Weight: 80})
	require.NoError(t, err)
	assert.Equal(t, PlanFallenBack, res.Outcome.State)
	assert.Equal(t, ReasonTimeout, res.Outcome.Reason)
	assert.Equal(t, domain.PlanSourceFallback, res.CheckIn.Plan.Source)

	close(release)
	require.Eventually(t, func() bool {
		return f.logs.FilterMessage("late completion discarded").Len() == 1
	}, time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 1, f.repo.creates.Load(), "late reply must not write a second check-in")
	assert.Contains(t, f.scrape(t), `gymos_plan_outcomes_total{reason="timeout",state="fallen_back"} 1`)
}

func TestGeneratePlan_AttemptsAreNumbered(t *testing.T) {
	f := newPlanFixture(t, nil, time.Second)

	first, err := f.gen.GeneratePlan(context.Background(), alice, PlanRequest{Weight: 80})
	require.NoError(t, err)
	second, err := f.gen.GeneratePlan(context.Background(), alice, PlanRequest{Weight: 79})
	require.NoError(t, err)
	assert.Greater(t, second.Outcome.Attempt, first.Outcome.Attempt)
}

func TestGeneratePlan_InvalidInputWritesNothing(t *testing.T) {
	ai := &mockCompleter{completeFn: replyText(validPlanJSON)}
	f := newPlanFixture(t, ai, time.Second)

	for _, req := range []PlanRequest{
		{Weight: 0},
		{Weight: 80, Goal: "bulk_forever"},
		{Weight: 80, DietPreference: "carnivore"},
	} {
		_, err := f.gen.GeneratePlan(context.Background(), alice, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Zero(t, f.repo.creates.Load())
	assert.Zero(t, ai.calls.Load(), "invalid requests must not reach the completion service")
}

func TestGeneratePlan_StoreFailure(t *testing.T) {
	f := newPlanFixture(t, &mockCompleter{completeFn: replyText(validPlanJSON)}, time.Second)
	f.repo.createFn = func(context.Context, domain.MemberID, float64, *domain.Plan) (domain.CheckIn, error) {
		return domain.CheckIn{}, errors.New("disk full")
	}

	res, err := f.gen.GeneratePlan(context.Background(), alice, PlanRequest{Weight: 80})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, PlanCompleted, res.Outcome.State)
}

func TestPlanRequest_Normalize(t *testing.T) {
	got, err := PlanRequest{Weight: 70, BreakfastNote: "  dosa ", DisplayName: " Ravi "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "weight_loss", got.Goal)
	assert.Equal(t, "non_veg", got.DietPreference)
	assert.Equal(t, "dosa", got.BreakfastNote)
	assert.Equal(t, "Ravi", got.DisplayName)
}

func TestBuildPlanPrompt_NoBreakfast(t *testing.T) {
	p := buildPlanPrompt(PlanRequest{Weight: 90.5, Goal: "muscle_gain", DietPreference: "egg"})
	assert.True(t, strings.Contains(p, "90.5kg"))
	assert.Contains(t, p, "muscle gain")
	assert.Contains(t, p, "no preference given")
}
