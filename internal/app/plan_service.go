package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"gymos/internal/domain"
	"gymos/internal/logging"
	"gymos/internal/metrics"

	"go.uber.org/zap"
)

// PlanState is the lifecycle state of one plan generation attempt.
type PlanState string

const (
	PlanIdle       PlanState = "idle"
	PlanRequesting PlanState = "requesting"
	PlanCompleted  PlanState = "completed"
	PlanFallenBack PlanState = "fallen_back"
)

// Fallback reasons, kept so operators can tell failure causes apart even
// though members always receive a plan.
const (
	ReasonTimeout     = "timeout"
	ReasonCanceled    = "canceled"
	ReasonTransport   = "transport"
	ReasonBreakerOpen = "breaker_open"
	ReasonMalformed   = "malformed"
	ReasonDisabled    = "disabled"
)

// Accepted goals and diet preferences.
var (
	Goals           = []string{"weight_loss", "muscle_gain", "maintenance"}
	DietPreferences = []string{"non_veg", "veg", "egg"}
)

// PlanRequest is a submitted check-in form.
type PlanRequest struct {
	Weight         float64 `json:"weight"`
	Goal           string  `json:"goal"`
	DietPreference string  `json:"dietPreference"`
	BreakfastNote  string  `json:"breakfastNote"`
	DisplayName    string  `json:"name"`
}

// Normalize applies defaults and validates the request.
func (r PlanRequest) Normalize() (PlanRequest, error) {
	if err := validateWeight(r.Weight); err != nil {
		return r, err
	}
	r.Goal = strings.TrimSpace(r.Goal)
	if r.Goal == "" {
		r.Goal = Goals[0]
	}
	if !slices.Contains(Goals, r.Goal) {
		return r, fmt.Errorf("%w: goal must be one of %s", domain.ErrInvalidInput, strings.Join(Goals, ", "))
	}
	r.DietPreference = strings.TrimSpace(r.DietPreference)
	if r.DietPreference == "" {
		r.DietPreference = DietPreferences[0]
	}
	if !slices.Contains(DietPreferences, r.DietPreference) {
		return r, fmt.Errorf("%w: dietPreference must be one of %s", domain.ErrInvalidInput, strings.Join(DietPreferences, ", "))
	}
	r.BreakfastNote = strings.TrimSpace(r.BreakfastNote)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	return r, nil
}

// PlanOutcome describes how a plan was produced.
type PlanOutcome struct {
	Attempt uint64    `json:"attempt"`
	State   PlanState `json:"state"`
	Reason  string    `json:"reason,omitempty"`
	Err     error     `json:"-"`
}

// PlanResult is the persisted check-in and its plan.
type PlanResult struct {
	CheckIn domain.CheckIn `json:"checkIn"`
	Plan    domain.Plan    `json:"plan"`
	Outcome PlanOutcome    `json:"outcome"`
}

// PlanGeneratorConfig bounds completion calls.
type PlanGeneratorConfig struct {
	// Timeout bounds the wait for a reply.
	Timeout time.Duration
	// CallCeiling bounds the call itself, which outlives an expired wait.
	CallCeiling time.Duration
}

// PlanGenerator turns check-in forms into diet plans and persists them.
type PlanGenerator struct {
	store   *RecordStore
	ai      domain.Completer
	cfg     PlanGeneratorConfig
	metrics *metrics.Recorder
	log     *zap.Logger
	seq     atomic.Uint64
}

// NewPlanGenerator creates a PlanGenerator. A nil completer disables AI and
// every request receives the fallback plan.
func NewPlanGenerator(store *RecordStore, ai domain.Completer, cfg PlanGeneratorConfig, m *metrics.Recorder, log *zap.Logger) *PlanGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CallCeiling < cfg.Timeout {
		cfg.CallCeiling = cfg.Timeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PlanGenerator{store: store, ai: ai, cfg: cfg, metrics: m, log: log}
}

// GeneratePlan requests a plan for req, substitutes the fallback plan on any
// AI failure, and persists exactly one check-in. Only validation and store
// errors are returned.
func (g *PlanGenerator) GeneratePlan(ctx context.Context, caller domain.Caller, req PlanRequest) (PlanResult, error) {
	req, err := req.Normalize()
	if err != nil {
		return PlanResult{}, err
	}
	if caller.MemberID == "" {
		return PlanResult{}, domain.ErrNotAuthorized
	}

	log := logging.FromContext(ctx, g.log).With(zap.String("member_id", string(caller.MemberID)))
	outcome := PlanOutcome{Attempt: g.seq.Add(1), State: PlanRequesting}
	log = log.With(zap.Uint64("attempt", outcome.Attempt))

	plan, outcome := g.requestPlan(ctx, req, outcome, log)
	g.metrics.PlanOutcome(string(outcome.State), outcome.Reason)
	if outcome.State == PlanFallenBack {
		log.Warn("plan generation fell back",
			zap.String("reason", outcome.Reason), zap.Error(outcome.Err))
	}

	c, err := g.store.CreateCheckIn(ctx, caller, caller.MemberID, req.Weight, &plan, req.DisplayName)
	if err != nil {
		return PlanResult{Outcome: outcome}, err
	}
	return PlanResult{CheckIn: c, Plan: plan, Outcome: outcome}, nil
}

func (g *PlanGenerator) requestPlan(ctx context.Context, req PlanRequest, outcome PlanOutcome, log *zap.Logger) (domain.Plan, PlanOutcome) {
	fallBack := func(reason string, err error) (domain.Plan, PlanOutcome) {
		outcome.State, outcome.Reason, outcome.Err = PlanFallenBack, reason, err
		return FallbackPlan(), outcome
	}

	if g.ai == nil {
		return fallBack(ReasonDisabled, nil)
	}

	prompt := buildPlanPrompt(req)
	r := awaitCompletion(ctx, g.cfg.Timeout, g.cfg.CallCeiling,
		func(callCtx context.Context) (string, error) { return g.ai.Complete(callCtx, prompt) },
		func(late completionReply) {
			log.Info("late completion discarded",
				zap.Duration("elapsed", late.elapsed), zap.Bool("failed", late.err != nil))
		})
	if r.err != nil {
		return fallBack(failureReason(r.err), r.err)
	}
	g.metrics.CompletionLatency("plan", r.elapsed)

	reply, err := ParsePlanReply(r.text)
	if err != nil {
		return fallBack(ReasonMalformed, err)
	}
	plan, err := RenderPlan(reply.Meals, reply.Note, domain.PlanSourceAI)
	if err != nil {
		return fallBack(ReasonMalformed, err)
	}
	outcome.State = PlanCompleted
	return plan, outcome
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, errWaitExpired):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, domain.ErrAICircuitOpen):
		return ReasonBreakerOpen
	case errors.Is(err, domain.ErrAIMalformed):
		return ReasonMalformed
	default:
		return ReasonTransport
	}
}

func buildPlanPrompt(req PlanRequest) string {
	breakfast := req.BreakfastNote
	if breakfast == "" {
		breakfast = "no preference given"
	}
	return fmt.Sprintf(`Act as a strict Gym Trainer. User Weight: %gkg, Goal: %s, Diet Preference: %s.
Breakfast Preference: %s.

STRICTLY return a JSON OBJECT with this structure:
{
  "meals": [
    { "name": "Breakfast", "items": "Food names", "calories": 300, "protein": 10 },
    { "name": "Lunch", "items": "Food names", "calories": 500, "protein": 20 },
    { "name": "Snack", "items": "Food names", "calories": 150, "protein": 5 },
    { "name": "Dinner", "items": "Food names", "calories": 400, "protein": 15 }
  ],
  "trainer_note": "Short motivation."
}`, req.Weight, humanize(req.Goal), humanize(req.DietPreference), breakfast)
}

func humanize(s string) string { return strings.ReplaceAll(s, "_", " ") }
