package app

import (
	"context"
	"time"

	"gymos/internal/domain"
	"gymos/internal/logging"

	"go.uber.org/zap"
)

// Stats are the progress figures shown to a member.
type Stats struct {
	StartWeight   float64 `json:"startWeight"`
	CurrentWeight float64 `json:"currentWeight"`
	// TotalChange is start minus current; positive means weight lost.
	TotalChange float64 `json:"totalChange"`
	// RecentChange is previous minus current check-in.
	RecentChange float64       `json:"recentChange"`
	Status       StatusSummary `json:"status"`
}

// NewStats derives Stats from a history as of now.
func NewStats(h domain.HistorySeries, now time.Time) Stats {
	return Stats{
		StartWeight:   h.StartWeight(),
		CurrentWeight: h.CurrentWeight(),
		TotalChange:   domain.RoundTenth(h.StartWeight() - h.CurrentWeight()),
		RecentChange:  domain.RoundTenth(h.RecentChange()),
		Status:        Classify(h, now),
	}
}

// Progress is a member's refreshed view after a read or check-in.
type Progress struct {
	History domain.HistorySeries `json:"history"`
	Stats   Stats                `json:"stats"`
	// Result is set after a submitted check-in.
	Result *PlanResult `json:"result,omitempty"`
	// Stale is set when the check-in was written but the refresh failed.
	Stale bool `json:"stale,omitempty"`
}

// CheckInService runs the check-in flow: generate and persist, then re-read.
type CheckInService struct {
	plans   *PlanGenerator
	history *HistoryService
	now     func() time.Time
	log     *zap.Logger
}

// NewCheckInService wires the check-in flow.
func NewCheckInService(plans *PlanGenerator, history *HistoryService, log *zap.Logger) *CheckInService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckInService{plans: plans, history: history, now: time.Now, log: log}
}

// Submit persists a check-in with a generated plan and then refreshes the
// caller's history from the store. The refresh is issued only after the
// write has completed.
func (s *CheckInService) Submit(ctx context.Context, caller domain.Caller, req PlanRequest) (Progress, error) {
	res, err := s.plans.GeneratePlan(ctx, caller, req)
	if err != nil {
		return Progress{}, err
	}

	p, err := s.Progress(ctx, caller)
	if err != nil {
		logging.FromContext(ctx, s.log).Warn("history refresh after check-in failed",
			zap.String("member_id", string(caller.MemberID)), zap.Error(err))
		return Progress{Result: &res, Stale: true}, nil
	}
	p.Result = &res
	return p, nil
}

// Progress returns the caller's current history and stats without writing.
func (s *CheckInService) Progress(ctx context.Context, caller domain.Caller) (Progress, error) {
	h, err := s.history.LoadHistory(ctx, caller, caller.MemberID)
	if err != nil {
		return Progress{}, err
	}
	return Progress{History: h, Stats: NewStats(h, s.now())}, nil
}
