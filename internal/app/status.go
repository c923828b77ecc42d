package app

import (
	"math"
	"time"

	"gymos/internal/domain"
)

const (
	// FreshnessDays is the inactivity window after which a member is at risk.
	FreshnessDays = 3
	// NeverActive labels members without check-ins.
	NeverActive = "Never"

	dayLayout = "2006-01-02"
	msPerDay  = 86_400_000
)

// StatusSummary is the engagement classification of one member.
type StatusSummary struct {
	Status          domain.MemberStatus `json:"status"`
	LastActiveLabel string              `json:"lastActive"`
	WeightChange    float64             `json:"weightChange"`
	DaysInactive    int                 `json:"daysInactive"`
}

// Classify derives a member's status from their history as of now.
//
// Days inactive is the absolute time since the last check-in, rounded up to
// whole days. More than FreshnessDays is risk; exactly FreshnessDays is still
// active. WeightChange is start minus current, one decimal, positive for a
// loss, and 0 for fewer than two check-ins.
func Classify(h domain.HistorySeries, now time.Time) StatusSummary {
	last, ok := h.Last()
	if !ok {
		return StatusSummary{Status: domain.StatusNew, LastActiveLabel: NeverActive}
	}

	elapsed := now.Sub(last.At)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(math.Ceil(float64(elapsed.Milliseconds()) / msPerDay))

	s := StatusSummary{
		Status:          domain.StatusActive,
		LastActiveLabel: last.At.In(now.Location()).Format(dayLayout),
		DaysInactive:    days,
	}
	if days > FreshnessDays {
		s.Status = domain.StatusRisk
	}
	if h.Len() >= 2 {
		s.WeightChange = domain.RoundTenth(h.StartWeight() - h.CurrentWeight())
	}
	return s
}
