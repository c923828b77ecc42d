package domain

import "time"

// HistoryPoint is one (timestamp, weight) pair of a member's history.
type HistoryPoint struct {
	At     time.Time `json:"at"`
	Weight float64   `json:"weight"`
}

// HistorySeries is the derived, ascending check-in history of one member.
type HistorySeries struct {
	MemberID    MemberID       `json:"memberId"`
	Points      []HistoryPoint `json:"points"`
	CurrentPlan *Plan          `json:"currentPlan,omitempty"`
}

// NewHistorySeries derives a series from check-ins already in ascending order.
// CurrentPlan is taken from the newest check-in that carries a plan.
func NewHistorySeries(memberID MemberID, checkIns []CheckIn) HistorySeries {
	h := HistorySeries{MemberID: memberID, Points: make([]HistoryPoint, 0, len(checkIns))}
	for _, c := range checkIns {
		h.Points = append(h.Points, HistoryPoint{At: c.CreatedAt, Weight: c.Weight})
	}
	for i := len(checkIns) - 1; i >= 0; i-- {
		if p := checkIns[i].Plan; p != nil && p.HTML != "" {
			h.CurrentPlan = p
			break
		}
	}
	return h
}

// Len returns the number of points.
func (h HistorySeries) Len() int { return len(h.Points) }

// Empty reports whether the member has no check-ins.
func (h HistorySeries) Empty() bool { return len(h.Points) == 0 }

// StartWeight is the weight of the first check-in, or 0 for an empty series.
func (h HistorySeries) StartWeight() float64 {
	if h.Empty() {
		return 0
	}
	return h.Points[0].Weight
}

// CurrentWeight is the weight of the most recent check-in, or 0 for an empty series.
func (h HistorySeries) CurrentWeight() float64 {
	if h.Empty() {
		return 0
	}
	return h.Points[len(h.Points)-1].Weight
}

// Last returns the most recent point.
func (h HistorySeries) Last() (HistoryPoint, bool) {
	if h.Empty() {
		return HistoryPoint{}, false
	}
	return h.Points[len(h.Points)-1], true
}

// RecentChange is previous weight minus current weight, 0 with fewer than two points.
func (h HistorySeries) RecentChange() float64 {
	if len(h.Points) < 2 {
		return 0
	}
	return h.Points[len(h.Points)-2].Weight - h.CurrentWeight()
}
