package domain

import (
	"context"
	"time"
)

// PlanSource records whether a plan came from the completion service or the
// canned fallback.
type PlanSource string

const (
	PlanSourceAI       PlanSource = "ai"
	PlanSourceFallback PlanSource = "fallback"
)

// Meal is one named meal of a diet plan.
type Meal struct {
	Name     string `json:"name"`
	Items    string `json:"items"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
}

// Plan is the persisted, rendered diet plan attached to a check-in.
type Plan struct {
	HTML          string     `json:"html"`
	Note          string     `json:"note"`
	Meals         []Meal     `json:"meals"`
	TotalCalories int        `json:"totalCalories"`
	TotalProtein  int        `json:"totalProtein"`
	Source        PlanSource `json:"source"`
}

// CheckIn is a single body-weight check-in. Check-ins are immutable once
// created; CreatedAt is assigned by the store.
type CheckIn struct {
	ID        int64     `json:"id"`
	MemberID  MemberID  `json:"memberId"`
	Weight    float64   `json:"weight"`
	Plan      *Plan     `json:"plan,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CheckInRepository is the port for check-in persistence.
//
// ListCheckIns returns rows ascending by creation time, ties broken by
// insertion order.
type CheckInRepository interface {
	CreateCheckIn(ctx context.Context, memberID MemberID, weight float64, plan *Plan) (CheckIn, error)
	ListCheckIns(ctx context.Context, memberID MemberID) ([]CheckIn, error)
}
