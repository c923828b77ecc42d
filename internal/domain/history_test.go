package domain_test

import (
	"errors"
	"testing"
	"time"

	"gymos/internal/domain"
)

func TestNewHistorySeries_Empty(t *testing.T) {
	h := domain.NewHistorySeries("m1", nil)
	if !h.Empty() {
		t.Fatal("expected empty series")
	}
	if h.StartWeight() != 0 || h.CurrentWeight() != 0 {
		t.Fatalf("expected zero weights, got start=%v current=%v", h.StartWeight(), h.CurrentWeight())
	}
	if h.CurrentPlan != nil {
		t.Fatal("expected no plan")
	}
	if _, ok := h.Last(); ok {
		t.Fatal("expected no last point")
	}
}

func TestNewHistorySeries_Weights(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	h := domain.NewHistorySeries("m1", []domain.CheckIn{
		{ID: 1, Weight: 82, CreatedAt: base},
		{ID: 2, Weight: 80.5, CreatedAt: base.Add(24 * time.Hour)},
		{ID: 3, Weight: 79, CreatedAt: base.Add(48 * time.Hour)},
	})
	if h.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", h.Len())
	}
	if h.StartWeight() != 82 {
		t.Errorf("expected start 82, got %v", h.StartWeight())
	}
	if h.CurrentWeight() != 79 {
		t.Errorf("expected current 79, got %v", h.CurrentWeight())
	}
	if got := h.RecentChange(); !almostEqual(got, 1.5, 1e-9) {
		t.Errorf("expected recent change 1.5, got %v", got)
	}
	last, _ := h.Last()
	if !last.At.Equal(base.Add(48 * time.Hour)) {
		t.Errorf("unexpected last timestamp %v", last.At)
	}
}

func TestNewHistorySeries_CurrentPlanSearchesBackward(t *testing.T) {
	older := &domain.Plan{HTML: "<p>old</p>"}
	newer := &domain.Plan{HTML: "<p>new</p>"}
	h := domain.NewHistorySeries("m1", []domain.CheckIn{
		{ID: 1, Weight: 80, Plan: older},
		{ID: 2, Weight: 79, Plan: newer},
		{ID: 3, Weight: 78},
		{ID: 4, Weight: 77, Plan: &domain.Plan{}},
	})
	if h.CurrentPlan != newer {
		t.Fatalf("expected newest plan with content, got %+v", h.CurrentPlan)
	}
}

func TestCaller(t *testing.T) {
	member := domain.Caller{MemberID: "a", Role: domain.RoleMember}
	admin := domain.Caller{MemberID: "b", Role: domain.RoleAdmin}

	if !member.CanRead("a") || member.CanRead("b") {
		t.Error("member may read only own rows")
	}
	if !admin.CanRead("a") || !admin.IsAdmin() {
		t.Error("admin may read all rows")
	}
	if domain.ParseRole("superuser") != domain.RoleMember {
		t.Error("unknown roles read as member")
	}
}

func TestParseMemberStatus(t *testing.T) {
	for _, s := range []string{"new", "active", "risk"} {
		got, err := domain.ParseMemberStatus(s)
		if err != nil || string(got) != s {
			t.Errorf("ParseMemberStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := domain.ParseMemberStatus("Risk"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
