package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gymos/internal/domain"
	"gymos/internal/metrics"
)

// ReportRow is one member's line on the admin dashboard.
type ReportRow struct {
	Member domain.Member `json:"member"`
	StatusSummary
	// NudgeURL is a prefilled reminder link for at-risk members.
	NudgeURL string `json:"nudgeUrl,omitempty"`
}

// ReportCounts feeds the dashboard summary tiles.
type ReportCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Risk   int `json:"risk"`
	New    int `json:"new"`
}

// Report is the aggregate engagement view across all members.
type Report struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Rows        []ReportRow  `json:"rows"`
	Counts      ReportCounts `json:"counts"`
}

// Filter returns the rows with the given status.
func (r Report) Filter(status domain.MemberStatus) []ReportRow {
	var out []ReportRow
	for _, row := range r.Rows {
		if row.Status == status {
			out = append(out, row)
		}
	}
	return out
}

// ReportService builds the admin engagement report.
type ReportService struct {
	store   *RecordStore
	history *HistoryService
	gymName string
	metrics *metrics.Recorder
}

// NewReportService creates a ReportService.
func NewReportService(store *RecordStore, history *HistoryService, gymName string, m *metrics.Recorder) *ReportService {
	return &ReportService{store: store, history: history, gymName: gymName, metrics: m}
}

// BuildReport classifies every member as of now. Admin only.
func (s *ReportService) BuildReport(ctx context.Context, caller domain.Caller, now time.Time) (Report, error) {
	members, err := s.store.ListAllMembers(ctx, caller)
	if err != nil {
		return Report{}, err
	}

	rep := Report{GeneratedAt: now, Rows: make([]ReportRow, 0, len(members))}
	for _, m := range members {
		h, err := s.history.LoadHistory(ctx, caller, m.ID)
		if err != nil {
			return Report{}, fmt.Errorf("history for %s: %w", m.ID, err)
		}
		row := ReportRow{Member: m, StatusSummary: Classify(h, now)}
		if row.Status == domain.StatusRisk {
			row.NudgeURL = NudgeURL(m.Name(), s.gymName, row.DaysInactive)
		}
		rep.Rows = append(rep.Rows, row)
	}

	rep.Counts = ReportCounts{
		Total:  len(rep.Rows),
		Active: len(rep.Filter(domain.StatusActive)),
		Risk:   len(rep.Filter(domain.StatusRisk)),
		New:    len(rep.Filter(domain.StatusNew)),
	}
	s.metrics.Members(map[string]int{
		string(domain.StatusActive): rep.Counts.Active,
		string(domain.StatusRisk):   rep.Counts.Risk,
		string(domain.StatusNew):    rep.Counts.New,
	})
	return rep, nil
}

// NudgeURL builds a WhatsApp share link with a come-back reminder.
func NudgeURL(name, gymName string, daysInactive int) string {
	msg := fmt.Sprintf("Hey %s! We missed you at %s. It's been %d days. Come crush a workout today! 💪",
		name, gymName, daysInactive)
	return "https://wa.me/?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
