package app

import (
	"context"
	"fmt"
	"time"

	"gymos/internal/domain"
)

// HistoryService derives a member's weight history from the record store.
type HistoryService struct {
	store *RecordStore
}

// NewHistoryService creates a HistoryService reading through store.
func NewHistoryService(store *RecordStore) *HistoryService {
	return &HistoryService{store: store}
}

// LoadHistory re-reads memberID's check-ins and derives the series. It never
// caches; every call reflects the store.
func (s *HistoryService) LoadHistory(ctx context.Context, caller domain.Caller, memberID domain.MemberID) (domain.HistorySeries, error) {
	items, err := s.store.ListCheckIns(ctx, caller, memberID)
	if err != nil {
		return domain.HistorySeries{MemberID: memberID}, err
	}
	return domain.NewHistorySeries(memberID, items), nil
}

// ChartPoint is one plotted check-in.
type ChartPoint struct {
	Day    string    `json:"day"`
	At     time.Time `json:"at"`
	Weight float64   `json:"weight"`
	Unit   string    `json:"unit"`
}

// Chart returns memberID's history as plot points in the requested unit.
func (s *HistoryService) Chart(ctx context.Context, caller domain.Caller, memberID domain.MemberID, unit string) ([]ChartPoint, error) {
	if unit != domain.UnitKg && unit != domain.UnitLb {
		return nil, fmt.Errorf("%w: unit must be \"kg\" or \"lb\"", domain.ErrInvalidInput)
	}
	h, err := s.LoadHistory(ctx, caller, memberID)
	if err != nil {
		return nil, err
	}
	points := make([]ChartPoint, 0, h.Len())
	for _, p := range h.Points {
		points = append(points, ChartPoint{
			Day:    p.At.In(time.Local).Format(dayLayout),
			At:     p.At,
			Weight: domain.RoundTenth(domain.ConvertWeight(p.Weight, domain.UnitKg, unit)),
			Unit:   unit,
		})
	}
	return points, nil
}
