package app

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gymos/internal/domain"

	"go.uber.org/zap"
)

// RecordStore is the gateway to persisted members and check-ins. It enforces
// row ownership and classifies repository failures.
type RecordStore struct {
	checkIns domain.CheckInRepository
	members  domain.MemberRepository
	log      *zap.Logger
}

// NewRecordStore creates a RecordStore backed by the given repositories.
func NewRecordStore(checkIns domain.CheckInRepository, members domain.MemberRepository, log *zap.Logger) *RecordStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordStore{checkIns: checkIns, members: members, log: log}
}

// CreateCheckIn appends a check-in for memberID. Only the member may write
// their own rows. A non-empty displayName is stored on the member first; a
// failure there is logged and does not abort the check-in.
func (s *RecordStore) CreateCheckIn(ctx context.Context, caller domain.Caller, memberID domain.MemberID, weight float64, plan *domain.Plan, displayName string) (domain.CheckIn, error) {
	if caller.MemberID == "" || caller.MemberID != memberID {
		return domain.CheckIn{}, domain.ErrNotAuthorized
	}
	if err := validateWeight(weight); err != nil {
		return domain.CheckIn{}, err
	}

	if displayName != "" {
		if err := s.members.UpdateDisplayName(ctx, memberID, displayName); err != nil {
			s.log.Warn("display name update failed",
				zap.String("member_id", string(memberID)), zap.Error(err))
		}
	}

	c, err := s.checkIns.CreateCheckIn(ctx, memberID, weight, plan)
	if err != nil {
		return domain.CheckIn{}, storeError("create check-in", err)
	}
	return c, nil
}

// ListCheckIns returns memberID's check-ins ascending by creation time. The
// member and admins may read.
func (s *RecordStore) ListCheckIns(ctx context.Context, caller domain.Caller, memberID domain.MemberID) ([]domain.CheckIn, error) {
	if !caller.CanRead(memberID) {
		return nil, domain.ErrNotAuthorized
	}
	items, err := s.checkIns.ListCheckIns(ctx, memberID)
	if err != nil {
		return nil, storeError("list check-ins", err)
	}
	return items, nil
}

// ListAllMembers returns every member. Admin only.
func (s *RecordStore) ListAllMembers(ctx context.Context, caller domain.Caller) ([]domain.Member, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrNotAuthorized
	}
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, storeError("list members", err)
	}
	return members, nil
}

func validateWeight(w float64) error {
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: weight must be a positive number of kilograms", domain.ErrInvalidInput)
	}
	return nil
}

// storeError wraps a repository failure as ErrStoreUnavailable unless the
// repository already classified it.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrNotAuthorized) || errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
