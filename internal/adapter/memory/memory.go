// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gymos/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	checkIns []domain.CheckIn
	members  []*domain.Member
	sessions map[string]*domain.Session

	checkInIDCounter int64
	clock            func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
		clock:    time.Now,
	}
}

// SetClock replaces the clock that assigns creation timestamps.
func (db *DB) SetClock(clock func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.clock = clock
}

// Ensure interfaces are met.
var _ domain.CheckInRepository = (*DB)(nil)
var _ domain.MemberRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- CheckInRepository ---

// CreateCheckIn appends a check-in stamped with the store clock.
func (db *DB) CreateCheckIn(ctx context.Context, memberID domain.MemberID, weight float64, plan *domain.Plan) (domain.CheckIn, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.checkInIDCounter++
	c := domain.CheckIn{
		ID:        db.checkInIDCounter,
		MemberID:  memberID,
		Weight:    weight,
		Plan:      clonePlan(plan),
		CreatedAt: db.clock().UTC(),
	}
	db.checkIns = append(db.checkIns, c)
	c.Plan = clonePlan(c.Plan)
	return c, nil
}

// ListCheckIns returns a member's check-ins ascending by creation time, ties
// in insertion order.
func (db *DB) ListCheckIns(ctx context.Context, memberID domain.MemberID) ([]domain.CheckIn, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.CheckIn
	for _, c := range db.checkIns {
		if c.MemberID == memberID {
			c.Plan = clonePlan(c.Plan)
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func clonePlan(p *domain.Plan) *domain.Plan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Meals = append([]domain.Meal(nil), p.Meals...)
	return &cp
}

// --- MemberRepository ---

// GetByUsername retrieves a member by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, m := range db.members {
		if m.Username == username {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves a member by ID.
func (db *DB) GetByID(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, m := range db.members {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create creates a new member.
func (db *DB) Create(ctx context.Context, username, passwordHash string, role domain.Role) (*domain.Member, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, m := range db.members {
		if m.Username == username {
			return nil, fmt.Errorf("%w: user already exists", domain.ErrInvalidInput)
		}
	}

	m := &domain.Member{
		ID:           domain.MemberID(uuid.NewString()),
		Username:     username,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    db.clock().UTC(),
	}
	db.members = append(db.members, m)
	cp := *m
	return &cp, nil
}

// Count returns the total number of members.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.members), nil
}

// List returns all members in creation order.
func (db *DB) List(ctx context.Context) ([]domain.Member, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Member, 0, len(db.members))
	for _, m := range db.members {
		out = append(out, *m)
	}
	return out, nil
}

// UpdateDisplayName sets a member's display name.
func (db *DB) UpdateDisplayName(ctx context.Context, id domain.MemberID, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, m := range db.members {
		if m.ID == id {
			m.DisplayName = name
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.db.clock().UTC()
	}
	r.db.sessions[s.Token] = &s
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.clock()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
