package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymos/internal/domain"

	"github.com/google/uuid"
)

const memberColumns = "id, username, display_name, role, password_hash, created_at"

func (d *DB) getMember(ctx context.Context, query string, arg any) (*domain.Member, error) {
	var m domain.Member
	if err := d.x.GetContext(ctx, &m, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	m.Role = domain.ParseRole(string(m.Role))
	return &m, nil
}

// GetByUsername retrieves a member by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	return d.getMember(ctx, "SELECT "+memberColumns+" FROM members WHERE username = $1", username)
}

// GetByID retrieves a member by ID.
func (d *DB) GetByID(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	return d.getMember(ctx, "SELECT "+memberColumns+" FROM members WHERE id = $1", string(id))
}

// Create creates a new member with a generated ID.
func (d *DB) Create(ctx context.Context, username, passwordHash string, role domain.Role) (*domain.Member, error) {
	var m domain.Member
	err := d.x.GetContext(ctx, &m,
		"INSERT INTO members (id, username, role, password_hash) VALUES ($1, $2, $3, $4) RETURNING "+memberColumns,
		uuid.NewString(), username, string(role), passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user already exists", domain.ErrInvalidInput)
		}
		return nil, err
	}
	return &m, nil
}

// Count returns the total number of members.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.x.GetContext(ctx, &count, "SELECT COUNT(*) FROM members")
	return count, err
}

// List returns all members in creation order.
func (d *DB) List(ctx context.Context) ([]domain.Member, error) {
	var members []domain.Member
	if err := d.x.SelectContext(ctx, &members, "SELECT "+memberColumns+" FROM members ORDER BY created_at, id"); err != nil {
		return nil, err
	}
	for i := range members {
		members[i].Role = domain.ParseRole(string(members[i].Role))
	}
	return members, nil
}

// UpdateDisplayName sets a member's display name.
func (d *DB) UpdateDisplayName(ctx context.Context, id domain.MemberID, name string) error {
	res, err := d.x.ExecContext(ctx, "UPDATE members SET display_name = $1 WHERE id = $2", name, string(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
