package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gymos/internal/domain"
)

type checkInRow struct {
	ID        int64     `db:"id"`
	MemberID  string    `db:"member_id"`
	Weight    float64   `db:"weight"`
	DietPlan  []byte    `db:"diet_plan"`
	CreatedAt time.Time `db:"created_at"`
}

func (r checkInRow) toDomain() (domain.CheckIn, error) {
	c := domain.CheckIn{
		ID:        r.ID,
		MemberID:  domain.MemberID(r.MemberID),
		Weight:    r.Weight,
		CreatedAt: r.CreatedAt,
	}
	if len(r.DietPlan) > 0 && string(r.DietPlan) != "null" {
		var p domain.Plan
		if err := json.Unmarshal(r.DietPlan, &p); err != nil {
			return c, fmt.Errorf("decode diet_plan of check-in %d: %w", r.ID, err)
		}
		c.Plan = &p
	}
	return c, nil
}

// CreateCheckIn inserts a check-in; the database assigns id and created_at.
func (d *DB) CreateCheckIn(ctx context.Context, memberID domain.MemberID, weight float64, plan *domain.Plan) (domain.CheckIn, error) {
	var planJSON []byte
	if plan != nil {
		b, err := json.Marshal(plan)
		if err != nil {
			return domain.CheckIn{}, fmt.Errorf("encode diet plan: %w", err)
		}
		planJSON = b
	}

	var row checkInRow
	err := d.x.GetContext(ctx, &row,
		"INSERT INTO checkins (member_id, weight, diet_plan) VALUES ($1, $2, $3) RETURNING id, member_id, weight, diet_plan, created_at",
		string(memberID), weight, planJSON,
	)
	if err != nil {
		return domain.CheckIn{}, err
	}
	return row.toDomain()
}

// ListCheckIns returns a member's check-ins ascending by created_at, ties by id.
func (d *DB) ListCheckIns(ctx context.Context, memberID domain.MemberID) ([]domain.CheckIn, error) {
	var rows []checkInRow
	err := d.x.SelectContext(ctx, &rows,
		"SELECT id, member_id, weight, diet_plan, created_at FROM checkins WHERE member_id = $1 ORDER BY created_at, id",
		string(memberID),
	)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CheckIn, 0, len(rows))
	for _, r := range rows {
		c, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
