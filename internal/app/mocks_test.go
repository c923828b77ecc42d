package app

import (
	"context"
	"sync/atomic"
	"time"

	"gymos/internal/domain"
)

type mockCheckInRepo struct {
	createFn func(ctx context.Context, memberID domain.MemberID, weight float64, plan *domain.Plan) (domain.CheckIn, error)
	listFn   func(ctx context.Context, memberID domain.MemberID) ([]domain.CheckIn, error)
	creates  atomic.Int32
}

func (m *mockCheckInRepo) CreateCheckIn(ctx context.Context, memberID domain.MemberID, weight float64, plan *domain.Plan) (domain.CheckIn, error) {
	m.creates.Add(1)
	if m.createFn != nil {
		return m.createFn(ctx, memberID, weight, plan)
	}
	return domain.CheckIn{ID: 1, MemberID: memberID, Weight: weight, Plan: plan, CreatedAt: time.Now()}, nil
}

func (m *mockCheckInRepo) ListCheckIns(ctx context.Context, memberID domain.MemberID) ([]domain.CheckIn, error) {
	if m.listFn != nil {
		return m.listFn(ctx, memberID)
	}
	return nil, nil
}

type mockCompleter struct {
	completeFn  func(ctx context.Context, prompt string) (string, error)
	withImageFn func(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	calls       atomic.Int32
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return "", domain.ErrAIUnavailable
}

func (m *mockCompleter) CompleteWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	m.calls.Add(1)
	if m.withImageFn != nil {
		return m.withImageFn(ctx, prompt, image, mimeType)
	}
	return "", domain.ErrAIUnavailable
}

func replyText(text string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return text, nil }
}

const validPlanJSON = `{"meals":[
 {"name":"Breakfast","items":"Oats","calories":350,"protein":12},
 {"name":"Lunch","items":["Rice","Dal"],"calories":"500 kcal","protein":20},
 {"name":"Dinner","items":"Paneer","calories":400.7,"protein":null}
],"trainer_note":"Push hard."}`
