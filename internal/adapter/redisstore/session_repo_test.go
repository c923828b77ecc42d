package redisstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gymos/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, now time.Time) (*SessionRepo, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	repo := NewSessionRepo(client)
	repo.now = func() time.Time { return now }
	return repo, mock
}

func TestSessionRepo_Create(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	repo, mock := newRepo(t, now)
	s := domain.Session{Token: "tok", MemberID: "m-1", UserAgent: "ua", ExpiresAt: now.Add(2 * time.Hour), CreatedAt: now}
	b, _ := json.Marshal(s)

	mock.ExpectSet("gymos:session:tok", string(b), 2*time.Hour).SetVal("OK")

	require.NoError(t, repo.Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_CreateExpired(t *testing.T) {
	now := time.Now()
	repo, _ := newRepo(t, now)

	err := repo.Create(context.Background(), domain.Session{Token: "tok", ExpiresAt: now.Add(-time.Second)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionRepo_GetByToken(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	repo, mock := newRepo(t, now)
	want := domain.Session{Token: "tok", MemberID: "m-1", UserAgent: "ua", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	b, _ := json.Marshal(want)

	t.Run("hit", func(t *testing.T) {
		mock.ExpectGet("gymos:session:tok").SetVal(string(b))
		got, err := repo.GetByToken(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, want.MemberID, got.MemberID)
		assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet("gymos:session:gone").RedisNil()
		_, err := repo.GetByToken(context.Background(), "gone")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("failure", func(t *testing.T) {
		mock.ExpectGet("gymos:session:tok").SetErr(redis.TxFailedErr)
		_, err := repo.GetByToken(context.Background(), "tok")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Delete(t *testing.T) {
	repo, mock := newRepo(t, time.Now())
	mock.ExpectDel("gymos:session:tok").SetVal(1)

	require.NoError(t, repo.Delete(context.Background(), "tok"))
	require.NoError(t, repo.DeleteExpired(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
