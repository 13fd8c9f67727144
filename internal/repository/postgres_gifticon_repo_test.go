package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raisedragon/raisedragon/internal/model"
)

func TestPostgresGifticonRepo_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresGifticonRepo(db)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^SELECT id, user_id, url, is_validated, created_at, updated_at FROM gifticons WHERE id = \$1$`).
		WithArgs("gift-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "url", "is_validated", "created_at", "updated_at"}).
			AddRow("gift-1", "user-1", "https://cdn/gifticon/a.png", true, now, now))

	g, err := repo.FindByID(context.Background(), "gift-1")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, model.URL("https://cdn/gifticon/a.png"), g.URL)
	assert.True(t, g.IsValidated)
}

func TestPostgresGifticonRepo_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresGifticonRepo(db)

	mock.ExpectQuery(`(?s)^SELECT .* FROM gifticons WHERE id = \$1$`).
		WithArgs("gift-x").
		WillReturnError(sql.ErrNoRows)

	g, err := repo.FindByID(context.Background(), "gift-x")
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestPostgresGifticonRepo_UpdateURL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresGifticonRepo(db)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^UPDATE gifticons SET url = \$2, updated_at = \$3 WHERE id = \$1$`).
		WithArgs("gift-1", "https://cdn/gifticon/b.png", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateURL(context.Background(), "gift-1", "https://cdn/gifticon/b.png", now))
}

func TestPostgresGoalGifticonRepo_FindByGoalID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresGoalGifticonRepo(db)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^SELECT id, goal_id, gifticon_id, created_at FROM goal_gifticons WHERE goal_id = \$1$`).
		WithArgs("goal-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "goal_id", "gifticon_id", "created_at"}).
			AddRow("link-1", "goal-1", "gift-1", now))

	link, err := repo.FindByGoalID(context.Background(), "goal-1")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, "gift-1", link.GifticonID)
}

func TestPostgresGoalGifticonRepo_Create_AlreadyAttached(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresGoalGifticonRepo(db)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^INSERT INTO goal_gifticons \(id, goal_id, gifticon_id, created_at\) VALUES \(\$1, \$2, \$3, \$4\)$`).
		WithArgs("link-2", "goal-1", "gift-2", now).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &model.GoalGifticon{
		ID: "link-2", GoalID: "goal-1", GifticonID: "gift-2", CreatedAt: now,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestPostgresGoalGifticonRepo_PurgeByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresGoalGifticonRepo(db)

	mock.ExpectExec(`(?s)^DELETE FROM goal_gifticons\s+WHERE goal_id IN .*\s+OR gifticon_id IN \(SELECT id FROM gifticons WHERE user_id = \$1\)$`).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.PurgeByUser(context.Background(), "user-1"))
}
