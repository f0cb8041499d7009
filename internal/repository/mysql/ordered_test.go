package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/testutil"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedFAQs(t *testing.T, repo *OrderedRepository[model.FAQ], questions ...string) []uint64 {
	t.Helper()
	ids := make([]uint64, 0, len(questions))
	for i, q := range questions {
		f := &model.FAQ{Question: q, CreatedAt: t0.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(context.Background(), 0, f))
		ids = append(ids, f.ID)
	}
	return ids
}

func questions(list []model.FAQ) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.Question)
	}
	return out
}

func TestOrderedRepository_CreateAppends(t *testing.T) {
	repo := NewFAQRepository(testutil.NewDB(t))
	ctx := context.Background()
	seedFAQs(t, repo, "a", "b", "c")

	list, err := repo.List(ctx, 0, "", 100)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, f := range list {
		assert.Equal(t, i, f.OrderIndex)
	}
	assert.Equal(t, []string{"a", "b", "c"}, questions(list))
	assert.Equal(t, model.StatusPending, list[0].Status)
}

func TestOrderedRepository_Move(t *testing.T) {
	ctx := context.Background()

	t.Run("swaps with neighbour", func(t *testing.T) {
		repo := NewFAQRepository(testutil.NewDB(t))
		ids := seedFAQs(t, repo, "a", "b", "c")

		moved, err := repo.Move(ctx, ids[1], MoveDown)
		require.NoError(t, err)
		assert.True(t, moved)

		list, err := repo.List(ctx, 0, "", 100)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "b"}, questions(list))

		moved, err = repo.Move(ctx, ids[1], MoveUp)
		require.NoError(t, err)
		assert.True(t, moved)
		list, _ = repo.List(ctx, 0, "", 100)
		assert.Equal(t, []string{"a", "b", "c"}, questions(list))
	})

	t.Run("boundaries are no-ops", func(t *testing.T) {
		repo := NewFAQRepository(testutil.NewDB(t))
		ids := seedFAQs(t, repo, "a", "b", "c")

		moved, err := repo.Move(ctx, ids[0], MoveUp)
		require.NoError(t, err)
		assert.False(t, moved)

		moved, err = repo.Move(ctx, ids[2], MoveDown)
		require.NoError(t, err)
		assert.False(t, moved)

		list, _ := repo.List(ctx, 0, "", 100)
		assert.Equal(t, []string{"a", "b", "c"}, questions(list))
		for i, f := range list {
			assert.Equal(t, i, f.OrderIndex)
		}
	})

	t.Run("renumbers duplicate indexes before swapping", func(t *testing.T) {
		db := testutil.NewDB(t)
		repo := NewFAQRepository(db)
		ids := seedFAQs(t, repo, "a", "b", "c")
		require.NoError(t, db.Model(&model.FAQ{}).Where("1 = 1").Update("order_index", 0).Error)

		// 全部为 0 时按 created_at 降序：c, b, a
		moved, err := repo.Move(ctx, ids[0], MoveUp)
		require.NoError(t, err)
		assert.True(t, moved)

		list, _ := repo.List(ctx, 0, "", 100)
		assert.Equal(t, []string{"c", "a", "b"}, questions(list))
		assert.Equal(t, []int{0, 1, 2}, []int{list[0].OrderIndex, list[1].OrderIndex, list[2].OrderIndex})
	})

	t.Run("unknown direction and missing row", func(t *testing.T) {
		repo := NewFAQRepository(testutil.NewDB(t))
		ids := seedFAQs(t, repo, "a")

		_, err := repo.Move(ctx, ids[0], Direction("sideways"))
		assert.ErrorIs(t, err, ErrUnknownDirection)

		_, err = repo.Move(ctx, 999, MoveUp)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestOrderedRepository_ScopedPhotos(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPhotoRepository(db)
	ctx := context.Background()

	var first []uint64
	for _, ev := range []uint64{1, 2} {
		for i := 0; i < 2; i++ {
			p := &model.EvidencePhoto{EvidenceID: ev, UserID: 7, StorageKey: "k", CreatedAt: t0.Add(time.Duration(i) * time.Minute)}
			require.NoError(t, repo.Create(ctx, ev, p))
			assert.Equal(t, i, p.OrderIndex)
			if ev == 1 {
				first = append(first, p.ID)
			}
		}
	}

	moved, err := repo.Move(ctx, first[1], MoveUp)
	require.NoError(t, err)
	assert.True(t, moved)

	one, _ := repo.List(ctx, 1, "", 100)
	assert.Equal(t, first[1], one[0].ID)

	two, _ := repo.List(ctx, 2, "", 100)
	assert.Equal(t, 0, two[0].OrderIndex)
	assert.Equal(t, 1, two[1].OrderIndex)
	assert.Less(t, two[0].ID, two[1].ID)
}

func TestRepository_UpdateSkipsProtectedColumns(t *testing.T) {
	repo := NewFAQRepository(testutil.NewDB(t))
	ctx := context.Background()
	ids := seedFAQs(t, repo, "a", "b")

	f, err := repo.Update(ctx, ids[0], map[string]any{
		"question":    "edited",
		"order_index": 42,
		"status":      model.StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, "edited", f.Question)
	assert.Equal(t, 0, f.OrderIndex)
	assert.Equal(t, model.StatusPending, f.Status)

	_, err = repo.Update(ctx, 999, map[string]any{"question": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Moderation(t *testing.T) {
	repo := NewFAQRepository(testutil.NewDB(t))
	ctx := context.Background()
	ids := seedFAQs(t, repo, "a")

	next, err := repo.ToggleModeration(ctx, ids[0], 5)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, next)

	f, _ := repo.FindByID(ctx, ids[0])
	require.NotNil(t, f.ModeratedBy)
	assert.Equal(t, uint64(5), *f.ModeratedBy)
	assert.NotNil(t, f.ModeratedAt)

	next, err = repo.ToggleModeration(ctx, ids[0], 5)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, next)

	prev, err := repo.SetModeration(ctx, ids[0], model.Moderation{Status: model.StatusRejected, RejectionReason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, prev)

	next, err = repo.ToggleModeration(ctx, ids[0], 5)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, next)
	f, _ = repo.FindByID(ctx, ids[0])
	assert.Empty(t, f.RejectionReason)

	_, err = repo.ToggleModeration(ctx, 999, 5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo := NewFAQRepository(testutil.NewDB(t))
	ctx := context.Background()
	ids := seedFAQs(t, repo, "a")

	require.NoError(t, repo.Delete(ctx, ids[0]))
	assert.ErrorIs(t, repo.Delete(ctx, ids[0]), gorm.ErrRecordNotFound)
}
