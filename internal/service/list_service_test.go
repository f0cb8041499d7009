package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

func questions(list []model.FAQ) []string {
	out := make([]string, len(list))
	for i, f := range list {
		out[i] = f.Question
	}
	return out
}

func TestListService_FAQLifecycle(t *testing.T) {
	svc := NewListService(mysql.NewFAQRepository(newDB(t)))
	ctx := context.Background()

	for _, q := range []string{"What is a snag?", "How do I claim?", "Who pays?"} {
		require.NoError(t, svc.Create(ctx, &model.FAQ{Question: q, Answer: "..."}))
	}

	all, err := svc.All(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"What is a snag?", "How do I claim?", "Who pays?"}, questions(all))

	public, err := svc.Public(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	for _, f := range all {
		require.NoError(t, svc.Moderate(ctx, f.ID, model.StatusApproved, "ignored", 1))
	}
	public, err = svc.Public(ctx)
	require.NoError(t, err)
	require.Len(t, public, 3)
	assert.Empty(t, public[0].RejectionReason)

	moved, err := svc.Move(ctx, all[2].ID, "UP")
	require.NoError(t, err)
	assert.True(t, moved)
	public, _ = svc.Public(ctx)
	assert.Equal(t, []string{"What is a snag?", "Who pays?", "How do I claim?"}, questions(public))

	moved, err = svc.Move(ctx, all[0].ID, "up")
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = svc.Move(ctx, all[0].ID, "sideways")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Move(ctx, 999, "down")
	assert.ErrorIs(t, err, ErrNotFound)

	next, err := svc.Toggle(ctx, all[1].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, next)
	pending, err := svc.All(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, all[1].ID, pending[0].ID)

	_, err = svc.All(ctx, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, err := svc.Update(ctx, all[0].ID, map[string]any{"answer": "A defect.", "order_index": 99})
	require.NoError(t, err)
	assert.Equal(t, "A defect.", got.Answer)
	assert.Equal(t, 0, got.OrderIndex)

	require.NoError(t, svc.Delete(ctx, all[0].ID))
	assert.ErrorIs(t, svc.Delete(ctx, all[0].ID), ErrNotFound)
	_, err = svc.Get(ctx, all[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListService_ModerateRules(t *testing.T) {
	svc := NewListService(mysql.NewSocialPostRepository(newDB(t)))
	ctx := context.Background()

	p := &model.SocialPost{Platform: "x", Content: "Cracks again", PostedAt: time.Now()}
	require.NoError(t, svc.Create(ctx, p))

	assert.ErrorIs(t, svc.Moderate(ctx, p.ID, model.StatusRejected, "  ", 1), ErrReasonRequired)
	assert.ErrorIs(t, svc.Moderate(ctx, p.ID, "maybe", "", 1), ErrInvalidStatus)
	assert.ErrorIs(t, svc.Moderate(ctx, 999, model.StatusApproved, "", 1), ErrNotFound)

	require.NoError(t, svc.Moderate(ctx, p.ID, model.StatusRejected, "Spam", 7))
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
	assert.Equal(t, "Spam", got.RejectionReason)
	require.NotNil(t, got.ModeratedBy)
	assert.Equal(t, uint64(7), *got.ModeratedBy)

	// rejected 切换后直接通过，并清空原因
	next, err := svc.Toggle(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, next)
	got, _ = svc.Get(ctx, p.ID)
	assert.Empty(t, got.RejectionReason)
}

func TestArticleService(t *testing.T) {
	svc := NewArticleService(mysql.NewArticleRepository(newDB(t)), zap.NewNop())
	ctx := context.Background()

	a := &model.Article{
		Title:       "Redrow's New Homes: 2024 Report!",
		Content:     "# Findings\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>",
		PublishedAt: time.Now(),
	}
	require.NoError(t, svc.Create(ctx, a))
	assert.Equal(t, "redrow-s-new-homes-2024-report", a.Slug)

	assert.ErrorIs(t, svc.Create(ctx, &model.Article{Title: "!!!"}), ErrInvalidInput)
	assert.ErrorIs(t, svc.Create(ctx, &model.Article{Title: "Other", Slug: a.Slug}), ErrConflict)

	_, err := svc.BySlug(ctx, a.Slug)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Moderate(ctx, a.ID, model.StatusApproved, "", 1))
	got, err := svc.BySlug(ctx, a.Slug)
	require.NoError(t, err)
	assert.Contains(t, got.ContentHTML, "<h1>Findings</h1>")
	assert.Contains(t, got.ContentHTML, "<table>")
	assert.NotContains(t, got.ContentHTML, "<script>")

	list, err := svc.Public(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].ContentHTML)

	_, err = svc.BySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "snagging-101", Slugify("  Snagging -- 101  "))
	assert.Equal(t, "", Slugify("***"))
	assert.Equal(t, "cafe-news", Slugify("Café News"))
	assert.Equal(t, "creme-brulee-2024", Slugify("Crème Brûlée 2024"))
	assert.Equal(t, "snag-list", Slugify("Snag 😀 list"))
	assert.Equal(t, "", Slugify("日本語"))
}
