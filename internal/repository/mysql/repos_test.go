package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/testutil"
)

func outboxTypes(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var types []string
	require.NoError(t, db.Model(&model.OutboxEvent{}).Order("id ASC").Pluck("event_type", &types).Error)
	return types
}

func TestEvidenceRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEvidenceRepository(db)
	photos := NewPhotoRepository(db)
	ctx := context.Background()

	mine := &model.Evidence{UserID: 1, Title: "Cracked render", Moderation: model.Moderation{Status: model.StatusPending}}
	other := &model.Evidence{UserID: 2, Title: "Leaking roof", Moderation: model.Moderation{Status: model.StatusApproved}}
	require.NoError(t, repo.Create(ctx, mine))
	require.NoError(t, repo.Create(ctx, other))
	for i := 0; i < 2; i++ {
		require.NoError(t, photos.Create(ctx, mine.ID, &model.EvidencePhoto{EvidenceID: mine.ID, UserID: 1, StorageKey: "1/x"}))
	}

	t.Run("list filters by owner and status", func(t *testing.T) {
		list, err := repo.List(ctx, EvidenceQuery{UserID: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Len(t, list[0].Photos, 2)

		public, err := repo.List(ctx, EvidenceQuery{Status: model.StatusApproved, Limit: 10})
		require.NoError(t, err)
		require.Len(t, public, 1)
		assert.Equal(t, "Leaking roof", public[0].Title)
	})

	t.Run("moderate writes outbox event", func(t *testing.T) {
		require.NoError(t, repo.Moderate(ctx, mine.ID, model.Moderation{Status: model.StatusRejected, RejectionReason: "blurry"}, nil))
		e, err := repo.FindWithPhotos(ctx, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, e.Status)
		assert.Equal(t, "blurry", e.RejectionReason)
		assert.Equal(t, []string{model.EventEvidenceRejected}, outboxTypes(t, db))

		assert.ErrorIs(t, repo.Moderate(ctx, 999, model.Moderation{Status: model.StatusApproved}, nil), gorm.ErrRecordNotFound)
	})

	t.Run("delete removes photos with the row", func(t *testing.T) {
		require.NoError(t, repo.DeleteWithPhotos(ctx, mine.ID))

		var n int64
		require.NoError(t, db.Model(&model.EvidencePhoto{}).Where("evidence_id = ?", mine.ID).Count(&n).Error)
		assert.Zero(t, n)
		_, err := repo.FindByID(ctx, mine.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.ErrorIs(t, repo.DeleteWithPhotos(ctx, mine.ID), gorm.ErrRecordNotFound)
	})
}

func TestClaimRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &ClaimRepository{DB: db}
	ctx := context.Background()

	c := &model.Claim{
		UserID:          3,
		PropertyAddress: "1 High St",
		DefectSummary:   "damp",
		EstimatedCost:   decimal.RequireFromString("1250.50"),
		Status:          model.ClaimSubmitted,
	}
	require.NoError(t, repo.Create(ctx, c, map[string]any{"email": "c@example.com"}))
	assert.Equal(t, []string{model.EventClaimSubmitted}, outboxTypes(t, db))

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1250.5").Equal(got.EstimatedCost))

	ok, err := repo.UpdateStatus(ctx, c.ID, model.ClaimSubmitted, model.ClaimInReview, "looking")
	require.NoError(t, err)
	assert.True(t, ok)

	// 状态已变化，旧的 from 不再匹配
	ok, err = repo.UpdateStatus(ctx, c.ID, model.ClaimSubmitted, model.ClaimRejected, "")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.List(ctx, 3, model.ClaimInReview, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "looking", list[0].StatusNote)

	list, err = repo.List(ctx, 4, "", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGLORepository_DuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &GLORepository{DB: db}
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.GLOInterest{FullName: "A", Email: "a@example.com", Consent: true}))
	err := repo.Create(ctx, &model.GLOInterest{FullName: "B", Email: "a@example.com", Consent: true})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, []string{model.EventGLORegistered}, outboxTypes(t, db))
}

func TestEmailRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEmailRepository(db)
	ctx := context.Background()

	created, err := repo.UpsertTemplate(ctx, &model.EmailTemplate{Name: "welcome", Subject: "Hi", HTMLContent: "<p>v1</p>", IsActive: true})
	require.NoError(t, err)
	assert.True(t, created)

	tpl := &model.EmailTemplate{Name: "welcome", Subject: "Hello", HTMLContent: "<p>v2</p>"}
	created, err = repo.UpsertTemplate(ctx, tpl)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "<p>v2</p>", tpl.HTMLContent)
	assert.True(t, tpl.IsActive)

	require.NoError(t, repo.CreateTemplate(ctx, &model.EmailTemplate{Name: "draft", Subject: "s", IsActive: false}))
	active, err := repo.ListTemplates(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	_, err = repo.ActiveTemplateFor(ctx, model.EventClaimSubmitted)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.CreateTrigger(ctx, &model.EmailTrigger{Event: model.EventClaimSubmitted, TemplateID: tpl.ID, IsActive: true}))
	got, err := repo.ActiveTemplateFor(ctx, model.EventClaimSubmitted)
	require.NoError(t, err)
	assert.Equal(t, "welcome", got.Name)

	require.NoError(t, repo.CreateLog(ctx, &model.EmailLog{BatchID: "b1", TemplateName: "welcome", Recipients: 2, SuccessCount: 2}))
	logs, err := repo.ListLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, []string{model.EventEmailBatchSent}, outboxTypes(t, db))
}

func TestOutboxRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &OutboxRepository{DB: db}
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "a", 1, nil))
	require.NoError(t, repo.Append(ctx, "b", 2, map[string]any{"k": "v"}))

	rows, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].EventType)

	require.NoError(t, repo.SuccessUpdate(ctx, rows[0].ID))
	require.NoError(t, repo.RetryUpdate(ctx, &rows[1], 2))

	rows, err = repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Retry)

	require.NoError(t, repo.RetryUpdate(ctx, &rows[0], 2))
	rows, err = repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAnalyticsRepository_Summary(t *testing.T) {
	repo := &AnalyticsRepository{DB: testutil.NewDB(t)}
	ctx := context.Background()
	now := time.Now()

	events := []model.VisitorEvent{
		{Path: "/", SessionID: "s1", CreatedAt: now},
		{Path: "/", SessionID: "s2", CreatedAt: now},
		{Path: "/evidence", SessionID: "s1", CreatedAt: now},
		{Path: "/", SessionID: "", CreatedAt: now},
		{Path: "/old", SessionID: "s3", CreatedAt: now.AddDate(0, 0, -40)},
	}
	for i := range events {
		require.NoError(t, repo.Record(ctx, &events[i]))
	}

	s, err := repo.Summary(ctx, now.AddDate(0, 0, -30), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.TotalVisits)
	assert.Equal(t, int64(2), s.UniqueSessions)
	require.Len(t, s.TopPaths, 2)
	assert.Equal(t, PathCount{Path: "/", Visits: 3}, s.TopPaths[0])
}

func TestUserRepository(t *testing.T) {
	repo := &UserRepository{DB: testutil.NewDB(t)}
	ctx := context.Background()

	u := &model.User{Email: "jo@example.com", Password: "hash", FullName: "Jo", Role: model.RoleUser}
	require.NoError(t, repo.Create(ctx, u))
	assert.ErrorIs(t, repo.Create(ctx, &model.User{Email: "jo@example.com", Password: "x", Role: model.RoleUser}), gorm.ErrDuplicatedKey)

	require.NoError(t, repo.UpdateRole(ctx, u.ID, model.RoleAdmin))
	require.NoError(t, repo.UpdateProfile(ctx, u.ID, "Joanne", "0700"))
	got, err := repo.FindByEmail(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Equal(t, "Joanne", got.FullName)

	assert.ErrorIs(t, repo.UpdateRole(ctx, 999, model.RoleAdmin), gorm.ErrRecordNotFound)

	users, total, err := repo.List(ctx, "joan", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, users, 1)
}
