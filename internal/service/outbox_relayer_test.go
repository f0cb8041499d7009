package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

func TestOutboxRelayer_DrainOnce(t *testing.T) {
	db := newDB(t)
	repo := &mysql.OutboxRepository{DB: db}
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, model.EventClaimSubmitted, 1, nil))
	require.NoError(t, repo.Append(ctx, model.EventGLORegistered, 2, nil))

	var seen []uint64
	fail := map[uint64]bool{2: true}
	sender := func(_ context.Context, ob *model.OutboxEvent) error {
		seen = append(seen, ob.AggregateID)
		if fail[ob.AggregateID] {
			return errors.New("broker down")
		}
		return nil
	}
	r := NewOutboxRelayer(repo, 10, 0, nil, zap.NewNop(), sender)
	r.maxRetry = 2

	assert.Equal(t, 1, r.DrainOnce(ctx))
	assert.Equal(t, []uint64{1, 2}, seen)

	var rows []model.OutboxEvent
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	assert.Equal(t, model.OutboxSent, rows[0].Status)
	assert.Equal(t, model.OutboxPending, rows[1].Status)
	assert.Equal(t, 1, rows[1].Retry)

	// 第二次失败后达到上限，不再投递
	assert.Equal(t, 0, r.DrainOnce(ctx))
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	assert.Equal(t, model.OutboxFailed, rows[1].Status)

	seen = nil
	assert.Equal(t, 0, r.DrainOnce(ctx))
	assert.Empty(t, seen)
}

func TestOutboxRelayer_HoldsLaterEventsBehindFailure(t *testing.T) {
	db := newDB(t)
	repo := &mysql.OutboxRepository{DB: db}
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, model.EventEvidenceApproved, 42, nil))
	require.NoError(t, repo.Append(ctx, model.EventEvidenceDeleted, 42, nil))

	var published []string
	down := true
	sender := func(_ context.Context, ob *model.OutboxEvent) error {
		if down && ob.EventType == model.EventEvidenceApproved {
			return errors.New("broker down")
		}
		published = append(published, ob.EventType)
		return nil
	}
	r := NewOutboxRelayer(repo, 10, 0, nil, zap.NewNop(), sender)

	assert.Equal(t, 0, r.DrainOnce(ctx))
	assert.Empty(t, published)

	var rows []model.OutboxEvent
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	assert.Equal(t, model.OutboxPending, rows[0].Status)
	assert.Equal(t, 1, rows[0].Retry)
	assert.Equal(t, model.OutboxPending, rows[1].Status)
	assert.Equal(t, 0, rows[1].Retry)

	down = false
	assert.Equal(t, 2, r.DrainOnce(ctx))
	assert.Equal(t, []string{model.EventEvidenceApproved, model.EventEvidenceDeleted}, published)

	t.Run("exhausted event no longer blocks", func(t *testing.T) {
		require.NoError(t, repo.Append(ctx, model.EventClaimSubmitted, 7, nil))
		require.NoError(t, repo.Append(ctx, model.EventGLORegistered, 8, nil))
		published = nil
		stuck := func(_ context.Context, ob *model.OutboxEvent) error {
			if ob.AggregateID == 7 {
				return errors.New("poison")
			}
			published = append(published, ob.EventType)
			return nil
		}
		r := NewOutboxRelayer(repo, 10, 0, nil, zap.NewNop(), stuck)
		r.maxRetry = 1

		assert.Equal(t, 0, r.DrainOnce(ctx))
		assert.Equal(t, 1, r.DrainOnce(ctx))
		assert.Equal(t, []string{model.EventGLORegistered}, published)
	})
}

func TestOutboxRelayer_StopsAtFirstFailingSender(t *testing.T) {
	db := newDB(t)
	repo := &mysql.OutboxRepository{DB: db}
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, model.EventClaimSubmitted, 1, nil))

	calls := 0
	r := NewOutboxRelayer(repo, 10, 0, nil, zap.NewNop(),
		func(context.Context, *model.OutboxEvent) error { return errors.New("first") },
		func(context.Context, *model.OutboxEvent) error { calls++; return nil },
	)
	assert.Equal(t, 0, r.DrainOnce(ctx))
	assert.Zero(t, calls)
}

func TestOutboxRelayer_TriggersEmail(t *testing.T) {
	db := newDB(t)
	mailer := newFakeMailer()
	email := newEmailService(t, db, mailer, newFakeDedup())
	glo := NewGLOService(&mysql.GLORepository{DB: db}, zap.NewNop())
	ctx := context.Background()

	_, err := email.SyncTemplates(ctx)
	require.NoError(t, err)
	tpl, err := email.repo.FindTemplateByName(ctx, "glo-update")
	require.NoError(t, err)
	_, err = email.CreateTrigger(ctx, TriggerInput{Event: model.EventGLORegistered, TemplateID: tpl.ID})
	require.NoError(t, err)

	_, err = glo.Register(ctx, GLOInput{FullName: "Jo Bloggs", Email: "jo@example.com", Consent: true})
	require.NoError(t, err)

	r := NewOutboxRelayer(&mysql.OutboxRepository{DB: db}, 10, 0, nil, zap.NewNop(), LogSender(zap.NewNop()), email.TriggerSender)
	assert.GreaterOrEqual(t, r.DrainOnce(ctx), 1)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jo@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "Jo Bloggs")
}
