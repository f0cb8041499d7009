package service

import (
	"context"
	"strings"
	"time"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

const (
	DefaultSummaryDays = 30
	maxSummaryDays     = 365
	topPaths           = 10
)

type VisitInput struct {
	Path      string `json:"path" binding:"required,max=255"`
	Referrer  string `json:"referrer" binding:"max=500"`
	SessionID string `json:"session_id" binding:"max=64"`
}

type AnalyticsService struct {
	repo *mysql.AnalyticsRepository
	now  func() time.Time
}

func NewAnalyticsService(repo *mysql.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo, now: time.Now}
}

func (s *AnalyticsService) RecordVisit(ctx context.Context, in VisitInput, userAgent string) error {
	if len(userAgent) > 255 {
		userAgent = userAgent[:255]
	}
	return s.repo.Record(ctx, &model.VisitorEvent{
		Path:      strings.TrimSpace(in.Path),
		Referrer:  in.Referrer,
		SessionID: in.SessionID,
		UserAgent: userAgent,
	})
}

// Summary 最近 days 天，默认 30 天
func (s *AnalyticsService) Summary(ctx context.Context, days int) (*mysql.VisitSummary, error) {
	if days <= 0 {
		days = DefaultSummaryDays
	}
	if days > maxSummaryDays {
		days = maxSummaryDays
	}
	return s.repo.Summary(ctx, s.now().AddDate(0, 0, -days), topPaths)
}
