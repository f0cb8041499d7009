package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

type PathCount struct {
	Path   string `json:"path"`
	Visits int64  `json:"visits"`
}

type VisitSummary struct {
	Since          time.Time   `json:"since"`
	TotalVisits    int64       `json:"total_visits"`
	UniqueSessions int64       `json:"unique_sessions"`
	TopPaths       []PathCount `json:"top_paths"`
}

type AnalyticsRepository struct {
	DB *gorm.DB
}

func (r *AnalyticsRepository) Record(ctx context.Context, e *model.VisitorEvent) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

// Summary since 之后的访问统计
func (r *AnalyticsRepository) Summary(ctx context.Context, since time.Time, topN int) (*VisitSummary, error) {
	db := r.DB.WithContext(ctx)
	s := &VisitSummary{Since: since, TopPaths: []PathCount{}}

	if err := db.Model(&model.VisitorEvent{}).Where("created_at >= ?", since).
		Count(&s.TotalVisits).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.VisitorEvent{}).
		Where("created_at >= ? AND session_id <> ''", since).
		Distinct("session_id").
		Count(&s.UniqueSessions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.VisitorEvent{}).
		Select("path, COUNT(*) AS visits").
		Where("created_at >= ?", since).
		Group("path").
		Order("visits DESC, path ASC").
		Limit(topN).
		Scan(&s.TopPaths).Error; err != nil {
		return nil, err
	}
	return s, nil
}
