package mysql

import (
	"context"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

func NewFAQRepository(db *gorm.DB) *OrderedRepository[model.FAQ] {
	return NewOrderedRepository[model.FAQ](db, OrderColumns{DateColumn: "created_at"})
}

func NewSocialPostRepository(db *gorm.DB) *OrderedRepository[model.SocialPost] {
	return NewOrderedRepository[model.SocialPost](db, OrderColumns{DateColumn: "posted_at"})
}

type ArticleRepository struct {
	*OrderedRepository[model.Article]
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{NewOrderedRepository[model.Article](db, OrderColumns{DateColumn: "published_at"})}
}

func (r *ArticleRepository) FindBySlug(ctx context.Context, slug string) (*model.Article, error) {
	var a model.Article
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
