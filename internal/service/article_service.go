package service

import (
	"bytes"
	"context"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

// ArticleService 新闻文章，正文 Markdown 在公开读取时渲染为 HTML
type ArticleService struct {
	*ListService[model.Article]
	repo *mysql.ArticleRepository
	md   goldmark.Markdown
	log  *zap.Logger
}

func NewArticleService(repo *mysql.ArticleRepository, log *zap.Logger) *ArticleService {
	return &ArticleService{
		ListService: NewListService(repo.OrderedRepository),
		repo:        repo,
		md:          goldmark.New(goldmark.WithExtensions(extension.GFM)),
		log:         log,
	}
}

func (s *ArticleService) Public(ctx context.Context) ([]model.Article, error) {
	list, err := s.ListService.Public(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.render(&list[i])
	}
	return list, nil
}

// BySlug 只返回已发布文章
func (s *ArticleService) BySlug(ctx context.Context, slug string) (*model.Article, error) {
	a, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	if !a.IsApproved() {
		return nil, ErrNotFound
	}
	s.render(a)
	return a, nil
}

// Create slug 为空时由标题生成
func (s *ArticleService) Create(ctx context.Context, a *model.Article) error {
	if strings.TrimSpace(a.Slug) == "" {
		a.Slug = Slugify(a.Title)
	}
	if a.Slug == "" {
		return ErrInvalidInput
	}
	return s.ListService.Create(ctx, a)
}

// render 原始 HTML 不会透传（goldmark 默认 unsafe 关闭）
func (s *ArticleService) render(a *model.Article) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(a.Content), &buf); err != nil {
		s.log.Warn("markdown render failed", zap.Uint64("article_id", a.ID), zap.Error(err))
		return
	}
	a.ContentHTML = buf.String()
}

// Slugify "Redrow's New Homes!" -> "redrow-s-new-homes"，"Café" -> "cafe"；只保留 a-z0-9
func Slugify(title string) string {
	folded, _, err := transform.String(foldAccents(), strings.ToLower(title))
	if err != nil {
		folded = strings.ToLower(title)
	}
	var b strings.Builder
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// foldAccents 拆分组合字符后去掉附加符号
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
