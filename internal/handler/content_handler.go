package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/service"
)

// orderedService service.ListService 与 service.ArticleService 都满足
type orderedService[T any] interface {
	Public(ctx context.Context) ([]T, error)
	All(ctx context.Context, status model.ModerationStatus) ([]T, error)
	Get(ctx context.Context, id uint64) (*T, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, id uint64, fields map[string]any) (*T, error)
	Move(ctx context.Context, id uint64, direction string) (bool, error)
	Toggle(ctx context.Context, id, moderatorID uint64) (model.ModerationStatus, error)
	Moderate(ctx context.Context, id uint64, status model.ModerationStatus, reason string, moderatorID uint64) error
	Delete(ctx context.Context, id uint64) error
}

// contentInput 请求体 -> 新建行 / 更新字段
type contentInput[T any] interface {
	Model() *T
	Fields() map[string]any
}

type FAQInput struct {
	Question string `json:"question" binding:"required,max=500"`
	Answer   string `json:"answer" binding:"required"`
	Category string `json:"category" binding:"max=64"`
}

func (in FAQInput) Model() *model.FAQ {
	return &model.FAQ{Question: strings.TrimSpace(in.Question), Answer: in.Answer, Category: in.Category}
}

func (in FAQInput) Fields() map[string]any {
	return map[string]any{"question": strings.TrimSpace(in.Question), "answer": in.Answer, "category": in.Category}
}

type ArticleInput struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Slug        string     `json:"slug" binding:"max=200"`
	Summary     string     `json:"summary"`
	Content     string     `json:"content"`
	SourceURL   string     `json:"source_url" binding:"omitempty,url,max=500"`
	ImageURL    string     `json:"image_url" binding:"omitempty,url,max=500"`
	PublishedAt *time.Time `json:"published_at"`
}

func (in ArticleInput) Model() *model.Article {
	a := &model.Article{
		Title:     strings.TrimSpace(in.Title),
		Slug:      strings.TrimSpace(in.Slug),
		Summary:   in.Summary,
		Content:   in.Content,
		SourceURL: in.SourceURL,
		ImageURL:  in.ImageURL,
	}
	if in.PublishedAt != nil {
		a.PublishedAt = *in.PublishedAt
	} else {
		a.PublishedAt = time.Now()
	}
	return a
}

func (in ArticleInput) Fields() map[string]any {
	f := map[string]any{
		"title":      strings.TrimSpace(in.Title),
		"summary":    in.Summary,
		"content":    in.Content,
		"source_url": in.SourceURL,
		"image_url":  in.ImageURL,
	}
	if s := strings.TrimSpace(in.Slug); s != "" {
		f["slug"] = s
	}
	if in.PublishedAt != nil {
		f["published_at"] = *in.PublishedAt
	}
	return f
}

type SocialPostInput struct {
	Platform string     `json:"platform" binding:"required,max=32"`
	URL      string     `json:"url" binding:"omitempty,url,max=500"`
	Author   string     `json:"author" binding:"max=128"`
	Content  string     `json:"content"`
	PostedAt *time.Time `json:"posted_at"`
}

func (in SocialPostInput) Model() *model.SocialPost {
	p := &model.SocialPost{Platform: strings.ToLower(in.Platform), URL: in.URL, Author: in.Author, Content: in.Content, PostedAt: time.Now()}
	if in.PostedAt != nil {
		p.PostedAt = *in.PostedAt
	}
	return p
}

func (in SocialPostInput) Fields() map[string]any {
	f := map[string]any{"platform": strings.ToLower(in.Platform), "url": in.URL, "author": in.Author, "content": in.Content}
	if in.PostedAt != nil {
		f["posted_at"] = *in.PostedAt
	}
	return f
}

// ContentHandler FAQ、文章、社媒帖子共用：公开读 + 后台增删改、排序、审核
type ContentHandler[T any, I contentInput[T]] struct {
	svc orderedService[T]
}

func NewContentHandler[T any, I contentInput[T]](svc orderedService[T]) *ContentHandler[T, I] {
	return &ContentHandler[T, I]{svc: svc}
}

func (h *ContentHandler[T, I]) List(c *gin.Context) {
	list, err := h.svc.Public(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	page, size := pageParams(c)
	c.JSON(http.StatusOK, service.Paginate(list, page, size))
}

func (h *ContentHandler[T, I]) AdminList(c *gin.Context) {
	list, err := h.svc.All(c.Request.Context(), statusParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list, "total": len(list)})
}

func (h *ContentHandler[T, I]) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *ContentHandler[T, I]) Create(c *gin.Context) {
	var req I
	if !bindJSON(c, &req) {
		return
	}
	row := req.Model()
	if err := h.svc.Create(c.Request.Context(), row); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (h *ContentHandler[T, I]) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req I
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.svc.Update(c.Request.Context(), id, req.Fields())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *ContentHandler[T, I]) Move(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req MoveReq
	if !bindJSON(c, &req) {
		return
	}
	moved, err := h.svc.Move(c.Request.Context(), id, req.Direction)
	if err != nil {
		writeError(c, err)
		return
	}
	moveResult(c, moved)
}

func (h *ContentHandler[T, I]) Toggle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	next, err := h.svc.Toggle(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "toggled", "status": next})
}

func (h *ContentHandler[T, I]) Moderate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ModerateReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Moderate(c.Request.Context(), id, req.Status, req.Reason, middleware.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "moderated", "status": req.Status})
}

func (h *ContentHandler[T, I]) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

// ArticleHandler 额外提供按 slug 读取
type ArticleHandler struct {
	*ContentHandler[model.Article, ArticleInput]
	articles *service.ArticleService
}

func NewArticleHandler(svc *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{
		ContentHandler: NewContentHandler[model.Article, ArticleInput](svc),
		articles:       svc,
	}
}

func (h *ArticleHandler) BySlug(c *gin.Context) {
	a, err := h.articles.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
