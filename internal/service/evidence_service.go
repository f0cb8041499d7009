package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
	"Redrow_Exposed/internal/storage"
)

// zipConcurrency 打包下载时并发拉取对象的上限
const zipConcurrency = 4

type EvidenceInput struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=10000"`
	Category    string `json:"category" binding:"max=64"`
	Severity    string `json:"severity" binding:"omitempty,oneof=low medium high critical"`
	Development string `json:"development" binding:"max=128"`
	Location    string `json:"location" binding:"max=200"`
}

type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	Caption     string
}

// EvidenceView 附带卡片布局与照片公开地址
type EvidenceView struct {
	model.Evidence
	Layout Layout `json:"layout"`
}

type EvidenceService struct {
	repo      *mysql.EvidenceRepository
	photos    *mysql.OrderedRepository[model.EvidencePhoto]
	users     *mysql.UserRepository
	store     storage.ObjectStore
	maxUpload int64
	log       *zap.Logger
}

func NewEvidenceService(
	repo *mysql.EvidenceRepository,
	photos *mysql.OrderedRepository[model.EvidencePhoto],
	users *mysql.UserRepository,
	store storage.ObjectStore,
	maxUpload int64,
	log *zap.Logger,
) *EvidenceService {
	return &EvidenceService{repo: repo, photos: photos, users: users, store: store, maxUpload: maxUpload, log: log}
}

// StorageKey {userId}/{evidenceId}/{uuid}{ext}
func StorageKey(userID, evidenceID uint64, fileName string) string {
	return fmt.Sprintf("%s%s%s", evidencePrefix(userID, evidenceID), uuid.NewString(), strings.ToLower(filepath.Ext(fileName)))
}

func evidencePrefix(userID, evidenceID uint64) string {
	return fmt.Sprintf("%d/%d/", userID, evidenceID)
}

// MediaType image/* -> photo，video/* -> video
func MediaType(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return model.MediaPhoto, nil
	case strings.HasPrefix(ct, "video/"):
		return model.MediaVideo, nil
	}
	return "", ErrUnsupportedMedia
}

func (s *EvidenceService) view(e model.Evidence) EvidenceView {
	for i := range e.Photos {
		e.Photos[i].URL = s.store.PublicURL(e.Photos[i].StorageKey)
	}
	return EvidenceView{Evidence: e, Layout: EvidenceLayout(len(e.Photos), DescriptionLength(e.Description))}
}

func (s *EvidenceService) views(list []model.Evidence) []EvidenceView {
	out := make([]EvidenceView, 0, len(list))
	for _, e := range list {
		out = append(out, s.view(e))
	}
	return out
}

func (s *EvidenceService) Create(ctx context.Context, v Viewer, in EvidenceInput) (*EvidenceView, error) {
	if v.UserID == 0 {
		return nil, ErrUnauthorized
	}
	e := &model.Evidence{
		UserID:      v.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Severity:    in.Severity,
		Development: in.Development,
		Location:    in.Location,
		Moderation:  model.Moderation{Status: model.StatusPending},
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	view := s.view(*e)
	return &view, nil
}

// Update 作者修改已审核内容后重新进入待审核
func (s *EvidenceService) Update(ctx context.Context, v Viewer, id uint64, in EvidenceInput) (*EvidenceView, error) {
	cur, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if _, err = s.repo.Update(ctx, id, map[string]any{
		"title":       strings.TrimSpace(in.Title),
		"description": in.Description,
		"category":    in.Category,
		"severity":    in.Severity,
		"development": in.Development,
		"location":    in.Location,
	}); err != nil {
		return nil, notFound(err)
	}
	if !v.IsModerator() && cur.Status != model.StatusPending {
		if _, err = s.repo.SetModeration(ctx, id, model.Moderation{Status: model.StatusPending}); err != nil {
			return nil, notFound(err)
		}
	}
	return s.Get(ctx, v, id)
}

// load 取出证据并校验管理权限
func (s *EvidenceService) load(ctx context.Context, v Viewer, id uint64) (*model.Evidence, error) {
	e, err := s.repo.FindWithPhotos(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !v.CanManage(e.UserID) {
		if e.IsApproved() {
			return nil, ErrForbidden
		}
		return nil, ErrNotFound
	}
	return e, nil
}

// Get 公众只能看到 approved，作者与审核员可以看到任意状态
func (s *EvidenceService) Get(ctx context.Context, v Viewer, id uint64) (*EvidenceView, error) {
	e, err := s.repo.FindWithPhotos(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !e.IsApproved() && !v.CanManage(e.UserID) {
		return nil, ErrNotFound
	}
	view := s.view(*e)
	return &view, nil
}

func (s *EvidenceService) ListPublic(ctx context.Context, f Filter, page, size int) (Page[EvidenceView], error) {
	list, err := s.repo.List(ctx, mysql.EvidenceQuery{Status: model.StatusApproved, Limit: ListFetchLimit})
	if err != nil {
		return Page[EvidenceView]{}, err
	}
	return Paginate(s.views(ApplyFilter(list, f, evidenceFields)), page, size), nil
}

func (s *EvidenceService) ListMine(ctx context.Context, v Viewer) ([]EvidenceView, error) {
	if v.UserID == 0 {
		return nil, ErrUnauthorized
	}
	list, err := s.repo.List(ctx, mysql.EvidenceQuery{UserID: v.UserID, Limit: ListFetchLimit})
	if err != nil {
		return nil, err
	}
	return s.views(list), nil
}

func (s *EvidenceService) ListAdmin(ctx context.Context, status model.ModerationStatus, f Filter, page, size int) (Page[EvidenceView], error) {
	if status != "" && !status.Valid() {
		return Page[EvidenceView]{}, ErrInvalidStatus
	}
	list, err := s.repo.List(ctx, mysql.EvidenceQuery{Status: status, Limit: ListFetchLimit})
	if err != nil {
		return Page[EvidenceView]{}, err
	}
	return Paginate(s.views(ApplyFilter(list, f, evidenceFields)), page, size), nil
}

// Moderate 审核结果通过 outbox 触发邮件
func (s *EvidenceService) Moderate(ctx context.Context, v Viewer, id uint64, status model.ModerationStatus, reason string) error {
	m, err := buildModeration(status, reason, v.UserID)
	if err != nil {
		return err
	}
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	return notFound(s.repo.Moderate(ctx, id, m, s.notifyData(ctx, e)))
}

// Toggle 与 Moderate 一致：转为 approved 时通知作者
func (s *EvidenceService) Toggle(ctx context.Context, v Viewer, id uint64) (model.ModerationStatus, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", notFound(err)
	}
	next, err := s.repo.Toggle(ctx, id, v.UserID, s.notifyData(ctx, e))
	return next, notFound(err)
}

func (s *EvidenceService) notifyData(ctx context.Context, e *model.Evidence) map[string]any {
	data := map[string]any{"title": e.Title, "evidence_id": e.ID}
	owner, err := s.users.FindByID(ctx, e.UserID)
	if err != nil {
		s.log.Warn("evidence owner not found", zap.Uint64("evidence_id", e.ID), zap.Error(err))
		return data
	}
	data["email"] = owner.Email
	data["name"] = owner.FullName
	return data
}

// Delete 先删对象存储，再在一个事务里删照片行与证据行；存储失败时数据库不动
func (s *EvidenceService) Delete(ctx context.Context, v Viewer, id uint64) error {
	e, err := s.load(ctx, v, id)
	if err != nil {
		return err
	}
	log := s.log.With(zap.Uint64("evidence_id", id))

	keys, err := s.store.List(ctx, evidencePrefix(e.UserID, e.ID))
	if err != nil {
		return fmt.Errorf("list evidence objects: %w", err)
	}
	for _, p := range e.Photos {
		if !strings.HasPrefix(p.StorageKey, evidencePrefix(e.UserID, e.ID)) {
			keys = append(keys, p.StorageKey)
		}
	}
	if len(keys) > 0 {
		if err = s.store.Delete(ctx, keys...); err != nil {
			log.Error("failed to delete evidence objects", zap.Int("objects", len(keys)), zap.Error(err))
			return fmt.Errorf("delete evidence objects: %w", err)
		}
	}
	if err = s.repo.DeleteWithPhotos(ctx, id); err != nil {
		log.Error("evidence objects deleted but rows remain", zap.Error(err))
		return notFound(err)
	}
	log.Info("evidence deleted", zap.Int("objects", len(keys)), zap.Uint64("by", v.UserID))
	return nil
}

// UploadPhoto 写对象存储后插入照片行；插入失败时回收对象
func (s *EvidenceService) UploadPhoto(ctx context.Context, v Viewer, evidenceID uint64, in UploadInput) (*model.EvidencePhoto, error) {
	e, err := s.load(ctx, v, evidenceID)
	if err != nil {
		return nil, err
	}
	media, err := MediaType(in.ContentType)
	if err != nil {
		return nil, err
	}
	if s.maxUpload > 0 && in.Size > s.maxUpload {
		return nil, ErrFileTooLarge
	}

	key := StorageKey(e.UserID, e.ID, in.FileName)
	if err = s.store.Put(ctx, key, in.ContentType, in.Body, in.Size); err != nil {
		return nil, err
	}

	p := &model.EvidencePhoto{
		EvidenceID:  e.ID,
		UserID:      e.UserID,
		StorageKey:  key,
		FileName:    path.Base(filepath.ToSlash(in.FileName)),
		ContentType: in.ContentType,
		MediaType:   media,
		Size:        in.Size,
		Caption:     strings.TrimSpace(in.Caption),
	}
	if err = s.photos.Create(ctx, e.ID, p); err != nil {
		if derr := s.store.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.log.Error("orphaned evidence object", zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}
	p.URL = s.store.PublicURL(key)
	return p, nil
}

func (s *EvidenceService) loadPhoto(ctx context.Context, v Viewer, photoID uint64) (*model.EvidencePhoto, error) {
	p, err := s.photos.FindByID(ctx, photoID)
	if err != nil {
		return nil, notFound(err)
	}
	if !v.CanManage(p.UserID) {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *EvidenceService) UpdateCaption(ctx context.Context, v Viewer, photoID uint64, caption string) (*model.EvidencePhoto, error) {
	if _, err := s.loadPhoto(ctx, v, photoID); err != nil {
		return nil, err
	}
	p, err := s.photos.Update(ctx, photoID, map[string]any{"caption": strings.TrimSpace(caption)})
	if err != nil {
		return nil, notFound(err)
	}
	p.URL = s.store.PublicURL(p.StorageKey)
	return p, nil
}

func (s *EvidenceService) MovePhoto(ctx context.Context, v Viewer, photoID uint64, direction string) (bool, error) {
	dir, err := ParseDirection(direction)
	if err != nil {
		return false, err
	}
	if _, err = s.loadPhoto(ctx, v, photoID); err != nil {
		return false, err
	}
	moved, err := s.photos.Move(ctx, photoID, dir)
	return moved, notFound(err)
}

// DeletePhoto 先删对象再删行
func (s *EvidenceService) DeletePhoto(ctx context.Context, v Viewer, photoID uint64) error {
	p, err := s.loadPhoto(ctx, v, photoID)
	if err != nil {
		return err
	}
	if err = s.store.Delete(ctx, p.StorageKey); err != nil {
		return fmt.Errorf("delete photo object: %w", err)
	}
	return notFound(s.photos.Delete(ctx, photoID))
}

// WriteZip 并发拉取全部照片（上限 4），按排序写入 zip；任何一个失败则整体失败
func (s *EvidenceService) WriteZip(ctx context.Context, v Viewer, evidenceID uint64, w io.Writer) error {
	view, err := s.Get(ctx, v, evidenceID)
	if err != nil {
		return err
	}
	photos := view.Photos
	if len(photos) == 0 {
		return ErrNotFound
	}

	blobs := make([][]byte, len(photos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(zipConcurrency)
	for i := range photos {
		g.Go(func() error {
			rc, err := s.store.Get(gctx, photos[i].StorageKey)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", photos[i].StorageKey, err)
			}
			defer rc.Close()
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, rc); err != nil {
				return fmt.Errorf("read %s: %w", photos[i].StorageKey, err)
			}
			blobs[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for i, p := range photos {
		f, err := zw.Create(ZipEntryName(i, p))
		if err != nil {
			return err
		}
		if _, err = f.Write(blobs[i]); err != nil {
			return err
		}
	}
	return zw.Close()
}

// ZipEntryName 01-front-door.jpg
func ZipEntryName(i int, p model.EvidencePhoto) string {
	name := p.FileName
	if name == "" || name == "." || name == "/" {
		name = path.Base(p.StorageKey)
	}
	return fmt.Sprintf("%02d-%s", i+1, name)
}
