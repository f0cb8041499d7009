package service

import (
	"context"
	"strings"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

type ComplaintInput struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=10000"`
	Category    string `json:"category" binding:"max=64"`
	Severity    string `json:"severity" binding:"omitempty,oneof=low medium high critical"`
	Development string `json:"development" binding:"max=128"`
}

type ComplaintService struct {
	repo *mysql.ComplaintRepository
}

func NewComplaintService(repo *mysql.ComplaintRepository) *ComplaintService {
	return &ComplaintService{repo: repo}
}

func (s *ComplaintService) ListPublic(ctx context.Context, f Filter, page, size int) (Page[model.Complaint], error) {
	list, err := s.repo.List(ctx, model.StatusApproved, ListFetchLimit)
	if err != nil {
		return Page[model.Complaint]{}, err
	}
	return Paginate(ApplyFilter(list, f, complaintFields), page, size), nil
}

func (s *ComplaintService) ListAdmin(ctx context.Context, status model.ModerationStatus, f Filter, page, size int) (Page[model.Complaint], error) {
	if status != "" && !status.Valid() {
		return Page[model.Complaint]{}, ErrInvalidStatus
	}
	list, err := s.repo.List(ctx, status, ListFetchLimit)
	if err != nil {
		return Page[model.Complaint]{}, err
	}
	return Paginate(ApplyFilter(list, f, complaintFields), page, size), nil
}

func (s *ComplaintService) Submit(ctx context.Context, v Viewer, in ComplaintInput) (*model.Complaint, error) {
	if v.UserID == 0 {
		return nil, ErrUnauthorized
	}
	c := &model.Complaint{
		UserID:      v.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Severity:    in.Severity,
		Development: in.Development,
		Moderation:  model.Moderation{Status: model.StatusPending},
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ComplaintService) Moderate(ctx context.Context, v Viewer, id uint64, status model.ModerationStatus, reason string) error {
	m, err := buildModeration(status, reason, v.UserID)
	if err != nil {
		return err
	}
	_, err = s.repo.SetModeration(ctx, id, m)
	return notFound(err)
}

func (s *ComplaintService) Toggle(ctx context.Context, v Viewer, id uint64) (model.ModerationStatus, error) {
	next, err := s.repo.ToggleModeration(ctx, id, v.UserID)
	return next, notFound(err)
}

func (s *ComplaintService) Delete(ctx context.Context, id uint64) error {
	return notFound(s.repo.Delete(ctx, id))
}
