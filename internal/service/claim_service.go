package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

type ClaimInput struct {
	PropertyAddress string          `json:"property_address" binding:"required,max=255"`
	Development     string          `json:"development" binding:"max=128"`
	DefectSummary   string          `json:"defect_summary" binding:"required"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost"`
	ContactPhone    string          `json:"contact_phone" binding:"max=32"`
}

type ClaimStatusInput struct {
	Status model.ClaimStatus `json:"status" binding:"required,oneof=submitted in_review resolved rejected"`
	Note   string            `json:"note"`
}

type ClaimService struct {
	repo  *mysql.ClaimRepository
	users *mysql.UserRepository
	log   *zap.Logger
}

func NewClaimService(repo *mysql.ClaimRepository, users *mysql.UserRepository, log *zap.Logger) *ClaimService {
	return &ClaimService{repo: repo, users: users, log: log}
}

// Submit 提交后进入 submitted，同时写 claim.submitted 事件
func (s *ClaimService) Submit(ctx context.Context, v Viewer, in ClaimInput) (*model.Claim, error) {
	if v.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if in.EstimatedCost.IsNegative() {
		return nil, ErrInvalidInput
	}
	user, err := s.users.FindByID(ctx, v.UserID)
	if err != nil {
		return nil, notFound(err)
	}
	c := &model.Claim{
		UserID:          v.UserID,
		PropertyAddress: strings.TrimSpace(in.PropertyAddress),
		Development:     in.Development,
		DefectSummary:   in.DefectSummary,
		EstimatedCost:   in.EstimatedCost.Round(2),
		ContactPhone:    in.ContactPhone,
		Status:          model.ClaimSubmitted,
	}
	if err = s.repo.Create(ctx, c, map[string]any{
		"email":            user.Email,
		"name":             user.FullName,
		"property_address": c.PropertyAddress,
		"status":           string(c.Status),
	}); err != nil {
		return nil, err
	}
	s.log.Info("claim submitted", zap.Uint64("claim_id", c.ID), zap.Uint64("user_id", v.UserID))
	return c, nil
}

func (s *ClaimService) ListMine(ctx context.Context, v Viewer) ([]model.Claim, error) {
	if v.UserID == 0 {
		return nil, ErrUnauthorized
	}
	return s.repo.List(ctx, v.UserID, "", ListFetchLimit)
}

func (s *ClaimService) ListAll(ctx context.Context, status model.ClaimStatus, page, size int) (Page[model.Claim], error) {
	list, err := s.repo.List(ctx, 0, status, ListFetchLimit)
	if err != nil {
		return Page[model.Claim]{}, err
	}
	return Paginate(list, page, size), nil
}

// Get 作者或审核员
func (s *ClaimService) Get(ctx context.Context, v Viewer, id uint64) (*model.Claim, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !v.CanManage(c.UserID) {
		return nil, ErrNotFound
	}
	return c, nil
}

// UpdateStatus submitted -> in_review -> resolved | rejected
func (s *ClaimService) UpdateStatus(ctx context.Context, v Viewer, id uint64, in ClaimStatusInput) (*model.Claim, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !c.Status.CanTransitionTo(in.Status) {
		return nil, ErrInvalidTransition
	}
	ok, err := s.repo.UpdateStatus(ctx, id, c.Status, in.Status, strings.TrimSpace(in.Note))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	s.log.Info("claim status changed",
		zap.Uint64("claim_id", id),
		zap.String("from", string(c.Status)),
		zap.String("to", string(in.Status)),
		zap.Uint64("by", v.UserID))
	return s.repo.FindByID(ctx, id)
}
