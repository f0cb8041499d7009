package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

type GLOInput struct {
	FullName       string `json:"full_name" binding:"required,max=128"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"max=32"`
	Postcode       string `json:"postcode" binding:"max=16"`
	Development    string `json:"development" binding:"max=128"`
	DefectsSummary string `json:"defects_summary" binding:"max=10000"`
	Consent        bool   `json:"consent"`
}

// GLOService 集体诉讼意向登记
type GLOService struct {
	repo *mysql.GLORepository
	log  *zap.Logger
}

func NewGLOService(repo *mysql.GLORepository, log *zap.Logger) *GLOService {
	return &GLOService{repo: repo, log: log}
}

// Register 必须同意；同一邮箱只能登记一次
func (s *GLOService) Register(ctx context.Context, in GLOInput) (*model.GLOInterest, error) {
	if !in.Consent {
		return nil, ErrConsentRequired
	}
	g := &model.GLOInterest{
		FullName:       strings.TrimSpace(in.FullName),
		Email:          normalizeEmail(in.Email),
		Phone:          in.Phone,
		Postcode:       strings.ToUpper(strings.TrimSpace(in.Postcode)),
		Development:    in.Development,
		DefectsSummary: in.DefectsSummary,
		Consent:        true,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	s.log.Info("glo interest registered", zap.Uint64("id", g.ID))
	return g, nil
}

func (s *GLOService) List(ctx context.Context) ([]model.GLOInterest, error) {
	return s.repo.List(ctx, ListFetchLimit)
}

func (s *GLOService) Delete(ctx context.Context, id uint64) error {
	return notFound(s.repo.Delete(ctx, id))
}
