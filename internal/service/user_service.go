package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/repository/mysql"
	"Redrow_Exposed/internal/repository/redis"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"required,max=128"`
	Phone    string `json:"phone" binding:"max=32"`
	Code     string `json:"code" binding:"required,len=6,numeric"`
}

type UserService struct {
	repo   *mysql.UserRepository
	tokens TokenStore
	codes  *CodeService
	issuer *pkg.TokenIssuer
	log    *zap.Logger
}

func NewUserService(repo *mysql.UserRepository, tokens TokenStore, codes *CodeService, issuer *pkg.TokenIssuer, log *zap.Logger) *UserService {
	return &UserService{repo: repo, tokens: tokens, codes: codes, issuer: issuer, log: log}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 验证 code 是否正确
	if err := s.codes.Verify(ctx, redis.ScopeRegister, email, in.Code); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:    email,
		Password: string(hash),
		FullName: in.FullName,
		Phone:    in.Phone,
		Role:     model.RoleUser,
	}
	if err = s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	s.log.Info("user registered", zap.Uint64("user_id", user.ID))
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*pkg.Pair, *model.User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// issue 签发 token，并把 access token 写入 redis
func (s *UserService) issue(ctx context.Context, user *model.User) (*pkg.Pair, error) {
	pair, err := s.issuer.GeneratePair(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	if err = s.tokens.AddUserToken(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	if err = s.tokens.AddRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.tokens.DeleteUserToken(ctx, userID)
}

// Refresh 只接受 redis 中最近签发的 refresh token；登出、改密、改角色后旧 token 失效
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	stored, err := s.tokens.GetRefreshToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, redis.ErrTokenNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if stored != refreshToken {
		return nil, ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	// 校验 code 正确性
	if err := s.codes.Verify(ctx, redis.ScopeReset, email, code); err != nil {
		return err
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return notFound(err)
	}
	if err = s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

// ChangePassword 登录态修改密码，成功后强制重新登录
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	if err = s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}

func (s *UserService) setPassword(ctx context.Context, userID uint64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return notFound(s.repo.UpdatePassword(ctx, userID, string(hash)))
}

func (s *UserService) Profile(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint64, fullName, phone string) (*model.User, error) {
	if err := s.repo.UpdateProfile(ctx, userID, fullName, phone); err != nil {
		return nil, notFound(err)
	}
	return s.Profile(ctx, userID)
}

func (s *UserService) List(ctx context.Context, search string, page, size int) (Page[model.User], error) {
	p := Paginate([]model.User{}, page, size)
	users, total, err := s.repo.List(ctx, search, (p.Page-1)*p.PageSize, p.PageSize)
	if err != nil {
		return p, err
	}
	p.Items = users
	p.Total = int(total)
	p.TotalPages = (p.Total + p.PageSize - 1) / p.PageSize
	return p, nil
}

// SetRole 修改角色并踢下线；不能修改自己的角色
func (s *UserService) SetRole(ctx context.Context, actorID, userID uint64, role model.Role) error {
	if !role.Valid() {
		return ErrInvalidInput
	}
	if actorID == userID {
		return ErrForbidden
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return notFound(err)
	}
	s.log.Info("user role changed",
		zap.Uint64("user_id", userID), zap.String("role", string(role)), zap.Uint64("by", actorID))
	return s.tokens.DeleteUserToken(ctx, userID)
}
