package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/pkg/jwtauth"
)

// AuthService 登录签发 token；完整的账号体系不在本服务范围内
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *jwtauth.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwtauth.Manager) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// Login 校验密码并签发 JWT
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", ErrForbidden)
		}
		return "", nil, err
	}
	if user.IsBlocked {
		return "", nil, ErrUserBlocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrForbidden)
	}
	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// CreateUser 管理员建用户，密码 bcrypt 入库
func (s *AuthService) CreateUser(ctx context.Context, username, email, password string, role model.UserRole) (*model.User, error) {
	if username == "" || email == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: username, email and a password of at least 8 characters are required", ErrValidation)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username or email already taken", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}
