package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/SergeiKhy/link-shortener/internal/auth"
	"github.com/SergeiKhy/link-shortener/internal/models"
	"github.com/SergeiKhy/link-shortener/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrWeakPassword       = errors.New("password too short")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already taken")
)

const minPasswordLength = 8

// Буквы, цифры и @.+-_, от 3 до 150 символов
var usernamePattern = regexp.MustCompile(`^[\w.@+-]{3,150}$`)

type RegisterInput struct {
	Username  string
	Password1 string
	Password2 string
}

type AuthService interface {
	Register(ctx context.Context, input *RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Verify(ctx context.Context, token string) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	hashCost int
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager, hashCost int, logger *zap.Logger) AuthService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		hashCost: hashCost,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	if !usernamePattern.MatchString(input.Username) {
		return nil, ErrInvalidUsername
	}
	if input.Password1 != input.Password2 {
		return nil, ErrPasswordMismatch
	}
	if len(input.Password1) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password1), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		Username: user.Username,
		Access:   access,
		Refresh:  refresh,
	}, nil
}

// Refresh выдаёт новый access-токен, если пользователь всё ещё существует
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	if _, err := s.userRepo.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", auth.ErrInvalidToken
		}
		return "", err
	}

	return s.tokens.IssueAccess(claims.UserID)
}

func (s *authService) Verify(_ context.Context, token string) error {
	_, err := s.tokens.Parse(token, "")
	return err
}
