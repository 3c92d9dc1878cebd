package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pokercount/backend/internal/auth"
	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
)

type UserService struct {
	users repo.Users
	tm    *auth.TokenManager
}

func NewUserService(users repo.Users, tm *auth.TokenManager) *UserService {
	return &UserService{users: users, tm: tm}
}

func (s *UserService) Register(ctx context.Context, username, password string) (models.User, error) {
	u := models.User{Username: strings.TrimSpace(username)}
	if err := u.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return models.User{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	if _, err := s.users.GetByUsername(ctx, u.Username); err == nil {
		return models.User{}, fmt.Errorf("%w: username already exists", ErrValidation)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.users.Create(ctx, u.Username, hash)
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Login checks credentials and mints a token pair. Any failure is reported
// as a single opaque error so callers cannot probe for usernames.
func (s *UserService) Login(ctx context.Context, username, password string) (models.User, TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return models.User{}, TokenPair{}, errors.New("invalid username or password")
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return models.User{}, TokenPair{}, errors.New("invalid username or password")
	}

	access, refresh, exp, err := s.tm.GeneratePair(u.ID)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	return u, TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, isRefresh, err := s.tm.ParseAny(refreshToken)
	if err != nil || !isRefresh {
		return TokenPair{}, errors.New("invalid refresh token")
	}
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		return TokenPair{}, errors.New("invalid refresh token")
	}
	access, refresh, exp, err := s.tm.GeneratePair(claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}
