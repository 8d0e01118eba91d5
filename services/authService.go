package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kd-resto/apperrors"
	"kd-resto/dtos"
	"kd-resto/repositories"
	"kd-resto/utils"
)

type AuthService interface {
	Login(ctx context.Context, input dtos.LoginInput) (*dtos.AuthResponse, error)
}

type authService struct {
	store     *repositories.Store
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(store *repositories.Store, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{store: store, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *authService) Login(ctx context.Context, input dtos.LoginInput) (*dtos.AuthResponse, error) {
	user, err := s.store.Users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthenticated("invalid username or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthenticated("invalid username or password")
	}

	token, err := utils.GenerateToken(s.jwtSecret, s.tokenTTL, user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal("failed to generate token", err)
	}

	return &dtos.AuthResponse{
		Message: "Login successful",
		Token:   token,
		Role:    user.Role,
	}, nil
}
