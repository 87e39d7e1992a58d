package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// LoginResult carries a fresh session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Profile   *domain.Profile
}

// AuthService authenticates staff accounts.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type authService struct {
	profiles repository.ProfileRepository
	tokens   *auth.TokenManager
}

// NewAuthService wires the service.
func NewAuthService(profiles repository.ProfileRepository, tokens *auth.TokenManager) AuthService {
	return &authService{profiles: profiles, tokens: tokens}
}

// Login verifies credentials and issues a JWT. Wrong email and wrong password
// are indistinguishable to the caller; deactivated accounts are refused
// explicitly.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, util.NewValidationError("email y password son obligatorios", nil)
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("credenciales no validas")
		}
		return nil, util.MapError(err)
	}
	if err := auth.ComparePassword(profile.PasswordHash, password); err != nil {
		return nil, util.NewUnauthorized("credenciales no validas")
	}
	if !profile.Activo {
		return nil, util.NewForbidden("cuenta desactivada")
	}

	token, expiresAt, err := s.tokens.GenerateToken(profile)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Profile: profile}, nil
}
