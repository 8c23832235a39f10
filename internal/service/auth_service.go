package service

import (
	"context"

	"github.com/alexedwards/argon2id"

	"github.com/roomly/bookings/internal/domain"
	"github.com/roomly/bookings/internal/repository"
	"github.com/roomly/bookings/pkg/auth"
	"github.com/roomly/bookings/pkg/config"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.LoginResponse, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	config   *config.Config
}

func NewAuthService(userRepo repository.UserRepository, config *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		config:   config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.StoreErr("check existing user", err)
	}
	if existing != nil {
		return nil, domain.Conflictf("email already registered")
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, domain.StoreErr("hash password", err)
	}

	user, err := s.userRepo.Create(ctx, req, passwordHash)
	if err != nil {
		return nil, domain.StoreErr("create user", err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.StoreErr("find user", err)
	}
	if user == nil {
		// Same error as a bad password so the response does not reveal
		// which field was wrong.
		return nil, domain.Forbiddenf("invalid credentials")
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, domain.StoreErr("verify password", err)
	}
	if !valid {
		return nil, domain.Forbiddenf("invalid credentials")
	}

	return s.issueTokens(user, "")
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResponse, error) {
	claims, err := auth.Parse(refreshToken, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, domain.Forbiddenf("invalid refresh token")
	}
	if claims.Role != "refresh" {
		return nil, domain.Forbiddenf("invalid token type")
	}

	user, err := s.userRepo.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, domain.StoreErr("find user", err)
	}
	if user == nil {
		return nil, domain.NotFoundf("user %d not found", claims.Sub)
	}

	return s.issueTokens(user, refreshToken)
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("find user", err)
	}
	if user == nil {
		return nil, domain.NotFoundf("user %d not found", id)
	}
	return user, nil
}

// issueTokens signs an access token and, when reuse is empty, a fresh
// refresh token.
func (s *authService) issueTokens(user *domain.User, reuse string) (*domain.LoginResponse, error) {
	accessToken, err := auth.NewAccessToken(
		user.ID,
		user.Email,
		user.Role,
		s.config.Auth.JWTSecret,
		s.config.Auth.AccessTokenTTL,
	)
	if err != nil {
		return nil, domain.StoreErr("sign access token", err)
	}

	refreshToken := reuse
	if refreshToken == "" {
		refreshToken, err = auth.NewAccessToken(
			user.ID,
			user.Email,
			"refresh",
			s.config.Auth.JWTSecret,
			s.config.Auth.RefreshTokenTTL,
		)
		if err != nil {
			return nil, domain.StoreErr("sign refresh token", err)
		}
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:         user.ToUserInfo(),
	}, nil
}
