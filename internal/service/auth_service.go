package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/auth"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/repository"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// TokenIssuer issues access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID int64, username string, isAdmin bool) (string, string, error)
}

// AuthService handles login and the administrator bootstrap.
type AuthService struct {
	userRepo    repository.UserRepository
	tokens      TokenIssuer
	passwordCfg *auth.PasswordConfig
	tokenTTL    int64
}

// NewAuthService creates a new AuthService. tokenTTLSeconds is reported to
// clients as expires_in.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	passwordCfg *auth.PasswordConfig,
	tokenTTLSeconds int64,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		passwordCfg: passwordCfg,
		tokenTTL:    tokenTTLSeconds,
	}
}

// Login verifies credentials and returns a bearer token.
// Unknown users and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth("login_failed", req.Username, false, "user not found")
			return nil, utils.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash, user.Salt, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		utils.LogAuth("login_failed", user.Username, false, "invalid password")
		return nil, utils.NewInvalidCredentialsError()
	}

	token, _, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	utils.LogAuth("login_success", user.Username, true, "")

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   constants.TokenTypeBearer,
		ExpiresIn:   s.tokenTTL,
		Username:    user.Username,
		IsAdmin:     user.IsAdmin,
	}, nil
}

// EnsureAdmin creates the administrator account on first start.
// An existing account with the same name is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		log.Warn().Msg("No administrator credentials configured, skipping admin bootstrap")
		return nil
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, salt, err := auth.HashPassword(password, s.passwordCfg)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	err = s.userRepo.Create(ctx, &models.User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		IsAdmin:      true,
	})
	if err != nil {
		// Another instance won the race.
		if utils.IsDuplicateError(err) {
			return nil
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	log.Info().Str("username", username).Msg("Administrator account created")
	return nil
}
