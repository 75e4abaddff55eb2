package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// RegisterInput carries registration fields. An empty Role registers a USER.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService coordinates registration, login and token rotation.
type AuthService struct {
	store      repository.Store
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, store repository.Store, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		tokenMgr:   auth.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Register creates an account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.TokenPair, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if email == "" {
		details["email"] = "required"
	}
	if input.Password == "" {
		details["password"] = "required"
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		details["role"] = "must be one of ADMIN USER"
	}
	if len(details) > 0 {
		return domain.TokenPair{}, apperrors.NewValidationError("invalid registration", details)
	}

	users := s.store.Repos().Users
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return domain.TokenPair{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.TokenPair{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return domain.TokenPair{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return domain.TokenPair{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return domain.TokenPair{}, apperrors.MapError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return s.issue(ctx, users, user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	users := s.store.Repos().Users
	user, err := users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TokenPair{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return domain.TokenPair{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return domain.TokenPair{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(ctx, users, user)
}

// Refresh exchanges the latest issued refresh token for a new pair. Any other token, including a
// previously rotated one, is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.tokenMgr.ParseRefresh(refreshToken)
	if err != nil {
		return domain.TokenPair{}, apperrors.NewUnauthorized("invalid or expired refresh token")
	}

	var pair domain.TokenPair
	err = s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("invalid or expired refresh token")
			}
			return err
		}
		if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
			return apperrors.NewUnauthorized("invalid or expired refresh token")
		}
		pair, err = s.issue(ctx, repos.Users, user)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, apperrors.MapError(err)
	}
	return pair, nil
}

// Profile returns the user record behind an authenticated id.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.Repos().Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(ctx context.Context, users repository.UserRepository, user *domain.User) (domain.TokenPair, error) {
	pair, err := s.tokenMgr.IssuePair(user)
	if err != nil {
		return domain.TokenPair{}, apperrors.NewInternalError(err)
	}
	if err := users.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
