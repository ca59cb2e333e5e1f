package services

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/auth"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/pkg/config"
)

// authServiceImpl implements AuthService
type authServiceImpl struct {
	repos        *repository.Repositories
	jwtService   *auth.JWTService
	cache        cache.LeaderboardCache
	cfg          *config.Config
	logger       logger.Logger
	passwordCost int
}

// newAuthService creates a new auth service implementation
func newAuthService(deps Dependencies) AuthService {
	return &authServiceImpl{
		repos:        deps.Repos,
		jwtService:   auth.NewJWTService(deps.Config.JWTSecret, deps.Config.TokenTTL),
		cache:        deps.Cache,
		cfg:          deps.Config,
		logger:       deps.Logger,
		passwordCost: deps.PasswordCost,
	}
}

// Register creates a new user account
func (s *authServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	return s.createUser(ctx, req.Username, req.Email, req.Password, false, "Register")
}

func (s *authServiceImpl) createUser(ctx context.Context, username, email, password string, isAdmin bool, operation string) (*models.User, error) {
	hash, err := auth.HashPasswordWithCost(password, s.passwordCost)
	if err != nil {
		return nil, errors.InternalError("failed to hash password", err).WithOperation(operation)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := models.Validate(user); err != nil {
		return nil, errors.ValidationError("invalid user", err).WithOperation(operation)
	}

	if err := s.repos.User.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("username or email already registered", err).WithOperation(operation)
		}
		return nil, repoError(err, "user", operation)
	}

	s.logger.Info("User registered", "user_id", user.ID.String(), "username", user.Username)
	return user, nil
}

// Login authenticates a user and returns a token
func (s *authServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repos.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized("invalid credentials", nil).WithOperation("Login")
		}
		return nil, repoError(err, "user", "Login")
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, errors.Unauthorized("invalid credentials", nil).WithOperation("Login")
	}

	token, expiresAt, err := s.jwtService.GenerateToken(auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		return nil, errors.InternalError("failed to generate token", err).WithOperation("Login")
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
	}, nil
}

// Me returns the current user
func (s *authServiceImpl) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "user", "Me")
	}
	return user, nil
}

// DeleteAccount removes the account in one transaction. Bets and memberships
// cascade with the user row; groups the user administers go with it.
func (s *authServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	err := s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if err := repos.Group.DeleteAdministeredBy(ctx, userID); err != nil {
			return repoError(err, "groups", "DeleteAccount")
		}
		if err := repos.User.Delete(ctx, userID); err != nil {
			return repoError(err, "user", "DeleteAccount")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Error("Failed to invalidate leaderboard cache", err, "user_id", userID.String())
	}
	s.logger.Info("Account deleted", "user_id", userID.String())
	return nil
}

// SeedAdmin creates the default admin account if it is missing
func (s *authServiceImpl) SeedAdmin(ctx context.Context) error {
	if !s.cfg.ShouldSeedAdmin() {
		return nil
	}

	_, err := s.repos.User.GetByEmail(ctx, s.cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return repoError(err, "admin user", "SeedAdmin")
	}

	user, err := s.createUser(ctx, s.cfg.AdminUsername, s.cfg.AdminEmail, s.cfg.AdminPassword, true, "SeedAdmin")
	if err != nil {
		return err
	}
	s.logger.Info("Default admin created", "user_id", user.ID.String(), "email", user.Email)
	return nil
}
