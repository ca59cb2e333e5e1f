package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
)

type adminServiceImpl struct {
	repos  *repository.Repositories
	logger logger.Logger
}

func newAdminService(deps Dependencies) AdminService {
	return &adminServiceImpl{repos: deps.Repos, logger: deps.Logger}
}

func (s *adminServiceImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repos.User.List(ctx)
	if err != nil {
		return nil, repoError(err, "users", "ListUsers")
	}
	return users, nil
}

func (s *adminServiceImpl) MakeAdmin(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if err := s.repos.User.SetAdmin(ctx, userID, true); err != nil {
		return nil, repoError(err, "user", "MakeAdmin")
	}

	s.logger.Info("User promoted to admin", "user_id", userID.String())
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "user", "MakeAdmin")
	}
	return user, nil
}
