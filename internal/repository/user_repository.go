package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kickwager/kickwager-api/internal/models"
)

const userColumns = `id, username, email, password_hash, is_admin, total_points, created_at, updated_at`

// userRepository implements UserRepository
type userRepository struct {
	db dbExecutor
}

// NewUserRepository creates a new user repository
func NewUserRepository(db dbExecutor) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := sqlx.GetContext(ctx, r.db, user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("user %s", id))
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := sqlx.GetContext(ctx, r.db, user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("user with email %s", email))
	}
	return user, nil
}

// List retrieves all users ordered by registration
func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := sqlx.SelectContext(ctx, r.db, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, translate(err, "failed to list users")
	}
	return users, nil
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, username, email, password_hash, is_admin, total_points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsAdmin,
		user.TotalPoints, user.CreatedAt, user.UpdatedAt,
	)
	return translate(err, "failed to create user")
}

// SetAdmin grants or revokes the admin flag
func (r *userRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_admin = $2, updated_at = NOW() WHERE id = $1`, id, isAdmin)
	if err != nil {
		return translate(err, "failed to update user")
	}
	return expectRows(result, fmt.Sprintf("user %s", id))
}

// RecomputeTotalPoints derives the cached total from the user's bets. The
// row is locked first so the sum is read in a statement that starts after
// any concurrent scoring of the same user has committed.
func (r *userRepository) RecomputeTotalPoints(ctx context.Context, id uuid.UUID) (int, error) {
	var locked uuid.UUID
	if err := sqlx.GetContext(ctx, r.db, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		return 0, translate(err, fmt.Sprintf("user %s", id))
	}

	query := `
		UPDATE users SET
			total_points = (SELECT COALESCE(SUM(points_earned), 0) FROM bets WHERE user_id = $1),
			updated_at = NOW()
		WHERE id = $1
		RETURNING total_points
	`

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, query, id); err != nil {
		return 0, translate(err, fmt.Sprintf("user %s", id))
	}
	return total, nil
}

// Delete deletes a user; bets and memberships cascade
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "failed to delete user")
	}
	return expectRows(result, fmt.Sprintf("user %s", id))
}
