package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kickwager/kickwager-api/internal/models"
)

const groupColumns = `id, name, invite_code, admin_id, admin_username, created_at`

// groupRepository implements GroupRepository
type groupRepository struct {
	db dbExecutor
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db dbExecutor) GroupRepository {
	return &groupRepository{db: db}
}

// GetByID retrieves a group with its members
func (r *groupRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	group := &models.Group{}
	err := sqlx.GetContext(ctx, r.db, group, `SELECT `+groupColumns+` FROM betting_groups WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("group %s", id))
	}
	return group, r.loadMembers(ctx, group)
}

// GetByInviteCode retrieves a group by its invite code
func (r *groupRepository) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	group := &models.Group{}
	err := sqlx.GetContext(ctx, r.db, group, `SELECT `+groupColumns+` FROM betting_groups WHERE invite_code = $1`, code)
	if err != nil {
		return nil, translate(err, "group with invite code")
	}
	return group, r.loadMembers(ctx, group)
}

// ListForUser retrieves all groups the user belongs to
func (r *groupRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	query := `
		SELECT g.id, g.name, g.invite_code, g.admin_id, g.admin_username, g.created_at
		FROM betting_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at, g.id
	`

	groups := []models.Group{}
	if err := sqlx.SelectContext(ctx, r.db, &groups, query, userID); err != nil {
		return nil, translate(err, "failed to list groups")
	}

	for i := range groups {
		if err := r.loadMembers(ctx, &groups[i]); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// Create stores a group and its initial members
func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	group.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO betting_groups (id, name, invite_code, admin_id, admin_username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		group.ID, group.Name, group.InviteCode, group.AdminID, group.AdminUsername, group.CreatedAt)
	if err != nil {
		return translate(err, "failed to create group")
	}

	for _, m := range group.Members {
		if err := r.AddMember(ctx, group.ID, m); err != nil {
			return err
		}
	}
	return nil
}

// AddMember appends a member to the group
func (r *groupRepository) AddMember(ctx context.Context, groupID uuid.UUID, member models.GroupMember) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, username, joined_at) VALUES ($1, $2, $3, $4)`,
		groupID, member.UserID, member.Username, member.JoinedAt)
	return translate(err, "failed to add group member")
}

// RemoveMember removes a member from the group
func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return translate(err, "failed to remove group member")
	}
	return expectRows(result, fmt.Sprintf("member %s of group %s", userID, groupID))
}

// Delete deletes a group; memberships cascade
func (r *groupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM betting_groups WHERE id = $1`, id)
	if err != nil {
		return translate(err, "failed to delete group")
	}
	return expectRows(result, fmt.Sprintf("group %s", id))
}

// DeleteAdministeredBy deletes every group the user administers
func (r *groupRepository) DeleteAdministeredBy(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM betting_groups WHERE admin_id = $1`, userID)
	return translate(err, "failed to delete administered groups")
}

func (r *groupRepository) loadMembers(ctx context.Context, group *models.Group) error {
	members := []models.GroupMember{}
	err := sqlx.SelectContext(ctx, r.db, &members,
		`SELECT user_id, username, joined_at FROM group_members WHERE group_id = $1 ORDER BY seq`, group.ID)
	if err != nil {
		return translate(err, "failed to load group members")
	}
	group.Members = members
	return nil
}
