package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a private league. Members are kept in join order.
type Group struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Name          string        `json:"name" db:"name" validate:"required,max=64"`
	InviteCode    string        `json:"invite_code" db:"invite_code" validate:"required,len=8,alphanum"`
	AdminID       uuid.UUID     `json:"admin_id" db:"admin_id"`
	AdminUsername string        `json:"admin_username" db:"admin_username"`
	Members       []GroupMember `json:"members" db:"-" validate:"dive"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// GroupMember is one entry of a group's membership list
type GroupMember struct {
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Username string    `json:"username" db:"username" validate:"required"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// HasMember reports whether userID is in the membership list
func (g *Group) HasMember(userID uuid.UUID) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns member ids in join order
func (g *Group) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// CreateGroupRequest represents a group creation request
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// JoinGroupRequest carries an invite code, matched case-insensitively
type JoinGroupRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}
