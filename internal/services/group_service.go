package services

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/cache"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 8
	inviteCodeAttempts = 5
)

// groupServiceImpl implements GroupService
type groupServiceImpl struct {
	repos  *repository.Repositories
	cache  cache.LeaderboardCache
	logger logger.Logger
	now    func() time.Time
}

func newGroupService(deps Dependencies) GroupService {
	return &groupServiceImpl{
		repos:  deps.Repos,
		cache:  deps.Cache,
		logger: deps.Logger,
		now:    deps.Now,
	}
}

// Create makes the creator admin and first member. Invite code collisions
// are retried with a fresh code.
func (s *groupServiceImpl) Create(ctx context.Context, user *models.User, req *models.CreateGroupRequest) (*models.Group, error) {
	now := s.now()

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return nil, errors.InternalError("failed to generate invite code", err).WithOperation("CreateGroup")
		}

		group := &models.Group{
			ID:            uuid.New(),
			Name:          strings.TrimSpace(req.Name),
			InviteCode:    code,
			AdminID:       user.ID,
			AdminUsername: user.Username,
			Members: []models.GroupMember{
				{UserID: user.ID, Username: user.Username, JoinedAt: now},
			},
		}
		if err := models.Validate(group); err != nil {
			return nil, errors.ValidationError("invalid group", err).WithOperation("CreateGroup")
		}

		err = s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
			return repos.Group.Create(ctx, group)
		})
		if err == nil {
			s.logger.Info("Group created", "group_id", group.ID.String(), "admin_id", user.ID.String())
			return group, nil
		}
		if !stderrors.Is(err, repository.ErrDuplicate) {
			return nil, repoError(err, "group", "CreateGroup")
		}
		s.logger.Debug("Invite code collision, retrying", "attempt", attempt+1)
	}

	return nil, errors.InternalError("could not allocate a unique invite code", nil).WithOperation("CreateGroup")
}

// ListMine returns the groups the user belongs to
func (s *groupServiceImpl) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	groups, err := s.repos.Group.ListForUser(ctx, userID)
	if err != nil {
		return nil, repoError(err, "groups", "ListGroups")
	}
	return groups, nil
}

// Get returns a group to one of its members
func (s *groupServiceImpl) Get(ctx context.Context, groupID, requesterID uuid.UUID) (*models.Group, error) {
	return s.memberView(ctx, groupID, requesterID, "GetGroup")
}

// Join adds the user to the group with the given invite code
func (s *groupServiceImpl) Join(ctx context.Context, user *models.User, inviteCode string) (*models.Group, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))

	group, err := s.repos.Group.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, repoError(err, "group", "JoinGroup")
	}
	if group.HasMember(user.ID) {
		return nil, errors.Conflict("already a member of this group", nil).WithOperation("JoinGroup")
	}

	member := models.GroupMember{UserID: user.ID, Username: user.Username, JoinedAt: s.now()}
	if err := s.repos.Group.AddMember(ctx, group.ID, member); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("already a member of this group", err).WithOperation("JoinGroup")
		}
		return nil, repoError(err, "group", "JoinGroup")
	}
	group.Members = append(group.Members, member)

	s.invalidate(ctx, group.ID)
	s.logger.Info("User joined group", "group_id", group.ID.String(), "user_id", user.ID.String())
	return group, nil
}

// Leave removes the user from the group. The admin cannot leave.
func (s *groupServiceImpl) Leave(ctx context.Context, groupID, userID uuid.UUID) error {
	group, err := s.memberView(ctx, groupID, userID, "LeaveGroup")
	if err != nil {
		return err
	}
	if group.AdminID == userID {
		return errors.ValidationError("the group admin cannot leave; delete the group instead", nil).WithOperation("LeaveGroup")
	}

	if err := s.repos.Group.RemoveMember(ctx, groupID, userID); err != nil {
		return repoError(err, "group member", "LeaveGroup")
	}

	s.invalidate(ctx, groupID)
	return nil
}

// Kick removes another member. Only the admin may kick, and not themselves.
func (s *groupServiceImpl) Kick(ctx context.Context, groupID, requesterID, memberID uuid.UUID) error {
	group, err := s.repos.Group.GetByID(ctx, groupID)
	if err != nil {
		return repoError(err, "group", "KickMember")
	}
	if group.AdminID != requesterID {
		return errors.Forbidden("only the group admin can remove members", nil).WithOperation("KickMember")
	}
	if memberID == requesterID {
		return errors.ValidationError("the group admin cannot remove themselves", nil).WithOperation("KickMember")
	}
	if !group.HasMember(memberID) {
		return errors.NotFound("member not found in group", nil).WithOperation("KickMember")
	}

	if err := s.repos.Group.RemoveMember(ctx, groupID, memberID); err != nil {
		return repoError(err, "group member", "KickMember")
	}

	s.invalidate(ctx, groupID)
	s.logger.Info("Member removed from group", "group_id", groupID.String(), "user_id", memberID.String())
	return nil
}

// Delete removes the group; only its admin may do so
func (s *groupServiceImpl) Delete(ctx context.Context, groupID, requesterID uuid.UUID) error {
	group, err := s.repos.Group.GetByID(ctx, groupID)
	if err != nil {
		return repoError(err, "group", "DeleteGroup")
	}
	if group.AdminID != requesterID {
		return errors.Forbidden("only the group admin can delete the group", nil).WithOperation("DeleteGroup")
	}

	if err := s.repos.Group.Delete(ctx, groupID); err != nil {
		return repoError(err, "group", "DeleteGroup")
	}

	s.invalidate(ctx, groupID)
	s.logger.Info("Group deleted", "group_id", groupID.String())
	return nil
}

// BetsForGame returns the current members' bets on a game
func (s *groupServiceImpl) BetsForGame(ctx context.Context, groupID, requesterID, gameID uuid.UUID) ([]models.Bet, error) {
	group, err := s.memberView(ctx, groupID, requesterID, "GroupBets")
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Game.GetByID(ctx, gameID); err != nil {
		return nil, repoError(err, "game", "GroupBets")
	}

	bets, err := s.repos.Bet.FindByGame(ctx, gameID)
	if err != nil {
		return nil, repoError(err, "bets", "GroupBets")
	}

	filter := repository.MemberBets(group.MemberIDs())
	out := make([]models.Bet, 0, len(bets))
	for _, bet := range bets {
		if filter.Matches(bet) {
			out = append(out, bet)
		}
	}
	return out, nil
}

// memberView loads a group and checks that requesterID belongs to it
func (s *groupServiceImpl) memberView(ctx context.Context, groupID, requesterID uuid.UUID, operation string) (*models.Group, error) {
	group, err := s.repos.Group.GetByID(ctx, groupID)
	if err != nil {
		return nil, repoError(err, "group", operation)
	}
	if !group.HasMember(requesterID) {
		return nil, errors.Forbidden("not a member of this group", nil).WithOperation(operation)
	}
	return group, nil
}

func (s *groupServiceImpl) invalidate(ctx context.Context, groupID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, cache.GroupKey(groupID)); err != nil {
		s.logger.Error("Failed to invalidate group leaderboard", err, "group_id", groupID.String())
	}
}

func generateInviteCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		sb.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
