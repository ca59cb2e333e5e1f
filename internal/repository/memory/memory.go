// Package memory is an in-process implementation of the repository
// interfaces. Transactions take a store-wide lock and restore a snapshot on
// error, which gives the same serialization PostgreSQL provides with
// SELECT ... FOR UPDATE. It backs the service and API tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/repository"
	"github.com/kickwager/kickwager-api/internal/scoring"
)

// Store holds all records
type Store struct {
	mu     sync.Mutex
	users  []models.User
	games  []models.Game
	bets   []models.Bet
	groups []models.Group

	// UpdatePointsHook, when set, runs before each bet update and can fail it
	UpdatePointsHook func(betID uuid.UUID) error
}

type snapshot struct {
	users  []models.User
	games  []models.Game
	bets   []models.Bet
	groups []models.Group
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// NewRepositories creates a repository collection over a fresh store
func NewRepositories() (*repository.Repositories, *Store) {
	s := NewStore()
	return s.Repositories(), s
}

// Repositories returns a repository collection over the store
func (s *Store) Repositories() *repository.Repositories {
	return s.repositories(false)
}

func (s *Store) repositories(inTx bool) *repository.Repositories {
	return &repository.Repositories{
		Game:  &gameRepo{s: s, inTx: inTx},
		Bet:   &betRepo{s: s, inTx: inTx},
		User:  &userRepo{s: s, inTx: inTx},
		Group: &groupRepo{s: s, inTx: inTx},
		Tx:    &txManager{s: s},
	}
}

// lock acquires the store lock unless the caller already runs inside a transaction
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:  append([]models.User(nil), s.users...),
		games:  append([]models.Game(nil), s.games...),
		bets:   append([]models.Bet(nil), s.bets...),
		groups: make([]models.Group, len(s.groups)),
	}
	for i, g := range s.groups {
		snap.groups[i] = copyGroup(g)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.games = snap.games
	s.bets = snap.bets
	s.groups = snap.groups
}

func copyGroup(g models.Group) models.Group {
	g.Members = append([]models.GroupMember{}, g.Members...)
	return g
}

func notFound(what string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", what, id, repository.ErrNotFound)
}

type txManager struct {
	s *Store
}

func (t *txManager) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	snap := t.s.snapshot()
	if err := fn(t.s.repositories(true)); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// Users

type userRepo struct {
	s    *Store
	inTx bool
}

func (r *userRepo) find(id uuid.UUID) int {
	for i := range r.s.users {
		if r.s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return nil, notFound("user", id)
	}
	u := r.s.users[i]
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.s.lock(r.inTx)()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user with email", email)
}

func (r *userRepo) List(ctx context.Context) ([]models.User, error) {
	defer r.s.lock(r.inTx)()
	return append([]models.User{}, r.s.users...), nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	defer r.s.lock(r.inTx)()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("user %s: %w", user.Username, repository.ErrDuplicate)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users = append(r.s.users, *user)
	return nil
}

func (r *userRepo) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return notFound("user", id)
	}
	r.s.users[i].IsAdmin = isAdmin
	r.s.users[i].UpdatedAt = time.Now().UTC()
	return nil
}

func (r *userRepo) RecomputeTotalPoints(ctx context.Context, id uuid.UUID) (int, error) {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return 0, notFound("user", id)
	}
	total := 0
	for _, b := range r.s.bets {
		if b.UserID == id {
			total += b.PointsEarned
		}
	}
	r.s.users[i].TotalPoints = total
	r.s.users[i].UpdatedAt = time.Now().UTC()
	return total, nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return notFound("user", id)
	}
	r.s.users = append(r.s.users[:i:i], r.s.users[i+1:]...)

	bets := r.s.bets[:0:0]
	for _, b := range r.s.bets {
		if b.UserID != id {
			bets = append(bets, b)
		}
	}
	r.s.bets = bets

	groups := r.s.groups[:0:0]
	for _, g := range r.s.groups {
		if g.AdminID == id {
			continue
		}
		g = copyGroup(g)
		g.Members = removeMember(g.Members, id)
		groups = append(groups, g)
	}
	r.s.groups = groups
	return nil
}

// Games

type gameRepo struct {
	s    *Store
	inTx bool
}

func (r *gameRepo) find(id uuid.UUID) int {
	for i := range r.s.games {
		if r.s.games[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *gameRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return nil, notFound("game", id)
	}
	g := r.s.games[i]
	return &g, nil
}

func (r *gameRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return r.GetByID(ctx, id)
}

func (r *gameRepo) List(ctx context.Context, filters models.GameFilters) ([]models.Game, error) {
	defer r.s.lock(r.inTx)()
	games := []models.Game{}
	for _, g := range r.s.games {
		if filters.Week > 0 && g.Week != filters.Week {
			continue
		}
		if filters.Season != "" && g.Season != filters.Season {
			continue
		}
		games = append(games, g)
	}

	for i := 1; i < len(games); i++ {
		for j := i; j > 0 && games[j].GameDate.Before(games[j-1].GameDate); j-- {
			games[j], games[j-1] = games[j-1], games[j]
		}
	}

	if filters.Limit > 0 && len(games) > filters.Limit {
		games = games[:filters.Limit]
	}
	return games, nil
}

func (r *gameRepo) Create(ctx context.Context, game *models.Game) error {
	defer r.s.lock(r.inTx)()
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	if game.Status == "" {
		game.Status = models.GameScheduled
	}
	now := time.Now().UTC()
	game.CreatedAt = now
	game.UpdatedAt = now
	r.s.games = append(r.s.games, *game)
	return nil
}

func (r *gameRepo) Update(ctx context.Context, game *models.Game) error {
	defer r.s.lock(r.inTx)()
	i := r.find(game.ID)
	if i < 0 {
		return notFound("game", game.ID)
	}
	game.UpdatedAt = time.Now().UTC()
	game.ScoredAt = r.s.games[i].ScoredAt
	r.s.games[i] = *game
	return nil
}

func (r *gameRepo) MarkFinished(ctx context.Context, id uuid.UUID, homeScore, awayScore int, scoredAt time.Time) error {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return notFound("game", id)
	}
	g := &r.s.games[i]
	g.HomeScore = &homeScore
	g.AwayScore = &awayScore
	g.Status = models.GameFinished
	g.ScoredAt = &scoredAt
	g.UpdatedAt = scoredAt
	return nil
}

func (r *gameRepo) RecordResult(ctx context.Context, id uuid.UUID, homeScore, awayScore int) error {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return notFound("game", id)
	}
	g := &r.s.games[i]
	if g.IsScored() {
		return fmt.Errorf("game %s: %w", id, repository.ErrAlreadyScored)
	}
	g.HomeScore = &homeScore
	g.AwayScore = &awayScore
	g.Status = models.GameFinished
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *gameRepo) ListPendingScoring(ctx context.Context, limit int) ([]models.Game, error) {
	defer r.s.lock(r.inTx)()
	games := []models.Game{}
	for _, g := range r.s.games {
		if g.IsFinished() && !g.IsScored() && g.HomeScore != nil && g.AwayScore != nil {
			games = append(games, g)
		}
		if limit > 0 && len(games) == limit {
			break
		}
	}
	return games, nil
}

func (r *gameRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return notFound("game", id)
	}
	r.s.games = append(r.s.games[:i:i], r.s.games[i+1:]...)

	bets := r.s.bets[:0:0]
	for _, b := range r.s.bets {
		if b.GameID != id {
			bets = append(bets, b)
		}
	}
	r.s.bets = bets
	return nil
}

// Bets

type betRepo struct {
	s    *Store
	inTx bool
}

func (r *betRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	defer r.s.lock(r.inTx)()
	for _, b := range r.s.bets {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, notFound("bet", id)
}

func (r *betRepo) Create(ctx context.Context, bet *models.Bet) error {
	defer r.s.lock(r.inTx)()
	for _, b := range r.s.bets {
		if b.UserID == bet.UserID && b.GameID == bet.GameID {
			return fmt.Errorf("bet on game %s: %w", bet.GameID, repository.ErrDuplicate)
		}
	}
	if bet.ID == uuid.Nil {
		bet.ID = uuid.New()
	}
	bet.CreatedAt = time.Now().UTC()
	r.s.bets = append(r.s.bets, *bet)
	return nil
}

func (r *betRepo) FindByGame(ctx context.Context, gameID uuid.UUID) ([]models.Bet, error) {
	defer r.s.lock(r.inTx)()
	bets := []models.Bet{}
	for _, b := range r.s.bets {
		if b.GameID == gameID {
			bets = append(bets, b)
		}
	}
	return bets, nil
}

func (r *betRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Bet, error) {
	defer r.s.lock(r.inTx)()
	bets := []models.Bet{}
	for i := len(r.s.bets) - 1; i >= 0; i-- {
		if r.s.bets[i].UserID == userID {
			bets = append(bets, r.s.bets[i])
		}
	}
	return bets, nil
}

func (r *betRepo) Find(ctx context.Context, filter repository.BetFilter) ([]models.Bet, error) {
	defer r.s.lock(r.inTx)()
	bets := []models.Bet{}
	for _, b := range r.s.bets {
		if filter.Matches(b) {
			bets = append(bets, b)
		}
	}
	return bets, nil
}

func (r *betRepo) UpdatePoints(ctx context.Context, betID uuid.UUID, score scoring.BetScore) error {
	defer r.s.lock(r.inTx)()
	if r.s.UpdatePointsHook != nil {
		if err := r.s.UpdatePointsHook(betID); err != nil {
			return err
		}
	}
	for i := range r.s.bets {
		if r.s.bets[i].ID == betID {
			score.Apply(&r.s.bets[i])
			return nil
		}
	}
	return notFound("bet", betID)
}

// Groups

type groupRepo struct {
	s    *Store
	inTx bool
}

func (r *groupRepo) find(id uuid.UUID) int {
	for i := range r.s.groups {
		if r.s.groups[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *groupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return nil, notFound("group", id)
	}
	g := copyGroup(r.s.groups[i])
	return &g, nil
}

func (r *groupRepo) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	defer r.s.lock(r.inTx)()
	for _, g := range r.s.groups {
		if g.InviteCode == code {
			g = copyGroup(g)
			return &g, nil
		}
	}
	return nil, notFound("group with invite code", code)
}

func (r *groupRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	defer r.s.lock(r.inTx)()
	groups := []models.Group{}
	for _, g := range r.s.groups {
		if g.HasMember(userID) {
			groups = append(groups, copyGroup(g))
		}
	}
	return groups, nil
}

func (r *groupRepo) Create(ctx context.Context, group *models.Group) error {
	defer r.s.lock(r.inTx)()
	for _, g := range r.s.groups {
		if g.InviteCode == group.InviteCode {
			return fmt.Errorf("group invite code: %w", repository.ErrDuplicate)
		}
	}
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	group.CreatedAt = time.Now().UTC()
	r.s.groups = append(r.s.groups, copyGroup(*group))
	return nil
}

func (r *groupRepo) AddMember(ctx context.Context, groupID uuid.UUID, member models.GroupMember) error {
	defer r.s.lock(r.inTx)()
	i := r.find(groupID)
	if i < 0 {
		return notFound("group", groupID)
	}
	if r.s.groups[i].HasMember(member.UserID) {
		return fmt.Errorf("member of group %s: %w", groupID, repository.ErrDuplicate)
	}
	g := copyGroup(r.s.groups[i])
	g.Members = append(g.Members, member)
	r.s.groups[i] = g
	return nil
}

func (r *groupRepo) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	defer r.s.lock(r.inTx)()
	i := r.find(groupID)
	if i < 0 || !r.s.groups[i].HasMember(userID) {
		return notFound("member of group", groupID)
	}
	g := copyGroup(r.s.groups[i])
	g.Members = removeMember(g.Members, userID)
	r.s.groups[i] = g
	return nil
}

func (r *groupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(r.inTx)()
	i := r.find(id)
	if i < 0 {
		return notFound("group", id)
	}
	r.s.groups = append(r.s.groups[:i:i], r.s.groups[i+1:]...)
	return nil
}

func (r *groupRepo) DeleteAdministeredBy(ctx context.Context, userID uuid.UUID) error {
	defer r.s.lock(r.inTx)()
	groups := r.s.groups[:0:0]
	for _, g := range r.s.groups {
		if g.AdminID != userID {
			groups = append(groups, g)
		}
	}
	r.s.groups = groups
	return nil
}

func removeMember(members []models.GroupMember, userID uuid.UUID) []models.GroupMember {
	out := make([]models.GroupMember, 0, len(members))
	for _, m := range members {
		if m.UserID != userID {
			out = append(out, m)
		}
	}
	return out
}
