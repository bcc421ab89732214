package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]UserRecord
	err    error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int64]UserRecord{}}
}

// addUser stores a user with a cheap bcrypt hash and returns its id.
func (r *memUserRepo) addUser(t *testing.T, username, password string) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	id, err := r.Create(context.Background(), username, string(hash))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) Create(_ context.Context, username, passwordHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	for _, u := range r.users {
		if u.Username == username {
			return 0, ErrUserExists
		}
	}
	id := r.nextID
	r.nextID++
	r.users[id] = UserRecord{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	return id, nil
}

func (r *memUserRepo) ListExcept(ctx context.Context, excludeID int64) ([]UserListItem, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []UserListItem{}
	for _, u := range all {
		if u.ID != excludeID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) List(context.Context) ([]UserListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]UserListItem, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, UserListItem{ID: u.ID, Username: u.Username})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type memGameRepo struct {
	mu     sync.Mutex
	users  *memUserRepo
	games  []Game
	now    time.Time
	listed int
}

func newMemGameRepo(users *memUserRepo) *memGameRepo {
	return &memGameRepo{users: users, now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *memGameRepo) Create(ctx context.Context, g NewGame) (*Game, error) {
	u, err := r.users.FindByID(ctx, g.UserID)
	if err != nil {
		return nil, errors.New("foreign key violation")
	}
	var opponent *UserRecord
	if g.OpponentUserID != nil {
		if opponent, err = r.users.FindByID(ctx, *g.OpponentUserID); err != nil {
			return nil, errors.New("foreign key violation")
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = r.now.Add(time.Minute)
	game := Game{
		ID:                int64(len(r.games) + 1),
		UserID:            g.UserID,
		UserUsername:      u.Username,
		OpponentUserID:    g.OpponentUserID,
		GuestOpponentName: g.GuestOpponentName,
		UserScore:         g.UserScore,
		OpponentScore:     g.OpponentScore,
		IsSkunk:           g.IsSkunk,
		IsDoubleSkunk:     g.IsDoubleSkunk,
		GameDate:          r.now,
		Notes:             g.Notes,
	}
	if opponent != nil {
		name := opponent.Username
		game.OpponentUsername = &name
	}
	r.games = append(r.games, game)
	return &game, nil
}

func (r *memGameRepo) ListForUser(_ context.Context, userID int64) ([]Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listed++
	out := []Game{}
	for i := len(r.games) - 1; i >= 0; i-- {
		g := r.games[i]
		if g.UserID == userID || (g.OpponentUserID != nil && *g.OpponentUserID == userID) {
			out = append(out, g)
		}
	}
	return out, nil
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }
