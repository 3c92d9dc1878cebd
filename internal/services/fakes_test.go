package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
)

// In-memory repositories backing the service tests. They share a store so
// Recompute can read session balances the way the SQL implementation does.
type fakeStore struct {
	mu          sync.Mutex
	seq         int
	users       map[string]models.User
	groups      map[string]models.Group
	players     map[string]models.Player
	sessions    map[string]models.Session
	settlements map[string]models.Settlement
	audits      []models.AuditLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]models.User{},
		groups:      map[string]models.Group{},
		players:     map[string]models.Player{},
		sessions:    map[string]models.Session{},
		settlements: map[string]models.Settlement{},
	}
}

func (s *fakeStore) nextID() string {
	s.seq++
	return fmt.Sprintf("id-%04d", s.seq)
}

type fakeUsers struct{ s *fakeStore }

func (f *fakeUsers) Create(_ context.Context, username, passwordHash string) (models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u := models.User{ID: f.s.nextID(), Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	f.s.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context) ([]models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]models.User, 0, len(f.s.users))
	for _, u := range f.s.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeGroups struct{ s *fakeStore }

func (f *fakeGroups) Create(_ context.Context, name, creatorID string) (models.Group, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	g := models.Group{ID: f.s.nextID(), Name: name, CreatorID: creatorID, CreatedAt: time.Now()}
	f.s.groups[g.ID] = g
	return g, nil
}

func (f *fakeGroups) GetByID(_ context.Context, id string) (models.Group, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	g, ok := f.s.groups[id]
	if !ok {
		return models.Group{}, repo.ErrNotFound
	}
	return g, nil
}

func (f *fakeGroups) List(_ context.Context) ([]models.Group, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]models.Group, 0, len(f.s.groups))
	for _, g := range f.s.groups {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGroups) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.groups[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.s.groups, id)
	return nil
}

func (f *fakeGroups) ExistsByName(_ context.Context, name string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, g := range f.s.groups {
		if g.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type fakePlayers struct{ s *fakeStore }

func (f *fakePlayers) Create(_ context.Context, groupID, name string) (models.Player, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p := models.Player{ID: f.s.nextID(), GroupID: groupID, Name: name, CreatedAt: time.Now()}
	f.s.players[p.ID] = p
	return p, nil
}

func (f *fakePlayers) GetByID(_ context.Context, id string) (models.Player, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.players[id]
	if !ok {
		return models.Player{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakePlayers) ListByGroup(_ context.Context, groupID string) ([]models.Player, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.Player
	for _, p := range f.s.players {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlayers) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.players[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.s.players, id)
	return nil
}

func (f *fakePlayers) Claim(_ context.Context, playerID, userID string) (models.Player, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.players[playerID]
	if !ok {
		return models.Player{}, repo.ErrNotFound
	}
	uid := userID
	p.UserID = &uid
	p.Joined = true
	f.s.players[playerID] = p
	return p, nil
}

func (f *fakePlayers) GetByUserAndGroup(_ context.Context, groupID, userID string) (models.Player, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, p := range f.s.players {
		if p.GroupID == groupID && p.UserID != nil && *p.UserID == userID {
			return p, nil
		}
	}
	return models.Player{}, repo.ErrNotFound
}

type fakeSessions struct{ s *fakeStore }

func (f *fakeSessions) Create(_ context.Context, sess models.Session) (models.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sess.ID = f.s.nextID()
	sess.CreatedAt = time.Now()
	for i := range sess.Balances {
		sess.Balances[i].ID = f.s.nextID()
		sess.Balances[i].SessionID = sess.ID
	}
	f.s.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeSessions) Update(_ context.Context, sess models.Session) (models.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	existing, ok := f.s.sessions[sess.ID]
	if !ok {
		return models.Session{}, repo.ErrNotFound
	}
	sess.CreatedAt = existing.CreatedAt
	for i := range sess.Balances {
		sess.Balances[i].ID = f.s.nextID()
		sess.Balances[i].SessionID = sess.ID
	}
	f.s.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sess, ok := f.s.sessions[id]
	if !ok {
		return models.Session{}, repo.ErrNotFound
	}
	return sess, nil
}

func (f *fakeSessions) ListByGroup(_ context.Context, groupID string) ([]models.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.Session
	for _, sess := range f.s.sessions {
		if sess.GroupID == groupID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.sessions[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.s.sessions, id)
	return nil
}

type fakeSettlements struct{ s *fakeStore }

func (f *fakeSettlements) ListByGroup(_ context.Context, groupID string) ([]models.Settlement, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.Settlement
	for _, st := range f.s.settlements {
		if st.GroupID == groupID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeSettlements) GetByID(_ context.Context, id string) (models.Settlement, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	st, ok := f.s.settlements[id]
	if !ok {
		return models.Settlement{}, repo.ErrNotFound
	}
	return st, nil
}

func (f *fakeSettlements) MarkSettled(_ context.Context, id string, at time.Time) (models.Settlement, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	st, ok := f.s.settlements[id]
	if !ok || st.Settled {
		return models.Settlement{}, repo.ErrNotFound
	}
	st.Settled = true
	st.SettledDate = &at
	f.s.settlements[id] = st
	return st, nil
}

func (f *fakeSettlements) Recompute(_ context.Context, groupID string, fn repo.RecomputeFunc) ([]models.Settlement, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var balances []models.PlayerBalance
	for _, sess := range f.s.sessions {
		if sess.GroupID != groupID {
			continue
		}
		for _, b := range sess.Balances {
			balances = append(balances, models.PlayerBalance{PlayerID: b.PlayerID, Amount: b.Amount})
		}
	}
	var settled []models.Settlement
	for _, st := range f.s.settlements {
		if st.GroupID == groupID && st.Settled {
			settled = append(settled, st)
		}
	}

	next, err := fn(balances, settled)
	if err != nil {
		return nil, err
	}

	for id, st := range f.s.settlements {
		if st.GroupID == groupID && !st.Settled {
			delete(f.s.settlements, id)
		}
	}
	out := make([]models.Settlement, 0, len(next))
	for _, st := range next {
		st.ID = f.s.nextID()
		st.CreatedAt = time.Now()
		f.s.settlements[st.ID] = st
		out = append(out, st)
	}
	return out, nil
}

type fakeAuditLogs struct{ s *fakeStore }

func (f *fakeAuditLogs) Create(_ context.Context, l models.AuditLog) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	l.ID = f.s.nextID()
	l.CreatedAt = time.Now()
	f.s.audits = append(f.s.audits, l)
	return nil
}
