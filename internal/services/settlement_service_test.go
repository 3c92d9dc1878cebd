package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokercount/backend/internal/models"
	"github.com/pokercount/backend/internal/worker"
)

type testEnv struct {
	store       *fakeStore
	groups      *GroupService
	sessions    *SessionService
	settlements *SettlementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := newFakeStore()
	wp := worker.NewPool(1)
	t.Cleanup(wp.Stop)

	gr := &fakeGroups{s}
	pl := &fakePlayers{s}
	se := &fakeSessions{s}
	st := &fakeSettlements{s}
	al := &fakeAuditLogs{s}

	stl := NewSettlementService(gr, pl, st, al, wp)
	return &testEnv{
		store:       s,
		groups:      NewGroupService(gr, pl, se, al, wp),
		sessions:    NewSessionService(gr, pl, se, stl, al, wp),
		settlements: stl,
	}
}

// seedGroup creates a group with three roster players named A, B and C.
func seedGroup(t *testing.T, env *testEnv) (models.Group, []models.Player) {
	t.Helper()
	ctx := context.Background()
	g, err := env.groups.Create(ctx, "friday-night", "creator-1")
	require.NoError(t, err)
	players := make([]models.Player, 0, 3)
	for _, name := range []string{"A", "B", "C"} {
		p, err := env.groups.AddPlayer(ctx, g.ID, name)
		require.NoError(t, err)
		players = append(players, p)
	}
	return g, players
}

func seedSession(t *testing.T, env *testEnv, groupID string, buyIn float64, cashOuts map[string]float64) models.Session {
	t.Helper()
	in := SessionInput{Name: "night", Date: "2024-06-01", BuyIn: buyIn}
	for pid, co := range cashOuts {
		in.Balances = append(in.Balances, BalanceEntry{PlayerID: pid, CashOut: co})
	}
	sess, err := env.sessions.Create(context.Background(), groupID, in)
	require.NoError(t, err)
	return sess
}

func unsettledOf(env *testEnv, groupID string) []models.Settlement {
	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	var out []models.Settlement
	for _, st := range env.store.settlements {
		if st.GroupID == groupID && !st.Settled {
			out = append(out, st)
		}
	}
	return out
}

func TestRecompute_GreedyNetting(t *testing.T) {
	env := newTestEnv(t)
	g, ps := seedGroup(t, env)
	a, b, c := ps[0], ps[1], ps[2]

	// Buy-in 50: A cashes out 80 (+30), B 40 (-10), C 30 (-20).
	seedSession(t, env, g.ID, 50, map[string]float64{a.ID: 80, b.ID: 40, c.ID: 30})

	out, err := env.settlements.Recompute(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, out, 2)

	byFrom := map[string]models.Settlement{}
	for _, st := range out {
		byFrom[st.FromPlayerID] = st
	}
	require.Contains(t, byFrom, c.ID)
	require.Contains(t, byFrom, b.ID)
	assert.Equal(t, a.ID, byFrom[c.ID].ToPlayerID)
	assert.InDelta(t, 20, byFrom[c.ID].Amount, 0.001)
	assert.Equal(t, a.ID, byFrom[b.ID].ToPlayerID)
	assert.InDelta(t, 10, byFrom[b.ID].Amount, 0.001)
}

func TestRecompute_ReplacesPriorUnsettledSet(t *testing.T) {
	env := newTestEnv(t)
	g, ps := seedGroup(t, env)
	a, b := ps[0], ps[1]

	seedSession(t, env, g.ID, 50, map[string]float64{a.ID: 70, b.ID: 30})
	_, err := env.settlements.Recompute(context.Background(), g.ID)
	require.NoError(t, err)
	_, err = env.settlements.Recompute(context.Background(), g.ID)
	require.NoError(t, err)

	// Stale proposals never pile up.
	assert.Len(t, unsettledOf(env, g.ID), 1)
}

func TestRecompute_UnknownGroup(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.settlements.Recompute(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMarkSettled_PayerConfirms(t *testing.T) {
	env := newTestEnv(t)
	g, ps := seedGroup(t, env)
	a, b := ps[0], ps[1]
	ctx := context.Background()

	seedSession(t, env, g.ID, 50, map[string]float64{a.ID: 70, b.ID: 30})
	out, err := env.settlements.Recompute(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, b.ID, out[0].FromPlayerID)

	// b's seat is claimed by the acting user.
	_, err = env.groups.Join(ctx, g.ID, b.ID, "user-b")
	require.NoError(t, err)

	st, err := env.settlements.MarkSettled(ctx, out[0].ID, "user-b")
	require.NoError(t, err)
	assert.True(t, st.Settled)
	require.NotNil(t, st.SettledDate)

	// Confirming again is a no-op that keeps the original date.
	again, err := env.settlements.MarkSettled(ctx, out[0].ID, "user-b")
	require.NoError(t, err)
	assert.Equal(t, st.SettledDate, again.SettledDate)
}

func TestMarkSettled_OnlyPayer(t *testing.T) {
	env := newTestEnv(t)
	g, ps := seedGroup(t, env)
	a, b := ps[0], ps[1]
	ctx := context.Background()

	seedSession(t, env, g.ID, 50, map[string]float64{a.ID: 70, b.ID: 30})
	out, err := env.settlements.Recompute(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// The payee cannot confirm on the payer's behalf.
	_, err = env.groups.Join(ctx, g.ID, a.ID, "user-a")
	require.NoError(t, err)
	_, err = env.settlements.MarkSettled(ctx, out[0].ID, "user-a")
	assert.True(t, errors.Is(err, ErrForbidden))

	// Neither can someone who never joined the group.
	_, err = env.settlements.MarkSettled(ctx, out[0].ID, "stranger")
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestMarkSettled_UnknownSettlement(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.settlements.MarkSettled(context.Background(), "nope", "user")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMarkSettled_SurvivesRecompute(t *testing.T) {
	env := newTestEnv(t)
	g, ps := seedGroup(t, env)
	a, b := ps[0], ps[1]
	ctx := context.Background()

	seedSession(t, env, g.ID, 50, map[string]float64{a.ID: 70, b.ID: 30})
	out, err := env.settlements.Recompute(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)

	_, err = env.groups.Join(ctx, g.ID, b.ID, "user-b")
	require.NoError(t, err)
	settled, err := env.settlements.MarkSettled(ctx, out[0].ID, "user-b")
	require.NoError(t, err)

	// The settled payment nets out, so the fresh set is empty.
	next, err := env.settlements.Recompute(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, next)

	kept, err := env.settlements.List(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, settled.ID, kept[0].ID)
	assert.True(t, kept[0].Settled)
}

func TestList_DecoratesPlayerNames(t *testing.T) {
	env := newTestEnv(t)
	g, ps := seedGroup(t, env)
	a, b := ps[0], ps[1]

	seedSession(t, env, g.ID, 50, map[string]float64{a.ID: 70, b.ID: 30})
	views, err := env.settlements.List(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "B", views[0].FromName)
	assert.Equal(t, "A", views[0].ToName)
	assert.Equal(t, "B pays A", views[0].Description)
}
