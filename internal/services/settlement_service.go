package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pokercount/backend/internal/metrics"
	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
	"github.com/pokercount/backend/internal/settle"
	"github.com/pokercount/backend/internal/worker"
)

// SettlementService owns the debt-netting lifecycle: recompute replaces a
// group's unsettled instructions, MarkSettled confirms a payment. Only
// session mutations trigger recompute; confirming a payment does not.
type SettlementService struct {
	groups      repo.Groups
	players     repo.Players
	settlements repo.Settlements
	audit       repo.AuditLogs
	wp          *worker.Pool
}

func NewSettlementService(g repo.Groups, p repo.Players, st repo.Settlements, a repo.AuditLogs, wp *worker.Pool) *SettlementService {
	return &SettlementService{groups: g, players: p, settlements: st, audit: a, wp: wp}
}

// Recompute rebuilds the group's unsettled settlement set from the current
// session balances and the permanent settled history. The repository runs
// the whole pass in one transaction, so a failure leaves the previous set
// untouched.
func (s *SettlementService) Recompute(ctx context.Context, groupID string) ([]models.Settlement, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return nil, err
	}

	out, err := s.settlements.Recompute(ctx, groupID, func(balances []models.PlayerBalance, settled []models.Settlement) ([]models.Settlement, error) {
		in := make([]settle.Balance, len(balances))
		for i, b := range balances {
			in[i] = settle.Balance{PlayerID: b.PlayerID, Amount: b.Amount}
		}
		prior := make([]settle.Entry, len(settled))
		for i, st := range settled {
			prior[i] = settle.Entry{FromPlayerID: st.FromPlayerID, ToPlayerID: st.ToPlayerID, Amount: st.Amount}
		}

		entries := settle.Compute(in, prior)
		next := make([]models.Settlement, len(entries))
		for i, e := range entries {
			next[i] = models.Settlement{
				GroupID:      groupID,
				FromPlayerID: e.FromPlayerID,
				ToPlayerID:   e.ToPlayerID,
				Amount:       e.Amount,
			}
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecomputesTotal.Inc()
	metrics.SettlementsEmitted.Add(float64(len(out)))
	slog.Debug("settlements recomputed", "group_id", groupID, "emitted", len(out))
	auditAsync(s.wp, s.audit, "group", groupID, "settlements_recomputed", map[string]any{"emitted": len(out)})
	return out, nil
}

// SettlementView is a settlement decorated with player names for display.
type SettlementView struct {
	ID           string     `json:"id"`
	FromPlayerID string     `json:"from_player_id"`
	ToPlayerID   string     `json:"to_player_id"`
	FromName     string     `json:"from_name"`
	ToName       string     `json:"to_name"`
	Description  string     `json:"description"`
	Amount       float64    `json:"amount"`
	Settled      bool       `json:"settled"`
	SettledDate  *time.Time `json:"settled_date,omitempty"`
}

// List recomputes the group's unsettled set and returns all settlements,
// settled history included, with human-readable descriptions.
func (s *SettlementService) List(ctx context.Context, groupID string) ([]SettlementView, error) {
	if _, err := s.Recompute(ctx, groupID); err != nil {
		return nil, err
	}

	all, err := s.settlements.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	players, err := s.players.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	views := make([]SettlementView, len(all))
	for i, st := range all {
		views[i] = SettlementView{
			ID:           st.ID,
			FromPlayerID: st.FromPlayerID,
			ToPlayerID:   st.ToPlayerID,
			FromName:     name(st.FromPlayerID),
			ToName:       name(st.ToPlayerID),
			Description:  fmt.Sprintf("%s pays %s", name(st.FromPlayerID), name(st.ToPlayerID)),
			Amount:       st.Amount,
			Settled:      st.Settled,
			SettledDate:  st.SettledDate,
		}
	}
	return views, nil
}

// MarkSettled confirms a payment as made. Only the paying player may
// confirm, and the acting user must have claimed that player's seat.
// Settled rows are permanent: confirming twice is a no-op and the original
// settled_date survives.
func (s *SettlementService) MarkSettled(ctx context.Context, settlementID, actingUserID string) (models.Settlement, error) {
	st, err := s.settlements.GetByID(ctx, settlementID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Settlement{}, fmt.Errorf("%w: settlement %s", ErrNotFound, settlementID)
		}
		return models.Settlement{}, err
	}

	actor, err := s.players.GetByUserAndGroup(ctx, st.GroupID, actingUserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Settlement{}, fmt.Errorf("%w: you have not joined this group", ErrForbidden)
		}
		return models.Settlement{}, err
	}
	if actor.ID != st.FromPlayerID {
		return models.Settlement{}, fmt.Errorf("%w: only the payer can confirm a payment", ErrForbidden)
	}

	if st.Settled {
		return st, nil
	}

	out, err := s.settlements.MarkSettled(ctx, settlementID, time.Now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Raced with another confirmation; the row is settled now.
			return s.settlements.GetByID(ctx, settlementID)
		}
		return models.Settlement{}, err
	}

	metrics.SettlementsSettled.Inc()
	auditAsync(s.wp, s.audit, "settlement", settlementID, "settled", map[string]any{
		"from_player_id": out.FromPlayerID,
		"to_player_id":   out.ToPlayerID,
		"amount":         out.Amount,
	})
	return out, nil
}
