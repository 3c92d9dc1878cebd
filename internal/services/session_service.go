package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pokercount/backend/internal/api/validate"
	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
	"github.com/pokercount/backend/internal/worker"
)

// SessionService manages poker nights. Every mutation ends with a
// settlement recompute for the session's group, since the session balances
// are the engine's only input besides settled history.
type SessionService struct {
	groups   repo.Groups
	players  repo.Players
	sessions repo.Sessions
	stl      *SettlementService
	audit    repo.AuditLogs
	wp       *worker.Pool
}

func NewSessionService(g repo.Groups, p repo.Players, s repo.Sessions, stl *SettlementService, a repo.AuditLogs, wp *worker.Pool) *SessionService {
	return &SessionService{groups: g, players: p, sessions: s, stl: stl, audit: a, wp: wp}
}

// BalanceEntry is one player's cash-out for a session; the stored amount
// is CashOut minus the session buy-in.
type BalanceEntry struct {
	PlayerID string  `json:"player_id"`
	CashOut  float64 `json:"cash_out"`
}

type SessionInput struct {
	Name     string         `json:"name"`
	Date     string         `json:"date"` // YYYY-MM-DD
	BuyIn    float64        `json:"buy_in"`
	Balances []BalanceEntry `json:"balances"`
}

func (s *SessionService) Create(ctx context.Context, groupID string, in SessionInput) (models.Session, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Session{}, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return models.Session{}, err
	}

	sess, err := s.buildSession(ctx, groupID, in)
	if err != nil {
		return models.Session{}, err
	}

	created, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return models.Session{}, err
	}
	if _, err := s.stl.Recompute(ctx, groupID); err != nil {
		return models.Session{}, err
	}
	auditAsync(s.wp, s.audit, "session", created.ID, "created", map[string]any{"name": created.Name})
	return created, nil
}

func (s *SessionService) Update(ctx context.Context, sessionID string, in SessionInput) (models.Session, error) {
	existing, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Session{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		return models.Session{}, err
	}

	sess, err := s.buildSession(ctx, existing.GroupID, in)
	if err != nil {
		return models.Session{}, err
	}
	sess.ID = sessionID

	updated, err := s.sessions.Update(ctx, sess)
	if err != nil {
		return models.Session{}, err
	}
	if _, err := s.stl.Recompute(ctx, existing.GroupID); err != nil {
		return models.Session{}, err
	}
	auditAsync(s.wp, s.audit, "session", sessionID, "updated", map[string]any{"name": updated.Name})
	return updated, nil
}

func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	existing, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		return err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if _, err := s.stl.Recompute(ctx, existing.GroupID); err != nil {
		return err
	}
	auditAsync(s.wp, s.audit, "session", sessionID, "deleted", nil)
	return nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (models.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Session{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		return models.Session{}, err
	}
	return sess, nil
}

// buildSession validates the input against the group's roster and converts
// cash-outs into net balance rows.
func (s *SessionService) buildSession(ctx context.Context, groupID string, in SessionInput) (models.Session, error) {
	var errs validate.Errs
	if e := validate.Required("name", in.Name); e != nil {
		errs = append(errs, *e)
	}
	date, e := validate.Date("date", in.Date)
	if e != nil {
		errs = append(errs, *e)
	}
	if e := validate.MinFloat("buy_in", in.BuyIn, 0); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		return models.Session{}, fmt.Errorf("%w: %s", ErrValidation, errs)
	}

	roster, err := s.players.ListByGroup(ctx, groupID)
	if err != nil {
		return models.Session{}, err
	}
	inGroup := make(map[string]bool, len(roster))
	for _, p := range roster {
		inGroup[p.ID] = true
	}

	seen := make(map[string]bool, len(in.Balances))
	balances := make([]models.Balance, 0, len(in.Balances))
	for _, b := range in.Balances {
		if !inGroup[b.PlayerID] {
			return models.Session{}, fmt.Errorf("%w: player %s is not in this group", ErrValidation, b.PlayerID)
		}
		if seen[b.PlayerID] {
			return models.Session{}, fmt.Errorf("%w: duplicate balance for player %s", ErrValidation, b.PlayerID)
		}
		seen[b.PlayerID] = true
		balances = append(balances, models.Balance{
			PlayerID: b.PlayerID,
			Amount:   b.CashOut - in.BuyIn,
		})
	}

	return models.Session{
		GroupID:  groupID,
		Name:     in.Name,
		Date:     date,
		BuyIn:    in.BuyIn,
		Balances: balances,
	}, nil
}
