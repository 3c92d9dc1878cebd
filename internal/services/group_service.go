package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
	"github.com/pokercount/backend/internal/worker"
)

type GroupService struct {
	groups   repo.Groups
	players  repo.Players
	sessions repo.Sessions
	audit    repo.AuditLogs
	wp       *worker.Pool
}

func NewGroupService(g repo.Groups, p repo.Players, s repo.Sessions, a repo.AuditLogs, wp *worker.Pool) *GroupService {
	return &GroupService{groups: g, players: p, sessions: s, audit: a, wp: wp}
}

func (s *GroupService) Create(ctx context.Context, name, creatorUserID string) (models.Group, error) {
	g := models.Group{Name: strings.TrimSpace(name), CreatorID: creatorUserID}
	if err := g.Validate(); err != nil {
		return models.Group{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	exists, err := s.groups.ExistsByName(ctx, g.Name)
	if err != nil {
		return models.Group{}, err
	}
	if exists {
		return models.Group{}, fmt.Errorf("%w: group name already exists", ErrValidation)
	}

	out, err := s.groups.Create(ctx, g.Name, creatorUserID)
	if err != nil {
		return models.Group{}, err
	}
	auditAsync(s.wp, s.audit, "group", out.ID, "created", map[string]any{"name": out.Name})
	return out, nil
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// GroupDetail is the dashboard payload: the group plus its roster and
// session history with balance rows.
type GroupDetail struct {
	Group    models.Group     `json:"group"`
	Players  []models.Player  `json:"players"`
	Sessions []models.Session `json:"sessions"`
}

func (s *GroupService) Get(ctx context.Context, groupID string) (GroupDetail, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return GroupDetail{}, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return GroupDetail{}, err
	}
	players, err := s.players.ListByGroup(ctx, groupID)
	if err != nil {
		return GroupDetail{}, err
	}
	sessions, err := s.sessions.ListByGroup(ctx, groupID)
	if err != nil {
		return GroupDetail{}, err
	}
	return GroupDetail{Group: g, Players: players, Sessions: sessions}, nil
}

func (s *GroupService) Delete(ctx context.Context, groupID string) error {
	if err := s.groups.Delete(ctx, groupID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return err
	}
	auditAsync(s.wp, s.audit, "group", groupID, "deleted", nil)
	return nil
}

func (s *GroupService) AddPlayer(ctx context.Context, groupID, name string) (models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Player{}, fmt.Errorf("%w: player name required", ErrValidation)
	}
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Player{}, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return models.Player{}, err
	}
	p, err := s.players.Create(ctx, groupID, name)
	if err != nil {
		return models.Player{}, err
	}
	auditAsync(s.wp, s.audit, "player", p.ID, "created", map[string]any{"name": name})
	return p, nil
}

func (s *GroupService) RemovePlayer(ctx context.Context, groupID, playerID string) error {
	p, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: player %s", ErrNotFound, playerID)
		}
		return err
	}
	if p.GroupID != groupID {
		return fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if err := s.players.Delete(ctx, playerID); err != nil {
		return err
	}
	auditAsync(s.wp, s.audit, "player", playerID, "deleted", nil)
	return nil
}

// Join claims a roster seat for the authenticated user. A user can hold at
// most one seat per group, and a seat already claimed by someone else
// stays claimed.
func (s *GroupService) Join(ctx context.Context, groupID, playerID, userID string) (models.Player, error) {
	if _, err := s.players.GetByUserAndGroup(ctx, groupID, userID); err == nil {
		return models.Player{}, fmt.Errorf("%w: already joined this group", ErrValidation)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return models.Player{}, err
	}

	p, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Player{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
		}
		return models.Player{}, err
	}
	if p.GroupID != groupID {
		return models.Player{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if p.Joined {
		return models.Player{}, fmt.Errorf("%w: player already claimed", ErrValidation)
	}

	claimed, err := s.players.Claim(ctx, playerID, userID)
	if err != nil {
		return models.Player{}, err
	}
	auditAsync(s.wp, s.audit, "player", playerID, "joined", map[string]any{"user_id": userID})
	return claimed, nil
}

// auditAsync records the trail off the request path; a lost entry is only
// logged, never an error for the caller.
func auditAsync(wp *worker.Pool, logs repo.AuditLogs, entityType, entityID, action string, details map[string]any) {
	id := entityID
	wp.Submit(func() {
		if err := logs.Create(context.Background(), models.AuditLog{
			EntityType: entityType,
			EntityID:   &id,
			Action:     action,
			Details:    details,
		}); err != nil {
			slog.Warn("audit write failed", "entity", entityType, "action", action, "err", err)
		}
	})
}
