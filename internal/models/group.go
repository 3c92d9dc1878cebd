package models

import (
	"errors"
	"strings"
	"time"
)

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (g *Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("group name required")
	}
	return nil
}

// Player is a seat in a group's roster. A player may later be claimed by a
// registered user (Joined + UserID), but balances attach to the player, not
// the user, so groups can track people who never log in.
type Player struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	UserID    *string   `json:"user_id,omitempty"`
	Joined    bool      `json:"joined"`
	CreatedAt time.Time `json:"created_at"`
}
