package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pokercount/backend/internal/models"
)

// ErrNotFound is returned by every repository when the requested row does
// not exist. Implementations translate their driver's sentinel into this.
var ErrNotFound = errors.New("not found")

type Users interface {
	Create(ctx context.Context, username, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type Groups interface {
	Create(ctx context.Context, name, creatorID string) (models.Group, error)
	GetByID(ctx context.Context, id string) (models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Delete(ctx context.Context, id string) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type Players interface {
	Create(ctx context.Context, groupID, name string) (models.Player, error)
	GetByID(ctx context.Context, id string) (models.Player, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Player, error)
	Delete(ctx context.Context, id string) error
	// Claim links a roster player to a registered user and marks it joined.
	Claim(ctx context.Context, playerID, userID string) (models.Player, error)
	GetByUserAndGroup(ctx context.Context, groupID, userID string) (models.Player, error)
}

type Sessions interface {
	// Create inserts the session and its balance rows in one transaction.
	Create(ctx context.Context, s models.Session) (models.Session, error)
	// Update rewrites the session and replaces its balance rows.
	Update(ctx context.Context, s models.Session) (models.Session, error)
	GetByID(ctx context.Context, id string) (models.Session, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Session, error)
	Delete(ctx context.Context, id string) error
}

// RecomputeFunc receives the group's balance rows and settled settlements
// and returns the replacement unsettled set.
type RecomputeFunc func(balances []models.PlayerBalance, settled []models.Settlement) ([]models.Settlement, error)

type Settlements interface {
	// ListByGroup returns all settlements for the group; settled first is
	// not guaranteed, callers order on created_at.
	ListByGroup(ctx context.Context, groupID string) ([]models.Settlement, error)
	GetByID(ctx context.Context, id string) (models.Settlement, error)
	// MarkSettled flips one unsettled row to settled and stamps the date.
	// Returns ErrNotFound if the row is missing or already settled.
	MarkSettled(ctx context.Context, id string, at time.Time) (models.Settlement, error)
	// Recompute runs fn inside a single serializable transaction holding
	// the group's advisory lock: reads balances and settled history, calls
	// fn, deletes the prior unsettled set and inserts fn's result. Either
	// everything commits or nothing does.
	Recompute(ctx context.Context, groupID string, fn RecomputeFunc) ([]models.Settlement, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}
