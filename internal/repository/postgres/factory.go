package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/pokercount/backend/internal/repository"
)

type Repositories struct {
	Users       repo.Users
	Groups      repo.Groups
	Players     repo.Players
	Sessions    repo.Sessions
	Settlements repo.Settlements
	AuditLogs   repo.AuditLogs
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:       &usersRepo{pool},
		Groups:      &groupsRepo{pool},
		Players:     &playersRepo{pool},
		Sessions:    &sessionsRepo{pool},
		Settlements: &settlementsRepo{pool},
		AuditLogs:   &auditLogsRepo{pool},
	}
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
