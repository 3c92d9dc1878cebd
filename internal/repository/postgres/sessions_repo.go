package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
)

type sessionsRepo struct{ pool *pgxpool.Pool }

func (r *sessionsRepo) Create(ctx context.Context, s models.Session) (models.Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO sessions(id, group_id, name, date, buy_in) VALUES($1,$2,$3,$4,$5)`,
			s.ID, s.GroupID, s.Name, s.Date, s.BuyIn,
		); err != nil {
			return err
		}
		return insertBalances(ctx, tx, s.ID, s.Balances)
	})
	if err != nil {
		return models.Session{}, err
	}
	return r.GetByID(ctx, s.ID)
}

func (r *sessionsRepo) Update(ctx context.Context, s models.Session) (models.Session, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`UPDATE sessions SET name=$2, date=$3, buy_in=$4 WHERE id=$1`,
			s.ID, s.Name, s.Date, s.BuyIn,
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return repo.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM balances WHERE session_id=$1`, s.ID); err != nil {
			return err
		}
		return insertBalances(ctx, tx, s.ID, s.Balances)
	})
	if err != nil {
		return models.Session{}, err
	}
	return r.GetByID(ctx, s.ID)
}

func insertBalances(ctx context.Context, tx pgx.Tx, sessionID string, balances []models.Balance) error {
	for _, b := range balances {
		id := b.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO balances(id, session_id, player_id, amount) VALUES($1,$2,$3,$4)`,
			id, sessionID, b.PlayerID, b.Amount,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *sessionsRepo) GetByID(ctx context.Context, id string) (models.Session, error) {
	var s models.Session
	err := r.pool.QueryRow(ctx,
		`SELECT id, group_id, name, date, buy_in, created_at FROM sessions WHERE id=$1`, id,
	).Scan(&s.ID, &s.GroupID, &s.Name, &s.Date, &s.BuyIn, &s.CreatedAt)
	if err != nil {
		return models.Session{}, mapErr(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, player_id, amount FROM balances WHERE session_id=$1 ORDER BY player_id`, id)
	if err != nil {
		return models.Session{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var b models.Balance
		if err := rows.Scan(&b.ID, &b.SessionID, &b.PlayerID, &b.Amount); err != nil {
			return models.Session{}, err
		}
		s.Balances = append(s.Balances, b)
	}
	return s, rows.Err()
}

func (r *sessionsRepo) ListByGroup(ctx context.Context, groupID string) ([]models.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, group_id, name, date, buy_in, created_at
		   FROM sessions WHERE group_id=$1 ORDER BY date DESC, created_at DESC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.GroupID, &s.Name, &s.Date, &s.BuyIn, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		full, err := r.GetByID(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Balances = full.Balances
	}
	return out, nil
}

func (r *sessionsRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
