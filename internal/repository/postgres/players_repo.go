package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
)

type playersRepo struct{ pool *pgxpool.Pool }

func (r *playersRepo) Create(ctx context.Context, groupID, name string) (models.Player, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO players(id, group_id, name) VALUES($1,$2,$3)`,
		id, groupID, name,
	)
	if err != nil {
		return models.Player{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *playersRepo) GetByID(ctx context.Context, id string) (models.Player, error) {
	var p models.Player
	err := r.pool.QueryRow(ctx,
		`SELECT id, group_id, name, user_id, joined, created_at FROM players WHERE id=$1`, id,
	).Scan(&p.ID, &p.GroupID, &p.Name, &p.UserID, &p.Joined, &p.CreatedAt)
	return p, mapErr(err)
}

func (r *playersRepo) ListByGroup(ctx context.Context, groupID string) ([]models.Player, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, group_id, name, user_id, joined, created_at
		   FROM players WHERE group_id=$1 ORDER BY name`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.GroupID, &p.Name, &p.UserID, &p.Joined, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *playersRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM players WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *playersRepo) Claim(ctx context.Context, playerID, userID string) (models.Player, error) {
	var p models.Player
	err := r.pool.QueryRow(ctx,
		`UPDATE players SET user_id=$2, joined=true
		  WHERE id=$1
		  RETURNING id, group_id, name, user_id, joined, created_at`,
		playerID, userID,
	).Scan(&p.ID, &p.GroupID, &p.Name, &p.UserID, &p.Joined, &p.CreatedAt)
	return p, mapErr(err)
}

func (r *playersRepo) GetByUserAndGroup(ctx context.Context, groupID, userID string) (models.Player, error) {
	var p models.Player
	err := r.pool.QueryRow(ctx,
		`SELECT id, group_id, name, user_id, joined, created_at
		   FROM players WHERE group_id=$1 AND user_id=$2 AND joined`,
		groupID, userID,
	).Scan(&p.ID, &p.GroupID, &p.Name, &p.UserID, &p.Joined, &p.CreatedAt)
	return p, mapErr(err)
}
