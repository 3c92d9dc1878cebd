package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
)

type groupsRepo struct{ pool *pgxpool.Pool }

func (r *groupsRepo) Create(ctx context.Context, name, creatorID string) (models.Group, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO groups(id, name, creator_id) VALUES($1,$2,$3)`,
		id, name, creatorID,
	)
	if err != nil {
		return models.Group{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *groupsRepo) GetByID(ctx context.Context, id string) (models.Group, error) {
	var g models.Group
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, creator_id, created_at FROM groups WHERE id=$1`, id,
	).Scan(&g.ID, &g.Name, &g.CreatorID, &g.CreatedAt)
	return g, mapErr(err)
}

func (r *groupsRepo) List(ctx context.Context) ([]models.Group, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, creator_id, created_at FROM groups ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatorID, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *groupsRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *groupsRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE name=$1)`, name).Scan(&exists)
	return exists, err
}
