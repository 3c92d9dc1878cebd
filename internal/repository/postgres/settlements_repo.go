package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokercount/backend/internal/models"
	repo "github.com/pokercount/backend/internal/repository"
)

type settlementsRepo struct{ pool *pgxpool.Pool }

const settlementCols = `id, group_id, from_player_id, to_player_id, amount, settled, settled_date, created_at`

func scanSettlement(row pgx.Row) (models.Settlement, error) {
	var s models.Settlement
	err := row.Scan(&s.ID, &s.GroupID, &s.FromPlayerID, &s.ToPlayerID,
		&s.Amount, &s.Settled, &s.SettledDate, &s.CreatedAt)
	return s, err
}

func (r *settlementsRepo) ListByGroup(ctx context.Context, groupID string) ([]models.Settlement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+settlementCols+` FROM settlements
		  WHERE group_id=$1 ORDER BY settled, created_at, id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSettlements(rows)
}

func (r *settlementsRepo) GetByID(ctx context.Context, id string) (models.Settlement, error) {
	s, err := scanSettlement(r.pool.QueryRow(ctx,
		`SELECT `+settlementCols+` FROM settlements WHERE id=$1`, id))
	return s, mapErr(err)
}

func (r *settlementsRepo) MarkSettled(ctx context.Context, id string, at time.Time) (models.Settlement, error) {
	// The NOT settled guard keeps settled_date immutable under races.
	s, err := scanSettlement(r.pool.QueryRow(ctx,
		`UPDATE settlements SET settled=true, settled_date=$2
		  WHERE id=$1 AND NOT settled
		  RETURNING `+settlementCols, id, at))
	return s, mapErr(err)
}

// Recompute swaps the group's unsettled settlement set atomically. The
// whole read-compute-write cycle runs in one serializable transaction and
// holds a per-group advisory lock, so two concurrent recomputes for the
// same group cannot interleave their delete and insert phases.
func (r *settlementsRepo) Recompute(ctx context.Context, groupID string, fn repo.RecomputeFunc) ([]models.Settlement, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, groupID); err != nil {
		return nil, err
	}

	balances, err := groupBalances(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`SELECT `+settlementCols+` FROM settlements
		  WHERE group_id=$1 AND settled ORDER BY created_at, id`, groupID)
	if err != nil {
		return nil, err
	}
	settled, err := collectSettlements(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	next, err := fn(balances, settled)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM settlements WHERE group_id=$1 AND NOT settled`, groupID); err != nil {
		return nil, err
	}

	inserted := make([]models.Settlement, 0, len(next))
	for _, s := range next {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		row, err := scanSettlement(tx.QueryRow(ctx,
			`INSERT INTO settlements(id, group_id, from_player_id, to_player_id, amount, settled)
			 VALUES($1,$2,$3,$4,$5,false)
			 RETURNING `+settlementCols,
			s.ID, groupID, s.FromPlayerID, s.ToPlayerID, s.Amount))
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return inserted, nil
}

func groupBalances(ctx context.Context, tx pgx.Tx, groupID string) ([]models.PlayerBalance, error) {
	rows, err := tx.Query(ctx,
		`SELECT b.player_id, b.amount
		   FROM balances b
		   JOIN sessions s ON s.id = b.session_id
		  WHERE s.group_id=$1`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PlayerBalance
	for rows.Next() {
		var b models.PlayerBalance
		if err := rows.Scan(&b.PlayerID, &b.Amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func collectSettlements(rows pgx.Rows) ([]models.Settlement, error) {
	var out []models.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
