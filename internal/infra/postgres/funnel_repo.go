package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roman19921993/cybertechno25-bot/internal/usecase"
)

const funnelQueryTimeout = 5 * time.Second

type FunnelRepo struct {
	db *pgxpool.Pool
}

func NewFunnelRepo(ctx context.Context, db *pgxpool.Pool) (*FunnelRepo, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS funnel_hits (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		state TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_funnel_hits_user_state ON funnel_hits(user_id, state);
	`
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to init funnel schema: %w", err)
	}
	return &FunnelRepo{db: db}, nil
}

// Hit и Counts вызываются без контекста, поэтому ограничиваем их своим таймаутом
func (r *FunnelRepo) Hit(state usecase.State, userID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), funnelQueryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `INSERT INTO funnel_hits (user_id, state) VALUES ($1, $2)`, userID, string(state))
	if err != nil {
		return fmt.Errorf("failed to record funnel hit: %w", err)
	}
	return nil
}

func (r *FunnelRepo) Counts() (map[usecase.State]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), funnelQueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT state, COUNT(DISTINCT user_id) FROM funnel_hits GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count funnel: %w", err)
	}
	defer rows.Close()

	out := map[usecase.State]int{}
	for rows.Next() {
		var (
			state string
			cnt   int
		)
		if err := rows.Scan(&state, &cnt); err != nil {
			return nil, fmt.Errorf("failed to scan funnel row: %w", err)
		}
		out[usecase.State(state)] = cnt
	}
	return out, rows.Err()
}
