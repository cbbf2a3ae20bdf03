package sqlite

import (
	"database/sql"
	"time"

	"github.com/roman19921993/cybertechno25-bot/internal/usecase"
)

type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(db *sql.DB) (*FunnelRepo, error) {
	if err := migrateFunnel(db); err != nil {
		return nil, err
	}
	return &FunnelRepo{db: db}, nil
}

func migrateFunnel(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS funnel_hits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    state TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_state ON funnel_hits(state);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_user_state ON funnel_hits(user_id, state);
`)
	return err
}

func (r *FunnelRepo) Hit(state usecase.State, userID int64) error {
	_, err := r.db.Exec(`INSERT INTO funnel_hits(user_id, state, created_at) VALUES(?,?,?)`, userID, string(state), time.Now())
	return err
}

func (r *FunnelRepo) Counts() (map[usecase.State]int, error) {
	rows, err := r.db.Query(`SELECT state, COUNT(DISTINCT user_id) FROM funnel_hits GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[usecase.State]int{}
	for rows.Next() {
		var state string
		var cnt int
		if err := rows.Scan(&state, &cnt); err != nil {
			return nil, err
		}
		out[usecase.State(state)] = cnt
	}
	return out, rows.Err()
}
