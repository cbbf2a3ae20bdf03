package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

type LeadRepo struct {
	db *pgxpool.Pool
}

func NewLeadRepo(ctx context.Context, db *pgxpool.Pool) (*LeadRepo, error) {
	r := &LeadRepo{db: db}
	if err := r.InitSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *LeadRepo) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS leads (
		id BIGSERIAL PRIMARY KEY,
		tg_user_id BIGINT,
		tg_username TEXT,
		name TEXT NOT NULL,
		company TEXT NOT NULL,
		role TEXT NOT NULL,
		email TEXT NOT NULL,
		call_dt_local TEXT NOT NULL,
		consent BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_leads_tg_user_id ON leads(tg_user_id);
	`
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: init schema: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Insert lets the database assign both id and created_at.
func (r *LeadRepo) Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	query := `
		INSERT INTO leads (tg_user_id, tg_username, name, company, role, email, call_dt_local, consent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		lead.UserID,
		lead.Username,
		lead.Name,
		lead.Company,
		lead.Role,
		lead.Email,
		lead.CallDateTimeLocal,
		lead.Consent,
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("%w: insert: %w", domain.ErrPersistence, err)
	}
	return lead, nil
}

func (r *LeadRepo) ListRecent(ctx context.Context, n int) ([]domain.Lead, error) {
	if n <= 0 {
		n = 10
	}
	query := `
		SELECT id, tg_user_id, COALESCE(tg_username, ''), name, company, role, email, call_dt_local, consent, created_at
		FROM leads ORDER BY id DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Lead, 0, n)
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &l.Name, &l.Company, &l.Role, &l.Email, &l.CallDateTimeLocal, &l.Consent, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
