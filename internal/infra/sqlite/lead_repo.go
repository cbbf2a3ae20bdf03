package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

// createdAtLayout повторяет формат старой базы бота (ISO без долей секунды).
const createdAtLayout = "2006-01-02T15:04:05"

type LeadRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewLeadRepo(ctx context.Context, db *sql.DB) (*LeadRepo, error) {
	r := &LeadRepo{db: db, now: time.Now}
	if err := r.InitSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *LeadRepo) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS leads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tg_user_id INTEGER,
    tg_username TEXT,
    name TEXT,
    company TEXT,
    role TEXT,
    email TEXT,
    call_dt_local TEXT,
    consent INTEGER,
    created_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_leads_tg_user_id ON leads(tg_user_id);
`)
	if err != nil {
		return fmt.Errorf("%w: init schema: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *LeadRepo) Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	lead.CreatedAt = r.now().Truncate(time.Second)
	consent := 0
	if lead.Consent {
		consent = 1
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO leads(tg_user_id, tg_username, name, company, role, email, call_dt_local, consent, created_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		lead.UserID, lead.Username, lead.Name, lead.Company, lead.Role, lead.Email, lead.CallDateTimeLocal, consent, lead.CreatedAt.Format(createdAtLayout))
	if err != nil {
		return domain.Lead{}, fmt.Errorf("%w: insert: %w", domain.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Lead{}, fmt.Errorf("%w: last insert id: %w", domain.ErrPersistence, err)
	}
	lead.ID = id
	return lead, nil
}

func (r *LeadRepo) ListRecent(ctx context.Context, n int) ([]domain.Lead, error) {
	if n <= 0 {
		n = 10
	}
	// старый бот мог сохранить строку с пустыми полями, поэтому все колонки через COALESCE
	rows, err := r.db.QueryContext(ctx, `
SELECT id, COALESCE(tg_user_id, 0), COALESCE(tg_username, ''), COALESCE(name, ''), COALESCE(company, ''),
       COALESCE(role, ''), COALESCE(email, ''), COALESCE(call_dt_local, ''), COALESCE(consent, 0), COALESCE(created_at, '')
FROM leads ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.Lead, 0, n)
	for rows.Next() {
		var (
			l         domain.Lead
			consent   int
			createdAt string
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &l.Name, &l.Company, &l.Role, &l.Email, &l.CallDateTimeLocal, &consent, &createdAt); err != nil {
			return nil, err
		}
		l.Consent = consent == 1
		// created_at в старых записях мог быть пустым, тогда оставляем нулевое время
		if t, err := time.ParseInLocation(createdAtLayout, createdAt, time.Local); err == nil {
			l.CreatedAt = t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
