package memory

import (
	"context"
	"sync"
	"time"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

// LeadRepo keeps leads in process memory. It backs the adapter tests; the bot itself
// always runs on SQLite or Postgres.
type LeadRepo struct {
	mu    sync.RWMutex
	leads []domain.Lead
	now   func() time.Time
}

func NewLeadRepo() *LeadRepo {
	return &LeadRepo{leads: make([]domain.Lead, 0, 32), now: time.Now}
}

func (r *LeadRepo) InitSchema(context.Context) error { return nil }

func (r *LeadRepo) Insert(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead.ID = int64(len(r.leads) + 1)
	lead.CreatedAt = r.now()
	r.leads = append(r.leads, lead)
	return lead, nil
}

func (r *LeadRepo) ListRecent(_ context.Context, n int) ([]domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > len(r.leads) {
		n = len(r.leads)
	}
	// вернуть последние n в обратном хронологическом порядке
	res := make([]domain.Lead, 0, n)
	for i := len(r.leads) - 1; i >= 0 && len(res) < n; i-- {
		res = append(res, r.leads[i])
	}
	return res, nil
}

// All returns a copy of every stored lead in insertion order.
func (r *LeadRepo) All() []domain.Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Lead(nil), r.leads...)
}
