package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleLead(userID int64) domain.Lead {
	return domain.Lead{
		UserID:            userID,
		Username:          "alice_tg",
		Name:              "Alice",
		Company:           "Acme",
		Role:              "Engineer",
		Email:             "alice@acme.com",
		CallDateTimeLocal: "2025-08-25 14:30",
		Consent:           true,
	}
}

func TestLeadRepo_InitSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo, err := NewLeadRepo(ctx, db)
	require.NoError(t, err)

	_, err = repo.Insert(ctx, sampleLead(1))
	require.NoError(t, err)

	require.NoError(t, repo.InitSchema(ctx))
	_, err = NewLeadRepo(ctx, db)
	require.NoError(t, err)

	leads, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestLeadRepo_InsertAssignsIDAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo, err := NewLeadRepo(ctx, openTestDB(t))
	require.NoError(t, err)
	fixed := time.Date(2025, 8, 20, 9, 15, 30, 123, time.Local)
	repo.now = func() time.Time { return fixed }

	first, err := repo.Insert(ctx, sampleLead(1))
	require.NoError(t, err)
	second, err := repo.Insert(ctx, sampleLead(1))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.True(t, first.CreatedAt.Equal(fixed.Truncate(time.Second)))

	leads, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, int64(2), leads[0].ID)
	got := leads[1]
	assert.Equal(t, int64(1), got.UserID)
	assert.Equal(t, "alice_tg", got.Username)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "Engineer", got.Role)
	assert.Equal(t, "alice@acme.com", got.Email)
	assert.Equal(t, "2025-08-25 14:30", got.CallDateTimeLocal)
	assert.True(t, got.Consent)
	assert.True(t, got.CreatedAt.Equal(fixed.Truncate(time.Second)))
}

func TestLeadRepo_StoresLegacyColumns(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo, err := NewLeadRepo(ctx, db)
	require.NoError(t, err)
	repo.now = func() time.Time { return time.Date(2025, 8, 20, 9, 15, 30, 0, time.Local) }
	_, err = repo.Insert(ctx, sampleLead(77))
	require.NoError(t, err)

	var (
		userID    int64
		consent   int
		createdAt string
	)
	err = db.QueryRow(`SELECT tg_user_id, consent, created_at FROM leads`).Scan(&userID, &consent, &createdAt)
	require.NoError(t, err)
	assert.Equal(t, int64(77), userID)
	assert.Equal(t, 1, consent)
	assert.Equal(t, "2025-08-20T09:15:30", createdAt)
}

func TestLeadRepo_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	repo, err := NewLeadRepo(ctx, openTestDB(t))
	require.NoError(t, err)

	const n = 40
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			l, err := repo.Insert(ctx, sampleLead(u))
			if assert.NoError(t, err) {
				ids <- l.ID
			}
		}(int64(i))
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	leads, err := repo.ListRecent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, leads, n)
}

func TestLeadRepo_InsertFailureWrapsPersistenceError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo, err := NewLeadRepo(ctx, db)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = repo.Insert(ctx, sampleLead(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestLeadRepo_ListRecentReadsLegacyNullRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo, err := NewLeadRepo(ctx, db)
	require.NoError(t, err)

	// так старый бот сохранял повторное нажатие «Далее» после заполненной анкеты
	_, err = db.Exec(`INSERT INTO leads(tg_user_id, tg_username, name, company, role, email, call_dt_local, consent, created_at)
VALUES (5, NULL, NULL, NULL, NULL, NULL, NULL, 1, '2025-08-20T09:15:30')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO leads(tg_user_id) VALUES (NULL)`)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, sampleLead(6))
	require.NoError(t, err)

	leads, err := repo.ListRecent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, leads, 3)

	assert.Equal(t, "Alice", leads[0].Name)

	bare := leads[1]
	assert.Zero(t, bare.UserID)
	assert.False(t, bare.Consent)
	assert.True(t, bare.CreatedAt.IsZero())

	legacy := leads[2]
	assert.Equal(t, int64(5), legacy.UserID)
	assert.Empty(t, legacy.Username)
	assert.Empty(t, legacy.Name)
	assert.Empty(t, legacy.Email)
	assert.Empty(t, legacy.CallDateTimeLocal)
	assert.True(t, legacy.Consent)
	assert.True(t, legacy.CreatedAt.Equal(time.Date(2025, 8, 20, 9, 15, 30, 0, time.Local)))
}
