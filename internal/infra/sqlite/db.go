package sqlite

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

// Open opens the SQLite file shared by all repositories. SQLite allows a single writer,
// so the pool is limited to one connection and waits on locks instead of failing.
func Open(dsn string) (*sql.DB, error) {
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
