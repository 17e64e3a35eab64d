package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/leadmatch/leadmatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	website  TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	profile  TEXT NOT NULL,
	added_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
`

// NewSQLite opens a SQLite database at the given path, configures WAL mode,
// and applies the schema.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

// SaveProfile inserts the profile; an existing website row is left intact.
func (s *SQLiteStore) SaveProfile(ctx context.Context, profile model.CompanyProfile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode profile")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO companies (website, name, profile, added_at) VALUES (?, ?, ?, ?)`,
		profile.Website, profile.Name, string(encoded), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert profile")
	}
	return nil
}

// GetProfile returns the stored profile for a website.
func (s *SQLiteStore) GetProfile(ctx context.Context, website string) (*StoredProfile, error) {
	var encoded string
	var addedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT profile, added_at FROM companies WHERE website = ?`, website,
	).Scan(&encoded, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query profile")
	}

	var profile model.CompanyProfile
	if err := json.Unmarshal([]byte(encoded), &profile); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode profile")
	}
	return &StoredProfile{CompanyProfile: profile, AddedAt: addedAt}, nil
}

// ListProfiles returns all stored profiles, oldest first.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]StoredProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT profile, added_at FROM companies ORDER BY added_at ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list profiles")
	}
	defer rows.Close()

	var out []StoredProfile
	for rows.Next() {
		var encoded string
		var addedAt time.Time
		if err := rows.Scan(&encoded, &addedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile")
		}
		var profile model.CompanyProfile
		if err := json.Unmarshal([]byte(encoded), &profile); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode profile")
		}
		out = append(out, StoredProfile{CompanyProfile: profile, AddedAt: addedAt})
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
