package store

import (
	"fmt"
	"strings"
)

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS activations (
			worker_id TEXT PRIMARY KEY,
			device_info_json TEXT NOT NULL DEFAULT '{}',
			activate_time DATETIME NOT NULL,
			last_verify_time DATETIME NOT NULL,
			expired_time DATETIME,
			token_issue_time INTEGER NOT NULL DEFAULT 0,
			token_expire_time INTEGER NOT NULL DEFAULT 0,
			token_id TEXT NOT NULL DEFAULT '',
			token_signature TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			activate_count INTEGER NOT NULL DEFAULT 1
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activations_status ON activations(status)`,

		// Key-value settings table (last_updated stamp).
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// SQLite ALTER TABLE ADD COLUMN fails if column already exists;
			// treat "duplicate column" as a no-op for idempotent migrations.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
