package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS shares (
		slug VARCHAR(32) PRIMARY KEY,
		type VARCHAR(10) NOT NULL DEFAULT 'json',
		content TEXT NOT NULL DEFAULT '',
		mode VARCHAR(20) NOT NULL,
		is_private BOOLEAN NOT NULL DEFAULT FALSE,
		access_type VARCHAR(10) NOT NULL DEFAULT 'viewer',
		password_hash VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_shares_created_at ON shares(created_at)`,

	// A private share always carries a digest.
	`DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'shares_private_has_hash'
		) THEN
			ALTER TABLE shares ADD CONSTRAINT shares_private_has_hash
				CHECK (NOT is_private OR password_hash IS NOT NULL);
		END IF;
	END $$`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
