package db

import (
	"context"
	"database/sql"
	"log"
)

const (
	// Accounts, local and remote in one table. domain = '' means local.
	// Case-insensitive (username, domain) uniqueness lives in the
	// expression index below.
	sqlCreateAccountsTable = `CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		uri TEXT NOT NULL DEFAULT '',
		public_key TEXT NOT NULL DEFAULT '',
		private_key TEXT,
		display_name TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		statuses_count INTEGER NOT NULL DEFAULT 0,
		followers_count INTEGER NOT NULL DEFAULT 0,
		following_count INTEGER NOT NULL DEFAULT 0,
		silenced INTEGER NOT NULL DEFAULT 0,
		suspended INTEGER NOT NULL DEFAULT 0,
		locked INTEGER NOT NULL DEFAULT 0,
		last_resolved_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP
	)`

	sqlCreateAccountsIndices = `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_acct ON accounts(lower(username), domain);
		CREATE INDEX IF NOT EXISTS idx_accounts_domain ON accounts(domain);
		CREATE INDEX IF NOT EXISTS idx_accounts_uri ON accounts(uri);
	`

	sqlCreateStatusesTable = `CREATE TABLE IF NOT EXISTS statuses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		visibility TEXT NOT NULL DEFAULT 'public',
		sensitive INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateStatusesIndices = `
		CREATE INDEX IF NOT EXISTS idx_statuses_account_id ON statuses(account_id);
		CREATE INDEX IF NOT EXISTS idx_statuses_account_id_id ON statuses(account_id, id DESC);
	`

	// Relationship edges, one table per kind. The unique pair index makes
	// the mutations idempotent.
	sqlCreateFollowsTable = `CREATE TABLE IF NOT EXISTS follows (
		id TEXT NOT NULL PRIMARY KEY,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		target_account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, target_account_id)
	)`

	sqlCreateBlocksTable = `CREATE TABLE IF NOT EXISTS blocks (
		id TEXT NOT NULL PRIMARY KEY,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		target_account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, target_account_id)
	)`

	sqlCreateMutesTable = `CREATE TABLE IF NOT EXISTS mutes (
		id TEXT NOT NULL PRIMARY KEY,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		target_account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, target_account_id)
	)`

	sqlCreateEdgeIndices = `
		CREATE INDEX IF NOT EXISTS idx_follows_account_id ON follows(account_id);
		CREATE INDEX IF NOT EXISTS idx_follows_target_account_id ON follows(target_account_id);
		CREATE INDEX IF NOT EXISTS idx_blocks_account_id ON blocks(account_id);
		CREATE INDEX IF NOT EXISTS idx_blocks_target_account_id ON blocks(target_account_id);
		CREATE INDEX IF NOT EXISTS idx_mutes_account_id ON mutes(account_id);
	`

	sqlCreateDomainBlocksTable = `CREATE TABLE IF NOT EXISTS domain_blocks (
		id TEXT NOT NULL PRIMARY KEY,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		domain TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, domain)
	)`

	sqlCreateStatusPinsTable = `CREATE TABLE IF NOT EXISTS status_pins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		status_id INTEGER NOT NULL REFERENCES statuses(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, status_id)
	)`

	sqlCreateStatusPinsIndices = `
		CREATE INDEX IF NOT EXISTS idx_status_pins_account_id ON status_pins(account_id, created_at DESC);
	`

	// Projection of publicly visible statuses for the built-in text index.
	sqlCreateSearchDocumentsTable = `CREATE TABLE IF NOT EXISTS status_search_documents (
		status_id INTEGER NOT NULL PRIMARY KEY REFERENCES statuses(id) ON DELETE CASCADE,
		text TEXT NOT NULL
	)`
)

// RunMigrations executes all database migrations
func (db *DB) RunMigrations() error {
	return db.wrapTransaction(context.Background(), func(tx *sql.Tx) error {
		if err := db.createTableIfNotExists(tx, sqlCreateAccountsTable, "accounts"); err != nil {
			return err
		}
		if err := db.createTableIfNotExists(tx, sqlCreateStatusesTable, "statuses"); err != nil {
			return err
		}
		if err := db.createTableIfNotExists(tx, sqlCreateFollowsTable, "follows"); err != nil {
			return err
		}
		if err := db.createTableIfNotExists(tx, sqlCreateBlocksTable, "blocks"); err != nil {
			return err
		}
		if err := db.createTableIfNotExists(tx, sqlCreateMutesTable, "mutes"); err != nil {
			return err
		}
		if err := db.createTableIfNotExists(tx, sqlCreateDomainBlocksTable, "domain_blocks"); err != nil {
			return err
		}
		if err := db.createTableIfNotExists(tx, sqlCreateStatusPinsTable, "status_pins"); err != nil {
			return err
		}
		if err := db.createTableIfNotExists(tx, sqlCreateSearchDocumentsTable, "status_search_documents"); err != nil {
			return err
		}

		if _, err := tx.Exec(sqlCreateAccountsIndices); err != nil {
			log.Printf("Warning: Failed to create accounts indices: %v", err)
		}
		if _, err := tx.Exec(sqlCreateStatusesIndices); err != nil {
			log.Printf("Warning: Failed to create statuses indices: %v", err)
		}
		if _, err := tx.Exec(sqlCreateEdgeIndices); err != nil {
			log.Printf("Warning: Failed to create edge indices: %v", err)
		}
		if _, err := tx.Exec(sqlCreateStatusPinsIndices); err != nil {
			log.Printf("Warning: Failed to create status_pins indices: %v", err)
		}

		return nil
	})
}

func (db *DB) createTableIfNotExists(tx *sql.Tx, createSQL string, tableName string) error {
	_, err := tx.Exec(createSQL)
	if err != nil {
		log.Printf("Error creating table %s: %v", tableName, err)
		return err
	}
	return nil
}
