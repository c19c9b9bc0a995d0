package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/deemkeen/anancus/domain"
)

const (
	sqlAccountColumns = `id, username, domain, uri, public_key, private_key, display_name, note,
		statuses_count, followers_count, following_count, silenced, suspended, locked,
		last_resolved_at, created_at, deleted_at`

	sqlInsertAccount = `INSERT INTO accounts(username, domain, uri, public_key, private_key, display_name, note,
		silenced, suspended, locked, last_resolved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sqlSelectAccountById       = `SELECT ` + sqlAccountColumns + ` FROM accounts WHERE id = ?`
	sqlSelectLocalByUsername   = `SELECT ` + sqlAccountColumns + ` FROM accounts WHERE domain = '' AND lower(username) = lower(?) AND deleted_at IS NULL`
	sqlSelectAccountByAcct     = `SELECT ` + sqlAccountColumns + ` FROM accounts WHERE lower(username) = lower(?) AND domain = ?`
	sqlSelectLocalAccounts     = `SELECT ` + sqlAccountColumns + ` FROM accounts WHERE domain = '' AND deleted_at IS NULL ORDER BY id DESC`
	sqlCountLocalUsername      = `SELECT COUNT(*) FROM accounts WHERE domain = '' AND lower(username) = lower(?)`
	sqlUpdateAccountKeys       = `UPDATE accounts SET public_key = ?, private_key = ? WHERE id = ?`
	sqlUpdateLocalProfile      = `UPDATE accounts SET display_name = ?, note = ? WHERE id = ?`
	sqlUpdateRemoteAccountById = `UPDATE accounts SET uri = ?, public_key = ?, display_name = ?, note = ?,
		silenced = ?, suspended = ?, locked = ?, last_resolved_at = ? WHERE id = ?`
	sqlSoftDeleteAccount = `UPDATE accounts SET deleted_at = ? WHERE id = ?`
	sqlDeleteAccount     = `DELETE FROM accounts WHERE id = ?`
	sqlAccountExists     = `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ? AND deleted_at IS NULL)`
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var acc domain.Account
	var privateKey sql.NullString
	var lastResolvedAt, deletedAt sql.NullTime
	err := row.Scan(
		&acc.Id,
		&acc.Username,
		&acc.Domain,
		&acc.URI,
		&acc.PublicKey,
		&privateKey,
		&acc.DisplayName,
		&acc.Note,
		&acc.StatusesCount,
		&acc.FollowersCount,
		&acc.FollowingCount,
		&acc.Silenced,
		&acc.Suspended,
		&acc.Locked,
		&lastResolvedAt,
		&acc.CreatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	acc.PrivateKey = privateKey.String
	if lastResolvedAt.Valid {
		t := lastResolvedAt.Time
		acc.LastResolvedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		acc.DeletedAt = &t
	}
	return &acc, nil
}

// CreateLocalAccount inserts a local account row and fills in the new id.
// The caller is responsible for validation and key material.
func (db *DB) CreateLocalAccount(ctx context.Context, acc *domain.Account) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		acc.CreatedAt = time.Now()
		res, err := tx.Exec(sqlInsertAccount,
			acc.Username, "", acc.URI, acc.PublicKey, nullString(acc.PrivateKey),
			acc.DisplayName, acc.Note,
			acc.Silenced, acc.Suspended, acc.Locked, nil, acc.CreatedAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		acc.Id = id
		return nil
	})
}

// UpsertRemoteAccount creates or refreshes the cached mirror for a remote
// identity and stamps last_resolved_at.
func (db *DB) UpsertRemoteAccount(ctx context.Context, username, domainName string, attrs domain.RemoteAttrs) (*domain.Account, error) {
	var out *domain.Account
	err := db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		row := tx.QueryRow(sqlSelectAccountByAcct, username, domainName)
		existing, err := scanAccount(row)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if existing == nil {
			res, err := tx.Exec(sqlInsertAccount,
				username, domainName, attrs.URI, attrs.PublicKey, nil,
				attrs.DisplayName, attrs.Note,
				attrs.Silenced, attrs.Suspended, attrs.Locked, now, now)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			out = &domain.Account{
				Id:             id,
				Username:       username,
				Domain:         domainName,
				URI:            attrs.URI,
				PublicKey:      attrs.PublicKey,
				DisplayName:    attrs.DisplayName,
				Note:           attrs.Note,
				Silenced:       attrs.Silenced,
				Suspended:      attrs.Suspended,
				Locked:         attrs.Locked,
				LastResolvedAt: &now,
				CreatedAt:      now,
			}
			return nil
		}

		_, err = tx.Exec(sqlUpdateRemoteAccountById,
			attrs.URI, attrs.PublicKey, attrs.DisplayName, attrs.Note,
			attrs.Silenced, attrs.Suspended, attrs.Locked, now, existing.Id)
		if err != nil {
			return err
		}
		existing.URI = attrs.URI
		existing.PublicKey = attrs.PublicKey
		existing.DisplayName = attrs.DisplayName
		existing.Note = attrs.Note
		existing.Silenced = attrs.Silenced
		existing.Suspended = attrs.Suspended
		existing.Locked = attrs.Locked
		existing.LastResolvedAt = &now
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (db *DB) ReadAccountById(ctx context.Context, id int64) (*domain.Account, error) {
	row := db.db.QueryRowContext(ctx, sqlSelectAccountById, id)
	return scanAccount(row)
}

// ReadLocalAccountByUsername matches case-insensitively within the local
// domain, skipping soft-deleted accounts.
func (db *DB) ReadLocalAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := db.db.QueryRowContext(ctx, sqlSelectLocalByUsername, username)
	return scanAccount(row)
}

// LocalUsernameTaken checks case-insensitive uniqueness, including
// soft-deleted rows so usernames are never recycled.
func (db *DB) LocalUsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int
	if err := db.db.QueryRowContext(ctx, sqlCountLocalUsername, username).Scan(&count); err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

// ReadAccountsByIds fetches the given accounts keyed by id. Missing ids are
// simply absent from the result.
func (db *DB) ReadAccountsByIds(ctx context.Context, ids []int64) (map[int64]*domain.Account, error) {
	accounts := make(map[int64]*domain.Account, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}

	query := `SELECT ` + sqlAccountColumns + ` FROM accounts WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := db.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts[acc.Id] = acc
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return accounts, nil
}

func (db *DB) ListLocalAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := db.db.QueryContext(ctx, sqlSelectLocalAccounts)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return accounts, nil
}

func (db *DB) UpdateAccountKeys(ctx context.Context, id int64, publicKey, privateKey string) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateAccountKeys, publicKey, nullString(privateKey), id)
		return err
	})
}

func (db *DB) UpdateLocalProfile(ctx context.Context, id int64, displayName, note string) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateLocalProfile, displayName, note, id)
		return err
	})
}

// SoftDeleteAccount hides a local account from resolution without touching
// its rows.
func (db *DB) SoftDeleteAccount(ctx context.Context, id int64) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlSoftDeleteAccount, time.Now(), id)
		return err
	})
}

// DeleteAccount removes the account row; owned edges, pins and statuses go
// with it through the FK cascades.
func (db *DB) DeleteAccount(ctx context.Context, id int64) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteAccount, id)
		return err
	})
}

func (db *DB) AccountExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := db.db.QueryRowContext(ctx, sqlAccountExists, id).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
