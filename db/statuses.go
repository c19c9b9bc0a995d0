package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/deemkeen/anancus/domain"
)

const (
	sqlStatusColumns = `id, account_id, text, visibility, sensitive, created_at`

	sqlInsertStatus       = `INSERT INTO statuses(account_id, text, visibility, sensitive, created_at) VALUES (?, ?, ?, ?, ?)`
	sqlSelectStatusById   = `SELECT ` + sqlStatusColumns + ` FROM statuses WHERE id = ?`
	sqlDeleteStatusById   = `DELETE FROM statuses WHERE id = ?`
	sqlIncStatusesCount   = `UPDATE accounts SET statuses_count = statuses_count + ? WHERE id = ?`
	sqlSelectLatestStatus = `SELECT ` + sqlStatusColumns + ` FROM statuses WHERE account_id = ? ORDER BY id DESC LIMIT 1`

	sqlInsertPin  = `INSERT INTO status_pins(account_id, status_id, created_at) VALUES (?, ?, ?)`
	sqlDeletePin  = `DELETE FROM status_pins WHERE account_id = ? AND status_id = ?`
	sqlCountPins  = `SELECT COUNT(*) FROM status_pins WHERE account_id = ?`
	sqlPinExists  = `SELECT EXISTS(SELECT 1 FROM status_pins WHERE account_id = ? AND status_id = ?)`
	sqlSelectPins = `SELECT statuses.id, statuses.account_id, statuses.text, statuses.visibility, statuses.sensitive, statuses.created_at
		FROM status_pins
		INNER JOIN statuses ON statuses.id = status_pins.status_id
		WHERE status_pins.account_id = ?
		ORDER BY status_pins.created_at DESC, status_pins.id DESC`
)

func scanStatus(row rowScanner) (*domain.Status, error) {
	var st domain.Status
	err := row.Scan(&st.Id, &st.AccountId, &st.Text, &st.Visibility, &st.Sensitive, &st.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &st, nil
}

// CreateStatus inserts the status and bumps the owner's statuses_count in
// the same transaction.
func (db *DB) CreateStatus(ctx context.Context, st *domain.Status) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		st.CreatedAt = time.Now()
		res, err := tx.Exec(sqlInsertStatus, st.AccountId, st.Text, st.Visibility, st.Sensitive, st.CreatedAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		st.Id = id
		_, err = tx.Exec(sqlIncStatusesCount, 1, st.AccountId)
		return err
	})
}

// DeleteStatus removes the status and its pins (FK cascade) and decrements
// the owner's counter. Returns the deleted row for projection cleanup.
func (db *DB) DeleteStatus(ctx context.Context, id int64) (*domain.Status, error) {
	var deleted *domain.Status
	err := db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(sqlSelectStatusById, id)
		st, err := scanStatus(row)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(sqlDeleteStatusById, id); err != nil {
			return err
		}
		if _, err := tx.Exec(sqlIncStatusesCount, -1, st.AccountId); err != nil {
			return err
		}
		deleted = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (db *DB) ReadStatusById(ctx context.Context, id int64) (*domain.Status, error) {
	row := db.db.QueryRowContext(ctx, sqlSelectStatusById, id)
	return scanStatus(row)
}

func (db *DB) ReadLatestStatus(ctx context.Context, accountId int64) (*domain.Status, error) {
	row := db.db.QueryRowContext(ctx, sqlSelectLatestStatus, accountId)
	return scanStatus(row)
}

// StatusesBefore returns up to limit statuses with id strictly below maxId
// (when > 0) and strictly above sinceId (when > 0), newest first.
func (db *DB) StatusesBefore(ctx context.Context, accountId int64, limit int, maxId, sinceId int64) ([]domain.Status, error) {
	query := `SELECT ` + sqlStatusColumns + ` FROM statuses WHERE account_id = ?`
	args := []interface{}{accountId}
	if maxId > 0 {
		query += ` AND id < ?`
		args = append(args, maxId)
	}
	if sinceId > 0 {
		query += ` AND id > ?`
		args = append(args, sinceId)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	return db.queryStatuses(ctx, query, args...)
}

// StatusesAfter returns up to limit statuses with id strictly above minId,
// oldest first. Callers reverse the page for presentation.
func (db *DB) StatusesAfter(ctx context.Context, accountId int64, limit int, minId int64) ([]domain.Status, error) {
	query := `SELECT ` + sqlStatusColumns + ` FROM statuses WHERE account_id = ? AND id > ? ORDER BY id ASC LIMIT ?`
	return db.queryStatuses(ctx, query, accountId, minId, limit)
}

func (db *DB) queryStatuses(ctx context.Context, query string, args ...interface{}) ([]domain.Status, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var statuses []domain.Status
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return statuses, nil
}

func (db *DB) CreatePin(ctx context.Context, accountId, statusId int64) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertPin, accountId, statusId, time.Now())
		return err
	})
}

func (db *DB) DeletePin(ctx context.Context, accountId, statusId int64) (bool, error) {
	var deleted bool
	err := db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlDeletePin, accountId, statusId)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

func (db *DB) CountPins(ctx context.Context, accountId int64) (int, error) {
	var count int
	if err := db.db.QueryRowContext(ctx, sqlCountPins, accountId).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (db *DB) PinExists(ctx context.Context, accountId, statusId int64) (bool, error) {
	var exists bool
	if err := db.db.QueryRowContext(ctx, sqlPinExists, accountId, statusId).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

// ReadPinnedStatuses returns the account's pinned statuses, most recently
// pinned first.
func (db *DB) ReadPinnedStatuses(ctx context.Context, accountId int64) ([]domain.Status, error) {
	return db.queryStatuses(ctx, sqlSelectPins, accountId)
}
