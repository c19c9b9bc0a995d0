package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deemkeen/anancus/domain"
	"github.com/google/uuid"
)

const (
	sqlSelectFollowingIds  = `SELECT target_account_id FROM follows WHERE account_id = ?`
	sqlSelectBlockingIds   = `SELECT target_account_id FROM blocks WHERE account_id = ?`
	sqlSelectBlockedByIds  = `SELECT account_id FROM blocks WHERE target_account_id = ?`
	sqlSelectMutingIds     = `SELECT target_account_id FROM mutes WHERE account_id = ?`
	sqlInsertDomainBlock   = `INSERT OR IGNORE INTO domain_blocks(id, account_id, domain, created_at) VALUES (?, ?, ?, ?)`
	sqlDeleteDomainBlock   = `DELETE FROM domain_blocks WHERE account_id = ? AND domain = ?`
	sqlSelectBlockedDomains = `SELECT domain FROM domain_blocks WHERE account_id = ?`
	sqlIncFollowingCount   = `UPDATE accounts SET following_count = following_count + ? WHERE id = ?`
	sqlIncFollowersCount   = `UPDATE accounts SET followers_count = followers_count + ? WHERE id = ?`
	sqlCountMutualFollows  = `SELECT COUNT(*) FROM follows WHERE (account_id = ? AND target_account_id = ?) OR (account_id = ? AND target_account_id = ?)`
)

func edgeTable(kind domain.EdgeKind) (string, error) {
	switch kind {
	case domain.EdgeFollow:
		return "follows", nil
	case domain.EdgeBlock:
		return "blocks", nil
	case domain.EdgeMute:
		return "mutes", nil
	}
	return "", fmt.Errorf("unknown edge kind %q", kind)
}

func insertEdgeTx(tx *sql.Tx, kind domain.EdgeKind, accountId, targetId int64) (bool, error) {
	table, err := edgeTable(kind)
	if err != nil {
		return false, err
	}
	query := `INSERT OR IGNORE INTO ` + table + `(id, account_id, target_account_id, created_at) VALUES (?, ?, ?, ?)`
	res, err := tx.Exec(query, uuid.New().String(), accountId, targetId, time.Now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	inserted := n > 0
	if inserted && kind == domain.EdgeFollow {
		if _, err := tx.Exec(sqlIncFollowingCount, 1, accountId); err != nil {
			return false, err
		}
		if _, err := tx.Exec(sqlIncFollowersCount, 1, targetId); err != nil {
			return false, err
		}
	}
	return inserted, nil
}

func deleteEdgeTx(tx *sql.Tx, kind domain.EdgeKind, accountId, targetId int64) (bool, error) {
	table, err := edgeTable(kind)
	if err != nil {
		return false, err
	}
	query := `DELETE FROM ` + table + ` WHERE account_id = ? AND target_account_id = ?`
	res, err := tx.Exec(query, accountId, targetId)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	deleted := n > 0
	if deleted && kind == domain.EdgeFollow {
		if _, err := tx.Exec(sqlIncFollowingCount, -1, accountId); err != nil {
			return false, err
		}
		if _, err := tx.Exec(sqlIncFollowersCount, -1, targetId); err != nil {
			return false, err
		}
	}
	return deleted, nil
}

// CreateEdge inserts a directed edge, reporting whether a new row appeared.
// Existing edges are left untouched, so the mutation is idempotent.
func (db *DB) CreateEdge(ctx context.Context, kind domain.EdgeKind, accountId, targetId int64) (bool, error) {
	var inserted bool
	err := db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		inserted, err = insertEdgeTx(tx, kind, accountId, targetId)
		return err
	})
	return inserted, err
}

// DeleteEdge removes a directed edge if present.
func (db *DB) DeleteEdge(ctx context.Context, kind domain.EdgeKind, accountId, targetId int64) (bool, error) {
	var deleted bool
	err := db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = deleteEdgeTx(tx, kind, accountId, targetId)
		return err
	})
	return deleted, err
}

// BlockAndSeverFollows inserts the block edge and removes follow edges in
// both directions as one transaction. A reader can never observe the block
// without the severed follows, and a failed call leaves no partial state.
func (db *DB) BlockAndSeverFollows(ctx context.Context, accountId, targetId int64) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := insertEdgeTx(tx, domain.EdgeBlock, accountId, targetId); err != nil {
			return err
		}
		if _, err := deleteEdgeTx(tx, domain.EdgeFollow, accountId, targetId); err != nil {
			return err
		}
		_, err := deleteEdgeTx(tx, domain.EdgeFollow, targetId, accountId)
		return err
	})
}

func (db *DB) EdgeExists(ctx context.Context, kind domain.EdgeKind, accountId, targetId int64) (bool, error) {
	table, err := edgeTable(kind)
	if err != nil {
		return false, err
	}
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ` + table + ` WHERE account_id = ? AND target_account_id = ?)`
	if err := db.db.QueryRowContext(ctx, query, accountId, targetId).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (db *DB) readIdList(ctx context.Context, query string, accountId int64) ([]int64, error) {
	rows, err := db.db.QueryContext(ctx, query, accountId)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

func (db *DB) FollowingIds(ctx context.Context, accountId int64) ([]int64, error) {
	return db.readIdList(ctx, sqlSelectFollowingIds, accountId)
}

func (db *DB) BlockingIds(ctx context.Context, accountId int64) ([]int64, error) {
	return db.readIdList(ctx, sqlSelectBlockingIds, accountId)
}

func (db *DB) BlockedByIds(ctx context.Context, accountId int64) ([]int64, error) {
	return db.readIdList(ctx, sqlSelectBlockedByIds, accountId)
}

func (db *DB) MutingIds(ctx context.Context, accountId int64) ([]int64, error) {
	return db.readIdList(ctx, sqlSelectMutingIds, accountId)
}

func (db *DB) CreateDomainBlock(ctx context.Context, accountId int64, domainName string) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertDomainBlock, uuid.New().String(), accountId, domainName, time.Now())
		return err
	})
}

func (db *DB) DeleteDomainBlock(ctx context.Context, accountId int64, domainName string) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteDomainBlock, accountId, domainName)
		return err
	})
}

func (db *DB) BlockedDomains(ctx context.Context, accountId int64) ([]string, error) {
	rows, err := db.db.QueryContext(ctx, sqlSelectBlockedDomains, accountId)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, mapError(err)
		}
		domains = append(domains, d)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return domains, nil
}

// CountMutualFollowEdges counts follow edges between two accounts in either
// direction, the affinity input for ranked search.
func (db *DB) CountMutualFollowEdges(ctx context.Context, accountId, otherId int64) (int64, error) {
	var count int64
	err := db.db.QueryRowContext(ctx, sqlCountMutualFollows, accountId, otherId, otherId, accountId).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}
