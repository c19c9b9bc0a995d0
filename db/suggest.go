package db

import (
	"context"
	"time"

	"github.com/deemkeen/anancus/domain"
)

// TriadicClosures runs second-degree follow discovery as one query: the
// candidate set, the recency filter and the closure-strength ordering all
// come from the same snapshot, so the count can never disagree with the
// filter. Candidates are accounts followed by accounts the viewer follows,
// minus the viewer's own first degree, the viewer, the excluded ids and
// domains and suspended or deleted accounts, kept only when their latest
// status is not older than activeSince. The exclusions sit inside the query
// so a full page is really full, never a page silently thinned after LIMIT.
// Strongest closure first, ties broken by the most recent status.
func (db *DB) TriadicClosures(ctx context.Context, accountId int64, limit, offset int, excludedIds []int64, excludedDomains []string, activeSince time.Time) ([]domain.Account, error) {
	excluded := append([]int64{accountId}, excludedIds...)

	query := `
		WITH first_degree AS (
			SELECT target_account_id
			FROM follows
			WHERE account_id = ?
		)
		SELECT accounts.id, accounts.username, accounts.domain, accounts.uri, accounts.public_key, accounts.private_key,
			accounts.display_name, accounts.note, accounts.statuses_count, accounts.followers_count, accounts.following_count,
			accounts.silenced, accounts.suspended, accounts.locked, accounts.last_resolved_at, accounts.created_at, accounts.deleted_at
		FROM follows
		INNER JOIN accounts ON follows.target_account_id = accounts.id
		WHERE follows.account_id IN (SELECT target_account_id FROM first_degree)
			AND follows.target_account_id NOT IN (SELECT target_account_id FROM first_degree)
			AND follows.target_account_id NOT IN (` + placeholders(len(excluded)) + `)
			AND accounts.suspended = 0
			AND accounts.deleted_at IS NULL` + domainFilter(len(excludedDomains)) + `
		GROUP BY follows.target_account_id
		HAVING (
			SELECT created_at
			FROM statuses
			WHERE statuses.account_id = follows.target_account_id
			ORDER BY statuses.id DESC LIMIT 1
		) >= ?
		ORDER BY COUNT(follows.account_id) DESC, (
			SELECT id
			FROM statuses
			WHERE statuses.account_id = follows.target_account_id
			ORDER BY statuses.id DESC LIMIT 1
		) DESC
		LIMIT ? OFFSET ?`

	args := []interface{}{accountId}
	args = append(args, int64Args(excluded)...)
	args = append(args, stringArgs(excludedDomains)...)
	args = append(args, activeSince, limit, offset)

	rows, err := db.db.QueryContext(ctx, query, args...)
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

func domainFilter(n int) string {
	if n == 0 {
		return ""
	}
	return `
			AND accounts.domain NOT IN (` + placeholders(n) + `)`
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// RecentlyActiveAccounts backfills suggestion pages that the triadic pass
// left short: any non-suspended account outside the excluded ids and
// domains with a status newer than activeSince, newest activity first.
func (db *DB) RecentlyActiveAccounts(ctx context.Context, limit int, excludedIds []int64, excludedDomains []string, activeSince time.Time) ([]domain.Account, error) {
	query := `
		SELECT accounts.id, accounts.username, accounts.domain, accounts.uri, accounts.public_key, accounts.private_key,
			accounts.display_name, accounts.note, accounts.statuses_count, accounts.followers_count, accounts.following_count,
			accounts.silenced, accounts.suspended, accounts.locked, accounts.last_resolved_at, accounts.created_at, accounts.deleted_at
		FROM accounts
		WHERE accounts.suspended = 0
			AND accounts.deleted_at IS NULL`
	args := []interface{}{}
	if len(excludedIds) > 0 {
		query += `
			AND accounts.id NOT IN (` + placeholders(len(excludedIds)) + `)`
		args = append(args, int64Args(excludedIds)...)
	}
	query += domainFilter(len(excludedDomains))
	args = append(args, stringArgs(excludedDomains)...)
	query += `
		AND (
			SELECT created_at
			FROM statuses
			WHERE statuses.account_id = accounts.id
			ORDER BY statuses.id DESC LIMIT 1
		) >= ?
		ORDER BY (
			SELECT id
			FROM statuses
			WHERE statuses.account_id = accounts.id
			ORDER BY statuses.id DESC LIMIT 1
		) DESC
		LIMIT ?`
	args = append(args, activeSince, limit)

	rows, err := db.db.QueryContext(ctx, query, args...)
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
