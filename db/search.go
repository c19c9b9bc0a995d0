package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/deemkeen/anancus/domain"
)

const (
	sqlUpsertSearchDocument = `INSERT INTO status_search_documents(status_id, text) VALUES (?, ?)
		ON CONFLICT(status_id) DO UPDATE SET text = excluded.text`
	sqlDeleteSearchDocument = `DELETE FROM status_search_documents WHERE status_id = ?`

	sqlMatchAccountsPrefix = `SELECT ` + sqlAccountColumns + ` FROM accounts
		WHERE deleted_at IS NULL AND (%s) ORDER BY id DESC LIMIT ?`
)

// UpsertSearchDocument stores the text projection of a publicly visible
// status for the built-in index.
func (db *DB) UpsertSearchDocument(ctx context.Context, doc domain.SearchDocument) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, sqlUpsertSearchDocument, doc.StatusId, doc.Text)
		return err
	})
}

// DeleteSearchDocument drops the projection for a removed status.
func (db *DB) DeleteSearchDocument(ctx context.Context, statusId int64) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, sqlDeleteSearchDocument, statusId)
		return err
	})
}

// MatchAccounts returns live accounts where any of the given lowercase
// terms occurs in the username, domain or display name. Scoring is left
// to the caller.
func (db *DB) MatchAccounts(ctx context.Context, terms []string, limit int) ([]domain.Account, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	conditions := make([]string, 0, len(terms))
	args := make([]interface{}, 0, len(terms)*3+1)
	for _, term := range terms {
		pattern := "%" + escapeLike(term) + "%"
		conditions = append(conditions,
			`(lower(username) LIKE ? ESCAPE '\' OR lower(domain) LIKE ? ESCAPE '\' OR lower(display_name) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	args = append(args, limit)

	query := strings.Replace(sqlMatchAccountsPrefix, "%s", strings.Join(conditions, " OR "), 1)

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
	return accounts, mapError(rows.Err())
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
