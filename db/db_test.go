package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/deemkeen/anancus/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func createTestAccount(t *testing.T, database *DB, username string) *domain.Account {
	t.Helper()
	acc := &domain.Account{Username: username, URI: "https://localhost/users/" + username}
	if err := database.CreateLocalAccount(context.Background(), acc); err != nil {
		t.Fatalf("CreateLocalAccount failed for %s: %v", username, err)
	}
	return acc
}

func createTestStatus(t *testing.T, database *DB, accountId int64, text string) *domain.Status {
	t.Helper()
	st := &domain.Status{AccountId: accountId, Text: text, Visibility: domain.VisibilityPublic}
	if err := database.CreateStatus(context.Background(), st); err != nil {
		t.Fatalf("CreateStatus failed: %v", err)
	}
	return st
}

func accountIds(accounts []domain.Account) []int64 {
	ids := make([]int64, 0, len(accounts))
	for _, acc := range accounts {
		ids = append(ids, acc.Id)
	}
	return ids
}

func follow(t *testing.T, database *DB, sourceId, targetId int64) {
	t.Helper()
	if _, err := database.CreateEdge(context.Background(), domain.EdgeFollow, sourceId, targetId); err != nil {
		t.Fatalf("CreateEdge failed: %v", err)
	}
}
