package suggest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
	"github.com/deemkeen/anancus/relation"
)

func testEngine(t *testing.T) (*Engine, *relation.Graph, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	cache := relation.NewExclusionCache(database, time.Hour)
	return NewEngine(database, cache), relation.NewGraph(database, cache), database
}

func newAccount(t *testing.T, database *db.DB, username string) int64 {
	t.Helper()
	acc := &domain.Account{Username: username}
	if err := database.CreateLocalAccount(context.Background(), acc); err != nil {
		t.Fatalf("CreateLocalAccount failed: %v", err)
	}
	return acc.Id
}

func post(t *testing.T, database *db.DB, accountId int64) {
	t.Helper()
	st := &domain.Status{AccountId: accountId, Text: "post", Visibility: domain.VisibilityPublic}
	if err := database.CreateStatus(context.Background(), st); err != nil {
		t.Fatalf("CreateStatus failed: %v", err)
	}
}

func TestSuggestOrdersByClosureStrength(t *testing.T) {
	engine, graph, database := testEngine(t)
	ctx := context.Background()

	viewer := newAccount(t, database, "viewer")
	b := newAccount(t, database, "b")
	c := newAccount(t, database, "c")
	d := newAccount(t, database, "d")
	e := newAccount(t, database, "e")

	mustFollow(t, graph, viewer, b)
	mustFollow(t, graph, viewer, c)
	mustFollow(t, graph, b, d)
	mustFollow(t, graph, c, d)
	mustFollow(t, graph, b, e)

	post(t, database, d)
	post(t, database, e)

	suggestions, err := engine.Suggest(ctx, viewer, 2, 0, nil)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d", len(suggestions))
	}
	if suggestions[0].Id != d {
		t.Errorf("Expected the doubly connected account first, got %d", suggestions[0].Id)
	}
	if suggestions[1].Id != e {
		t.Errorf("Expected account %d second, got %d", e, suggestions[1].Id)
	}
}

func TestSuggestSkipsBlockedAccounts(t *testing.T) {
	engine, graph, database := testEngine(t)
	ctx := context.Background()

	viewer := newAccount(t, database, "viewer")
	b := newAccount(t, database, "b")
	d := newAccount(t, database, "d")

	mustFollow(t, graph, viewer, b)
	mustFollow(t, graph, b, d)
	post(t, database, d)

	if err := graph.Block(ctx, viewer, d); err != nil {
		t.Fatalf("Block failed: %v", err)
	}

	suggestions, err := engine.Suggest(ctx, viewer, 5, 0, nil)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	for _, acc := range suggestions {
		if acc.Id == d {
			t.Error("Expected the blocked account to be filtered")
		}
	}
}

func TestSuggestFillsPageDespiteBlockedDomain(t *testing.T) {
	engine, graph, database := testEngine(t)
	ctx := context.Background()

	viewer := newAccount(t, database, "viewer")
	b := newAccount(t, database, "b")
	e := newAccount(t, database, "e")
	remote, err := database.UpsertRemoteAccount(ctx, "d", "bad.example", domain.RemoteAttrs{URI: "https://bad.example/users/d"})
	if err != nil {
		t.Fatalf("UpsertRemoteAccount failed: %v", err)
	}

	mustFollow(t, graph, viewer, b)
	mustFollow(t, graph, b, e)
	mustFollow(t, graph, b, remote.Id)

	// The remote candidate posted last and would win the single slot if the
	// domain block were applied after the page was cut
	post(t, database, e)
	post(t, database, remote.Id)

	if err := graph.BlockDomain(ctx, viewer, "bad.example"); err != nil {
		t.Fatalf("BlockDomain failed: %v", err)
	}

	suggestions, err := engine.Suggest(ctx, viewer, 1, 0, nil)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("Expected a full page of 1, got %d", len(suggestions))
	}
	if suggestions[0].Id != e {
		t.Errorf("Expected the eligible candidate %d, got %d", e, suggestions[0].Id)
	}
}

func TestSuggestBackfillsUnderfullPages(t *testing.T) {
	engine, graph, database := testEngine(t)
	ctx := context.Background()

	viewer := newAccount(t, database, "viewer")
	b := newAccount(t, database, "b")
	d := newAccount(t, database, "d")
	stranger := newAccount(t, database, "stranger")

	mustFollow(t, graph, viewer, b)
	mustFollow(t, graph, b, d)
	post(t, database, d)
	post(t, database, stranger)

	suggestions, err := engine.Suggest(ctx, viewer, 5, 0, nil)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("Expected the triadic hit plus the backfill, got %d", len(suggestions))
	}
	if suggestions[0].Id != d {
		t.Errorf("Expected the triadic candidate first, got %d", suggestions[0].Id)
	}
	if suggestions[1].Id != stranger {
		t.Errorf("Expected the recently active stranger second, got %d", suggestions[1].Id)
	}
}

func TestSuggestNeverReturnsSelfOrFollowed(t *testing.T) {
	engine, graph, database := testEngine(t)
	ctx := context.Background()

	viewer := newAccount(t, database, "viewer")
	b := newAccount(t, database, "b")

	mustFollow(t, graph, viewer, b)
	post(t, database, viewer)
	post(t, database, b)

	suggestions, err := engine.Suggest(ctx, viewer, 5, 0, nil)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	for _, acc := range suggestions {
		if acc.Id == viewer || acc.Id == b {
			t.Errorf("Expected neither the viewer nor followed accounts, got %d", acc.Id)
		}
	}
}

func TestSuggestExplicitExcludes(t *testing.T) {
	engine, graph, database := testEngine(t)
	ctx := context.Background()

	viewer := newAccount(t, database, "viewer")
	b := newAccount(t, database, "b")
	d := newAccount(t, database, "d")

	mustFollow(t, graph, viewer, b)
	mustFollow(t, graph, b, d)
	post(t, database, d)

	suggestions, err := engine.Suggest(ctx, viewer, 5, 0, []int64{d})
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	for _, acc := range suggestions {
		if acc.Id == d {
			t.Error("Expected the explicitly excluded id to be filtered")
		}
	}
}

func TestSuggestZeroLimit(t *testing.T) {
	engine, _, database := testEngine(t)

	viewer := newAccount(t, database, "viewer")

	suggestions, err := engine.Suggest(context.Background(), viewer, 0, 0, nil)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if suggestions != nil {
		t.Error("Expected no work for a zero limit")
	}
}

func mustFollow(t *testing.T, graph *relation.Graph, sourceId, targetId int64) {
	t.Helper()
	if err := graph.Follow(context.Background(), sourceId, targetId); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
}
