package db

import (
	"context"
	"testing"

	"github.com/deemkeen/anancus/domain"
)

func TestCreateEdgeIdempotent(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	a := createTestAccount(t, database, "a")
	b := createTestAccount(t, database, "b")

	inserted, err := database.CreateEdge(ctx, domain.EdgeFollow, a.Id, b.Id)
	if err != nil {
		t.Fatalf("CreateEdge failed: %v", err)
	}
	if !inserted {
		t.Error("Expected the first insert to report a new edge")
	}

	inserted, err = database.CreateEdge(ctx, domain.EdgeFollow, a.Id, b.Id)
	if err != nil {
		t.Fatalf("CreateEdge repeat failed: %v", err)
	}
	if inserted {
		t.Error("Expected the repeat insert to be a no-op")
	}
}

func TestFollowCountsMaintained(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	a := createTestAccount(t, database, "a")
	b := createTestAccount(t, database, "b")

	follow(t, database, a.Id, b.Id)

	readA, _ := database.ReadAccountById(ctx, a.Id)
	readB, _ := database.ReadAccountById(ctx, b.Id)
	if readA.FollowingCount != 1 {
		t.Errorf("Expected following_count 1, got %d", readA.FollowingCount)
	}
	if readB.FollowersCount != 1 {
		t.Errorf("Expected followers_count 1, got %d", readB.FollowersCount)
	}

	// A repeat follow must not bump the counters again
	follow(t, database, a.Id, b.Id)
	readA, _ = database.ReadAccountById(ctx, a.Id)
	if readA.FollowingCount != 1 {
		t.Errorf("Expected following_count to stay 1, got %d", readA.FollowingCount)
	}

	deleted, err := database.DeleteEdge(ctx, domain.EdgeFollow, a.Id, b.Id)
	if err != nil {
		t.Fatalf("DeleteEdge failed: %v", err)
	}
	if !deleted {
		t.Error("Expected the edge to be deleted")
	}

	readA, _ = database.ReadAccountById(ctx, a.Id)
	readB, _ = database.ReadAccountById(ctx, b.Id)
	if readA.FollowingCount != 0 || readB.FollowersCount != 0 {
		t.Error("Expected the counters back at zero after unfollow")
	}
}

func TestBlockAndSeverFollows(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	a := createTestAccount(t, database, "a")
	b := createTestAccount(t, database, "b")

	follow(t, database, a.Id, b.Id)
	follow(t, database, b.Id, a.Id)

	// A failed call must leave neither the block nor half-severed follows
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := database.BlockAndSeverFollows(cancelled, a.Id, b.Id); err == nil {
		t.Fatal("Expected an error for a cancelled context")
	}
	if blocked, _ := database.EdgeExists(ctx, domain.EdgeBlock, a.Id, b.Id); blocked {
		t.Error("Expected no block edge after the failed call")
	}
	if following, _ := database.EdgeExists(ctx, domain.EdgeFollow, a.Id, b.Id); !following {
		t.Error("Expected the follow to survive the failed call")
	}

	if err := database.BlockAndSeverFollows(ctx, a.Id, b.Id); err != nil {
		t.Fatalf("BlockAndSeverFollows failed: %v", err)
	}
	if blocked, _ := database.EdgeExists(ctx, domain.EdgeBlock, a.Id, b.Id); !blocked {
		t.Error("Expected the block edge")
	}
	if following, _ := database.EdgeExists(ctx, domain.EdgeFollow, a.Id, b.Id); following {
		t.Error("Expected a's follow to be severed")
	}
	if following, _ := database.EdgeExists(ctx, domain.EdgeFollow, b.Id, a.Id); following {
		t.Error("Expected b's follow to be severed")
	}

	readA, _ := database.ReadAccountById(ctx, a.Id)
	readB, _ := database.ReadAccountById(ctx, b.Id)
	if readA.FollowingCount != 0 || readB.FollowingCount != 0 {
		t.Error("Expected the follow counters back at zero after the block")
	}
}

func TestIdLists(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	a := createTestAccount(t, database, "a")
	b := createTestAccount(t, database, "b")
	c := createTestAccount(t, database, "c")

	follow(t, database, a.Id, b.Id)
	if _, err := database.CreateEdge(ctx, domain.EdgeBlock, a.Id, c.Id); err != nil {
		t.Fatalf("CreateEdge block failed: %v", err)
	}
	if _, err := database.CreateEdge(ctx, domain.EdgeMute, a.Id, b.Id); err != nil {
		t.Fatalf("CreateEdge mute failed: %v", err)
	}

	following, err := database.FollowingIds(ctx, a.Id)
	if err != nil {
		t.Fatalf("FollowingIds failed: %v", err)
	}
	if len(following) != 1 || following[0] != b.Id {
		t.Errorf("Expected following [%d], got %v", b.Id, following)
	}

	blocking, _ := database.BlockingIds(ctx, a.Id)
	if len(blocking) != 1 || blocking[0] != c.Id {
		t.Errorf("Expected blocking [%d], got %v", c.Id, blocking)
	}

	blockedBy, _ := database.BlockedByIds(ctx, c.Id)
	if len(blockedBy) != 1 || blockedBy[0] != a.Id {
		t.Errorf("Expected blocked-by [%d], got %v", a.Id, blockedBy)
	}

	muting, _ := database.MutingIds(ctx, a.Id)
	if len(muting) != 1 || muting[0] != b.Id {
		t.Errorf("Expected muting [%d], got %v", b.Id, muting)
	}
}

func TestDomainBlocks(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	a := createTestAccount(t, database, "a")

	if err := database.CreateDomainBlock(ctx, a.Id, "bad.example"); err != nil {
		t.Fatalf("CreateDomainBlock failed: %v", err)
	}
	// Repeats are ignored
	if err := database.CreateDomainBlock(ctx, a.Id, "bad.example"); err != nil {
		t.Fatalf("CreateDomainBlock repeat failed: %v", err)
	}

	domains, err := database.BlockedDomains(ctx, a.Id)
	if err != nil {
		t.Fatalf("BlockedDomains failed: %v", err)
	}
	if len(domains) != 1 || domains[0] != "bad.example" {
		t.Errorf("Expected ['bad.example'], got %v", domains)
	}

	if err := database.DeleteDomainBlock(ctx, a.Id, "bad.example"); err != nil {
		t.Fatalf("DeleteDomainBlock failed: %v", err)
	}
	domains, _ = database.BlockedDomains(ctx, a.Id)
	if len(domains) != 0 {
		t.Errorf("Expected no blocked domains, got %v", domains)
	}
}

func TestCountMutualFollowEdges(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	a := createTestAccount(t, database, "a")
	b := createTestAccount(t, database, "b")

	count, err := database.CountMutualFollowEdges(ctx, a.Id, b.Id)
	if err != nil {
		t.Fatalf("CountMutualFollowEdges failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 edges, got %d", count)
	}

	follow(t, database, a.Id, b.Id)
	count, _ = database.CountMutualFollowEdges(ctx, a.Id, b.Id)
	if count != 1 {
		t.Errorf("Expected 1 edge, got %d", count)
	}

	follow(t, database, b.Id, a.Id)
	count, _ = database.CountMutualFollowEdges(ctx, a.Id, b.Id)
	if count != 2 {
		t.Errorf("Expected 2 edges, got %d", count)
	}
}
