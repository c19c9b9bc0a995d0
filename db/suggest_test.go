package db

import (
	"context"
	"testing"
	"time"

	"github.com/deemkeen/anancus/domain"
)

// Builds the graph viewer->b, viewer->c, b->d, c->d, b->e. d is followed by
// two of the viewer's follows and must outrank e.
func TestTriadicClosures(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	viewer := createTestAccount(t, database, "viewer")
	b := createTestAccount(t, database, "b")
	c := createTestAccount(t, database, "c")
	d := createTestAccount(t, database, "d")
	e := createTestAccount(t, database, "e")

	follow(t, database, viewer.Id, b.Id)
	follow(t, database, viewer.Id, c.Id)
	follow(t, database, b.Id, d.Id)
	follow(t, database, c.Id, d.Id)
	follow(t, database, b.Id, e.Id)

	createTestStatus(t, database, d.Id, "recent")
	createTestStatus(t, database, e.Id, "recent")

	since := time.Now().Add(-3 * 24 * time.Hour)
	suggestions, err := database.TriadicClosures(ctx, viewer.Id, 10, 0, nil, nil, since)
	if err != nil {
		t.Fatalf("TriadicClosures failed: %v", err)
	}

	if len(suggestions) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d", len(suggestions))
	}
	if suggestions[0].Id != d.Id {
		t.Errorf("Expected the strongest closure first, got account %d", suggestions[0].Id)
	}
	if suggestions[1].Id != e.Id {
		t.Errorf("Expected account %d second, got %d", e.Id, suggestions[1].Id)
	}
}

func TestTriadicClosuresSkipsFirstDegreeAndSilent(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	viewer := createTestAccount(t, database, "viewer")
	b := createTestAccount(t, database, "b")
	d := createTestAccount(t, database, "d")
	quiet := createTestAccount(t, database, "quiet")

	follow(t, database, viewer.Id, b.Id)
	follow(t, database, viewer.Id, d.Id) // already first degree
	follow(t, database, b.Id, d.Id)
	follow(t, database, b.Id, quiet.Id) // never posted

	createTestStatus(t, database, d.Id, "recent")

	since := time.Now().Add(-3 * 24 * time.Hour)
	suggestions, err := database.TriadicClosures(ctx, viewer.Id, 10, 0, nil, nil, since)
	if err != nil {
		t.Fatalf("TriadicClosures failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("Expected no suggestions, got %d", len(suggestions))
	}
}

func TestTriadicClosuresHonorsExclusions(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	viewer := createTestAccount(t, database, "viewer")
	b := createTestAccount(t, database, "b")
	d := createTestAccount(t, database, "d")

	follow(t, database, viewer.Id, b.Id)
	follow(t, database, b.Id, d.Id)
	createTestStatus(t, database, d.Id, "recent")

	since := time.Now().Add(-3 * 24 * time.Hour)
	suggestions, err := database.TriadicClosures(ctx, viewer.Id, 10, 0, []int64{d.Id}, nil, since)
	if err != nil {
		t.Fatalf("TriadicClosures failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("Expected the excluded id to be filtered, got %d suggestions", len(suggestions))
	}
}

func TestTriadicClosuresExcludesDomains(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	viewer := createTestAccount(t, database, "viewer")
	b := createTestAccount(t, database, "b")
	remote, err := database.UpsertRemoteAccount(ctx, "d", "bad.example", domain.RemoteAttrs{URI: "https://bad.example/users/d"})
	if err != nil {
		t.Fatalf("UpsertRemoteAccount failed: %v", err)
	}

	follow(t, database, viewer.Id, b.Id)
	follow(t, database, b.Id, remote.Id)
	createTestStatus(t, database, remote.Id, "recent")

	since := time.Now().Add(-3 * 24 * time.Hour)
	suggestions, err := database.TriadicClosures(ctx, viewer.Id, 10, 0, nil, []string{"bad.example"}, since)
	if err != nil {
		t.Fatalf("TriadicClosures failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("Expected the blocked domain to be filtered, got %d suggestions", len(suggestions))
	}

	suggestions, err = database.TriadicClosures(ctx, viewer.Id, 10, 0, nil, nil, since)
	if err != nil {
		t.Fatalf("TriadicClosures failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Errorf("Expected the candidate without the domain filter, got %d suggestions", len(suggestions))
	}
}

func TestRecentlyActiveAccounts(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	a := createTestAccount(t, database, "a")
	b := createTestAccount(t, database, "b")
	createTestAccount(t, database, "silent")

	createTestStatus(t, database, a.Id, "older")
	createTestStatus(t, database, b.Id, "newer")

	since := time.Now().Add(-3 * 24 * time.Hour)
	accounts, err := database.RecentlyActiveAccounts(ctx, 10, []int64{}, nil, since)
	if err != nil {
		t.Fatalf("RecentlyActiveAccounts failed: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("Expected 2 active accounts, got %d", len(accounts))
	}
	if accounts[0].Id != b.Id {
		t.Errorf("Expected the most recently active first, got account %d", accounts[0].Id)
	}

	accounts, err = database.RecentlyActiveAccounts(ctx, 10, []int64{b.Id}, nil, since)
	if err != nil {
		t.Fatalf("RecentlyActiveAccounts with exclusion failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Id != a.Id {
		t.Errorf("Expected only account %d, got %v", a.Id, accountIds(accounts))
	}
}
