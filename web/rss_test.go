package web

import (
	"context"
	"strings"
	"testing"

	"github.com/deemkeen/anancus/domain"
)

func TestGetRSS(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	acc, err := api.Registry.CreateLocal(ctx, "alice", "", "")
	if err != nil {
		t.Fatalf("CreateLocal failed: %v", err)
	}
	if _, err := api.Statuses.Publish(ctx, acc.Id, "public post", domain.VisibilityPublic, false); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if _, err := api.Statuses.Publish(ctx, acc.Id, "followers only", domain.VisibilityPrivate, false); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	rss, err := GetRSS(ctx, api.Conf, api.Registry, api.Statuses, "alice")
	if err != nil {
		t.Fatalf("GetRSS failed: %v", err)
	}

	if !strings.Contains(rss, "public post") {
		t.Error("Expected the public status in the feed")
	}
	if strings.Contains(rss, "followers only") {
		t.Error("Expected the private status to stay out of the feed")
	}

	if _, err := GetRSS(ctx, api.Conf, api.Registry, api.Statuses, "nobody"); err == nil {
		t.Error("Expected an error for an unknown account")
	}
}

func TestGetRSSItem(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	acc, err := api.Registry.CreateLocal(ctx, "alice", "", "")
	if err != nil {
		t.Fatalf("CreateLocal failed: %v", err)
	}
	public, err := api.Statuses.Publish(ctx, acc.Id, "public post", domain.VisibilityPublic, false)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	private, err := api.Statuses.Publish(ctx, acc.Id, "followers only", domain.VisibilityPrivate, false)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	rss, err := GetRSSItem(ctx, api.Conf, api.Registry, api.Statuses, public.Id)
	if err != nil {
		t.Fatalf("GetRSSItem failed: %v", err)
	}
	if !strings.Contains(rss, "public post") {
		t.Error("Expected the status content in the item")
	}

	if _, err := GetRSSItem(ctx, api.Conf, api.Registry, api.Statuses, private.Id); err == nil {
		t.Error("Expected non-public statuses to be refused")
	}
}
