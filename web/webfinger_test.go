package web

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deemkeen/anancus/account"
	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/util"
)

func testRegistry(t *testing.T) (*account.Registry, *util.AppConfig) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	conf := &util.AppConfig{}
	conf.Conf.LocalDomain = "social.example.com"
	conf.Conf.TestKeys = true

	return account.NewRegistry(database, conf, account.NewKeyManager(database, conf)), conf
}

func TestParseWebfingerResource(t *testing.T) {
	cases := map[string]string{
		"acct:alice@social.example.com": "alice",
		"alice@social.example.com":      "alice",
		"acct:alice@SOCIAL.example.COM": "alice",
		"acct:alice@other.example":      "",
		"acct:@social.example.com":      "",
		"acct:alice":                    "",
		"":                              "",
	}
	for resource, want := range cases {
		if got := parseWebfingerResource(resource, "social.example.com"); got != want {
			t.Errorf("parseWebfingerResource(%q) = %q, want %q", resource, got, want)
		}
	}
}

func TestGetWebfinger(t *testing.T) {
	registry, conf := testRegistry(t)
	ctx := context.Background()

	if _, err := registry.CreateLocal(ctx, "alice", "", ""); err != nil {
		t.Fatalf("CreateLocal failed: %v", err)
	}

	err, body := GetWebfinger(ctx, registry, "alice", conf)
	if err != nil {
		t.Fatalf("GetWebfinger failed: %v", err)
	}

	if !strings.Contains(body, `"acct:alice@social.example.com"`) {
		t.Errorf("Expected the acct subject in the body, got %s", body)
	}
	if !strings.Contains(body, "https://social.example.com/users/alice") {
		t.Errorf("Expected the self link in the body, got %s", body)
	}
}

func TestGetWebfingerUnknownUser(t *testing.T) {
	registry, conf := testRegistry(t)

	err, body := GetWebfinger(context.Background(), registry, "nobody", conf)
	if err == nil {
		t.Error("Expected an error for an unknown user")
	}
	if body != GetWebFingerNotFound() {
		t.Errorf("Expected the not-found body, got %s", body)
	}
}
