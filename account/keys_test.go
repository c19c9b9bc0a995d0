package account

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
)

func testKeyManager(t *testing.T) (*KeyManager, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewKeyManager(database, testConf()), database
}

func TestKeysForGeneratesOnFirstUse(t *testing.T) {
	km, database := testKeyManager(t)
	ctx := context.Background()

	acc := &domain.Account{Username: "alice"}
	if err := database.CreateLocalAccount(ctx, acc); err != nil {
		t.Fatalf("CreateLocalAccount failed: %v", err)
	}

	key, err := km.KeysFor(ctx, acc)
	if err != nil {
		t.Fatalf("KeysFor failed: %v", err)
	}
	if key == nil {
		t.Fatal("Expected a private key")
	}

	// The generated pair must be persisted
	read, err := database.ReadAccountById(ctx, acc.Id)
	if err != nil {
		t.Fatalf("ReadAccountById failed: %v", err)
	}
	if read.PrivateKey == "" || read.PublicKey == "" {
		t.Error("Expected the keypair to be stored")
	}
}

func TestKeysForIsIdempotent(t *testing.T) {
	km, database := testKeyManager(t)
	ctx := context.Background()

	acc := &domain.Account{Username: "alice"}
	if err := database.CreateLocalAccount(ctx, acc); err != nil {
		t.Fatalf("CreateLocalAccount failed: %v", err)
	}

	first, err := km.KeysFor(ctx, acc)
	if err != nil {
		t.Fatalf("KeysFor failed: %v", err)
	}
	second, err := km.KeysFor(ctx, acc)
	if err != nil {
		t.Fatalf("KeysFor repeat failed: %v", err)
	}
	if first != second {
		t.Error("Expected the memoized key on repeat calls")
	}
}

func TestKeysForReusesStoredKey(t *testing.T) {
	km, database := testKeyManager(t)
	ctx := context.Background()

	acc := &domain.Account{Username: "alice"}
	if err := database.CreateLocalAccount(ctx, acc); err != nil {
		t.Fatalf("CreateLocalAccount failed: %v", err)
	}
	first, err := km.KeysFor(ctx, acc)
	if err != nil {
		t.Fatalf("KeysFor failed: %v", err)
	}

	// A fresh manager must parse the stored PEM, not generate a new pair
	fresh := NewKeyManager(database, testConf())
	stored, err := fresh.KeysFor(ctx, &domain.Account{Id: acc.Id, Username: "alice"})
	if err != nil {
		t.Fatalf("KeysFor on fresh manager failed: %v", err)
	}
	if first.N.Cmp(stored.N) != 0 {
		t.Error("Expected the stored key back, not a new one")
	}
}

func TestKeysForRejectsRemoteAccounts(t *testing.T) {
	km, _ := testKeyManager(t)

	remote := &domain.Account{Id: 1, Username: "bob", Domain: "remote.example"}
	_, err := km.KeysFor(context.Background(), remote)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected a validation error for remote accounts, got %v", err)
	}
}

func TestForget(t *testing.T) {
	km, database := testKeyManager(t)
	ctx := context.Background()

	acc := &domain.Account{Username: "alice"}
	if err := database.CreateLocalAccount(ctx, acc); err != nil {
		t.Fatalf("CreateLocalAccount failed: %v", err)
	}
	if _, err := km.KeysFor(ctx, acc); err != nil {
		t.Fatalf("KeysFor failed: %v", err)
	}

	km.Forget(acc.Id)

	km.cacheMu.RLock()
	_, cached := km.cache[acc.Id]
	km.cacheMu.RUnlock()
	if cached {
		t.Error("Expected the key to be dropped from the cache")
	}
}
