package account

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
	"github.com/deemkeen/anancus/util"
)

// KeyManager provisions and memoizes the signing keypair of local accounts.
// Generation is CPU bound, so each account has its own lock: provisioning
// one account never stalls key lookups for any other.
type KeyManager struct {
	db   *db.DB
	conf *util.AppConfig

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	cacheMu sync.RWMutex
	cache   map[int64]*rsa.PrivateKey
}

func NewKeyManager(database *db.DB, conf *util.AppConfig) *KeyManager {
	return &KeyManager{
		db:    database,
		conf:  conf,
		locks: make(map[int64]*sync.Mutex),
		cache: make(map[int64]*rsa.PrivateKey),
	}
}

func (km *KeyManager) accountLock(id int64) *sync.Mutex {
	km.mu.Lock()
	defer km.mu.Unlock()
	l, ok := km.locks[id]
	if !ok {
		l = &sync.Mutex{}
		km.locks[id] = l
	}
	return l
}

// KeysFor returns the account's signing key, generating and persisting a
// keypair on first use. Idempotent: repeat calls return the memoized key.
func (km *KeyManager) KeysFor(ctx context.Context, acc *domain.Account) (*rsa.PrivateKey, error) {
	if !acc.Local() {
		return nil, domain.Validationf("remote account %s has no signing keys", acc.Acct())
	}

	km.cacheMu.RLock()
	cached, ok := km.cache[acc.Id]
	km.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	lock := km.accountLock(acc.Id)
	lock.Lock()
	defer lock.Unlock()

	// Lost the race to another provisioning call
	km.cacheMu.RLock()
	cached, ok = km.cache[acc.Id]
	km.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	pemString := acc.PrivateKey
	if pemString == "" {
		current, err := km.db.ReadAccountById(ctx, acc.Id)
		if err != nil {
			return nil, err
		}
		pemString = current.PrivateKey
	}

	if pemString == "" {
		pair, err := util.GeneratePemKeypair(km.conf.KeyBits())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrKeyGeneration, err)
		}
		if err := km.db.UpdateAccountKeys(ctx, acc.Id, pair.Public, pair.Private); err != nil {
			return nil, err
		}
		acc.PublicKey = pair.Public
		acc.PrivateKey = pair.Private
		pemString = pair.Private
	}

	key, err := util.ParsePrivateKey(pemString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyGeneration, err)
	}

	km.cacheMu.Lock()
	km.cache[acc.Id] = key
	km.cacheMu.Unlock()
	return key, nil
}

// Forget drops the memoized key, used when an account is destroyed.
func (km *KeyManager) Forget(id int64) {
	km.cacheMu.Lock()
	delete(km.cache, id)
	km.cacheMu.Unlock()
	km.mu.Lock()
	delete(km.locks, id)
	km.mu.Unlock()
}
