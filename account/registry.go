package account

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
	"github.com/deemkeen/anancus/util"
)

// Remote mirrors older than this should be refreshed through the resolver
const staleAfter = 24 * time.Hour

// Resolver is the federation lookup contract. Given an acct:user@domain
// identifier it fetches current attributes; the network part lives outside
// this core.
type Resolver interface {
	Resolve(ctx context.Context, acct string) (domain.RemoteAttrs, error)
}

// Registry is the canonical account store front: local registration,
// remote mirroring and staleness signaling.
type Registry struct {
	db   *db.DB
	conf *util.AppConfig
	keys *KeyManager
}

func NewRegistry(database *db.DB, conf *util.AppConfig, keys *KeyManager) *Registry {
	return &Registry{db: database, conf: conf, keys: keys}
}

// CreateLocal registers a local account. The signing keypair is generated
// synchronously; a key generation failure aborts the whole creation since
// a local identity cannot exist without signing keys.
func (r *Registry) CreateLocal(ctx context.Context, username, displayName, note string) (*domain.Account, error) {
	if err := ValidateLocalUsername(username); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	note = strings.TrimSpace(note)
	if err := ValidateLocalProfile(displayName, note); err != nil {
		return nil, err
	}

	taken, err := r.db.LocalUsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.Validationf("username %s is already taken", username)
	}

	pair, err := util.GeneratePemKeypair(r.conf.KeyBits())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyGeneration, err)
	}

	acc := &domain.Account{
		Username:    username,
		DisplayName: displayName,
		Note:        note,
		URI:         fmt.Sprintf("https://%s/users/%s", r.conf.Conf.LocalDomain, username),
		PublicKey:   pair.Public,
		PrivateKey:  pair.Private,
	}
	if err := r.db.CreateLocalAccount(ctx, acc); err != nil {
		return nil, err
	}
	log.Printf("Created local account %s (id %d)", acc.Username, acc.Id)
	return acc, nil
}

// ResolveLocal finds a local account by exact case-insensitive username.
// Soft-deleted accounts resolve as not found.
func (r *Registry) ResolveLocal(ctx context.Context, username string) (*domain.Account, error) {
	return r.db.ReadLocalAccountByUsername(ctx, username)
}

func (r *Registry) ResolveById(ctx context.Context, id int64) (*domain.Account, error) {
	return r.db.ReadAccountById(ctx, id)
}

// UpsertRemote creates or refreshes the mirror of a remote identity. The
// domain is normalized before storage so EXAMPLE.com. and example.com land
// on the same row.
func (r *Registry) UpsertRemote(ctx context.Context, username, domainName string, attrs domain.RemoteAttrs) (*domain.Account, error) {
	if username == "" {
		return nil, domain.Validationf("remote username is empty")
	}
	normalized, err := NormalizeDomain(domainName)
	if err != nil {
		return nil, err
	}
	return r.db.UpsertRemoteAccount(ctx, username, normalized, attrs)
}

// IsStale reports whether the mirror should be refreshed. Local accounts
// are authoritative here and never stale.
func (r *Registry) IsStale(acc *domain.Account) bool {
	if acc.Local() {
		return false
	}
	return acc.LastResolvedAt == nil || time.Since(*acc.LastResolvedAt) > staleAfter
}

// Refresh pulls current attributes through the resolver and feeds them back
// via UpsertRemote. The external scheduler drives this; the registry never
// starts timers of its own.
func (r *Registry) Refresh(ctx context.Context, acc *domain.Account, resolver Resolver) (*domain.Account, error) {
	if acc.Local() {
		return acc, nil
	}
	attrs, err := resolver.Resolve(ctx, acc.Acct())
	if err != nil {
		// A mirror past the freshness threshold that cannot be resolved is
		// flagged, callers decide whether to keep serving the stale copy
		if r.IsStale(acc) {
			return nil, fmt.Errorf("%w: resolving %s: %v", domain.ErrStaleIdentity, acc.Acct(), err)
		}
		return nil, fmt.Errorf("resolving %s: %w", acc.Acct(), err)
	}
	return r.UpsertRemote(ctx, acc.Username, acc.Domain, attrs)
}

// UpdateProfile changes a local account's display name and note, applying
// the local length limits.
func (r *Registry) UpdateProfile(ctx context.Context, acc *domain.Account, displayName, note string) error {
	if !acc.Local() {
		return domain.Validationf("cannot edit the profile of a remote mirror")
	}
	displayName = strings.TrimSpace(displayName)
	note = strings.TrimSpace(note)
	if err := ValidateLocalProfile(displayName, note); err != nil {
		return err
	}
	if err := r.db.UpdateLocalProfile(ctx, acc.Id, displayName, note); err != nil {
		return err
	}
	acc.DisplayName = displayName
	acc.Note = note
	return nil
}

// Delete destroys the account and everything it owns. Edges, pins and
// statuses cascade in the store.
func (r *Registry) Delete(ctx context.Context, acc *domain.Account) error {
	if err := r.db.DeleteAccount(ctx, acc.Id); err != nil {
		return err
	}
	if r.keys != nil {
		r.keys.Forget(acc.Id)
	}
	log.Printf("Deleted account %s (id %d)", acc.Acct(), acc.Id)
	return nil
}
