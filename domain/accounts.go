package domain

import (
	"fmt"
	"time"
)

// Account is the canonical identity record. Domain is empty for accounts
// authoritative on this node; those carry a private signing key. Remote
// accounts are mirrors refreshed via the federation resolver.
type Account struct {
	Id             int64
	Username       string
	Domain         string
	URI            string
	PublicKey      string
	PrivateKey     string
	DisplayName    string
	Note           string
	StatusesCount  int64
	FollowersCount int64
	FollowingCount int64
	Silenced       bool
	Suspended      bool
	Locked         bool
	LastResolvedAt *time.Time
	CreatedAt      time.Time
	DeletedAt      *time.Time
}

func (acc *Account) Local() bool {
	return acc.Domain == ""
}

// Acct returns the webfinger-style handle, username for locals,
// username@domain for remotes.
func (acc *Account) Acct() string {
	if acc.Local() {
		return acc.Username
	}
	return fmt.Sprintf("%s@%s", acc.Username, acc.Domain)
}

func (acc *Account) ToString() string {
	return fmt.Sprintf("\n\tId: %d \n\tAcct: %s \n\tURI: %s \n\tCreatedAt: %s)", acc.Id, acc.Acct(), acc.URI, acc.CreatedAt)
}

// RemoteAttrs carries the fields a federation resolver hands back for an
// acct:user@domain lookup. The resolver itself lives outside this core.
type RemoteAttrs struct {
	URI         string
	PublicKey   string
	DisplayName string
	Note        string
	Silenced    bool
	Suspended   bool
	Locked      bool
}
