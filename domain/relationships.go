package domain

import (
	"github.com/google/uuid"
	"time"
)

// EdgeKind discriminates relationship edge tables
type EdgeKind string

const (
	EdgeFollow EdgeKind = "follow"
	EdgeBlock  EdgeKind = "block"
	EdgeMute   EdgeKind = "mute"
)

// Edge is a directed relationship row between two accounts
type Edge struct {
	Id              uuid.UUID
	AccountId       int64
	TargetAccountId int64
	Kind            EdgeKind
	CreatedAt       time.Time
}

// DomainBlock hides a whole remote domain from one account's view
type DomainBlock struct {
	Id        uuid.UUID
	AccountId int64
	Domain    string
	CreatedAt time.Time
}

// ExclusionSet is the derived per-viewer visibility filter. It is cache-only
// state, always reconstructible from the edge tables.
type ExclusionSet struct {
	BlockedOrBlockingIds map[int64]struct{}
	MutedIds             map[int64]struct{}
	BlockedDomains       map[string]struct{}
}

func NewExclusionSet() *ExclusionSet {
	return &ExclusionSet{
		BlockedOrBlockingIds: make(map[int64]struct{}),
		MutedIds:             make(map[int64]struct{}),
		BlockedDomains:       make(map[string]struct{}),
	}
}

// Excludes reports whether content authored by the given account should be
// hidden from the set's owner.
func (e *ExclusionSet) Excludes(accountId int64) bool {
	if _, ok := e.BlockedOrBlockingIds[accountId]; ok {
		return true
	}
	_, ok := e.MutedIds[accountId]
	return ok
}

func (e *ExclusionSet) ExcludesDomain(domain string) bool {
	if domain == "" {
		return false
	}
	_, ok := e.BlockedDomains[domain]
	return ok
}

// Domains returns the blocked domain names
func (e *ExclusionSet) Domains() []string {
	domains := make([]string, 0, len(e.BlockedDomains))
	for d := range e.BlockedDomains {
		domains = append(domains, d)
	}
	return domains
}

// AccountIds returns every excluded account id, blocked and muted combined
func (e *ExclusionSet) AccountIds() []int64 {
	ids := make([]int64, 0, len(e.BlockedOrBlockingIds)+len(e.MutedIds))
	for id := range e.BlockedOrBlockingIds {
		ids = append(ids, id)
	}
	for id := range e.MutedIds {
		if _, seen := e.BlockedOrBlockingIds[id]; !seen {
			ids = append(ids, id)
		}
	}
	return ids
}
