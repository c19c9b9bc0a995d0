package suggest

import (
	"context"
	"time"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
	"github.com/deemkeen/anancus/relation"
)

// Candidates must have published within this window
const activeWindow = 3 * 24 * time.Hour

// Engine produces "people you may know" suggestions by triadic closure:
// accounts followed by the accounts you follow, strongest shared following
// first.
type Engine struct {
	db         *db.DB
	exclusions *relation.ExclusionCache
}

func NewEngine(database *db.DB, exclusions *relation.ExclusionCache) *Engine {
	return &Engine{db: database, exclusions: exclusions}
}

// Suggest returns up to limit candidate accounts for the viewer, skipping
// everyone in the viewer's exclusion set and in excludeIds. The exclusions,
// blocked domains included, are part of the candidate queries so a page is
// filled from eligible accounts only. When the triadic pass cannot fill the
// page, a second pass backfills with recently active accounts under the
// same filters.
func (e *Engine) Suggest(ctx context.Context, accountId int64, limit, offset int, excludeIds []int64) ([]domain.Account, error) {
	if limit <= 0 {
		return nil, nil
	}

	set, err := e.exclusions.ExclusionsFor(ctx, accountId)
	if err != nil {
		return nil, err
	}
	excluded := append(set.AccountIds(), excludeIds...)
	excludedDomains := set.Domains()

	activeSince := time.Now().Add(-activeWindow)
	suggestions, err := e.db.TriadicClosures(ctx, accountId, limit, offset, excluded, excludedDomains, activeSince)
	if err != nil {
		return nil, err
	}

	if len(suggestions) < limit {
		backfill, err := e.backfill(ctx, accountId, limit-len(suggestions), excluded, excludedDomains, suggestions, activeSince)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, backfill...)
	}
	return suggestions, nil
}

// backfill fills the remainder of an underfull page with recently active
// accounts the viewer neither follows nor excluded, newest activity first.
func (e *Engine) backfill(ctx context.Context, accountId int64, want int, excluded []int64, excludedDomains []string, already []domain.Account, activeSince time.Time) ([]domain.Account, error) {
	following, err := e.db.FollowingIds(ctx, accountId)
	if err != nil {
		return nil, err
	}

	skip := make([]int64, 0, len(excluded)+len(already)+len(following)+1)
	skip = append(skip, excluded...)
	skip = append(skip, following...)
	skip = append(skip, accountId)
	for _, acc := range already {
		skip = append(skip, acc.Id)
	}

	return e.db.RecentlyActiveAccounts(ctx, want, skip, excludedDomains, activeSince)
}
