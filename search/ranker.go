package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
)

// RankedAccount pairs a rehydrated account with its composite score
type RankedAccount struct {
	Account domain.Account
	Score   float64
}

// Ranker shapes account-search queries for the external engine and turns
// its hits back into ordered accounts.
type Ranker struct {
	db    *db.DB
	index AccountIndex
}

func NewRanker(database *db.DB, index AccountIndex) *Ranker {
	return &Ranker{db: database, index: index}
}

// SanitizeTerms strips characters that would corrupt the engine's query
// syntax: quotes, backslash, colon and question mark. This is an injection
// guard, not cosmetics.
func SanitizeTerms(terms string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '?', '\\', ':':
			return ' '
		}
		return r
	}, terms)
	return strings.Join(strings.Fields(replaced), " ")
}

// BuildQuery assembles the weighted multi-field match: display name
// heaviest, username next, domain lowest.
func BuildQuery(terms string) Query {
	return Query{
		Terms: SanitizeTerms(terms),
		Fields: []Field{
			{Name: "display_name", Weight: WeightDisplayName},
			{Name: "username", Weight: WeightUsername},
			{Name: "domain", Weight: WeightDomain},
		},
		Prefix: true,
	}
}

// AffinityScore is the composite ranking formula for viewer-aware search:
// one follow edge in either direction counts as one mutual connection.
func AffinityScore(mutualConnections int64, relevance float64) float64 {
	return float64(mutualConnections+1) * relevance
}

// Search returns accounts ranked purely by text relevance, engine order
// preserved. Suspended and deleted accounts never surface.
func (r *Ranker) Search(ctx context.Context, terms string, limit int) ([]RankedAccount, error) {
	query := BuildQuery(terms)
	if query.Terms == "" {
		return nil, nil
	}

	hits, err := r.index.QueryAccounts(ctx, query, limit)
	if err != nil {
		return nil, mapIndexError(err)
	}

	return r.rehydrate(ctx, hits)
}

// SearchWithAffinity reranks the relevance hits by social affinity to the
// viewer: (mutual connections + 1) * relevance, descending, engine order
// breaking ties.
func (r *Ranker) SearchWithAffinity(ctx context.Context, terms string, viewerId int64, limit int) ([]RankedAccount, error) {
	ranked, err := r.Search(ctx, terms, limit)
	if err != nil {
		return nil, err
	}

	for i := range ranked {
		mutuals, err := r.db.CountMutualFollowEdges(ctx, viewerId, ranked[i].Account.Id)
		if err != nil {
			return nil, err
		}
		ranked[i].Score = AffinityScore(mutuals, ranked[i].Score)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// rehydrate loads accounts for the hits, preserving engine order and
// dropping ids the store no longer knows.
func (r *Ranker) rehydrate(ctx context.Context, hits []Hit) ([]RankedAccount, error) {
	ids := make([]int64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.Id
	}

	accounts, err := r.db.ReadAccountsByIds(ctx, ids)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedAccount, 0, len(hits))
	for _, hit := range hits {
		acc, ok := accounts[hit.Id]
		if !ok || acc.Suspended || acc.DeletedAt != nil {
			continue
		}
		ranked = append(ranked, RankedAccount{Account: *acc, Score: hit.Score})
	}
	return ranked, nil
}

func mapIndexError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrQueryTimeout, err)
	}
	return err
}
