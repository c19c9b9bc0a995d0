package search

import (
	"context"
	"sort"
	"strings"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
)

// LocalIndex is the built-in engine used when no external text-search
// service is configured. Candidate matching runs in SQLite, weighted
// scoring in process. It serves both sides of the engine contract.
type LocalIndex struct {
	db *db.DB
}

func NewLocalIndex(database *db.DB) *LocalIndex {
	return &LocalIndex{db: database}
}

func (idx *LocalIndex) QueryAccounts(ctx context.Context, q Query, limit int) ([]Hit, error) {
	terms := strings.Fields(strings.ToLower(q.Terms))
	if len(terms) == 0 {
		return nil, nil
	}

	// Overfetch so scoring decides the cut, not the candidate query.
	candidates, err := idx.db.MatchAccounts(ctx, terms, limit*4)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(candidates))
	for _, acc := range candidates {
		score := scoreAccount(acc, terms, q)
		if score > 0 {
			hits = append(hits, Hit{Id: acc.Id, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Id > hits[j].Id
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// scoreAccount sums field weights over all matching terms. A prefix match
// earns the full field weight, an inner match half of it.
func scoreAccount(acc domain.Account, terms []string, q Query) float64 {
	var score float64
	for _, field := range q.Fields {
		value := strings.ToLower(fieldValue(acc, field.Name))
		if value == "" {
			continue
		}
		for _, term := range terms {
			switch {
			case q.Prefix && strings.HasPrefix(value, term):
				score += field.Weight
			case strings.Contains(value, term):
				score += field.Weight / 2
			}
		}
	}
	return score
}

func fieldValue(acc domain.Account, name string) string {
	switch name {
	case "display_name":
		return acc.DisplayName
	case "username":
		return acc.Username
	case "domain":
		return acc.Domain
	}
	return ""
}

func (idx *LocalIndex) IndexStatus(ctx context.Context, doc domain.SearchDocument) error {
	return idx.db.UpsertSearchDocument(ctx, doc)
}

func (idx *LocalIndex) DeleteStatus(ctx context.Context, statusId int64) error {
	return idx.db.DeleteSearchDocument(ctx, statusId)
}
