package search

import (
	"context"

	"github.com/deemkeen/anancus/domain"
)

// Field weights, mirroring the A/B/C tiers of the account index
const (
	WeightDisplayName = 1.0
	WeightUsername    = 0.4
	WeightDomain      = 0.2
)

// Field is one weighted match target of a query
type Field struct {
	Name   string
	Weight float64
}

// Query is the structured payload handed to the external text-search
// engine: sanitized terms matched against weighted fields with prefix
// semantics.
type Query struct {
	Terms  string
	Fields []Field
	Prefix bool
}

// Hit is one engine result, an entity id with its relevance score.
// Order is engine-provided and preserved.
type Hit struct {
	Id    int64
	Score float64
}

// AccountIndex is the query side of the external engine contract.
type AccountIndex interface {
	QueryAccounts(ctx context.Context, q Query, limit int) ([]Hit, error)
}

// StatusIndex receives the projection of publicly visible statuses.
// Documents are created on publish commit and deleted on removal; the
// engine itself lives outside this core.
type StatusIndex interface {
	IndexStatus(ctx context.Context, doc domain.SearchDocument) error
	DeleteStatus(ctx context.Context, statusId int64) error
}
