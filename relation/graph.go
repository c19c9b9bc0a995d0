package relation

import (
	"context"

	"github.com/deemkeen/anancus/account"
	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
)

// Graph owns the follow/block/mute/domain-block edges. Every mutation is
// idempotent and invalidates the exclusion cache for the touched accounts
// after the edge write commits, so a reader never sees an edge whose cache
// entry is still warm.
type Graph struct {
	db         *db.DB
	exclusions *ExclusionCache
}

func NewGraph(database *db.DB, exclusions *ExclusionCache) *Graph {
	return &Graph{db: database, exclusions: exclusions}
}

func (g *Graph) validateEdge(ctx context.Context, sourceId, targetId int64) error {
	if sourceId == targetId {
		return domain.ErrInvalidRelationship
	}
	for _, id := range []int64{sourceId, targetId} {
		exists, err := g.db.AccountExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrInvalidRelationship
		}
	}
	return nil
}

func (g *Graph) createEdge(ctx context.Context, kind domain.EdgeKind, sourceId, targetId int64) error {
	if err := g.validateEdge(ctx, sourceId, targetId); err != nil {
		return err
	}
	if _, err := g.db.CreateEdge(ctx, kind, sourceId, targetId); err != nil {
		return err
	}
	g.exclusions.Invalidate(sourceId, targetId)
	return nil
}

func (g *Graph) deleteEdge(ctx context.Context, kind domain.EdgeKind, sourceId, targetId int64) error {
	if sourceId == targetId {
		return domain.ErrInvalidRelationship
	}
	if _, err := g.db.DeleteEdge(ctx, kind, sourceId, targetId); err != nil {
		return err
	}
	g.exclusions.Invalidate(sourceId, targetId)
	return nil
}

func (g *Graph) Follow(ctx context.Context, sourceId, targetId int64) error {
	return g.createEdge(ctx, domain.EdgeFollow, sourceId, targetId)
}

func (g *Graph) Unfollow(ctx context.Context, sourceId, targetId int64) error {
	return g.deleteEdge(ctx, domain.EdgeFollow, sourceId, targetId)
}

// Block severs the relationship: the block edge and the removal of follow
// edges in both directions commit as one transaction, and the cache
// invalidation follows the commit.
func (g *Graph) Block(ctx context.Context, sourceId, targetId int64) error {
	if err := g.validateEdge(ctx, sourceId, targetId); err != nil {
		return err
	}
	if err := g.db.BlockAndSeverFollows(ctx, sourceId, targetId); err != nil {
		return err
	}
	g.exclusions.Invalidate(sourceId, targetId)
	return nil
}

func (g *Graph) Unblock(ctx context.Context, sourceId, targetId int64) error {
	return g.deleteEdge(ctx, domain.EdgeBlock, sourceId, targetId)
}

func (g *Graph) Mute(ctx context.Context, sourceId, targetId int64) error {
	return g.createEdge(ctx, domain.EdgeMute, sourceId, targetId)
}

func (g *Graph) Unmute(ctx context.Context, sourceId, targetId int64) error {
	return g.deleteEdge(ctx, domain.EdgeMute, sourceId, targetId)
}

func (g *Graph) BlockDomain(ctx context.Context, accountId int64, domainName string) error {
	normalized, err := account.NormalizeDomain(domainName)
	if err != nil {
		return err
	}
	exists, err := g.db.AccountExists(ctx, accountId)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrInvalidRelationship
	}
	if err := g.db.CreateDomainBlock(ctx, accountId, normalized); err != nil {
		return err
	}
	g.exclusions.Invalidate(accountId)
	return nil
}

func (g *Graph) UnblockDomain(ctx context.Context, accountId int64, domainName string) error {
	normalized, err := account.NormalizeDomain(domainName)
	if err != nil {
		return err
	}
	if err := g.db.DeleteDomainBlock(ctx, accountId, normalized); err != nil {
		return err
	}
	g.exclusions.Invalidate(accountId)
	return nil
}

// FirstDegreeFollowing returns the set of account ids the given account
// follows.
func (g *Graph) FirstDegreeFollowing(ctx context.Context, accountId int64) (map[int64]struct{}, error) {
	ids, err := g.db.FollowingIds(ctx, accountId)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (g *Graph) IsFollowing(ctx context.Context, sourceId, targetId int64) (bool, error) {
	return g.db.EdgeExists(ctx, domain.EdgeFollow, sourceId, targetId)
}
