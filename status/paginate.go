package status

import (
	"context"

	"github.com/deemkeen/anancus/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 40
)

// Page is the cursor contract exposed to API callers. All three cursors
// are entity ids, never offsets, so pages stay stable while the collection
// grows or shrinks elsewhere. MaxId/SinceId bound a descending page,
// MinId selects the page directly after a cursor in ascending order.
type Page struct {
	MaxId    int64
	SinceId  int64
	MinId    int64
	PageSize int
}

func (p Page) size() int {
	if p.PageSize <= 0 {
		return defaultPageSize
	}
	if p.PageSize > maxPageSize {
		return maxPageSize
	}
	return p.PageSize
}

// AccountStatuses returns one cursor page of the account's statuses,
// always presented newest first. With MinId the page is fetched ascending
// from the cursor and reversed before returning; without any cursor the
// newest page comes back.
func (s *Store) AccountStatuses(ctx context.Context, accountId int64, p Page) ([]domain.Status, error) {
	if p.MinId > 0 {
		ascending, err := s.db.StatusesAfter(ctx, accountId, p.size(), p.MinId)
		if err != nil {
			return nil, err
		}
		reverseStatuses(ascending)
		return ascending, nil
	}
	return s.db.StatusesBefore(ctx, accountId, p.size(), p.MaxId, p.SinceId)
}

func reverseStatuses(statuses []domain.Status) {
	for i, j := 0, len(statuses)-1; i < j; i, j = i+1, j-1 {
		statuses[i], statuses[j] = statuses[j], statuses[i]
	}
}
