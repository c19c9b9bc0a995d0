package status

import (
	"context"
	"log"
	"strings"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
	"github.com/deemkeen/anancus/search"
)

const maxStatusLen = 500

// Store fronts the status table and keeps the external search index
// projection in step: publicly visible statuses get a document on publish,
// removed statuses lose it.
type Store struct {
	db    *db.DB
	index search.StatusIndex
}

func NewStore(database *db.DB, index search.StatusIndex) *Store {
	return &Store{db: database, index: index}
}

// Publish stores a new status for the account and, for public visibility,
// projects it into the search index after the write commits.
func (s *Store) Publish(ctx context.Context, accountId int64, text, visibility string, sensitive bool) (*domain.Status, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.Validationf("status text is empty")
	}
	if len([]rune(text)) > maxStatusLen {
		return nil, domain.Validationf("status longer than %d characters", maxStatusLen)
	}
	switch visibility {
	case domain.VisibilityPublic, domain.VisibilityUnlisted, domain.VisibilityPrivate:
	default:
		return nil, domain.Validationf("unknown visibility %q", visibility)
	}

	exists, err := s.db.AccountExists(ctx, accountId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	st := &domain.Status{
		AccountId:  accountId,
		Text:       text,
		Visibility: visibility,
		Sensitive:  sensitive,
	}
	if err := s.db.CreateStatus(ctx, st); err != nil {
		return nil, err
	}

	if s.index != nil && st.PublicVisibility() {
		doc := domain.SearchDocument{StatusId: st.Id, Text: st.Text}
		if err := s.index.IndexStatus(ctx, doc); err != nil {
			// The status is committed either way, the index catches up on
			// the next reindex
			log.Printf("Warning: indexing status %d failed: %v", st.Id, err)
		}
	}
	return st, nil
}

// Remove deletes a status together with its pins and search document.
func (s *Store) Remove(ctx context.Context, statusId int64) error {
	deleted, err := s.db.DeleteStatus(ctx, statusId)
	if err != nil {
		return err
	}

	if s.index != nil && deleted.PublicVisibility() {
		if err := s.index.DeleteStatus(ctx, statusId); err != nil {
			log.Printf("Warning: removing status %d from index failed: %v", statusId, err)
		}
	}
	return nil
}

func (s *Store) ById(ctx context.Context, statusId int64) (*domain.Status, error) {
	return s.db.ReadStatusById(ctx, statusId)
}
