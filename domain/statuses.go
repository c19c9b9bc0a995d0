package domain

import (
	"fmt"
	"time"
)

const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// Status is a published post. Ids are monotonic, pagination cursors lean on
// that ordering.
type Status struct {
	Id         int64
	AccountId  int64
	Text       string
	Visibility string
	Sensitive  bool
	CreatedAt  time.Time
}

func (s *Status) PublicVisibility() bool {
	return s.Visibility == VisibilityPublic
}

// Pinnable reports whether the status may appear in its owner's pinned list
func (s *Status) Pinnable() bool {
	return s.Visibility == VisibilityPublic || s.Visibility == VisibilityUnlisted
}

func (s *Status) ToString() string {
	return fmt.Sprintf("\n\tId: %d \n\tAccountId: %d \n\tVisibility: %s \n\tCreatedAt: %s)", s.Id, s.AccountId, s.Visibility, s.CreatedAt)
}

// StatusPin marks a status as pinned to its owner's profile, at most one
// per (account, status) pair.
type StatusPin struct {
	Id        int64
	AccountId int64
	StatusId  int64
	CreatedAt time.Time
}

// SearchDocument is the projection handed to the external text index.
// Only publicly visible statuses produce one.
type SearchDocument struct {
	StatusId int64
	Text     string
}
