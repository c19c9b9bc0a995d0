package status

import (
	"context"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
)

// Pins is the profile pin collection: a capped, ordered set of an
// account's own public or unlisted statuses.
type Pins struct {
	db      *db.DB
	maxPins int
}

func NewPins(database *db.DB, maxPins int) *Pins {
	return &Pins{db: database, maxPins: maxPins}
}

// Pin adds a status to its owner's pinned list. The status must belong to
// the account, be public or unlisted, not already be pinned, and the cap
// must not be reached.
func (p *Pins) Pin(ctx context.Context, accountId, statusId int64) error {
	st, err := p.db.ReadStatusById(ctx, statusId)
	if err != nil {
		return err
	}
	if st.AccountId != accountId {
		return domain.Validationf("cannot pin someone else's status")
	}
	if !st.Pinnable() {
		return domain.Validationf("only public or unlisted statuses can be pinned")
	}

	exists, err := p.db.PinExists(ctx, accountId, statusId)
	if err != nil {
		return err
	}
	if exists {
		return domain.Validationf("status %d is already pinned", statusId)
	}

	count, err := p.db.CountPins(ctx, accountId)
	if err != nil {
		return err
	}
	if count >= p.maxPins {
		return domain.Validationf("pin limit of %d reached", p.maxPins)
	}

	return p.db.CreatePin(ctx, accountId, statusId)
}

// Unpin removes the pin if present.
func (p *Pins) Unpin(ctx context.Context, accountId, statusId int64) error {
	deleted, err := p.db.DeletePin(ctx, accountId, statusId)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

// PinnedStatuses returns the account's pins, most recently pinned first.
func (p *Pins) PinnedStatuses(ctx context.Context, accountId int64) ([]domain.Status, error) {
	return p.db.ReadPinnedStatuses(ctx, accountId)
}
