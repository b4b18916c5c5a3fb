// Package registry tracks ownership of the deeds auctions settle over. It
// is a thin state holder: mint, look up, transfer and burn, plus a helper
// that hands the auctioned deed to the winner after settlement.
package registry

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/cloudx-io/blindauction/core"
)

var (
	ErrDeedNotFound = errors.New("registry: deed not found")
	ErrNotOwner     = errors.New("registry: caller does not own deed")
)

// DeedID identifies a registered deed.
type DeedID string

// Deed is one ownable item.
type Deed struct {
	ID          DeedID         `json:"id"`
	Owner       core.Principal `json:"owner"`
	Description string         `json:"description"`
}

// DeedRegistry is a mutex-guarded deed ownership map.
type DeedRegistry struct {
	mu    sync.Mutex
	deeds map[DeedID]Deed
}

func NewDeedRegistry() *DeedRegistry {
	return &DeedRegistry{deeds: make(map[DeedID]Deed)}
}

// Mint registers a new deed owned by the given principal.
func (r *DeedRegistry) Mint(owner core.Principal, description string) Deed {
	r.mu.Lock()
	defer r.mu.Unlock()

	deed := Deed{
		ID:          DeedID(uuid.NewString()),
		Owner:       owner,
		Description: description,
	}
	r.deeds[deed.ID] = deed
	log.Printf("INFO: Deed %s minted for %s", deed.ID, owner)
	return deed
}

// OwnerOf returns the current owner of a deed.
func (r *DeedRegistry) OwnerOf(id DeedID) (core.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deed, ok := r.deeds[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrDeedNotFound, id)
	}
	return deed.Owner, nil
}

// Transfer moves a deed from its current owner to another principal. The
// from principal must be the current owner.
func (r *DeedRegistry) Transfer(id DeedID, from, to core.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deed, ok := r.deeds[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeedNotFound, id)
	}
	if deed.Owner != from {
		return fmt.Errorf("%w: %s is owned by %s, not %s", ErrNotOwner, id, deed.Owner, from)
	}

	deed.Owner = to
	r.deeds[id] = deed
	log.Printf("INFO: Deed %s transferred from %s to %s", id, from, to)
	return nil
}

// Burn removes a deed. Only the owner may burn.
func (r *DeedRegistry) Burn(id DeedID, owner core.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deed, ok := r.deeds[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeedNotFound, id)
	}
	if deed.Owner != owner {
		return fmt.Errorf("%w: %s is owned by %s, not %s", ErrNotOwner, id, deed.Owner, owner)
	}

	delete(r.deeds, id)
	log.Printf("INFO: Deed %s burned by %s", id, owner)
	return nil
}

// AwardDeed transfers the auctioned deed from the seller to the auction
// winner after settlement. An auction with no winner leaves the deed with
// the seller.
func AwardDeed(r *DeedRegistry, id DeedID, seller core.Principal, a *core.BlindAuction) error {
	if !a.Ended() {
		return fmt.Errorf("registry: auction %s is not settled", a.ID())
	}

	winner := a.HighestBidder()
	if winner == "" {
		log.Printf("INFO: Auction %s had no winner, deed %s stays with %s", a.ID(), id, seller)
		return nil
	}
	return r.Transfer(id, seller, winner)
}
