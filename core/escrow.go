package core

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

// EscrowTransfer is the abstract payment primitive the engine uses to move
// funds out of custody: refunds, ledger withdrawals and the beneficiary
// payout. Implementations report failure with an error; the engine
// guarantees that a failed transfer never loses funds (the amount is
// preserved in the withdrawal ledger instead).
//
// Deposits flow the other way: the environment takes a bid's deposit into
// custody at commitment time, before the engine is invoked, so only
// outbound movement appears here.
type EscrowTransfer interface {
	Transfer(to Principal, amount *uint256.Int) error
}

// MemoryEscrow is an in-memory EscrowTransfer that records cumulative
// credits per principal. It never fails; tests that need failure inject
// their own implementation.
type MemoryEscrow struct {
	mu      sync.Mutex
	credits map[Principal]*uint256.Int
}

func NewMemoryEscrow() *MemoryEscrow {
	return &MemoryEscrow{credits: make(map[Principal]*uint256.Int)}
}

func (e *MemoryEscrow) Transfer(to Principal, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("escrow: nil amount in transfer to %q", to)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.credits[to]
	if !ok {
		cur = uint256.NewInt(0)
		e.credits[to] = cur
	}
	cur.Add(cur, amount)
	return nil
}

// CreditOf returns the total amount transferred to a principal so far.
func (e *MemoryEscrow) CreditOf(p Principal) *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.credits[p]
	if !ok {
		return uint256.NewInt(0)
	}
	return cur.Clone()
}

// TotalTransferred returns the sum of all credits across principals.
func (e *MemoryEscrow) TotalTransferred() *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := uint256.NewInt(0)
	for _, c := range e.credits {
		total.Add(total, c)
	}
	return total
}
