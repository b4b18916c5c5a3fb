package core

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// SimpleConfig holds the parameters of a transparent auction.
type SimpleConfig struct {
	ID           string       `json:"id"`
	Beneficiary  Principal    `json:"beneficiary"`
	AuctionEnd   uint64       `json:"auction_end"`
	ReservePrice *uint256.Int `json:"reserve_price,omitempty"`
}

// SimpleAuction is the non-blinded variant: bids are placed in the open
// with no commitment step, each new bid must strictly exceed the current
// highest, and outbid amounts move to a withdrawal ledger. It shares the
// blind auction's serialization, ledger and settlement semantics but has
// no reveal phase.
type SimpleAuction struct {
	mu sync.Mutex

	id     string
	cfg    SimpleConfig
	clock  Clock
	escrow EscrowTransfer

	highestBidder Principal
	highestBid    *uint256.Int
	ended         bool

	pending      map[Principal]*uint256.Int
	pendingTotal *uint256.Int

	totalDeposited *uint256.Int
	totalPaidOut   *uint256.Int

	events []Event
}

func NewSimpleAuction(cfg SimpleConfig, clock Clock, escrow EscrowTransfer) (*SimpleAuction, error) {
	if cfg.Beneficiary == "" {
		return nil, fmt.Errorf("%w: beneficiary must not be empty", ErrInvalidConfig)
	}
	if clock == nil || escrow == nil {
		return nil, fmt.Errorf("%w: clock and escrow are required", ErrInvalidConfig)
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.ReservePrice == nil {
		cfg.ReservePrice = uint256.NewInt(0)
	} else {
		cfg.ReservePrice = cfg.ReservePrice.Clone()
	}

	log.Printf("INFO: Simple auction %s created (beneficiary=%s auctionEnd=%d)",
		cfg.ID, cfg.Beneficiary, cfg.AuctionEnd)

	return &SimpleAuction{
		id:             cfg.ID,
		cfg:            cfg,
		clock:          clock,
		escrow:         escrow,
		highestBid:     uint256.NewInt(0),
		pending:        make(map[Principal]*uint256.Int),
		pendingTotal:   uint256.NewInt(0),
		totalDeposited: uint256.NewInt(0),
		totalPaidOut:   uint256.NewInt(0),
	}, nil
}

// Bid places an open bid. The amount is taken into custody at call time
// and must strictly exceed both the current highest bid and the reserve
// price, else the bid is rejected with ErrBidTooLow before any custody
// change. The outbid principal's full amount moves to the withdrawal
// ledger.
func (a *SimpleAuction) Bid(p Principal, amount *uint256.Int) error {
	if amount == nil {
		amount = uint256.NewInt(0)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if now >= a.cfg.AuctionEnd {
		return fmt.Errorf("%w: bid at t=%d, auction closed at %d", ErrPhaseViolation, now, a.cfg.AuctionEnd)
	}
	if amount.Cmp(a.highestBid) <= 0 || amount.Cmp(a.cfg.ReservePrice) < 0 {
		return fmt.Errorf("%w: %s does not beat current highest %s", ErrBidTooLow,
			amount.Dec(), a.highestBid.Dec())
	}

	a.totalDeposited.Add(a.totalDeposited, amount)
	if a.highestBidder != "" {
		a.creditPending(a.highestBidder, a.highestBid)
	}
	a.highestBidder = p
	a.highestBid = amount.Clone()
	a.appendEvent(EventHighestBidIncreased, p, a.highestBid)

	log.Printf("INFO: Auction %s new highest bid: %s by %s", a.id, amount.Dec(), p)
	return nil
}

// Withdraw drains the caller's withdrawal-ledger balance, restoring the
// entry if the transfer fails.
func (a *SimpleAuction) Withdraw(p Principal) (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	owed, ok := a.pending[p]
	if !ok || owed.IsZero() {
		return uint256.NewInt(0), nil
	}

	amount := owed.Clone()
	delete(a.pending, p)
	a.pendingTotal.Sub(a.pendingTotal, amount)

	if err := a.escrow.Transfer(p, amount); err != nil {
		a.creditPending(p, amount)
		log.Printf("ERROR: Auction %s withdraw transfer to %s failed: %v", a.id, p, err)
		return uint256.NewInt(0), fmt.Errorf("withdraw for %q: %w: %v", p, ErrTransferFailed, err)
	}
	a.totalPaidOut.Add(a.totalPaidOut, amount)
	return amount, nil
}

// End settles the auction once, after the deadline, paying the highest bid
// to the beneficiary. A failed payout leaves the auction ended and credits
// the beneficiary's ledger entry instead.
func (a *SimpleAuction) End() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ended {
		return ErrAlreadyEnded
	}
	now := a.clock.Now()
	if now < a.cfg.AuctionEnd {
		return fmt.Errorf("%w: end at t=%d, auction closes at %d", ErrPhaseViolation, now, a.cfg.AuctionEnd)
	}

	a.ended = true
	a.appendEvent(EventAuctionEnded, a.highestBidder, a.highestBid)
	log.Printf("INFO: Auction %s ended: winner=%s amount=%s", a.id, a.highestBidder, a.highestBid.Dec())

	if a.highestBid.IsZero() {
		return nil
	}
	if err := a.escrow.Transfer(a.cfg.Beneficiary, a.highestBid); err != nil {
		a.creditPending(a.cfg.Beneficiary, a.highestBid)
		log.Printf("ERROR: Auction %s beneficiary payout failed, credited to ledger: %v", a.id, err)
		return fmt.Errorf("beneficiary payout: %w: %v", ErrTransferFailed, err)
	}
	a.totalPaidOut.Add(a.totalPaidOut, a.highestBid)
	return nil
}

func (a *SimpleAuction) creditPending(p Principal, amount *uint256.Int) {
	cur, ok := a.pending[p]
	if !ok {
		cur = uint256.NewInt(0)
		a.pending[p] = cur
	}
	cur.Add(cur, amount)
	a.pendingTotal.Add(a.pendingTotal, amount)
}

func (a *SimpleAuction) appendEvent(kind EventKind, actor Principal, amount *uint256.Int) {
	a.events = append(a.events, Event{
		Seq:    uint64(len(a.events)),
		Kind:   kind,
		Actor:  actor,
		Amount: amount.Clone(),
		Time:   a.clock.Now(),
	})
}

func (a *SimpleAuction) ID() string             { return a.id }
func (a *SimpleAuction) Beneficiary() Principal { return a.cfg.Beneficiary }
func (a *SimpleAuction) AuctionEnd() uint64     { return a.cfg.AuctionEnd }

func (a *SimpleAuction) Ended() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ended
}

func (a *SimpleAuction) HighestBid() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBid.Clone()
}

func (a *SimpleAuction) HighestBidder() Principal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBidder
}

func (a *SimpleAuction) PendingReturn(p Principal) *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	owed, ok := a.pending[p]
	if !ok {
		return uint256.NewInt(0)
	}
	return owed.Clone()
}

func (a *SimpleAuction) PendingTotal() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pendingTotal.Clone()
}

func (a *SimpleAuction) TotalDeposited() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalDeposited.Clone()
}

func (a *SimpleAuction) TotalPaidOut() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalPaidOut.Clone()
}

func (a *SimpleAuction) Events() []Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Event, len(a.events))
	for i, e := range a.events {
		out[i] = e
		out[i].Amount = e.Amount.Clone()
	}
	return out
}
