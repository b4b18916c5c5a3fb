package core

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Config holds the immutable parameters of a blind auction.
type Config struct {
	// ID identifies the auction instance. Generated when empty.
	ID string `json:"id"`

	// Beneficiary receives the winning bid amount at settlement.
	Beneficiary Principal `json:"beneficiary"`

	// BiddingEnd and RevealEnd are unix-second deadlines. Bidding runs
	// before BiddingEnd, reveal runs from BiddingEnd until RevealEnd,
	// settlement any time after RevealEnd.
	BiddingEnd uint64 `json:"bidding_end"`
	RevealEnd  uint64 `json:"reveal_end"`

	// ReservePrice, when non-nil and non-zero, is the minimum revealed
	// value that can become the highest bid. Bids below it still refund
	// in full; they just never win.
	ReservePrice *uint256.Int `json:"reserve_price,omitempty"`
}

func (c *Config) validate() error {
	if c.Beneficiary == "" {
		return fmt.Errorf("%w: beneficiary must not be empty", ErrInvalidConfig)
	}
	if c.BiddingEnd >= c.RevealEnd {
		return fmt.Errorf("%w: bidding deadline %d must precede reveal deadline %d",
			ErrInvalidConfig, c.BiddingEnd, c.RevealEnd)
	}
	return nil
}

// BlindAuction is the commit-reveal auction aggregate: the commitment
// store, the withdrawal ledger, the highest-bid record and the event log,
// all guarded by one mutex so every state-mutating operation runs to
// completion before the next begins.
//
// Financial invariant maintained across all operations:
//
//	TotalDeposited == TotalPaidOut + PendingTotal + retained
//
// where retained is the current highest bid while it is still held in
// escrow (it leaves via the beneficiary payout at settlement).
type BlindAuction struct {
	mu sync.Mutex

	id     string
	cfg    Config
	clock  Clock
	escrow EscrowTransfer

	// Flat append-only bid arena; perPrincipal holds each principal's
	// bid indices in commitment order, which reveal arrays must mirror.
	bids         []Bid
	perPrincipal map[Principal][]uint32

	highestBidder Principal
	highestBid    *uint256.Int
	ended         bool

	pending      map[Principal]*uint256.Int
	pendingTotal *uint256.Int

	totalDeposited *uint256.Int
	totalPaidOut   *uint256.Int

	events []Event
}

// NewBlindAuction validates the config and creates an auction ready for
// bidding. The clock and escrow dependencies are injected so tests can
// drive phases and simulate transfer failure deterministically.
func NewBlindAuction(cfg Config, clock Clock, escrow EscrowTransfer) (*BlindAuction, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
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

	log.Printf("INFO: Blind auction %s created (beneficiary=%s biddingEnd=%d revealEnd=%d)",
		cfg.ID, cfg.Beneficiary, cfg.BiddingEnd, cfg.RevealEnd)

	return &BlindAuction{
		id:             cfg.ID,
		cfg:            cfg,
		clock:          clock,
		escrow:         escrow,
		perPrincipal:   make(map[Principal][]uint32),
		highestBid:     uint256.NewInt(0),
		pending:        make(map[Principal]*uint256.Int),
		pendingTotal:   uint256.NewInt(0),
		totalDeposited: uint256.NewInt(0),
		totalPaidOut:   uint256.NewInt(0),
	}, nil
}

// Bid records a sealed commitment with its deposit. Only valid while the
// bidding phase is open. The deposit is considered in custody from this
// moment, whether or not the commitment is ever correctly revealed; an
// unrevealed or unverifiable commitment simply forfeits its refund path.
func (a *BlindAuction) Bid(p Principal, commitment Commitment, deposit *uint256.Int) error {
	if deposit == nil {
		deposit = uint256.NewInt(0)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if now >= a.cfg.BiddingEnd {
		return fmt.Errorf("%w: bid at t=%d, bidding closed at %d", ErrPhaseViolation, now, a.cfg.BiddingEnd)
	}

	idx := uint32(len(a.bids))
	a.bids = append(a.bids, Bid{Commitment: commitment, Deposit: deposit.Clone()})
	a.perPrincipal[p] = append(a.perPrincipal[p], idx)
	a.totalDeposited.Add(a.totalDeposited, deposit)
	return nil
}

// Reveal discloses the (value, fake, secret) triples behind all of a
// principal's commitments, in the order the commitments were recorded.
// The three arrays must each have length equal to the principal's recorded
// bid count.
//
// For each bid, a triple that fails verification is skipped with no refund
// and no state change (forfeiture). A verified triple refunds its full
// deposit, except that a genuine bid whose deposit covers its value and
// which becomes the new highest keeps the value amount in escrow. Every
// processed commitment is cleared to the consumed sentinel so a repeat
// reveal yields nothing.
//
// If the refund transfer fails, the reveal's state effects stand and the
// undelivered amount is credited to the principal's withdrawal-ledger
// entry; ErrTransferFailed is returned alongside the outcome.
func (a *BlindAuction) Reveal(p Principal, values []*uint256.Int, fakes []bool, secrets [][32]byte) (*RevealOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if now < a.cfg.BiddingEnd || now >= a.cfg.RevealEnd {
		return nil, fmt.Errorf("%w: reveal at t=%d, reveal window is [%d, %d)",
			ErrPhaseViolation, now, a.cfg.BiddingEnd, a.cfg.RevealEnd)
	}

	indices := a.perPrincipal[p]
	if len(values) != len(indices) || len(fakes) != len(indices) || len(secrets) != len(indices) {
		return nil, fmt.Errorf("%w: principal %q has %d recorded bids, got %d values, %d flags, %d secrets",
			ErrLengthMismatch, p, len(indices), len(values), len(fakes), len(secrets))
	}

	outcome := &RevealOutcome{
		Refunded:     uint256.NewInt(0),
		Dispositions: make([]BidDisposition, len(indices)),
	}

	for i, idx := range indices {
		bid := &a.bids[idx]
		value := values[i]
		if value == nil {
			value = uint256.NewInt(0)
		}

		// A consumed commitment can never match a recomputed digest,
		// so previously revealed bids fall through to forfeiture here.
		if bid.Commitment != SealBid(value, fakes[i], secrets[i]) {
			outcome.Dispositions[i] = BidForfeited
			continue
		}

		outcome.Refunded.Add(outcome.Refunded, bid.Deposit)
		outcome.Dispositions[i] = BidRefunded

		if !fakes[i] && bid.Deposit.Cmp(value) >= 0 && a.placeBid(p, value) {
			// The winning value stays in escrow; refund only the excess.
			outcome.Refunded.Sub(outcome.Refunded, value)
			outcome.Dispositions[i] = BidRetained
			outcome.NewHighest = true
		}

		bid.Commitment = ConsumedCommitment
	}

	if err := a.payOrCredit(p, outcome.Refunded); err != nil {
		return outcome, fmt.Errorf("reveal refund for %q: %w", p, err)
	}
	return outcome, nil
}

// placeBid is the tie-break: a revealed value becomes the new highest iff
// it strictly exceeds the current highest (ties go to the earlier bidder)
// and meets the reserve price. On acceptance the previous highest bidder's
// full prior amount moves to the withdrawal ledger. Caller holds the lock.
func (a *BlindAuction) placeBid(bidder Principal, value *uint256.Int) bool {
	if value.Cmp(a.highestBid) <= 0 || value.Cmp(a.cfg.ReservePrice) < 0 {
		return false
	}

	if a.highestBidder != "" {
		a.creditPending(a.highestBidder, a.highestBid)
	}
	a.highestBidder = bidder
	a.highestBid = value.Clone()
	a.appendEvent(EventHighestBidIncreased, bidder, a.highestBid)

	log.Printf("INFO: Auction %s new highest bid: %s by %s", a.id, value.Dec(), bidder)
	return true
}

// Withdraw drains the caller's withdrawal-ledger balance. The entry is
// zeroed before the transfer and restored in full if the transfer fails,
// so the owed amount is never lost. A zero balance is not an error; no
// transfer is attempted and zero is returned.
func (a *BlindAuction) Withdraw(p Principal) (*uint256.Int, error) {
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

// End settles the auction: marks it ended, emits the completion event and
// pays the highest bid to the beneficiary. Callable by anyone, exactly
// once, after the reveal deadline. If the payout transfer fails the
// auction stays ended and the amount is credited to the beneficiary's
// ledger entry, so at most one payout ever reaches the beneficiary.
func (a *BlindAuction) End() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ended {
		return ErrAlreadyEnded
	}
	now := a.clock.Now()
	if now < a.cfg.RevealEnd {
		return fmt.Errorf("%w: end at t=%d, reveal closes at %d", ErrPhaseViolation, now, a.cfg.RevealEnd)
	}

	a.ended = true
	a.appendEvent(EventAuctionEnded, a.highestBidder, a.highestBid)
	log.Printf("INFO: Auction %s ended: winner=%s amount=%s", a.id, a.highestBidder, a.highestBid.Dec())

	if err := a.payOrCredit(a.cfg.Beneficiary, a.highestBid); err != nil {
		return fmt.Errorf("beneficiary payout: %w", err)
	}
	return nil
}

// payOrCredit transfers amount to p, falling back to a withdrawal-ledger
// credit when the transfer fails so no funds are silently lost. Zero
// amounts are a no-op. Caller holds the lock.
func (a *BlindAuction) payOrCredit(p Principal, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := a.escrow.Transfer(p, amount); err != nil {
		a.creditPending(p, amount)
		log.Printf("ERROR: Auction %s transfer of %s to %s failed, credited to ledger: %v",
			a.id, amount.Dec(), p, err)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	a.totalPaidOut.Add(a.totalPaidOut, amount)
	return nil
}

func (a *BlindAuction) creditPending(p Principal, amount *uint256.Int) {
	cur, ok := a.pending[p]
	if !ok {
		cur = uint256.NewInt(0)
		a.pending[p] = cur
	}
	cur.Add(cur, amount)
	a.pendingTotal.Add(a.pendingTotal, amount)
}

func (a *BlindAuction) appendEvent(kind EventKind, actor Principal, amount *uint256.Int) {
	a.events = append(a.events, Event{
		Seq:    uint64(len(a.events)),
		Kind:   kind,
		Actor:  actor,
		Amount: amount.Clone(),
		Time:   a.clock.Now(),
	})
}

// Read-only surface. Queries take the same lock as mutations so readers
// never observe a half-applied operation, and are valid in any phase.

func (a *BlindAuction) ID() string             { return a.id }
func (a *BlindAuction) Beneficiary() Principal { return a.cfg.Beneficiary }
func (a *BlindAuction) BiddingEnd() uint64     { return a.cfg.BiddingEnd }
func (a *BlindAuction) RevealEnd() uint64      { return a.cfg.RevealEnd }

func (a *BlindAuction) Ended() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ended
}

func (a *BlindAuction) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return PhaseAt(a.clock.Now(), a.cfg.BiddingEnd, a.cfg.RevealEnd, a.ended)
}

func (a *BlindAuction) HighestBid() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBid.Clone()
}

func (a *BlindAuction) HighestBidder() Principal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBidder
}

// BidCount returns how many commitments a principal has recorded; a reveal
// call must supply exactly this many triples.
func (a *BlindAuction) BidCount(p Principal) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.perPrincipal[p])
}

// BidsOf returns copies of a principal's recorded bids in commitment order.
func (a *BlindAuction) BidsOf(p Principal) []Bid {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Bid, 0, len(a.perPrincipal[p]))
	for _, idx := range a.perPrincipal[p] {
		b := a.bids[idx]
		out = append(out, Bid{Commitment: b.Commitment, Deposit: b.Deposit.Clone()})
	}
	return out
}

// PendingReturn returns the withdrawal-ledger balance owed to a principal.
func (a *BlindAuction) PendingReturn(p Principal) *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	owed, ok := a.pending[p]
	if !ok {
		return uint256.NewInt(0)
	}
	return owed.Clone()
}

func (a *BlindAuction) PendingTotal() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pendingTotal.Clone()
}

func (a *BlindAuction) TotalDeposited() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalDeposited.Clone()
}

func (a *BlindAuction) TotalPaidOut() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalPaidOut.Clone()
}

// Events returns a snapshot of the event log in append order.
func (a *BlindAuction) Events() []Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Event, len(a.events))
	for i, e := range a.events {
		out[i] = e
		out[i].Amount = e.Amount.Clone()
	}
	return out
}
