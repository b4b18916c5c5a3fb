package core

import (
	"errors"

	"github.com/holiman/uint256"
)

// Principal is an opaque caller identity supplied by the execution
// environment. The engine never authenticates principals; it only uses them
// as map keys for commitments, ledger balances and transfer destinations.
type Principal string

// Bid is a single sealed bid: the commitment digest the bidder submitted
// during the bidding phase and the deposit escrowed alongside it. Once a bid
// is revealed its commitment is overwritten with the consumed sentinel so it
// can never be refunded twice.
type Bid struct {
	Commitment Commitment   `json:"commitment"`
	Deposit    *uint256.Int `json:"deposit"`
}

// Consumed reports whether this bid's commitment has already been processed
// by a reveal call.
func (b *Bid) Consumed() bool {
	return b.Commitment == ConsumedCommitment
}

// Phase is the auction's lifecycle position, derived from the clock and the
// ended flag rather than stored (the deadlines are the single source of
// truth).
type Phase int

const (
	PhaseBidding Phase = iota
	PhaseReveal
	PhaseSettleable
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseBidding:
		return "bidding"
	case PhaseReveal:
		return "reveal"
	case PhaseSettleable:
		return "settleable"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// PhaseAt derives the auction phase from the current time, the two
// deadlines, and whether settlement has happened.
func PhaseAt(now, biddingEnd, revealEnd uint64, ended bool) Phase {
	if ended {
		return PhaseEnded
	}
	switch {
	case now < biddingEnd:
		return PhaseBidding
	case now < revealEnd:
		return PhaseReveal
	default:
		return PhaseSettleable
	}
}

// BidDisposition describes what happened to one recorded bid during a
// reveal call.
type BidDisposition int

const (
	// BidForfeited: the revealed triple did not match the stored
	// commitment (or the commitment was already consumed). The deposit
	// stays in escrow with no refund path.
	BidForfeited BidDisposition = iota

	// BidRefunded: the commitment verified and the full deposit was
	// credited back to the revealer.
	BidRefunded

	// BidRetained: the commitment verified, the value became the new
	// highest bid, and the value portion of the deposit stays in escrow;
	// only the excess deposit was refunded.
	BidRetained
)

func (d BidDisposition) String() string {
	switch d {
	case BidForfeited:
		return "forfeited"
	case BidRefunded:
		return "refunded"
	case BidRetained:
		return "retained"
	default:
		return "unknown"
	}
}

// RevealOutcome reports the per-call results of a reveal: how much was
// refunded, what happened to each recorded bid (in original commitment
// order), and whether any revealed value became the new highest bid.
// Unverified commitments appear here as BidForfeited entries rather than as
// errors; the rest of the call still processes.
type RevealOutcome struct {
	Refunded     *uint256.Int     `json:"refunded"`
	Dispositions []BidDisposition `json:"dispositions"`
	NewHighest   bool             `json:"new_highest"`
}

// EventKind discriminates the observable auction events.
type EventKind string

const (
	EventHighestBidIncreased EventKind = "highest_bid_increased"
	EventAuctionEnded        EventKind = "auction_ended"
)

// Event is one entry in an auction's append-only event log. For
// highest-bid-increased events Actor is the new highest bidder; for
// auction-ended events Actor is the winner (empty when nobody revealed a
// valid bid).
type Event struct {
	Seq    uint64       `json:"seq"`
	Kind   EventKind    `json:"kind"`
	Actor  Principal    `json:"actor"`
	Amount *uint256.Int `json:"amount"`
	Time   uint64       `json:"time"`
}

// Error taxonomy. Callers match with errors.Is; operational failures are
// wrapped with call context.
var (
	// ErrPhaseViolation: the operation was invoked outside its permitted
	// time window. Recoverable; the caller may retry in the right phase.
	ErrPhaseViolation = errors.New("auction: operation invoked outside its permitted phase")

	// ErrLengthMismatch: the reveal arrays disagree with the recorded bid
	// count for the caller.
	ErrLengthMismatch = errors.New("auction: reveal arrays do not match recorded bid count")

	// ErrAlreadyEnded: a duplicate settlement attempt. No state change.
	ErrAlreadyEnded = errors.New("auction: already ended")

	// ErrTransferFailed: the escrow primitive could not move funds. The
	// undelivered amount is always preserved in the withdrawal ledger.
	ErrTransferFailed = errors.New("auction: escrow transfer failed")

	// ErrInvalidConfig: the auction configuration failed validation.
	ErrInvalidConfig = errors.New("auction: invalid configuration")

	// ErrBidTooLow: a transparent-auction bid does not beat the current
	// highest bid or the reserve price.
	ErrBidTooLow = errors.New("auction: bid does not exceed current highest")
)
