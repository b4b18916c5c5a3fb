// Package receipt materializes auction settlement as signed, offline
// verifiable documents: the engine's completion record is encoded with
// canonical CBOR, bound to a digest of the full event log, and signed as a
// COSE_Sign1 message.
package receipt

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/blindauction/core"
)

// encMode is the canonical (core deterministic) CBOR encoder. Both the
// event-trail digest and the signed payload use it, so producer and
// auditor always agree byte-for-byte.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("receipt: cbor encoder init: %v", err))
	}
	encMode = em
}

// EncodeEventTrail canonically encodes an event trail.
func EncodeEventTrail(records []EventRecord) ([]byte, error) {
	if records == nil {
		records = []EventRecord{}
	}
	encoded, err := encMode.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode event trail: %w", err)
	}
	return encoded, nil
}

// DigestEventTrail computes the digest a receipt carries for its event log.
func DigestEventTrail(records []EventRecord) ([32]byte, error) {
	encoded, err := EncodeEventTrail(records)
	if err != nil {
		return [32]byte{}, err
	}
	return core.DigestEvents(encoded), nil
}

// BuildSettlementReceipt assembles the completion record for a settled
// auction. The auction must be ended; receipts for in-flight auctions
// would bind totals that are still moving.
func BuildSettlementReceipt(a *core.BlindAuction, clock core.Clock) (*SettlementReceipt, error) {
	if !a.Ended() {
		return nil, fmt.Errorf("receipt: auction %s is not settled", a.ID())
	}

	records := EventRecordsFromLog(a.Events())
	digest, err := DigestEventTrail(records)
	if err != nil {
		return nil, err
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}

	return &SettlementReceipt{
		AuctionID:      a.ID(),
		Beneficiary:    string(a.Beneficiary()),
		Winner:         string(a.HighestBidder()),
		WinningAmount:  a.HighestBid().Dec(),
		BiddingEnd:     a.BiddingEnd(),
		RevealEnd:      a.RevealEnd(),
		TotalDeposited: a.TotalDeposited().Dec(),
		TotalPaidOut:   a.TotalPaidOut().Dec(),
		PendingTotal:   a.PendingTotal().Dec(),
		EventCount:     len(records),
		EventLogDigest: digest[:],
		Nonce:          nonce,
		IssuedAt:       clock.Now(),
	}, nil
}

// Encode canonically encodes the receipt; this is the exact byte sequence
// that gets signed.
func (r *SettlementReceipt) Encode() ([]byte, error) {
	encoded, err := encMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	return encoded, nil
}

// DecodeSettlementReceipt parses a canonical CBOR receipt payload.
func DecodeSettlementReceipt(payload []byte) (*SettlementReceipt, error) {
	var r SettlementReceipt
	if err := cbor.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &r, nil
}

func generateNonce() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}
