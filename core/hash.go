package core

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Commitment is the 256-bit digest a bidder submits during the bidding
// phase. The all-zero value is reserved as the consumed sentinel and is
// unreachable from SealBid for any real triple.
type Commitment [32]byte

// ConsumedCommitment marks a bid whose commitment has already been verified
// and refund-processed.
var ConsumedCommitment Commitment

func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// ParseCommitment decodes a 64-character hex digest.
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	raw, err := hex.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("parse commitment: %w", err)
	}
	if len(raw) != len(c) {
		return c, fmt.Errorf("parse commitment: expected 32 bytes, got %d", len(raw))
	}
	copy(c[:], raw)
	return c, nil
}

// SealBid computes the commitment digest for a (value, fake, secret) triple.
// This is used by bidders (to seal bids before the bidding phase) and by the
// reveal processor (to verify disclosed triples against stored commitments),
// so both sides must agree on the exact encoding.
//
// Formula: Keccak-256(value_be_32 || fake_byte || secret)
// where value_be_32 is the value as a 32-byte big-endian integer and
// fake_byte is 0x01 for a decoy bid, 0x00 otherwise.
func SealBid(value *uint256.Int, fake bool, secret [32]byte) Commitment {
	var preimage [65]byte
	vb := value.Bytes32()
	copy(preimage[:32], vb[:])
	if fake {
		preimage[32] = 1
	}
	copy(preimage[33:], secret[:])

	h := sha3.NewLegacyKeccak256()
	h.Write(preimage[:])

	var c Commitment
	h.Sum(c[:0])
	return c
}

// SealSecret derives a 32-byte secret from an arbitrary passphrase. Bidders
// who keep string secrets use this before sealing; the engine itself only
// ever sees the digested form.
func SealSecret(passphrase string) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(passphrase))
	var s [32]byte
	h.Sum(s[:0])
	return s
}

// DigestEvents computes the Keccak-256 digest of a canonical binary
// encoding of an event log. Used by settlement receipts so an auditor can
// verify an independently observed event trail against the signed digest.
func DigestEvents(encoded []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(encoded)
	var d [32]byte
	h.Sum(d[:0])
	return d
}
