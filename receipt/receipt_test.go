package receipt

import (
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/blindauction/core"
)

// settleTestAuction runs a two-bidder auction to completion.
func settleTestAuction(t *testing.T) (*core.BlindAuction, *core.ManualClock) {
	t.Helper()
	clock := core.NewManualClock(100)
	escrow := core.NewMemoryEscrow()
	a, err := core.NewBlindAuction(core.Config{
		ID:          "auction-receipt-test",
		Beneficiary: "seller",
		BiddingEnd:  200,
		RevealEnd:   300,
	}, clock, escrow)
	assert.Nil(t, err)

	assert.Nil(t, a.Bid("alice", core.SealBid(uint256.NewInt(10), false, core.SealSecret("s1")), uint256.NewInt(15)))
	assert.Nil(t, a.Bid("bob", core.SealBid(uint256.NewInt(8), false, core.SealSecret("s2")), uint256.NewInt(8)))

	clock.Set(200)
	_, err = a.Reveal("alice", []*uint256.Int{uint256.NewInt(10)}, []bool{false}, [][32]byte{core.SealSecret("s1")})
	assert.Nil(t, err)
	_, err = a.Reveal("bob", []*uint256.Int{uint256.NewInt(8)}, []bool{false}, [][32]byte{core.SealSecret("s2")})
	assert.Nil(t, err)

	clock.Set(300)
	assert.Nil(t, a.End())
	return a, clock
}

func TestBuildSettlementReceipt(t *testing.T) {
	a, clock := settleTestAuction(t)

	r, err := BuildSettlementReceipt(a, clock)
	assert.Nil(t, err)

	check.Equal(t, "auction-receipt-test", r.AuctionID)
	check.Equal(t, "seller", r.Beneficiary)
	check.Equal(t, "alice", r.Winner)
	check.Equal(t, "10", r.WinningAmount)
	check.Equal(t, "23", r.TotalDeposited)
	check.Equal(t, "23", r.TotalPaidOut) // refunds 5+8 plus the payout of 10
	check.Equal(t, "0", r.PendingTotal)
	check.Equal(t, 2, r.EventCount) // one highest-bid increase, one ended
	check.Equal(t, 32, len(r.EventLogDigest))
	check.Equal(t, 64, len(r.Nonce))
	check.Equal(t, uint64(300), r.IssuedAt)
}

func TestBuildSettlementReceipt_RequiresSettledAuction(t *testing.T) {
	clock := core.NewManualClock(100)
	a, err := core.NewBlindAuction(core.Config{
		Beneficiary: "seller", BiddingEnd: 200, RevealEnd: 300,
	}, clock, core.NewMemoryEscrow())
	assert.Nil(t, err)

	_, err = BuildSettlementReceipt(a, clock)
	check.Error(t, err)
}

func TestDigestEventTrail_MatchesAuctionLog(t *testing.T) {
	a, clock := settleTestAuction(t)

	r, err := BuildSettlementReceipt(a, clock)
	assert.Nil(t, err)

	// An auditor recomputing the digest from the observed trail gets the
	// signed value.
	records := EventRecordsFromLog(a.Events())
	digest, err := DigestEventTrail(records)
	assert.Nil(t, err)
	check.Equal(t, r.EventLogDigest, digest[:])

	// A tampered trail does not.
	records[0].Amount = "999"
	tampered, err := DigestEventTrail(records)
	assert.Nil(t, err)
	check.NotEqual(t, r.EventLogDigest, tampered[:])
}

func TestReceiptEncode_Deterministic(t *testing.T) {
	a, clock := settleTestAuction(t)
	r, err := BuildSettlementReceipt(a, clock)
	assert.Nil(t, err)

	e1, err := r.Encode()
	assert.Nil(t, err)
	e2, err := r.Encode()
	assert.Nil(t, err)
	check.Equal(t, e1, e2)

	decoded, err := DecodeSettlementReceipt(e1)
	assert.Nil(t, err)
	check.Equal(t, r, decoded)
}

func TestSignAndVerifyReceipt(t *testing.T) {
	a, clock := settleTestAuction(t)
	r, err := BuildSettlementReceipt(a, clock)
	assert.Nil(t, err)

	key, err := NewSignerKey()
	assert.Nil(t, err)

	signed, err := key.SignReceipt(r)
	assert.Nil(t, err)

	verified, err := VerifyReceipt(signed, key.PublicKey)
	assert.Nil(t, err)
	check.Equal(t, r, verified)
}

func TestVerifyReceipt_RejectsWrongKey(t *testing.T) {
	a, clock := settleTestAuction(t)
	r, err := BuildSettlementReceipt(a, clock)
	assert.Nil(t, err)

	key, err := NewSignerKey()
	assert.Nil(t, err)
	otherKey, err := NewSignerKey()
	assert.Nil(t, err)

	signed, err := key.SignReceipt(r)
	assert.Nil(t, err)

	_, err = VerifyReceipt(signed, otherKey.PublicKey)
	check.Error(t, err)
}

func TestVerifyReceipt_RejectsTamperedPayload(t *testing.T) {
	a, clock := settleTestAuction(t)
	r, err := BuildSettlementReceipt(a, clock)
	assert.Nil(t, err)

	key, err := NewSignerKey()
	assert.Nil(t, err)
	signed, err := key.SignReceipt(r)
	assert.Nil(t, err)

	// Flip one byte somewhere in the middle of the message.
	tampered := make(ReceiptCOSE, len(signed))
	copy(tampered, signed)
	tampered[len(tampered)/2] ^= 0x01

	_, err = VerifyReceipt(tampered, key.PublicKey)
	check.Error(t, err)
}

func TestReceiptCOSE_Base64RoundTrip(t *testing.T) {
	raw := ReceiptCOSE([]byte{0x84, 0x01, 0x02, 0x03})
	decoded, err := DecodeReceiptCOSEBase64(raw.EncodeBase64())
	assert.Nil(t, err)
	check.Equal(t, raw, decoded)

	_, err = DecodeReceiptCOSEBase64("not-base64!!!")
	check.Error(t, err)
}

func TestSignerKey_PublicKeyPEM(t *testing.T) {
	key, err := NewSignerKey()
	assert.Nil(t, err)

	pemStr, err := key.PublicKeyPEM()
	assert.Nil(t, err)
	check.True(t, strings.Contains(pemStr, "BEGIN PUBLIC KEY"))

	// Two keys never share a PEM.
	other, err := NewSignerKey()
	assert.Nil(t, err)
	otherPEM, err := other.PublicKeyPEM()
	assert.Nil(t, err)
	check.NotEqual(t, pemStr, otherPEM)
}
