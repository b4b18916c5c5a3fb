package receipt

import (
	"encoding/base64"
	"fmt"

	"github.com/cloudx-io/blindauction/core"
)

// ReceiptCOSE contains raw COSE_Sign1 bytes of a signed settlement receipt.
type ReceiptCOSE []byte

// EncodeBase64 encodes the COSE bytes for JSON or CLI transport.
func (r ReceiptCOSE) EncodeBase64() string {
	return base64.StdEncoding.EncodeToString(r)
}

// DecodeReceiptCOSEBase64 decodes base64 transport form back to raw COSE
// bytes.
func DecodeReceiptCOSEBase64(s string) (ReceiptCOSE, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode receipt COSE: %w", err)
	}
	return ReceiptCOSE(raw), nil
}

// EventRecord is the wire form of one auction event. Integer keys keep the
// canonical CBOR encoding compact and stable; amounts travel as decimal
// strings so no reader needs 256-bit integer support to audit a trail.
type EventRecord struct {
	Seq    uint64 `cbor:"1,keyasint" json:"seq"`
	Kind   string `cbor:"2,keyasint" json:"kind"`
	Actor  string `cbor:"3,keyasint" json:"actor"`
	Amount string `cbor:"4,keyasint" json:"amount"`
	Time   uint64 `cbor:"5,keyasint" json:"time"`
}

// EventRecordsFromLog converts an auction's event log snapshot to wire form.
func EventRecordsFromLog(events []core.Event) []EventRecord {
	records := make([]EventRecord, len(events))
	for i, e := range events {
		records[i] = EventRecord{
			Seq:    e.Seq,
			Kind:   string(e.Kind),
			Actor:  string(e.Actor),
			Amount: e.Amount.Dec(),
			Time:   e.Time,
		}
	}
	return records
}

// SettlementReceipt is the completion record emitted at settlement: the
// auction's identity, outcome, financial totals and a digest binding the
// receipt to the full event log. It is signed as a COSE_Sign1 payload so
// any party holding the signer's public key can verify the outcome
// offline.
type SettlementReceipt struct {
	AuctionID      string `cbor:"auction_id" json:"auction_id"`
	Beneficiary    string `cbor:"beneficiary" json:"beneficiary"`
	Winner         string `cbor:"winner" json:"winner"`
	WinningAmount  string `cbor:"winning_amount" json:"winning_amount"`
	BiddingEnd     uint64 `cbor:"bidding_end" json:"bidding_end"`
	RevealEnd      uint64 `cbor:"reveal_end" json:"reveal_end"`
	TotalDeposited string `cbor:"total_deposited" json:"total_deposited"`
	TotalPaidOut   string `cbor:"total_paid_out" json:"total_paid_out"`
	PendingTotal   string `cbor:"pending_total" json:"pending_total"`
	EventCount     int    `cbor:"event_count" json:"event_count"`
	EventLogDigest []byte `cbor:"event_log_digest" json:"event_log_digest"`
	Nonce          string `cbor:"nonce" json:"nonce"`
	IssuedAt       uint64 `cbor:"issued_at" json:"issued_at"`
}
