// Package validation verifies signed settlement receipts offline: COSE
// signature against a trusted-key set, event-log digest against an
// independently observed trail, expected outcome, and the financial
// conservation invariant.
package validation

import (
	"bytes"
	"fmt"

	"github.com/cloudx-io/blindauction/receipt"
)

// SettlementValidationInput contains all inputs needed for settlement
// receipt validation.
type SettlementValidationInput struct {
	// ReceiptCOSEBase64 is the signed receipt in base64 transport form.
	ReceiptCOSEBase64 string

	// TrustedKeys are the known-good signer keys; the signature must
	// verify against at least one of them.
	TrustedKeys []TrustedKey

	// EventTrail is the event log the auditor observed independently.
	// Its digest must match the one bound into the receipt.
	EventTrail []receipt.EventRecord

	// ExpectedWinner and ExpectedAmount, when non-nil, are checked
	// against the receipt's outcome. Nil skips the respective check.
	ExpectedWinner *string
	ExpectedAmount *string
}

// ValidateSettlementReceipt validates a signed settlement receipt and
// verifies:
// - COSE signature against the trusted signer keys
// - Event-log digest against the supplied event trail
// - Expected winner and winning amount (when supplied)
// - Conservation of deposited funds in the receipt's totals
//
// Returns:
//   - SettlementValidationResult with detailed results (call
//     result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed input)
func ValidateSettlementReceipt(input *SettlementValidationInput) (*SettlementValidationResult, error) {
	coseBytes, err := receipt.DecodeReceiptCOSEBase64(input.ReceiptCOSEBase64)
	if err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}

	result := &SettlementValidationResult{}

	r := verifySignature(coseBytes, input.TrustedKeys, result)
	if r == nil {
		// No trusted key matched; report what the unverified payload
		// claims so the auditor can see what was rejected.
		r, err = receipt.DecodeReceiptPayload(coseBytes)
		if err != nil {
			return nil, fmt.Errorf("parse receipt payload: %w", err)
		}
	}

	result.EventDigestValid = validateEventDigest(input.EventTrail, r, result)
	result.WinnerValid = validateWinner(input.ExpectedWinner, r, result)
	result.AmountValid = validateAmount(input.ExpectedAmount, r, result)
	result.ConservationValid = validateReceiptConservation(r, result)

	return result, nil
}

func verifySignature(coseBytes receipt.ReceiptCOSE, keys []TrustedKey, result *SettlementValidationResult) *receipt.SettlementReceipt {
	if len(keys) == 0 {
		result.ValidationDetails = append(result.ValidationDetails, "No trusted keys supplied")
		return nil
	}

	for _, key := range keys {
		publicKey, err := ParseTrustedKeyPEM(key.PublicKeyPEM)
		if err != nil {
			result.ValidationDetails = append(result.ValidationDetails,
				fmt.Sprintf("Skipping unparsable trusted key %q: %v", key.Name, err))
			continue
		}

		r, err := receipt.VerifyReceipt(coseBytes, publicKey)
		if err != nil {
			continue
		}

		result.SignatureValid = true
		result.SignedBy = key.Name
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("COSE signature verified against trusted key %q", key.Name))
		return r
	}

	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("COSE signature did not verify against any of %d trusted keys", len(keys)))
	return nil
}

func validateEventDigest(trail []receipt.EventRecord, r *receipt.SettlementReceipt, result *SettlementValidationResult) bool {
	if r.EventCount != len(trail) {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Event count mismatch: receipt says %d, trail has %d", r.EventCount, len(trail)))
		return false
	}

	digest, err := receipt.DigestEventTrail(trail)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Failed to digest event trail: %v", err))
		return false
	}

	if !bytes.Equal(digest[:], r.EventLogDigest) {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Event log digest mismatch: computed %x, receipt has %x", digest, r.EventLogDigest))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Event log digest verified over %d events", len(trail)))
	return true
}

func validateWinner(expected *string, r *receipt.SettlementReceipt, result *SettlementValidationResult) bool {
	if expected == nil {
		result.ValidationDetails = append(result.ValidationDetails, "Winner check skipped (no expectation supplied)")
		return true
	}
	if *expected == r.Winner {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Winner validation passed: %q", r.Winner))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Winner mismatch: expected %q, receipt has %q", *expected, r.Winner))
	return false
}

func validateAmount(expected *string, r *receipt.SettlementReceipt, result *SettlementValidationResult) bool {
	if expected == nil {
		result.ValidationDetails = append(result.ValidationDetails, "Amount check skipped (no expectation supplied)")
		return true
	}
	if *expected == r.WinningAmount {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Winning amount validation passed: %s", r.WinningAmount))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Winning amount mismatch: expected %s, receipt has %s", *expected, r.WinningAmount))
	return false
}
