package validation

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/blindauction/receipt"
)

// AuctionView is the read-only financial surface both auction variants
// expose. The auditor only needs the conservation counters.
type AuctionView interface {
	TotalDeposited() *uint256.Int
	TotalPaidOut() *uint256.Int
	PendingTotal() *uint256.Int
	HighestBid() *uint256.Int
	Ended() bool
}

// ConservationReport breaks down where every deposited unit currently
// sits. Forfeited covers deposits with no remaining refund path
// (unverified or never-revealed commitments).
type ConservationReport struct {
	Deposited   *uint256.Int `json:"deposited"`
	PaidOut     *uint256.Int `json:"paid_out"`
	Outstanding *uint256.Int `json:"outstanding"`
	Retained    *uint256.Int `json:"retained"`
	Forfeited   *uint256.Int `json:"forfeited"`
}

// AuditConservation checks the no-value-from-nothing invariant against a
// live auction: transfers out plus outstanding ledger balances plus the
// retained highest bid must never exceed total deposits. The remainder is
// forfeited custody.
func AuditConservation(view AuctionView) (*ConservationReport, error) {
	deposited := view.TotalDeposited()
	paidOut := view.TotalPaidOut()
	outstanding := view.PendingTotal()

	retained := uint256.NewInt(0)
	if !view.Ended() {
		retained = view.HighestBid()
	}

	accounted := new(uint256.Int).Add(paidOut, outstanding)
	accounted.Add(accounted, retained)

	if accounted.Cmp(deposited) > 0 {
		return nil, fmt.Errorf("conservation violated: %s accounted for exceeds %s deposited",
			accounted.Dec(), deposited.Dec())
	}

	return &ConservationReport{
		Deposited:   deposited,
		PaidOut:     paidOut,
		Outstanding: outstanding,
		Retained:    retained,
		Forfeited:   new(uint256.Int).Sub(deposited, accounted),
	}, nil
}

// validateReceiptConservation runs the same invariant over a receipt's
// totals. A settled receipt carries no retained amount: the winning bid
// has either been paid out or credited to the beneficiary's ledger entry.
func validateReceiptConservation(r *receipt.SettlementReceipt, result *SettlementValidationResult) bool {
	deposited, err := uint256.FromDecimal(r.TotalDeposited)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Unparsable total_deposited %q: %v", r.TotalDeposited, err))
		return false
	}
	paidOut, err := uint256.FromDecimal(r.TotalPaidOut)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Unparsable total_paid_out %q: %v", r.TotalPaidOut, err))
		return false
	}
	pending, err := uint256.FromDecimal(r.PendingTotal)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Unparsable pending_total %q: %v", r.PendingTotal, err))
		return false
	}

	accounted := new(uint256.Int).Add(paidOut, pending)
	if accounted.Cmp(deposited) > 0 {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Conservation violated: paid %s + outstanding %s exceeds deposited %s",
				paidOut.Dec(), pending.Dec(), deposited.Dec()))
		return false
	}

	forfeited := new(uint256.Int).Sub(deposited, accounted)
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Conservation holds: deposited %s = paid %s + outstanding %s + forfeited %s",
			deposited.Dec(), paidOut.Dec(), pending.Dec(), forfeited.Dec()))
	return true
}

// SettlementSummary reports a conservation breakdown as exact decimal
// ratios for audit output.
type SettlementSummary struct {
	Deposited       decimal.Decimal `json:"deposited"`
	PaidOut         decimal.Decimal `json:"paid_out"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	Retained        decimal.Decimal `json:"retained"`
	Forfeited       decimal.Decimal `json:"forfeited"`
	PayoutRatio     decimal.Decimal `json:"payout_ratio"`
	ForfeitureRatio decimal.Decimal `json:"forfeiture_ratio"`
}

// Summarize converts a conservation report to decimal form. Ratios are
// relative to total deposits; a zero-deposit auction reports zero ratios.
func Summarize(report *ConservationReport) *SettlementSummary {
	toDec := func(v *uint256.Int) decimal.Decimal {
		return decimal.NewFromBigInt(v.ToBig(), 0)
	}

	s := &SettlementSummary{
		Deposited:   toDec(report.Deposited),
		PaidOut:     toDec(report.PaidOut),
		Outstanding: toDec(report.Outstanding),
		Retained:    toDec(report.Retained),
		Forfeited:   toDec(report.Forfeited),
	}

	if !s.Deposited.IsZero() {
		s.PayoutRatio = s.PaidOut.Div(s.Deposited).Round(6)
		s.ForfeitureRatio = s.Forfeited.Div(s.Deposited).Round(6)
	}
	return s
}
