// Package demo wires the auction engine, deed registry, receipt signing
// and offline validation into a scripted end-to-end run on a manual clock.
// It is the bootstrap analog for a system whose real deployments supply
// their own clock, escrow and transport.
package demo

import (
	"fmt"
	"log"

	"github.com/holiman/uint256"

	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/receipt"
	"github.com/cloudx-io/blindauction/registry"
	"github.com/cloudx-io/blindauction/validation"
)

// Config contains the scripted run's parameters.
type Config struct {
	Seller          core.Principal
	DeedDescription string
	BiddingWindow   uint64 // seconds of bidding phase
	RevealWindow    uint64 // seconds of reveal phase
}

// DefaultConfig returns the parameters the demo binary runs with.
func DefaultConfig() Config {
	return Config{
		Seller:          "seller",
		DeedDescription: "lot 42",
		BiddingWindow:   100,
		RevealWindow:    100,
	}
}

// sealedBid pairs a bidder's secret intent with its public commitment.
type sealedBid struct {
	bidder  core.Principal
	value   *uint256.Int
	fake    bool
	secret  [32]byte
	deposit *uint256.Int
}

// Orchestrator owns every collaborator of one scripted auction.
type Orchestrator struct {
	cfg      Config
	clock    *core.ManualClock
	escrow   *core.MemoryEscrow
	auction  *core.BlindAuction
	registry *registry.DeedRegistry
	deed     registry.Deed
	signer   *receipt.SignerKey
}

// NewOrchestrator assembles the full stack: manual clock, recording
// escrow, blind auction, deed registry and a fresh receipt signer.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	clock := core.NewManualClock(1000)
	escrow := core.NewMemoryEscrow()

	auction, err := core.NewBlindAuction(core.Config{
		Beneficiary: cfg.Seller,
		BiddingEnd:  clock.Now() + cfg.BiddingWindow,
		RevealEnd:   clock.Now() + cfg.BiddingWindow + cfg.RevealWindow,
	}, clock, escrow)
	if err != nil {
		return nil, fmt.Errorf("create auction: %w", err)
	}

	signer, err := receipt.NewSignerKey()
	if err != nil {
		return nil, fmt.Errorf("create signer key: %w", err)
	}

	reg := registry.NewDeedRegistry()
	deed := reg.Mint(cfg.Seller, cfg.DeedDescription)

	return &Orchestrator{
		cfg:      cfg,
		clock:    clock,
		escrow:   escrow,
		auction:  auction,
		registry: reg,
		deed:     deed,
		signer:   signer,
	}, nil
}

// Run drives a complete auction: sealed bidding (including a decoy),
// phase advancement, reveals, settlement, deed award, withdrawal, receipt
// signing and offline validation. It returns the validated receipt.
func (o *Orchestrator) Run() (*receipt.SettlementReceipt, error) {
	bids := []sealedBid{
		{bidder: "alice", value: uint256.NewInt(10), secret: core.SealSecret("alice-secret"), deposit: uint256.NewInt(15)},
		{bidder: "bob", value: uint256.NewInt(8), secret: core.SealSecret("bob-secret"), deposit: uint256.NewInt(8)},
		{bidder: "carol", value: uint256.NewInt(30), fake: true, secret: core.SealSecret("carol-decoy"), deposit: uint256.NewInt(30)},
		{bidder: "carol", value: uint256.NewInt(9), secret: core.SealSecret("carol-real"), deposit: uint256.NewInt(9)},
	}

	log.Printf("INFO: Demo bidding phase: %d sealed bids", len(bids))
	for _, b := range bids {
		commitment := core.SealBid(b.value, b.fake, b.secret)
		if err := o.auction.Bid(b.bidder, commitment, b.deposit); err != nil {
			return nil, fmt.Errorf("bid by %s: %w", b.bidder, err)
		}
	}

	o.clock.Set(o.auction.BiddingEnd())
	log.Printf("INFO: Demo reveal phase (t=%d)", o.clock.Now())

	for _, p := range []core.Principal{"alice", "bob", "carol"} {
		var values []*uint256.Int
		var fakes []bool
		var secrets [][32]byte
		for _, b := range bids {
			if b.bidder != p {
				continue
			}
			values = append(values, b.value)
			fakes = append(fakes, b.fake)
			secrets = append(secrets, b.secret)
		}
		outcome, err := o.auction.Reveal(p, values, fakes, secrets)
		if err != nil {
			return nil, fmt.Errorf("reveal by %s: %w", p, err)
		}
		log.Printf("INFO: Demo reveal by %s: refunded=%s newHighest=%v", p, outcome.Refunded.Dec(), outcome.NewHighest)
	}

	o.clock.Set(o.auction.RevealEnd())
	if err := o.auction.End(); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	if err := registry.AwardDeed(o.registry, o.deed.ID, o.cfg.Seller, o.auction); err != nil {
		return nil, fmt.Errorf("award deed: %w", err)
	}

	// Outbid principals drain their ledger balances.
	for _, p := range []core.Principal{"alice", "bob", "carol"} {
		amount, err := o.auction.Withdraw(p)
		if err != nil {
			return nil, fmt.Errorf("withdraw by %s: %w", p, err)
		}
		if !amount.IsZero() {
			log.Printf("INFO: Demo withdrawal by %s: %s", p, amount.Dec())
		}
	}

	r, err := receipt.BuildSettlementReceipt(o.auction, o.clock)
	if err != nil {
		return nil, fmt.Errorf("build receipt: %w", err)
	}
	signed, err := o.signer.SignReceipt(r)
	if err != nil {
		return nil, fmt.Errorf("sign receipt: %w", err)
	}

	pemStr, err := o.signer.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("export signer key: %w", err)
	}

	winner := r.Winner
	amount := r.WinningAmount
	result, err := validation.ValidateSettlementReceipt(&validation.SettlementValidationInput{
		ReceiptCOSEBase64: signed.EncodeBase64(),
		TrustedKeys:       []validation.TrustedKey{{Name: "demo-signer", PublicKeyPEM: pemStr}},
		EventTrail:        receipt.EventRecordsFromLog(o.auction.Events()),
		ExpectedWinner:    &winner,
		ExpectedAmount:    &amount,
	})
	if err != nil {
		return nil, fmt.Errorf("validate receipt: %w", err)
	}
	if !result.IsValid() {
		return nil, fmt.Errorf("demo receipt failed validation: %v", result.ValidationDetails)
	}

	report, err := validation.AuditConservation(o.auction)
	if err != nil {
		return nil, fmt.Errorf("conservation audit: %w", err)
	}
	summary := validation.Summarize(report)
	log.Printf("INFO: Demo conservation: deposited=%s paidOut=%s forfeited=%s (payout ratio %s)",
		summary.Deposited, summary.PaidOut, summary.Forfeited, summary.PayoutRatio)

	return r, nil
}

// Auction exposes the settled auction for inspection after Run.
func (o *Orchestrator) Auction() *core.BlindAuction { return o.auction }

// Escrow exposes the recording escrow for inspection after Run.
func (o *Orchestrator) Escrow() *core.MemoryEscrow { return o.escrow }

// DeedOwner reports who holds the auctioned deed.
func (o *Orchestrator) DeedOwner() (core.Principal, error) {
	return o.registry.OwnerOf(o.deed.ID)
}
