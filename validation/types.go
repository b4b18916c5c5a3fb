package validation

// SettlementValidationResult contains the per-check results of validating
// a signed settlement receipt. Call IsValid for the overall status;
// ValidationDetails records the reasoning behind each check for audit
// output.
type SettlementValidationResult struct {
	SignatureValid    bool     `json:"signature_valid"`
	EventDigestValid  bool     `json:"event_digest_valid"`
	WinnerValid       bool     `json:"winner_valid"`
	AmountValid       bool     `json:"amount_valid"`
	ConservationValid bool     `json:"conservation_valid"`
	SignedBy          string   `json:"signed_by,omitempty"`
	ValidationDetails []string `json:"validation_details"`
}

// IsValid returns true if all validation checks passed.
func (r *SettlementValidationResult) IsValid() bool {
	return r.SignatureValid && r.EventDigestValid && r.WinnerValid && r.AmountValid && r.ConservationValid
}

// TrustedKey is one known-good receipt signer.
type TrustedKey struct {
	Name         string `json:"name"`
	PublicKeyPEM string `json:"public_key_pem"`
}

// TrustedKeyConfig represents the trusted-keys configuration file
// structure.
type TrustedKeyConfig struct {
	Keys []TrustedKey `json:"keys"`
}
