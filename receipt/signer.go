package receipt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"

	"github.com/veraison/go-cose"
)

// SignerKey holds the ECDSA P-256 key pair used to sign settlement
// receipts.
type SignerKey struct {
	privateKey *ecdsa.PrivateKey // Keep private - sensitive!
	PublicKey  *ecdsa.PublicKey
}

// NewSignerKey generates a fresh P-256 key pair.
func NewSignerKey() (*SignerKey, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signer key: %w", err)
	}
	return &SignerKey{
		privateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// PublicKeyPEM returns the public key in PEM format for distribution to
// auditors (trusted-key configuration, see the validation package).
func (k *SignerKey) PublicKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(k.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// SignReceipt signs the receipt's canonical encoding as a COSE_Sign1
// message with ES256.
func (k *SignerKey) SignReceipt(r *SettlementReceipt) (ReceiptCOSE, error) {
	payload, err := r.Encode()
	if err != nil {
		return nil, err
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, k.privateKey)
	if err != nil {
		return nil, fmt.Errorf("create COSE signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("sign receipt: %w", err)
	}

	coseBytes, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("marshal signed receipt: %w", err)
	}

	log.Printf("INFO: Settlement receipt signed for auction %s: %d bytes", r.AuctionID, len(coseBytes))
	return ReceiptCOSE(coseBytes), nil
}

// VerifyReceipt checks a COSE_Sign1 signature against a public key and
// returns the embedded receipt on success.
func VerifyReceipt(coseBytes ReceiptCOSE, publicKey *ecdsa.PublicKey) (*SettlementReceipt, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, publicKey)
	if err != nil {
		return nil, fmt.Errorf("create COSE verifier: %w", err)
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("COSE signature verification failed: %w", err)
	}

	return DecodeSettlementReceipt(msg.Payload)
}

// DecodeReceiptPayload extracts the embedded receipt WITHOUT verifying the
// signature. Auditors use this to report what an untrusted receipt claims;
// never treat the result as authentic.
func DecodeReceiptPayload(coseBytes ReceiptCOSE) (*SettlementReceipt, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}
	return DecodeSettlementReceipt(msg.Payload)
}
