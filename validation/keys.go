package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultTrustedKeysPath returns the default path to the trusted-keys
// configuration file.
func DefaultTrustedKeysPath() string {
	// Get the path to this file at runtime
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	return filepath.Join(dir, "trusted_keys.json")
}

// LoadTrustedKeysFromFile loads known-good signer keys from a JSON file.
func LoadTrustedKeysFromFile(path string) ([]TrustedKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trusted keys file: %w", err)
	}

	var config TrustedKeyConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse trusted keys config: %w", err)
	}

	if len(config.Keys) == 0 {
		return nil, fmt.Errorf("no trusted keys found in config file")
	}

	return config.Keys, nil
}

// ParseTrustedKeyPEM parses a PEM-encoded ECDSA public key.
func ParseTrustedKeyPEM(pemStr string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in trusted key")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse trusted key: %w", err)
	}

	ecdsaKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("trusted key is not ECDSA")
	}

	return ecdsaKey, nil
}
