package core

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestSealBid_Deterministic(t *testing.T) {
	value := uint256.NewInt(42)
	secret := SealSecret("hunter2")

	c1 := SealBid(value, false, secret)
	c2 := SealBid(value, false, secret)
	if c1 != c2 {
		t.Errorf("SealBid() not deterministic: %s != %s", c1, c2)
	}
}

func TestSealBid_SensitiveToEveryField(t *testing.T) {
	value := uint256.NewInt(42)
	secret := SealSecret("hunter2")
	base := SealBid(value, false, secret)

	if got := SealBid(uint256.NewInt(43), false, secret); got == base {
		t.Errorf("different value should produce different commitment")
	}
	if got := SealBid(value, true, secret); got == base {
		t.Errorf("different fake flag should produce different commitment")
	}
	if got := SealBid(value, false, SealSecret("hunter3")); got == base {
		t.Errorf("different secret should produce different commitment")
	}
}

func TestSealBid_NeverProducesConsumedSentinel(t *testing.T) {
	// The all-zero digest marks a consumed bid; a real commitment must
	// never collide with it.
	cases := []struct {
		value  uint64
		fake   bool
		secret string
	}{
		{0, false, ""},
		{0, true, ""},
		{1, false, "s"},
		{^uint64(0), true, "secret"},
	}
	for _, tc := range cases {
		c := SealBid(uint256.NewInt(tc.value), tc.fake, SealSecret(tc.secret))
		if c == ConsumedCommitment {
			t.Errorf("SealBid(%d, %v, %q) produced the consumed sentinel", tc.value, tc.fake, tc.secret)
		}
	}
}

func TestParseCommitment_RoundTrip(t *testing.T) {
	c := SealBid(uint256.NewInt(7), false, SealSecret("x"))

	parsed, err := ParseCommitment(c.String())
	if err != nil {
		t.Fatalf("ParseCommitment() error: %v", err)
	}
	if parsed != c {
		t.Errorf("ParseCommitment(String()) = %s, want %s", parsed, c)
	}
}

func TestParseCommitment_RejectsBadInput(t *testing.T) {
	if _, err := ParseCommitment("zz"); err == nil {
		t.Errorf("ParseCommitment() should reject non-hex input")
	}
	if _, err := ParseCommitment("abcd"); err == nil {
		t.Errorf("ParseCommitment() should reject short input")
	}
}

func TestDigestEvents_Deterministic(t *testing.T) {
	d1 := DigestEvents([]byte("trail"))
	d2 := DigestEvents([]byte("trail"))
	if d1 != d2 {
		t.Errorf("DigestEvents() not deterministic")
	}
	if d1 == DigestEvents([]byte("other")) {
		t.Errorf("different trails should produce different digests")
	}
}
