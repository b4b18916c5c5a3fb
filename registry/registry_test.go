package registry

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/blindauction/core"
)

func TestMintAndOwnerOf(t *testing.T) {
	r := NewDeedRegistry()

	deed := r.Mint("seller", "lot 42")
	check.NotEqual(t, DeedID(""), deed.ID)
	check.Equal(t, "lot 42", deed.Description)

	owner, err := r.OwnerOf(deed.ID)
	assert.Nil(t, err)
	check.Equal(t, core.Principal("seller"), owner)

	_, err = r.OwnerOf("nonexistent")
	check.True(t, errors.Is(err, ErrDeedNotFound))
}

func TestTransfer(t *testing.T) {
	r := NewDeedRegistry()
	deed := r.Mint("seller", "lot 42")

	// Only the owner can transfer.
	err := r.Transfer(deed.ID, "mallory", "mallory")
	check.True(t, errors.Is(err, ErrNotOwner))

	assert.Nil(t, r.Transfer(deed.ID, "seller", "buyer"))
	owner, err := r.OwnerOf(deed.ID)
	assert.Nil(t, err)
	check.Equal(t, core.Principal("buyer"), owner)
}

func TestBurn(t *testing.T) {
	r := NewDeedRegistry()
	deed := r.Mint("seller", "lot 42")

	err := r.Burn(deed.ID, "mallory")
	check.True(t, errors.Is(err, ErrNotOwner))

	assert.Nil(t, r.Burn(deed.ID, "seller"))
	_, err = r.OwnerOf(deed.ID)
	check.True(t, errors.Is(err, ErrDeedNotFound))
}

func TestAwardDeed(t *testing.T) {
	r := NewDeedRegistry()
	deed := r.Mint("seller", "lot 42")

	clock := core.NewManualClock(100)
	escrow := core.NewMemoryEscrow()
	a, err := core.NewBlindAuction(core.Config{
		Beneficiary: "seller", BiddingEnd: 200, RevealEnd: 300,
	}, clock, escrow)
	assert.Nil(t, err)

	// Not settled yet.
	check.Error(t, AwardDeed(r, deed.ID, "seller", a))

	assert.Nil(t, a.Bid("alice", core.SealBid(uint256.NewInt(10), false, core.SealSecret("s1")), uint256.NewInt(10)))
	clock.Set(200)
	_, err = a.Reveal("alice", []*uint256.Int{uint256.NewInt(10)}, []bool{false}, [][32]byte{core.SealSecret("s1")})
	assert.Nil(t, err)
	clock.Set(300)
	assert.Nil(t, a.End())

	assert.Nil(t, AwardDeed(r, deed.ID, "seller", a))
	owner, err := r.OwnerOf(deed.ID)
	assert.Nil(t, err)
	check.Equal(t, core.Principal("alice"), owner)
}

func TestAwardDeed_NoWinner(t *testing.T) {
	r := NewDeedRegistry()
	deed := r.Mint("seller", "lot 42")

	clock := core.NewManualClock(100)
	a, err := core.NewBlindAuction(core.Config{
		Beneficiary: "seller", BiddingEnd: 200, RevealEnd: 300,
	}, clock, core.NewMemoryEscrow())
	assert.Nil(t, err)

	clock.Set(300)
	assert.Nil(t, a.End())

	assert.Nil(t, AwardDeed(r, deed.ID, "seller", a))
	owner, err := r.OwnerOf(deed.ID)
	assert.Nil(t, err)
	check.Equal(t, core.Principal("seller"), owner)
}
