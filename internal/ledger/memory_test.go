// SPDX-License-Identifier: MIT

package ledger

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/farholt/heirloomd/internal/types"
)

const (
	alice = types.Address("alice")
	bob   = types.Address("bob")
	usdc  = types.Token("USDC")
)

func TestMemory_MintAndTransfer(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.Mint(alice, usdc, math.NewInt(1000)))
	require.Equal(t, math.NewInt(1000), m.Balance(alice, usdc))

	require.NoError(t, m.Transfer(alice, bob, usdc, math.NewInt(400)))
	require.Equal(t, math.NewInt(600), m.Balance(alice, usdc))
	require.Equal(t, math.NewInt(400), m.Balance(bob, usdc))
}

func TestMemory_TransferInsufficientFunds(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Mint(alice, usdc, math.NewInt(100)))

	err := m.Transfer(alice, bob, usdc, math.NewInt(101))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing moved.
	require.Equal(t, math.NewInt(100), m.Balance(alice, usdc))
	require.True(t, math.ZeroInt().Equal(m.Balance(bob, usdc)))
}

func TestMemory_RejectsInvalidInput(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Mint(alice, usdc, math.NewInt(100)))

	require.ErrorIs(t, m.Transfer("", bob, usdc, math.NewInt(1)), ErrInvalidAccount)
	require.ErrorIs(t, m.Transfer(alice, "", usdc, math.NewInt(1)), ErrInvalidAccount)
	require.ErrorIs(t, m.Mint("", usdc, math.NewInt(1)), ErrInvalidAccount)

	require.Error(t, m.Transfer(alice, bob, usdc, math.ZeroInt()))
	require.Error(t, m.Transfer(alice, bob, usdc, math.NewInt(-5)))
	require.Error(t, m.Mint(alice, usdc, math.NewInt(-5)))
}

func TestMemory_BalanceUnknownAccount(t *testing.T) {
	m := NewMemory()
	require.True(t, math.ZeroInt().Equal(m.Balance(types.Address("nobody"), usdc)))
}

func TestMemory_TokensAreIndependent(t *testing.T) {
	m := NewMemory()
	dai := types.Token("DAI")

	require.NoError(t, m.Mint(alice, usdc, math.NewInt(100)))
	require.NoError(t, m.Mint(alice, dai, math.NewInt(50)))

	require.NoError(t, m.Transfer(alice, bob, usdc, math.NewInt(100)))
	require.Equal(t, math.NewInt(50), m.Balance(alice, dai))
	require.True(t, math.ZeroInt().Equal(m.Balance(bob, dai)))
}
