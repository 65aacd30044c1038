// SPDX-License-Identifier: MIT
package store

import (
	"path/filepath"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/farholt/heirloomd/internal/stream"
	"github.com/farholt/heirloomd/internal/types"
	"github.com/farholt/heirloomd/internal/vault"
	"github.com/farholt/heirloomd/internal/will"
)

func newTestStore(t *testing.T) *VaultStore {
	t.Helper()
	s, err := NewVaultStore(filepath.Join(t.TempDir(), "vaults.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot(id string, owner types.Address) vault.Snapshot {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	usdc := types.Token("USDC")
	return vault.Snapshot{
		ID:    id,
		Owner: owner,
		Cfg: vault.Config{
			CheckInInterval: 24 * time.Hour,
			WarningPeriod:   time.Hour,
			GracePeriod:     time.Hour,
		},
		State:          types.VaultStateWarning,
		LastCheckIn:    t0,
		StateEnteredAt: t0.Add(24 * time.Hour),
		CreatedAt:      t0,
		Idle:           map[types.Token]math.Int{usdc: math.NewInt(250)},
		Held:           []types.Token{usdc},
		Will: will.Snapshot{
			Active: []will.Beneficiary{
				{Address: "bob", BasisPoints: 10000, Payout: will.InstantPayout()},
			},
		},
		Streams: stream.Snapshot{
			NextID: 2,
			Streams: []stream.Stream{{
				ID:        1,
				Recipient: "bob",
				Token:     usdc,
				Total:     math.NewInt(400),
				Claimed:   math.NewInt(100),
				StartTime: t0,
				EndTime:   t0.Add(30 * 24 * time.Hour),
				Active:    true,
			}},
		},
	}
}

func TestVaultStore_SaveAndLoadAll(t *testing.T) {
	s := newTestStore(t)

	snapA := sampleSnapshot("vault-a", "alice")
	snapB := sampleSnapshot("vault-b", "erin")
	require.NoError(t, s.Save(snapA))
	require.NoError(t, s.Save(snapB))

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Ordered by vault id.
	require.Equal(t, "vault-a", loaded[0].ID)
	require.Equal(t, "vault-b", loaded[1].ID)

	got := loaded[0]
	require.Equal(t, snapA.Owner, got.Owner)
	require.Equal(t, snapA.State, got.State)
	require.Equal(t, snapA.Cfg, got.Cfg)
	require.True(t, snapA.LastCheckIn.Equal(got.LastCheckIn))
	require.Equal(t, math.NewInt(250), got.Idle[types.Token("USDC")])
	require.Len(t, got.Will.Active, 1)
	require.Len(t, got.Streams.Streams, 1)
	require.Equal(t, math.NewInt(100), got.Streams.Streams[0].Claimed)
}

func TestVaultStore_SaveIsUpsert(t *testing.T) {
	s := newTestStore(t)

	snap := sampleSnapshot("vault-a", "alice")
	require.NoError(t, s.Save(snap))

	snap.State = types.VaultStateCompleted
	snap.Idle = map[types.Token]math.Int{}
	require.NoError(t, s.Save(snap))

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, types.VaultStateCompleted, loaded[0].State)
}

func TestVaultStore_EmptyDatabase(t *testing.T) {
	s := newTestStore(t)

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestVaultStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vaults.db")

	s, err := NewVaultStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(sampleSnapshot("vault-a", "alice")))
	require.NoError(t, s.Close())

	// Migration is idempotent across reopen.
	s2, err := NewVaultStore(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	loaded, err := s2.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}
