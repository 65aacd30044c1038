// SPDX-License-Identifier: MIT

package vault

import (
	"fmt"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/farholt/heirloomd/internal/ledger"
	"github.com/farholt/heirloomd/internal/stream"
	"github.com/farholt/heirloomd/internal/types"
	"github.com/farholt/heirloomd/internal/vault/lifecycle"
	"github.com/farholt/heirloomd/internal/will"
	"github.com/farholt/heirloomd/internal/yield"
)

const (
	vaultID = "vault-1"
	owner   = types.Address("alice")
	heir1   = types.Address("bob")
	heir2   = types.Address("carol")
	usdc    = types.Token("USDC")
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		CheckInInterval: 24 * time.Hour,
		WarningPeriod:   time.Hour,
		GracePeriod:     time.Hour,
	}
}

func newTestVault(t *testing.T, bank ledger.Transferor) *Vault {
	t.Helper()
	adapter := yield.NewMemory(bank, YieldAccount(vaultID), Account(vaultID), 0, []types.Token{usdc, types.TokenNative})
	v, err := New(vaultID, owner, testConfig(), t0, Deps{Ledger: bank, Yield: adapter})
	require.NoError(t, err)
	return v
}

func fundOwner(t *testing.T, bank ledger.Transferor, amount int64) {
	t.Helper()
	require.NoError(t, bank.Mint(owner, usdc, math.NewInt(amount)))
}

// advance the vault into GracePeriod by letting the clocks lapse.
func toGracePeriod(t *testing.T, v *Vault) time.Time {
	t.Helper()
	warnAt := t0.Add(v.Config().CheckInInterval)
	require.NoError(t, v.TriggerWarning(warnAt))
	graceAt := warnAt.Add(v.Config().WarningPeriod)
	require.NoError(t, v.TriggerGracePeriod(graceAt))
	return graceAt
}

func activateWill(t *testing.T, v *Vault, beneficiaries []will.Beneficiary) {
	t.Helper()
	effectiveAt, err := v.ProposeWill(owner, beneficiaries, t0)
	require.NoError(t, err)
	require.NoError(t, v.ActivateWill(effectiveAt))
}

func TestNew_Validation(t *testing.T) {
	bank := ledger.NewMemory()

	_, err := New(vaultID, "", testConfig(), t0, Deps{Ledger: bank})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(vaultID, owner, Config{}, t0, Deps{Ledger: bank})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCheckIn_ResetsLivenessClock(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())
	require.Equal(t, types.VaultStateActive, v.State())

	later := t0.Add(6 * time.Hour)
	require.NoError(t, v.CheckIn(owner, later))
	require.Equal(t, later, v.LastCheckIn())

	// The warning deadline moved with the check-in.
	err := v.TriggerWarning(t0.Add(24 * time.Hour))
	require.ErrorIs(t, err, lifecycle.ErrNotYetDue)
	require.NoError(t, v.TriggerWarning(later.Add(24*time.Hour)))
}

func TestCheckIn_RecoversFromWarningAndGrace(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())

	warnAt := t0.Add(24 * time.Hour)
	require.NoError(t, v.TriggerWarning(warnAt))
	require.Equal(t, types.VaultStateWarning, v.State())

	checkInAt := warnAt.Add(10 * time.Minute)
	require.NoError(t, v.CheckIn(owner, checkInAt))
	require.Equal(t, types.VaultStateActive, v.State())
	require.Equal(t, checkInAt, v.LastCheckIn())

	// Recovery works from GracePeriod as well, as long as distribution has
	// not started.
	warnAt = checkInAt.Add(24 * time.Hour)
	require.NoError(t, v.TriggerWarning(warnAt))
	graceAt := warnAt.Add(time.Hour)
	require.NoError(t, v.TriggerGracePeriod(graceAt))
	require.Equal(t, types.VaultStateGracePeriod, v.State())

	require.NoError(t, v.CheckIn(owner, graceAt.Add(time.Minute)))
	require.Equal(t, types.VaultStateActive, v.State())
}

func TestCheckIn_Authorization(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())
	require.ErrorIs(t, v.CheckIn(heir1, t0.Add(time.Hour)), ErrNotOwner)
}

func TestTriggerWarning_GuardedByDeadline(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())

	err := v.TriggerWarning(t0.Add(23 * time.Hour))
	require.ErrorIs(t, err, lifecycle.ErrNotYetDue)
	require.Equal(t, types.VaultStateActive, v.State())

	require.NoError(t, v.TriggerWarning(t0.Add(24*time.Hour)))
	require.Equal(t, types.VaultStateWarning, v.State())

	// Re-triggering the same edge is a wrong-state error.
	err = v.TriggerWarning(t0.Add(25 * time.Hour))
	require.ErrorIs(t, err, lifecycle.ErrWrongState)
}

func TestDeposit_ForwardsToYield(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)

	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))

	require.Equal(t, math.NewInt(1000), v.Balance(usdc))
	require.True(t, math.ZeroInt().Equal(bank.Balance(owner, usdc)))
	// Funds sit at the yield boundary, not idle in the vault account.
	require.Equal(t, math.NewInt(1000), bank.Balance(YieldAccount(vaultID), usdc))
	require.Equal(t, []types.Token{usdc}, v.HeldTokens())
}

func TestDeposit_Guards(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)

	require.ErrorIs(t, v.Deposit(heir1, usdc, math.NewInt(100), t0), ErrNotOwner)
	require.ErrorIs(t, v.Deposit(owner, usdc, math.ZeroInt(), t0), ErrZeroAmount)
	require.ErrorIs(t, v.Deposit(owner, types.Token("SHIB"), math.NewInt(100), t0), ErrUnsupportedToken)

	// Insufficient owner funds surface as a transfer failure.
	require.ErrorIs(t, v.Deposit(owner, usdc, math.NewInt(2000), t0), ErrTransferFailed)

	require.NoError(t, v.TriggerWarning(t0.Add(24*time.Hour)))
	require.ErrorIs(t, v.Deposit(owner, usdc, math.NewInt(100), t0.Add(24*time.Hour)), ErrWrongState)
}

func TestWithdraw_PullsShortfallFromYield(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)
	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))

	require.NoError(t, v.Withdraw(owner, usdc, math.NewInt(400), t0.Add(time.Hour)))
	require.Equal(t, math.NewInt(400), bank.Balance(owner, usdc))
	require.Equal(t, math.NewInt(600), v.Balance(usdc))

	// More than the total is rejected before anything moves.
	err := v.Withdraw(owner, usdc, math.NewInt(700), t0.Add(time.Hour))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, math.NewInt(600), v.Balance(usdc))

	require.NoError(t, v.Withdraw(owner, usdc, math.NewInt(600), t0.Add(2*time.Hour)))
	require.Equal(t, math.NewInt(1000), bank.Balance(owner, usdc))
	require.True(t, math.ZeroInt().Equal(v.Balance(usdc)))
}

func TestWithdraw_Guards(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)
	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))

	require.ErrorIs(t, v.Withdraw(heir1, usdc, math.NewInt(100), t0), ErrNotOwner)
	require.ErrorIs(t, v.Withdraw(owner, usdc, math.NewInt(-1), t0), ErrZeroAmount)

	require.NoError(t, v.TriggerWarning(t0.Add(24*time.Hour)))
	require.ErrorIs(t, v.Withdraw(owner, usdc, math.NewInt(100), t0.Add(24*time.Hour)), ErrWrongState)
}

func TestProposeWill_RequiresActive(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())
	require.NoError(t, v.TriggerWarning(t0.Add(24*time.Hour)))

	_, err := v.ProposeWill(owner, []will.Beneficiary{
		{Address: heir1, BasisPoints: 10000, Payout: will.InstantPayout()},
	}, t0.Add(24*time.Hour))
	require.ErrorIs(t, err, ErrWrongState)
}

func TestWillLifecycle(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())
	plan := []will.Beneficiary{
		{Address: heir1, BasisPoints: 6000, Payout: will.InstantPayout()},
		{Address: heir2, BasisPoints: 4000, Payout: will.StreamedPayout(365 * 24 * time.Hour)},
	}

	effectiveAt, err := v.ProposeWill(owner, plan, t0)
	require.NoError(t, err)
	require.Equal(t, t0.Add(will.TimelockDuration), effectiveAt)
	require.Empty(t, v.Will())

	require.ErrorIs(t, v.ActivateWill(effectiveAt.Add(-time.Minute)), will.ErrTimelocked)
	require.NoError(t, v.ActivateWill(effectiveAt))
	require.Len(t, v.Will(), 2)

	// Cancelling is only meaningful with a pending proposal.
	require.ErrorIs(t, v.CancelWillProposal(owner), will.ErrNoPendingProposal)

	_, err = v.ProposeWill(owner, plan[:1], t0)
	require.ErrorIs(t, err, will.ErrInvalidPercentages)
}

func TestExecuteDistribution_SplitsInstantAndStreamed(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)

	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))
	activateWill(t, v, []will.Beneficiary{
		{Address: heir1, BasisPoints: 6000, Payout: will.InstantPayout()},
		{Address: heir2, BasisPoints: 4000, Payout: will.StreamedPayout(365 * 24 * time.Hour)},
	})

	graceAt := toGracePeriod(t, v)
	execAt := graceAt.Add(v.Config().GracePeriod)
	require.NoError(t, v.ExecuteDistribution(execAt))

	require.Equal(t, types.VaultStateCompleted, v.State())
	require.Equal(t, math.NewInt(600), bank.Balance(heir1, usdc))
	require.Equal(t, math.NewInt(400), bank.Balance(StreamCustody(vaultID), usdc))
	require.True(t, math.ZeroInt().Equal(v.Balance(usdc)))

	streams := v.Streams(heir2)
	require.Len(t, streams, 1)
	require.Equal(t, math.NewInt(400), streams[0].Total)
	require.Equal(t, execAt.Add(365*24*time.Hour), streams[0].EndTime)

	// Halfway through the vesting period half is claimable.
	halfway := execAt.Add(365 * 12 * time.Hour)
	require.Equal(t, math.NewInt(200), v.Claimable(heir2, usdc, halfway))

	paid, err := v.ClaimStream(streams[0].ID, heir2, halfway)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(200), paid)
	require.Equal(t, math.NewInt(200), bank.Balance(heir2, usdc))

	// Terminal state: no check-ins, no further distribution.
	require.ErrorIs(t, v.CheckIn(owner, halfway), lifecycle.ErrWrongState)
	require.ErrorIs(t, v.ExecuteDistribution(halfway), lifecycle.ErrWrongState)

	paid, err = v.ClaimStream(streams[0].ID, heir2, execAt.Add(365*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(200), paid)
	require.Equal(t, math.NewInt(400), bank.Balance(heir2, usdc))
}

func TestExecuteDistribution_DustGoesToFirstBeneficiary(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 100)

	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(100), t0))
	third := types.Address("dave")
	activateWill(t, v, []will.Beneficiary{
		{Address: heir1, BasisPoints: 3333, Payout: will.InstantPayout()},
		{Address: heir2, BasisPoints: 3333, Payout: will.InstantPayout()},
		{Address: third, BasisPoints: 3334, Payout: will.InstantPayout()},
	})

	graceAt := toGracePeriod(t, v)
	require.NoError(t, v.ExecuteDistribution(graceAt.Add(v.Config().GracePeriod)))

	// Floor shares are 33/33/33; the 1-unit remainder tops up the first entry.
	require.Equal(t, math.NewInt(34), bank.Balance(heir1, usdc))
	require.Equal(t, math.NewInt(33), bank.Balance(heir2, usdc))
	require.Equal(t, math.NewInt(33), bank.Balance(third, usdc))
	require.True(t, math.ZeroInt().Equal(v.Balance(usdc)))
}

func TestExecuteDistribution_RequiresActiveWill(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)
	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))

	graceAt := toGracePeriod(t, v)
	err := v.ExecuteDistribution(graceAt.Add(v.Config().GracePeriod))
	require.ErrorIs(t, err, ErrNoBeneficiaries)
	require.Equal(t, types.VaultStateGracePeriod, v.State())
}

func TestExecuteDistribution_GuardedByGraceDeadline(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())
	activateWill(t, v, []will.Beneficiary{
		{Address: heir1, BasisPoints: 10000, Payout: will.InstantPayout()},
	})
	graceAt := toGracePeriod(t, v)

	err := v.ExecuteDistribution(graceAt.Add(v.Config().GracePeriod - time.Second))
	require.ErrorIs(t, err, lifecycle.ErrNotYetDue)
	require.Equal(t, types.VaultStateGracePeriod, v.State())
}

// failingLedger fails every transfer towards one address.
type failingLedger struct {
	*ledger.Memory
	failTo types.Address
}

func (f *failingLedger) Transfer(from, to types.Address, token types.Token, amount math.Int) error {
	if to == f.failTo {
		return fmt.Errorf("account %s frozen", to)
	}
	return f.Memory.Transfer(from, to, token, amount)
}

func TestExecuteDistribution_TransferFailureRollsBack(t *testing.T) {
	bank := &failingLedger{Memory: ledger.NewMemory(), failTo: heir2}
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)

	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))
	activateWill(t, v, []will.Beneficiary{
		{Address: heir1, BasisPoints: 6000, Payout: will.InstantPayout()},
		{Address: heir2, BasisPoints: 4000, Payout: will.InstantPayout()},
	})

	graceAt := toGracePeriod(t, v)
	err := v.ExecuteDistribution(graceAt.Add(v.Config().GracePeriod))
	require.ErrorIs(t, err, ErrTransferFailed)

	// All-or-nothing: the first payout was unwound and the vault can retry.
	require.Equal(t, types.VaultStateGracePeriod, v.State())
	require.True(t, math.ZeroInt().Equal(bank.Balance(heir1, usdc)))
	require.Equal(t, math.NewInt(1000), v.Balance(usdc))
}

func TestCancelDistribution(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)
	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))

	graceAt := toGracePeriod(t, v)

	require.ErrorIs(t, v.CancelDistribution(heir1, graceAt), ErrNotOwner)
	require.NoError(t, v.CancelDistribution(owner, graceAt))

	// Back to Active with every balance untouched.
	require.Equal(t, types.VaultStateActive, v.State())
	require.Equal(t, math.NewInt(1000), v.Balance(usdc))

	// Cancel is only legal from GracePeriod.
	require.ErrorIs(t, v.CancelDistribution(owner, graceAt), lifecycle.ErrWrongState)
}

func TestTimeUntilExpiry(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())

	require.Equal(t, 24*time.Hour, v.TimeUntilExpiry(t0))
	require.Equal(t, time.Hour, v.TimeUntilExpiry(t0.Add(23*time.Hour)))
	require.Equal(t, time.Duration(0), v.TimeUntilExpiry(t0.Add(25*time.Hour)))

	require.NoError(t, v.TriggerWarning(t0.Add(24*time.Hour)))
	require.Equal(t, time.Hour, v.TimeUntilExpiry(t0.Add(24*time.Hour)))
}

func TestCheckUpkeep_ReportsDueTransitions(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())

	action, needed := v.CheckUpkeep(t0.Add(time.Hour))
	require.False(t, needed)
	require.Equal(t, ActionNone, action)

	warnAt := t0.Add(24 * time.Hour)
	action, needed = v.CheckUpkeep(warnAt)
	require.True(t, needed)
	require.Equal(t, ActionWarning, action)
	require.NoError(t, v.PerformUpkeep(action, warnAt))

	graceAt := warnAt.Add(time.Hour)
	action, needed = v.CheckUpkeep(graceAt)
	require.True(t, needed)
	require.Equal(t, ActionGrace, action)
	require.NoError(t, v.PerformUpkeep(action, graceAt))

	// Without an active will the vault parks in GracePeriod.
	_, needed = v.CheckUpkeep(graceAt.Add(24 * time.Hour))
	require.False(t, needed)
	require.Equal(t, types.VaultStateGracePeriod, v.State())
}

func TestCheckUpkeep_DistributeNeedsActiveWill(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)
	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))
	activateWill(t, v, []will.Beneficiary{
		{Address: heir1, BasisPoints: 10000, Payout: will.InstantPayout()},
	})

	graceAt := toGracePeriod(t, v)
	execAt := graceAt.Add(v.Config().GracePeriod)

	action, needed := v.CheckUpkeep(execAt)
	require.True(t, needed)
	require.Equal(t, ActionDistribute, action)

	require.NoError(t, v.PerformUpkeep(action, execAt))
	require.Equal(t, types.VaultStateCompleted, v.State())
	require.Equal(t, math.NewInt(1000), bank.Balance(heir1, usdc))
}

func TestPerformUpkeep_RedundantCallIsBenign(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())
	warnAt := t0.Add(24 * time.Hour)

	require.NoError(t, v.PerformUpkeep(ActionWarning, warnAt))

	// A second keeper racing the first sees a benign no-op.
	err := v.PerformUpkeep(ActionWarning, warnAt)
	require.ErrorIs(t, err, ErrUpkeepNotNeeded)

	// Same for an action whose guard has not opened yet.
	err = v.PerformUpkeep(ActionGrace, warnAt)
	require.ErrorIs(t, err, ErrUpkeepNotNeeded)

	err = v.PerformUpkeep(UpkeepAction("defragment"), warnAt)
	require.ErrorIs(t, err, ErrUpkeepNotNeeded)
}

func TestSnapshotRestore_RebuildsLedgerState(t *testing.T) {
	bank := ledger.NewMemory()
	v := newTestVault(t, bank)
	fundOwner(t, bank, 1000)

	require.NoError(t, v.Deposit(owner, usdc, math.NewInt(1000), t0))
	activateWill(t, v, []will.Beneficiary{
		{Address: heir1, BasisPoints: 6000, Payout: will.InstantPayout()},
		{Address: heir2, BasisPoints: 4000, Payout: will.StreamedPayout(365 * 24 * time.Hour)},
	})
	graceAt := toGracePeriod(t, v)
	execAt := graceAt.Add(v.Config().GracePeriod)
	require.NoError(t, v.ExecuteDistribution(execAt))

	snap := v.Snapshot()

	// Fresh ledger simulating a restart.
	bank2 := ledger.NewMemory()
	restored := newTestVault(t, bank2)
	require.NoError(t, restored.Restore(snap))

	require.Equal(t, types.VaultStateCompleted, restored.State())
	require.Len(t, restored.Will(), 2)

	// The unclaimed stream total was minted back into custody, so claims work.
	streams := restored.Streams(heir2)
	require.Len(t, streams, 1)
	paid, err := restored.ClaimStream(streams[0].ID, heir2, execAt.Add(365*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(400), paid)
	require.Equal(t, math.NewInt(400), bank2.Balance(heir2, usdc))
}

func TestClaimStream_UnknownStream(t *testing.T) {
	v := newTestVault(t, ledger.NewMemory())
	_, err := v.ClaimStream(42, heir1, t0)
	require.ErrorIs(t, err, stream.ErrStreamNotFound)
}
