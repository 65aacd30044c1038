// SPDX-License-Identifier: MIT
package vault

import (
	"fmt"
	"time"

	"cosmossdk.io/math"

	"github.com/farholt/heirloomd/internal/metrics"
	"github.com/farholt/heirloomd/internal/types"
	"github.com/farholt/heirloomd/internal/vault/lifecycle"
	"github.com/farholt/heirloomd/internal/will"
)

// payout is one planned per-beneficiary share of one token.
type payout struct {
	beneficiary will.Beneficiary
	token       types.Token
	share       math.Int
}

// ExecuteDistribution runs the distribution engine on the
// GracePeriod -> Distributing edge and finishes in Completed. Permissionless,
// guarded by the grace deadline and by the existence of an active will.
//
// The whole sequence is all-or-nothing: any transfer failure rolls every
// prior movement back and leaves the vault in GracePeriod.
func (v *Vault) ExecuteDistribution(now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Validate the edge without applying it yet; the vault must be able to
	// fall back to GracePeriod if anything below fails.
	if _, err := lifecycle.Dispatch(v.state, lifecycle.EvExecuteDistribution, now, v.deadlineFor(lifecycle.EvExecuteDistribution)); err != nil {
		return err
	}

	beneficiaries := v.wills.Active()
	if len(beneficiaries) == 0 {
		return ErrNoBeneficiaries
	}

	// Full reconciliation: pull every token back from the yield boundary.
	// The realized amounts are authoritative and include accrued yield.
	// A failure here is recoverable; already-reconciled tokens stay idle and
	// the total balance is unchanged.
	for _, token := range v.heldTokensLocked() {
		realized, err := v.deps.Yield.WithdrawAll(token)
		if err != nil {
			return fmt.Errorf("%w: reconcile %s: %v", ErrYieldOperation, token, err)
		}
		if realized.IsPositive() {
			v.idle[token] = v.idleFor(token).Add(realized)
		}
	}

	instant, streamed := v.planPayouts(beneficiaries)

	// Move funds: instant shares to beneficiaries, streamed shares into the
	// stream engine's custody. Idle bookkeeping is debited before each
	// outbound transfer; any failure unwinds everything.
	idleBefore := make(map[types.Token]math.Int, len(v.idle))
	for t, b := range v.idle {
		idleBefore[t] = b
	}

	type movement struct {
		to     types.Address
		token  types.Token
		amount math.Int
	}
	var moved []movement

	rollback := func() {
		for i := len(moved) - 1; i >= 0; i-- {
			m := moved[i]
			_ = v.deps.Ledger.Transfer(m.to, Account(v.id), m.token, m.amount)
		}
		v.idle = idleBefore
		metrics.RecordDistributionFailure()
	}

	transfer := func(to types.Address, token types.Token, amount math.Int) error {
		v.idle[token] = v.idleFor(token).Sub(amount)
		if err := v.deps.Ledger.Transfer(Account(v.id), to, token, amount); err != nil {
			return err
		}
		moved = append(moved, movement{to: to, token: token, amount: amount})
		return nil
	}

	for _, p := range instant {
		if err := transfer(p.beneficiary.Address, p.token, p.share); err != nil {
			rollback()
			return fmt.Errorf("%w: pay %s: %v", ErrTransferFailed, p.beneficiary.Address, err)
		}
	}
	for _, p := range streamed {
		if err := transfer(v.streams.Custody(), p.token, p.share); err != nil {
			rollback()
			return fmt.Errorf("%w: fund stream for %s: %v", ErrTransferFailed, p.beneficiary.Address, err)
		}
	}

	// Custody is funded and every share validated positive, so stream
	// creation cannot fail past this point.
	type opened struct {
		id       uint64
		p        payout
		duration time.Duration
	}
	var created []opened
	for _, p := range streamed {
		duration, _ := p.beneficiary.Payout.StreamDuration()
		id, err := v.streams.CreateStream(p.beneficiary.Address, p.token, p.share, duration, now)
		if err != nil {
			rollback()
			return fmt.Errorf("create stream for %s: %w", p.beneficiary.Address, err)
		}
		created = append(created, opened{id: id, p: p, duration: duration})
	}

	// Commit: GracePeriod -> Distributing -> Completed, with the payout
	// notifications in between.
	trStart, _ := lifecycle.TransitionFor(v.state, lifecycle.EvExecuteDistribution)
	v.apply(trStart, now)

	for _, p := range instant {
		metrics.RecordPayout(types.DistributionInstant.String())
		v.deps.Sink.Emit(Distributed{
			VaultID:     v.id,
			Beneficiary: p.beneficiary.Address,
			Token:       p.token,
			Amount:      p.share,
			Type:        types.DistributionInstant,
		})
	}
	for _, c := range created {
		metrics.RecordPayout(types.DistributionStreamed.String())
		v.deps.Sink.Emit(Distributed{
			VaultID:     v.id,
			Beneficiary: c.p.beneficiary.Address,
			Token:       c.p.token,
			Amount:      c.p.share,
			Type:        types.DistributionStreamed,
		})
		v.deps.Sink.Emit(StreamCreated{
			VaultID:   v.id,
			StreamID:  c.id,
			Recipient: c.p.beneficiary.Address,
			Token:     c.p.token,
			Amount:    c.p.share,
			Duration:  c.duration,
		})
	}

	trDone, _ := lifecycle.TransitionFor(v.state, lifecycle.EvDistributionComplete)
	v.apply(trDone, now)

	v.persistLocked()
	return nil
}

// planPayouts splits every held token's balance across the will by basis
// points with floor division. The rounding remainder is assigned to the first
// beneficiary, so the full balance is always distributed.
func (v *Vault) planPayouts(beneficiaries []will.Beneficiary) (instant, streamed []payout) {
	for _, token := range v.heldTokensLocked() {
		balance := v.idleFor(token)
		if !balance.IsPositive() {
			continue
		}

		shares := make([]math.Int, len(beneficiaries))
		distributed := math.ZeroInt()
		for i, b := range beneficiaries {
			share := balance.
				Mul(math.NewInt(int64(b.BasisPoints))).
				Quo(math.NewInt(types.BasisPointsDenominator))
			shares[i] = share
			distributed = distributed.Add(share)
		}
		if dust := balance.Sub(distributed); dust.IsPositive() {
			shares[0] = shares[0].Add(dust)
		}

		for i, b := range beneficiaries {
			if !shares[i].IsPositive() {
				continue
			}
			p := payout{beneficiary: b, token: token, share: shares[i]}
			if b.Payout.Type() == types.DistributionStreamed {
				streamed = append(streamed, p)
			} else {
				instant = append(instant, p)
			}
		}
	}
	return instant, streamed
}
