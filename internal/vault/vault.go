// SPDX-License-Identifier: MIT

// Package vault implements the inheritance vault core: the lifecycle state
// machine, Active-only funds management, the timelocked will protocol and the
// distribution engine that pays out when the owner stops checking in.
package vault

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/farholt/heirloomd/internal/ledger"
	xlog "github.com/farholt/heirloomd/internal/log"
	"github.com/farholt/heirloomd/internal/metrics"
	"github.com/farholt/heirloomd/internal/stream"
	"github.com/farholt/heirloomd/internal/types"
	"github.com/farholt/heirloomd/internal/vault/lifecycle"
	"github.com/farholt/heirloomd/internal/will"
	"github.com/farholt/heirloomd/internal/yield"
)

// Account returns the vault's custody account for a vault id.
func Account(id string) types.Address {
	return types.Address("vault:" + id)
}

// YieldAccount returns the yield-side custody account for a vault id.
func YieldAccount(id string) types.Address {
	return types.Address("yield:" + id)
}

// StreamCustody returns the stream engine's custody account for a vault id.
func StreamCustody(id string) types.Address {
	return types.Address("streams:" + id)
}

// Deps are the collaborators a vault orchestrates.
type Deps struct {
	Ledger ledger.Transferor
	Yield  yield.Adapter
	Sink   Sink
}

// Vault is one owner's inheritance vault. Every exported operation locks the
// vault for its full duration: operations are linearizable, one at a time,
// with no concurrent mutation window. Balances and state are updated before
// any outbound transfer.
type Vault struct {
	mu sync.Mutex

	id    string
	owner types.Address
	cfg   Config

	state          types.VaultState
	lastCheckIn    time.Time
	stateEnteredAt time.Time
	createdAt      time.Time

	idle map[types.Token]math.Int
	held map[types.Token]struct{} // tokens ever deposited

	wills   *will.Registry
	streams *stream.Engine

	deps Deps
	log  zerolog.Logger

	// persist, when set, is called with the lock held after every successful
	// mutation. Failed operations never reach it.
	persist func(Snapshot)
}

// New constructs an Active vault for owner with the given timing config.
func New(id string, owner types.Address, cfg Config, createdAt time.Time, deps Deps) (*Vault, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: zero owner", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Sink == nil {
		deps.Sink = NopSink{}
	}

	return &Vault{
		id:             id,
		owner:          owner,
		cfg:            cfg,
		state:          types.VaultStateActive,
		lastCheckIn:    createdAt,
		stateEnteredAt: createdAt,
		createdAt:      createdAt,
		idle:           make(map[types.Token]math.Int),
		held:           make(map[types.Token]struct{}),
		wills:          will.NewRegistry(owner),
		streams:        stream.NewEngine(deps.Ledger, StreamCustody(id)),
		deps:           deps,
		log: xlog.Derive(func(c *zerolog.Context) {
			*c = c.Str(xlog.FieldComponent, "vault").Str(xlog.FieldVaultID, id)
		}),
	}, nil
}

// SetPersistFunc installs the persistence hook. Must be called before the
// vault is shared.
func (v *Vault) SetPersistFunc(f func(Snapshot)) {
	v.persist = f
}

// ID returns the vault id.
func (v *Vault) ID() string { return v.id }

// Owner returns the vault owner.
func (v *Vault) Owner() types.Address { return v.owner }

// Config returns the immutable timing parameters.
func (v *Vault) Config() Config { return v.cfg }

// State returns the current lifecycle state.
func (v *Vault) State() types.VaultState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// LastCheckIn returns the owner's last proof-of-life timestamp.
func (v *Vault) LastCheckIn() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastCheckIn
}

// deadlineFor returns the deadline guarding a timed event in the current state.
func (v *Vault) deadlineFor(ev lifecycle.EventKind) time.Time {
	switch ev {
	case lifecycle.EvTriggerWarning:
		return v.lastCheckIn.Add(v.cfg.CheckInInterval)
	case lifecycle.EvTriggerGrace:
		return v.stateEnteredAt.Add(v.cfg.WarningPeriod)
	case lifecycle.EvExecuteDistribution:
		return v.stateEnteredAt.Add(v.cfg.GracePeriod)
	default:
		return time.Time{}
	}
}

// transition dispatches and applies one lifecycle event. Caller holds the lock.
func (v *Vault) transition(ev lifecycle.EventKind, now time.Time) error {
	tr, err := lifecycle.Dispatch(v.state, ev, now, v.deadlineFor(ev))
	if err != nil {
		return err
	}
	v.apply(tr, now)
	return nil
}

// apply mutates the vault record for a resolved transition and emits the
// state-change notification. Caller holds the lock.
func (v *Vault) apply(tr lifecycle.Transition, now time.Time) {
	previous := v.state
	v.state = tr.To
	v.stateEnteredAt = now
	if tr.Event == lifecycle.EvCheckIn {
		v.lastCheckIn = now
	}

	metrics.RecordStateTransition(previous.String(), tr.To.String())
	v.deps.Sink.Emit(StateChanged{VaultID: v.id, Previous: previous, New: tr.To, At: now})
}

// CheckIn records the owner's proof of life and returns the vault to Active.
// Rejected once distribution has started.
func (v *Vault) CheckIn(caller types.Address, now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.owner {
		return ErrNotOwner
	}
	if err := v.transition(lifecycle.EvCheckIn, now); err != nil {
		return err
	}

	metrics.RecordCheckIn()
	v.persistLocked()
	return nil
}

// TriggerWarning moves an overdue vault into Warning. Permissionless; an
// unmet guard is a retry-later condition, not a fault.
func (v *Vault) TriggerWarning(now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.transition(lifecycle.EvTriggerWarning, now); err != nil {
		return err
	}
	v.persistLocked()
	return nil
}

// TriggerGracePeriod moves an expired Warning into GracePeriod. Permissionless.
func (v *Vault) TriggerGracePeriod(now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.transition(lifecycle.EvTriggerGrace, now); err != nil {
		return err
	}
	v.persistLocked()
	return nil
}

// CancelDistribution is the owner's explicit unwind from GracePeriod back to
// Active. No funds move.
func (v *Vault) CancelDistribution(caller types.Address, now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.owner {
		return ErrNotOwner
	}
	if err := v.transition(lifecycle.EvCancelDistribution, now); err != nil {
		return err
	}
	v.persistLocked()
	return nil
}

// Deposit moves amount of token from the owner into the vault and forwards it
// to the yield boundary. Owner-only, Active-only.
func (v *Vault) Deposit(caller types.Address, token types.Token, amount math.Int, now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.owner {
		return ErrNotOwner
	}
	if v.state != types.VaultStateActive {
		return fmt.Errorf("%w: deposits require %s, vault is %s", ErrWrongState, types.VaultStateActive, v.state)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ErrZeroAmount
	}
	if !v.deps.Yield.Supports(token) {
		return fmt.Errorf("%w: %s", ErrUnsupportedToken, token)
	}

	if err := v.deps.Ledger.Transfer(v.owner, Account(v.id), token, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := v.deps.Yield.Deposit(token, amount); err != nil {
		// Refund so the failed operation leaves no trace.
		_ = v.deps.Ledger.Transfer(Account(v.id), v.owner, token, amount)
		return fmt.Errorf("%w: %v", ErrYieldOperation, err)
	}

	v.held[token] = struct{}{}
	metrics.RecordDeposit(token.String())
	v.deps.Sink.Emit(Deposited{VaultID: v.id, Token: token, Amount: amount})
	v.persistLocked()
	return nil
}

// Withdraw returns amount of token to the owner, pulling any shortfall back
// from the yield boundary first. Owner-only, Active-only.
func (v *Vault) Withdraw(caller types.Address, token types.Token, amount math.Int, now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.owner {
		return ErrNotOwner
	}
	if v.state != types.VaultStateActive {
		return fmt.Errorf("%w: withdrawals require %s, vault is %s", ErrWrongState, types.VaultStateActive, v.state)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ErrZeroAmount
	}

	idle := v.idleFor(token)
	total := idle.Add(v.deps.Yield.Balance(token))
	if total.LT(amount) {
		return fmt.Errorf("%w: have %s %s, want %s", ErrInsufficientBalance, total, token, amount)
	}

	if idle.LT(amount) {
		shortfall := amount.Sub(idle)
		realized, err := v.deps.Yield.Withdraw(token, shortfall)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrYieldOperation, err)
		}
		// The realized amount is authoritative; it may exceed the request.
		idle = idle.Add(realized)
		v.idle[token] = idle
	}

	v.idle[token] = idle.Sub(amount)
	if err := v.deps.Ledger.Transfer(Account(v.id), v.owner, token, amount); err != nil {
		v.idle[token] = idle
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	metrics.RecordWithdrawal(token.String())
	v.deps.Sink.Emit(Withdrawn{VaultID: v.id, Token: token, Amount: amount})
	v.persistLocked()
	return nil
}

// ProposeWill stores a new timelocked beneficiary plan. Owner-only, Active-only.
func (v *Vault) ProposeWill(caller types.Address, beneficiaries []will.Beneficiary, now time.Time) (time.Time, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != types.VaultStateActive {
		return time.Time{}, fmt.Errorf("%w: proposals require %s, vault is %s", ErrWrongState, types.VaultStateActive, v.state)
	}

	effectiveAt, err := v.wills.Propose(caller, beneficiaries, now)
	if err != nil {
		return time.Time{}, err
	}

	v.deps.Sink.Emit(WillProposed{VaultID: v.id, EffectiveAt: effectiveAt})
	v.persistLocked()
	return effectiveAt, nil
}

// ActivateWill promotes the pending proposal once its timelock has elapsed.
// Permissionless.
func (v *Vault) ActivateWill(now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.wills.Activate(now); err != nil {
		return err
	}

	v.deps.Sink.Emit(WillActivated{VaultID: v.id, Beneficiaries: len(v.wills.Active())})
	v.persistLocked()
	return nil
}

// CancelWillProposal discards the pending proposal. Owner-only.
func (v *Vault) CancelWillProposal(caller types.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.wills.CancelProposal(caller); err != nil {
		return err
	}

	v.deps.Sink.Emit(ProposalCancelled{VaultID: v.id})
	v.persistLocked()
	return nil
}

// Will returns the active beneficiary plan, nil if none is configured.
func (v *Vault) Will() []will.Beneficiary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wills.Active()
}

// PendingWill returns the pending proposal and its activation time.
func (v *Vault) PendingWill() ([]will.Beneficiary, time.Time, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wills.Pending()
}

// Balance returns the externally observable balance for a token: idle plus
// yield-deposited.
func (v *Vault) Balance(token types.Token) math.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.idleFor(token).Add(v.deps.Yield.Balance(token))
}

// TimeUntilExpiry returns the time remaining until the current state's
// deadline lapses, zero if already expired or no deadline applies.
func (v *Vault) TimeUntilExpiry(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()

	var due time.Time
	switch v.state {
	case types.VaultStateActive:
		due = v.lastCheckIn.Add(v.cfg.CheckInInterval)
	case types.VaultStateWarning:
		due = v.stateEnteredAt.Add(v.cfg.WarningPeriod)
	case types.VaultStateGracePeriod:
		due = v.stateEnteredAt.Add(v.cfg.GracePeriod)
	default:
		return 0
	}
	if !now.Before(due) {
		return 0
	}
	return due.Sub(now)
}

// Streams returns the recipient's vesting streams.
func (v *Vault) Streams(recipient types.Address) []stream.Stream {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.streams.ForRecipient(recipient)
}

// Stream returns the stream with the given id.
func (v *Vault) Stream(id uint64) (stream.Stream, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.streams.Get(id)
}

// Claimable returns how much the beneficiary could claim from their streams
// of the given token right now.
func (v *Vault) Claimable(beneficiary types.Address, token types.Token, now time.Time) math.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.streams.ClaimableFor(beneficiary, token, now)
}

// ClaimStream pays the caller the vested, unclaimed portion of a stream.
func (v *Vault) ClaimStream(id uint64, caller types.Address, now time.Time) (math.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	paid, completed, err := v.streams.Claim(id, caller, now)
	if err != nil {
		metrics.RecordStreamClaim("failure")
		return math.ZeroInt(), err
	}

	metrics.RecordStreamClaim("success")
	s, _ := v.streams.Get(id)
	v.deps.Sink.Emit(StreamClaimed{VaultID: v.id, StreamID: id, Token: s.Token, Amount: paid})
	if completed {
		metrics.RecordStreamCompleted()
		v.deps.Sink.Emit(StreamCompleted{VaultID: v.id, StreamID: id})
	}
	v.persistLocked()
	return paid, nil
}

// HeldTokens returns every token the vault has ever held, sorted.
func (v *Vault) HeldTokens() []types.Token {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.heldTokensLocked()
}

func (v *Vault) heldTokensLocked() []types.Token {
	out := make([]types.Token, 0, len(v.held))
	for t := range v.held {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (v *Vault) idleFor(token types.Token) math.Int {
	if bal, ok := v.idle[token]; ok {
		return bal
	}
	return math.ZeroInt()
}

func (v *Vault) persistLocked() {
	if v.persist != nil {
		v.persist(v.snapshotLocked())
	}
}
