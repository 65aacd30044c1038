// SPDX-License-Identifier: MIT
package yield

import (
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/math"

	"github.com/farholt/heirloomd/internal/ledger"
	"github.com/farholt/heirloomd/internal/types"
)

const secondsPerYear = 365 * 24 * 3600

// Position is the yield-side holding for one token.
type Position struct {
	Principal math.Int
	AccruedAt time.Time
}

// Memory is an in-process Adapter that accrues linear interest per second on
// deposited balances. Interest is minted into the adapter's custody account so
// ledger totals stay consistent with what withdrawals return.
type Memory struct {
	mu sync.Mutex

	ledger       ledger.Transferor
	account      types.Address // yield-side custody account
	vaultAccount types.Address // vault-side custody account

	annualRateBps int64
	supported     map[types.Token]bool
	positions     map[types.Token]*Position

	nowFn   func() time.Time
	failErr error
}

// NewMemory returns an accruing adapter bound to the given custody accounts.
func NewMemory(l ledger.Transferor, account, vaultAccount types.Address, annualRateBps int64, supported []types.Token) *Memory {
	sup := make(map[types.Token]bool, len(supported))
	for _, t := range supported {
		sup[t] = true
	}
	return &Memory{
		ledger:        l,
		account:       account,
		vaultAccount:  vaultAccount,
		annualRateBps: annualRateBps,
		supported:     sup,
		positions:     make(map[types.Token]*Position),
		nowFn:         time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook.
func (m *Memory) SetNowFunc(f func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nowFn = f
}

// FailWith makes every subsequent operation fail with err until reset with nil.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Supports implements Adapter.
func (m *Memory) Supports(token types.Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supported[token]
}

// Deposit implements Adapter.
func (m *Memory) Deposit(token types.Token, amount math.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return fmt.Errorf("%w: %v", ErrOperation, m.failErr)
	}
	if !m.supported[token] {
		return ErrTokenNotSupported
	}
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be positive", ErrOperation)
	}

	if err := m.ledger.Transfer(m.vaultAccount, m.account, token, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrOperation, err)
	}

	pos := m.accrueLocked(token)
	pos.Principal = pos.Principal.Add(amount)
	return nil
}

// Withdraw implements Adapter.
func (m *Memory) Withdraw(token types.Token, amount math.Int) (math.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), fmt.Errorf("%w: withdraw amount must be positive", ErrOperation)
	}
	return m.withdrawLocked(token, amount)
}

// WithdrawAll implements Adapter.
func (m *Memory) WithdrawAll(token types.Token) (math.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.withdrawLocked(token, math.Int{})
}

// withdrawLocked withdraws min(amount, balance), or the full balance when
// amount is nil.
func (m *Memory) withdrawLocked(token types.Token, amount math.Int) (math.Int, error) {
	if m.failErr != nil {
		return math.ZeroInt(), fmt.Errorf("%w: %v", ErrOperation, m.failErr)
	}
	if !m.supported[token] {
		return math.ZeroInt(), ErrTokenNotSupported
	}

	pos := m.accrueLocked(token)
	realized := pos.Principal
	if !amount.IsNil() && amount.LT(realized) {
		realized = amount
	}
	if realized.IsZero() {
		return math.ZeroInt(), nil
	}

	if err := m.ledger.Transfer(m.account, m.vaultAccount, token, realized); err != nil {
		return math.ZeroInt(), fmt.Errorf("%w: %v", ErrOperation, err)
	}
	pos.Principal = pos.Principal.Sub(realized)
	return realized, nil
}

// Balance implements Adapter.
func (m *Memory) Balance(token types.Token) math.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.supported[token] {
		return math.ZeroInt()
	}
	return m.accrueLocked(token).Principal
}

// accrueLocked folds interest earned since the last touch into the position
// and mints it into the adapter's custody account.
func (m *Memory) accrueLocked(token types.Token) *Position {
	now := m.nowFn()
	pos, ok := m.positions[token]
	if !ok {
		pos = &Position{Principal: math.ZeroInt(), AccruedAt: now}
		m.positions[token] = pos
		return pos
	}

	elapsed := int64(now.Sub(pos.AccruedAt) / time.Second)
	if elapsed <= 0 || !pos.Principal.IsPositive() || m.annualRateBps <= 0 {
		pos.AccruedAt = now
		return pos
	}

	// interest = principal * rateBps * elapsed / (10000 * secondsPerYear), floored
	interest := pos.Principal.
		Mul(math.NewInt(m.annualRateBps)).
		Mul(math.NewInt(elapsed)).
		Quo(math.NewInt(types.BasisPointsDenominator * secondsPerYear))
	if interest.IsPositive() {
		if err := m.ledger.Mint(m.account, token, interest); err == nil {
			pos.Principal = pos.Principal.Add(interest)
		}
	}
	pos.AccruedAt = now
	return pos
}

// Snapshot returns the current positions for persistence.
func (m *Memory) Snapshot() map[types.Token]Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[types.Token]Position, len(m.positions))
	for token, pos := range m.positions {
		out[token] = *pos
	}
	return out
}

// Restore replaces the adapter's positions and mints the restored principal
// into its custody account, re-establishing ledger consistency after a restart.
func (m *Memory) Restore(positions map[types.Token]Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions = make(map[types.Token]*Position, len(positions))
	for token, pos := range positions {
		p := pos
		if p.Principal.IsNil() {
			p.Principal = math.ZeroInt()
		}
		if p.Principal.IsPositive() {
			if err := m.ledger.Mint(m.account, token, p.Principal); err != nil {
				return err
			}
		}
		m.positions[token] = &p
	}
	return nil
}
