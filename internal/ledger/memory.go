// SPDX-License-Identifier: MIT
package ledger

import (
	"fmt"
	"sync"

	"cosmossdk.io/math"

	"github.com/farholt/heirloomd/internal/types"
)

// Memory is an in-process Transferor backed by a balance map.
type Memory struct {
	mu       sync.Mutex
	balances map[types.Address]map[types.Token]math.Int
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		balances: make(map[types.Address]map[types.Token]math.Int),
	}
}

// Transfer implements Transferor.
func (m *Memory) Transfer(from, to types.Address, token types.Token, amount math.Int) error {
	if from.IsZero() || to.IsZero() {
		return ErrInvalidAccount
	}
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive, got %s", amount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	have := m.balanceLocked(from, token)
	if have.LT(amount) {
		return fmt.Errorf("%w: account %s holds %s %s, need %s", ErrInsufficientFunds, from, have, token, amount)
	}

	m.setLocked(from, token, have.Sub(amount))
	m.setLocked(to, token, m.balanceLocked(to, token).Add(amount))
	return nil
}

// Mint implements Transferor.
func (m *Memory) Mint(to types.Address, token types.Token, amount math.Int) error {
	if to.IsZero() {
		return ErrInvalidAccount
	}
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("mint amount must be non-negative, got %s", amount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.setLocked(to, token, m.balanceLocked(to, token).Add(amount))
	return nil
}

// Balance implements Transferor.
func (m *Memory) Balance(addr types.Address, token types.Token) math.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(addr, token)
}

func (m *Memory) balanceLocked(addr types.Address, token types.Token) math.Int {
	if tokens, ok := m.balances[addr]; ok {
		if bal, ok := tokens[token]; ok {
			return bal
		}
	}
	return math.ZeroInt()
}

func (m *Memory) setLocked(addr types.Address, token types.Token, amount math.Int) {
	tokens, ok := m.balances[addr]
	if !ok {
		tokens = make(map[types.Token]math.Int)
		m.balances[addr] = tokens
	}
	tokens[token] = amount
}
