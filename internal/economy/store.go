// Package economy holds player balances. Amounts are in minor currency units
// (cents for EUR).
package economy

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInsufficientFunds is returned by operations that need a debit the
// player's balance does not cover.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Store is the balance backend. persist.BalanceRepo implements it on
// PostgreSQL; Memory implements it in process.
type Store interface {
	Balance(ctx context.Context, player int64) (int64, error)
	Credit(ctx context.Context, player int64, amount int64) error
	// Debit withdraws amount if the balance covers it; ok is false otherwise.
	Debit(ctx context.Context, player int64, amount int64) (ok bool, err error)
}

// Memory is a Store kept in a map. Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	balances map[int64]int64
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[int64]int64)}
}

func (m *Memory) Balance(_ context.Context, player int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[player], nil
}

func (m *Memory) Credit(_ context.Context, player int64, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit %d: negative amount", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[player] += amount
	return nil
}

func (m *Memory) Debit(_ context.Context, player int64, amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("debit %d: negative amount", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[player] < amount {
		return false, nil
	}
	m.balances[player] -= amount
	return true, nil
}

// Charge debits amount and maps an uncovered debit to ErrInsufficientFunds.
func Charge(ctx context.Context, s Store, player int64, amount int64) error {
	ok, err := s.Debit(ctx, player, amount)
	if err != nil {
		return fmt.Errorf("debit player %d: %w", player, err)
	}
	if !ok {
		return ErrInsufficientFunds
	}
	return nil
}
