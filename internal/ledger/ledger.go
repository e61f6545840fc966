// Package ledger provides the in-memory balance collaborator. Accounts
// hold a free and a reserved bucket; every mutation is atomic under one
// lock and fails without partial writes.
package ledger

import (
	"context"
	"fmt"
	"sync"

	id "locregistry/pkg/domain"
	"locregistry/pkg/platform/sentinel"
)

type balances struct {
	free     id.Balance
	reserved id.Balance
}

// InMemoryLedger implements ports.Ledger. Unknown accounts read as zero
// balances.
type InMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*balances
}

func New() *InMemoryLedger {
	return &InMemoryLedger{accounts: make(map[id.AccountID]*balances)}
}

func (l *InMemoryLedger) Free(_ context.Context, account id.AccountID) (id.Balance, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.accounts[account]; ok {
		return b.free, nil
	}
	return 0, nil
}

func (l *InMemoryLedger) Reserved(_ context.Context, account id.AccountID) (id.Balance, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.accounts[account]; ok {
		return b.reserved, nil
	}
	return 0, nil
}

func (l *InMemoryLedger) CanSlash(_ context.Context, account id.AccountID, amount id.Balance) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.accounts[account]
	return ok && b.free >= amount, nil
}

func (l *InMemoryLedger) Slash(_ context.Context, account id.AccountID, amount id.Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.accounts[account]
	if !ok || b.free < amount {
		return fmt.Errorf("slash %s: %w", account, sentinel.ErrInsufficientFunds)
	}
	b.free -= amount
	return nil
}

func (l *InMemoryLedger) Reserve(_ context.Context, account id.AccountID, amount id.Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.accounts[account]
	if !ok || b.free < amount {
		return fmt.Errorf("reserve %s: %w", account, sentinel.ErrInsufficientFunds)
	}
	b.free -= amount
	b.reserved += amount
	return nil
}

func (l *InMemoryLedger) Unreserve(_ context.Context, account id.AccountID, amount id.Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.accounts[account]
	if !ok || b.reserved < amount {
		return fmt.Errorf("unreserve %s: %w", account, sentinel.ErrInsufficientFunds)
	}
	b.reserved -= amount
	b.free += amount
	return nil
}

func (l *InMemoryLedger) SlashReserved(_ context.Context, account id.AccountID, amount id.Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.accounts[account]
	if !ok || b.reserved < amount {
		return fmt.Errorf("slash reserved %s: %w", account, sentinel.ErrInsufficientFunds)
	}
	b.reserved -= amount
	return nil
}

func (l *InMemoryLedger) Deposit(_ context.Context, account id.AccountID, amount id.Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.accounts[account]
	if !ok {
		b = &balances{}
		l.accounts[account] = b
	}
	b.free += amount
	return nil
}
