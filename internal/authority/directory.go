// Package authority provides the legal-officer directory. The set is
// externally managed; this implementation keeps it in memory and exposes
// the two lookups the registry needs.
package authority

import (
	"context"
	"sort"
	"sync"

	id "locregistry/pkg/domain"
)

// InMemoryDirectory implements ports.AuthorityDirectory.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	officers map[id.AccountID]struct{}
}

func New(officers ...id.AccountID) *InMemoryDirectory {
	d := &InMemoryDirectory{officers: make(map[id.AccountID]struct{}, len(officers))}
	for _, o := range officers {
		d.officers[o] = struct{}{}
	}
	return d
}

func (d *InMemoryDirectory) IsLegalOfficer(_ context.Context, account id.AccountID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.officers[account]
	return ok, nil
}

func (d *InMemoryDirectory) LegalOfficers(_ context.Context) ([]id.AccountID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]id.AccountID, 0, len(d.officers))
	for o := range d.officers {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// Add registers an account as legal officer.
func (d *InMemoryDirectory) Add(account id.AccountID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.officers[account] = struct{}{}
}

// Remove drops an account from the officer set.
func (d *InMemoryDirectory) Remove(account id.AccountID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.officers, account)
}
