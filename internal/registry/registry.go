// Package registry keeps the analysed securities of the running process.
package registry

import (
	"errors"
	"sort"
	"sync"

	"StockAnalyser/internal/model"
)

// ErrNoEligible is returned by RankByBeta when no security has a beta value yet.
var ErrNoEligible = errors.New("no analysed security has a beta value; run a technical analysis first")

// Registry maps ticker symbols to their latest Security. Entries are never evicted.
// Securities are copied in and out so callers can never mutate a stored entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*model.Security
	order   []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*model.Security)}
}

// Upsert inserts sec under symbol or replaces the stored instance whole.
// A replaced entry keeps its original insertion position.
func (r *Registry) Upsert(symbol string, sec *model.Security) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[symbol]; !ok {
		r.order = append(r.order, symbol)
	}
	r.entries[symbol] = sec.Clone()
}

// Get returns a copy of the stored security.
func (r *Registry) Get(symbol string) (*model.Security, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sec, ok := r.entries[symbol]
	if !ok {
		return nil, false
	}
	return sec.Clone(), true
}

// Len returns the number of stored securities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Symbols returns the stored symbols in insertion order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// RankByBeta returns the securities with a beta value, highest beta first.
// Equal betas keep insertion order.
func (r *Registry) RankByBeta() ([]*model.Security, error) {
	r.mu.RLock()
	ranked := make([]*model.Security, 0, len(r.order))
	for _, symbol := range r.order {
		if sec := r.entries[symbol]; sec.HasBeta {
			ranked = append(ranked, sec.Clone())
		}
	}
	r.mu.RUnlock()

	if len(ranked) == 0 {
		return nil, ErrNoEligible
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BetaValue > ranked[j].BetaValue
	})
	return ranked, nil
}
