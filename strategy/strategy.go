// Package strategy defines the stock-selection contract the simulator
// drives, plus a registry of named built-in strategies.
package strategy

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Strategy produces a dated stock selection and its target weights.
//
// Select may only consult data dated <= date. Weights must sum to 1.0
// within tolerance; the simulator validates the sum and refuses to trade
// on a mismatch rather than renormalizing.
type Strategy interface {
	Name() string
	Select(ctx context.Context, universe []string, date time.Time, topN int) ([]string, error)
	Weights(tickers []string) map[string]float64
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Strategy)
)

func Register(s Strategy) {
	mu.Lock()
	defer mu.Unlock()
	registry[s.Name()] = s
}

// Get returns the registered strategy or nil.
func Get(name string) Strategy {
	mu.RLock()
	defer mu.RUnlock()
	return registry[name]
}

// Names lists registered strategy names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EqualWeights assigns 1/n to each ticker. Shared by built-ins that do
// not express a conviction-weighted allocation.
func EqualWeights(tickers []string) map[string]float64 {
	if len(tickers) == 0 {
		return map[string]float64{}
	}
	w := 1.0 / float64(len(tickers))
	out := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		out[t] = w
	}
	return out
}
