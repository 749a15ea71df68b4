package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"tickerboard/internal/logger"
	"tickerboard/internal/market"
)

// DefaultSearchLimit caps how many matches Search returns.
const DefaultSearchLimit = 10

// Provider supplies the instrument universe the catalog serves.
type Provider interface {
	List(ctx context.Context) ([]market.Instrument, error)
	Name() string
}

// Catalog holds the tradable instrument universe in memory and answers
// lookups and substring searches against it. Refresh swaps the whole
// list atomically; a failed refresh keeps the previous one.
type Catalog struct {
	provider Provider
	limit    int

	mu          sync.RWMutex
	instruments []market.Instrument
	bySymbol    map[string]market.Instrument
}

func New(provider Provider, searchLimit int) *Catalog {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &Catalog{
		provider: provider,
		limit:    searchLimit,
		bySymbol: make(map[string]market.Instrument),
	}
}

// Refresh pulls a fresh list from the provider. On error the catalog
// keeps serving whatever it had.
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.provider == nil {
		return errors.New("catalog: no provider configured")
	}
	list, err := c.provider.List(ctx)
	if err != nil {
		return err
	}
	bySymbol := make(map[string]market.Instrument, len(list))
	for _, ins := range list {
		bySymbol[ins.Symbol] = ins
	}
	c.mu.Lock()
	c.instruments = list
	c.bySymbol = bySymbol
	c.mu.Unlock()
	logger.Infof("catalog: loaded %d instruments from %s", len(list), c.provider.Name())
	return nil
}

// Len reports the number of instruments currently held.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.instruments)
}

// Lookup resolves a symbol to its instrument. The symbol is matched
// case-insensitively.
func (c *Catalog) Lookup(symbol string) (market.Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ins, ok := c.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return ins, ok
}

// Search returns instruments whose base asset or full symbol contains
// the query, case-insensitive, in discovery order. A blank query
// matches nothing. Results are capped at the configured limit.
func (c *Catalog) Search(query string) []market.Instrument {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]market.Instrument, 0, c.limit)
	for _, ins := range c.instruments {
		if strings.Contains(strings.ToLower(ins.BaseAsset), q) ||
			strings.Contains(strings.ToLower(ins.Symbol), q) {
			out = append(out, ins)
			if len(out) == c.limit {
				break
			}
		}
	}
	return out
}
