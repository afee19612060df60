package stockbook

import (
	"errors"
	"fmt"
)

// PriceProvider returns the latest known market price of a symbol.
//
// Implementations return an error wrapping ErrPriceUnavailable when they have
// no price. A missing price is never treated as zero.
type PriceProvider interface {
	LatestPrice(symbol string) (Money, error)
}

// PriceFunc adapts a function to the PriceProvider interface.
type PriceFunc func(symbol string) (Money, error)

func (f PriceFunc) LatestPrice(symbol string) (Money, error) { return f(symbol) }

// PriceMap is an in-memory PriceProvider.
type PriceMap map[string]Money

func (m PriceMap) LatestPrice(symbol string) (Money, error) {
	p, ok := m[symbol]
	if !ok {
		return Money{}, fmt.Errorf("%w: no price for %q", ErrPriceUnavailable, symbol)
	}
	return p, nil
}

// WithDefaultPrice returns a provider that answers fallback whenever p has no
// price. Other errors are still returned.
func WithDefaultPrice(p PriceProvider, fallback Money) PriceProvider {
	return PriceFunc(func(symbol string) (Money, error) {
		price, err := p.LatestPrice(symbol)
		if errors.Is(err, ErrPriceUnavailable) {
			return fallback, nil
		}
		return price, err
	})
}
