package stockbook

import "slices"

// watchlist is a set of symbols that keeps insertion order.
type watchlist struct {
	symbols []string
}

func (w *watchlist) add(symbol string) bool {
	if slices.Contains(w.symbols, symbol) {
		return false
	}
	w.symbols = append(w.symbols, symbol)
	return true
}

func (w *watchlist) remove(symbol string) bool {
	i := slices.Index(w.symbols, symbol)
	if i < 0 {
		return false
	}
	w.symbols = slices.Delete(w.symbols, i, i+1)
	return true
}

// AddToWatchlist adds symbol to the watchlist. It reports whether the
// watchlist changed.
func (a *Account) AddToWatchlist(symbol string) bool { return a.watchlist.add(symbol) }

// RemoveFromWatchlist removes symbol from the watchlist. It reports whether
// the watchlist changed.
func (a *Account) RemoveFromWatchlist(symbol string) bool { return a.watchlist.remove(symbol) }

// IsWatched reports whether symbol is on the watchlist.
func (a *Account) IsWatched(symbol string) bool { return slices.Contains(a.watchlist.symbols, symbol) }

// Watchlist returns the watched symbols in insertion order.
func (a *Account) Watchlist() []string { return slices.Clone(a.watchlist.symbols) }
