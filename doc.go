// Package stockbook implements the accounting of a stock trading account
// funded with cash.
//
// The core functionalities include:
//   - Lot tracking: every purchase opens a lot (price, quantity). A sale
//     consumes the cheapest lots first.
//   - Admission control: a buy needs enough cash, a sell needs enough shares.
//     A rejected order leaves the account unchanged and is not recorded.
//   - Event sourcing: the order log and the cash injections are the source of
//     truth. Replay rebuilds cash and lots from them and is used both to load
//     persisted accounts and to verify the incremental state.
//   - Valuation: market value, cost basis, gain/loss and weights, from an
//     injected PriceProvider. A missing price is an error, never a zero.
//   - Persistence: a tolerant JSON document codec, compatible with the files
//     of the first versions of the tracker.
//
// All amounts and quantities are decimals. Comparisons of quantities tolerate
// an absolute Epsilon of 1e-9.
//
// This package serves as the foundational logic for the `sbk` command-line
// tool.
package stockbook
