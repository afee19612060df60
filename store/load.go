package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/stockbook"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Load reads the histories of account id and rebuilds the account by replay.
// Orders skipped by the replay are returned, they stay in the order log.
func (s *Store) Load(ctx context.Context, id string, opts ...stockbook.Option) (*stockbook.Account, []stockbook.Skipped, error) {
	var currency, initial string
	err := s.db.QueryRowContext(ctx, "SELECT currency, initial_money FROM accounts WHERE id = ?", id).Scan(&currency, &initial)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query account %q: %w", id, err)
	}
	initialCash, err := stockbook.ParseMoney(initial, currency)
	if err != nil {
		return nil, nil, fmt.Errorf("account %q: invalid initial money: %w", id, err)
	}

	orders, err := s.orders(ctx, id, currency)
	if err != nil {
		return nil, nil, err
	}
	injections, err := s.injections(ctx, id, currency)
	if err != nil {
		return nil, nil, err
	}
	watch, err := s.watchlist(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	a, skipped := stockbook.Restore(id, initialCash, orders, injections, opts...)
	for _, symbol := range watch {
		a.AddToWatchlist(symbol)
	}
	s.logger.Debug("account loaded", zap.String("account", id), zap.Int("orders", len(orders)), zap.Int("skipped", len(skipped)))
	return a, skipped, nil
}

func (s *Store) orders(ctx context.Context, id, currency string) ([]stockbook.TradingOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT symbol, action, price, quantity, time_stamp FROM orders WHERE account_id = ? ORDER BY seq ASC",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []stockbook.TradingOrder
	for rows.Next() {
		var symbol, action, price, quantity string
		var ts int64
		if err := rows.Scan(&symbol, &action, &price, &quantity, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o := stockbook.TradingOrder{Symbol: symbol, Time: fromUnix(ts)}
		if o.Action, err = stockbook.ParseAction(action); err != nil {
			return nil, fmt.Errorf("order %d of %q: %w", len(orders), id, err)
		}
		if o.Price, err = stockbook.ParseMoney(price, currency); err != nil {
			return nil, fmt.Errorf("order %d of %q: %w", len(orders), id, err)
		}
		if o.Quantity, err = stockbook.ParseQuantity(quantity); err != nil {
			return nil, fmt.Errorf("order %d of %q: %w", len(orders), id, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return orders, nil
}

func (s *Store) injections(ctx context.Context, id, currency string) ([]stockbook.CashInjection, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT amount, time_stamp FROM injections WHERE account_id = ? ORDER BY seq ASC",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash injections: %w", err)
	}
	defer rows.Close()

	var injections []stockbook.CashInjection
	for rows.Next() {
		var amount string
		var ts int64
		if err := rows.Scan(&amount, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan cash injection: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("cash injection %d of %q: %w", len(injections), id, err)
		}
		injections = append(injections, stockbook.NewCashInjection(fromUnix(ts), stockbook.M(d, currency)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return injections, nil
}

func (s *Store) watchlist(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT symbol FROM watchlist WHERE account_id = ? ORDER BY position ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()
	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan watched symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}
