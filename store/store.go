// Package store persists stockbook accounts in SQLite.
//
// Only the histories are stored: the order log, the cash injections and the
// watchlist. Cash and lots are rebuilt by replay on Load.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/stockbook"
	_ "github.com/glebarez/go-sqlite"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when an account does not exist.
	ErrNotFound = errors.New("account not found")
	// ErrExists is returned when creating an account that already exists.
	ErrExists = errors.New("account already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	currency TEXT NOT NULL,
	initial_money TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS orders (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	price TEXT NOT NULL,
	quantity TEXT NOT NULL,
	time_stamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_account ON orders(account_id, seq);
CREATE TABLE IF NOT EXISTS injections (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	amount TEXT NOT NULL,
	time_stamp INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS watchlist (
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	PRIMARY KEY (account_id, symbol)
);
`

// Store is an SQLite account store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the database at path with WAL mode enabled.
// Use ":memory:" for a transient store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	logger.Debug("store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Create stores a new account with its whole history.
func (s *Store) Create(ctx context.Context, a *stockbook.Account) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if err := s.insertAccount(ctx, tx, a); err != nil {
			return err
		}
		return insertHistory(ctx, tx, a)
	})
}

// Save replaces the stored history of the account with the one of a,
// creating the account if needed.
func (s *Store) Save(ctx context.Context, a *stockbook.Account) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"orders", "injections", "watchlist"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE account_id = ?", a.ID()); err != nil {
				return fmt.Errorf("failed to clear %s of %q: %w", table, a.ID(), err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", a.ID()); err != nil {
			return fmt.Errorf("failed to delete account %q: %w", a.ID(), err)
		}
		if err := s.insertAccount(ctx, tx, a); err != nil {
			return err
		}
		return insertHistory(ctx, tx, a)
	})
}

func (s *Store) insertAccount(ctx context.Context, tx *sql.Tx, a *stockbook.Account) error {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE id = ?", a.ID()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query account %q: %w", a.ID(), err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %q", ErrExists, a.ID())
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO accounts (id, currency, initial_money) VALUES (?, ?, ?)",
		a.ID(), a.Currency(), a.InitialCash().Decimal().String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account %q: %w", a.ID(), err)
	}
	s.logger.Info("account stored", zap.String("account", a.ID()), zap.Int("orders", a.OrderCount()))
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, a *stockbook.Account) error {
	for _, o := range a.Orders() {
		if err := insertOrder(ctx, tx, a.ID(), o); err != nil {
			return err
		}
	}
	for _, inj := range a.CashInjections() {
		if err := insertInjection(ctx, tx, a.ID(), inj); err != nil {
			return err
		}
	}
	return setWatchlist(ctx, tx, a.ID(), a.Watchlist())
}

func insertOrder(ctx context.Context, db execer, id string, o stockbook.TradingOrder) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO orders (account_id, symbol, action, price, quantity, time_stamp) VALUES (?, ?, ?, ?, ?, ?)",
		id, o.Symbol, o.Action.String(), o.Price.Decimal().String(), o.Quantity.String(), unix(o.Time),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order %v: %w", o, err)
	}
	return nil
}

func insertInjection(ctx context.Context, db execer, id string, inj stockbook.CashInjection) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO injections (account_id, amount, time_stamp) VALUES (?, ?, ?)",
		id, inj.Amount.Decimal().String(), unix(inj.Time),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cash injection: %w", err)
	}
	return nil
}

func setWatchlist(ctx context.Context, db execer, id string, symbols []string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM watchlist WHERE account_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear watchlist: %w", err)
	}
	for i, symbol := range symbols {
		_, err := db.ExecContext(ctx,
			"INSERT INTO watchlist (account_id, position, symbol) VALUES (?, ?, ?)",
			id, i, symbol,
		)
		if err != nil {
			return fmt.Errorf("failed to insert watched symbol %q: %w", symbol, err)
		}
	}
	return nil
}

// AppendOrder records an order accepted by Account.ApplyOrder.
func (s *Store) AppendOrder(ctx context.Context, id string, o stockbook.TradingOrder) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	return insertOrder(ctx, s.db, id, o)
}

// AppendInjection records a cash injection accepted by
// Account.ApplyCashInjection.
func (s *Store) AppendInjection(ctx context.Context, id string, inj stockbook.CashInjection) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	return insertInjection(ctx, s.db, id, inj)
}

// SetWatchlist replaces the watchlist of the account.
func (s *Store) SetWatchlist(ctx context.Context, id string, symbols []string) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	return s.tx(ctx, func(tx *sql.Tx) error { return setWatchlist(ctx, tx, id, symbols) })
}

// Accounts returns the ids of the stored accounts, sorted.
func (s *Store) Accounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) exists(ctx context.Context, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("failed to query account %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}

func (s *Store) tx(ctx context.Context, f func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := f(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
