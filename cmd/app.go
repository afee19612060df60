// Package cmd implements the CLI application to manage a stock account.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/config"
	"github.com/etnz/stockbook/store"
	"go.uber.org/zap"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile  = flag.String("config", "stockbook.toml", "Path to the configuration file")
	accountFile = flag.String("account", "", "Path to the account file (JSON). Overrides the configuration.")
	storeFile   = flag.String("store", "", "Path to the SQLite order store. Overrides the configuration.")
)

// stdout receives the reports.
var stdout io.Writer = os.Stdout

// session holds what a command needs: configuration, logger, the account and
// its optional store.
type session struct {
	config  *config.Config
	logger  *zap.Logger
	file    string
	store   *store.Store
	account *stockbook.Account
}

// openSession loads the configuration and opens the store, if any.
func openSession() (*session, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *accountFile != "" {
		cfg.Account = *accountFile
	}
	if *storeFile != "" {
		cfg.Store = *storeFile
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	s := &session{config: cfg, logger: logger, file: cfg.Account}
	if cfg.Store != "" {
		if s.store, err = store.Open(cfg.Store, logger); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// loadSession opens a session and loads the account.
func loadSession() (*session, error) {
	s, err := openSession()
	if err != nil {
		return nil, err
	}
	a, issues, err := stockbook.LoadAccount(s.file, stockbook.WithLogger(s.logger))
	if errors.Is(err, fs.ErrNotExist) {
		s.close()
		return nil, fmt.Errorf("no account in %q, create one with 'sbk init'", s.file)
	}
	if err != nil {
		s.close()
		return nil, err
	}
	for _, issue := range issues {
		s.logger.Warn("account file issue", zap.String("file", s.file), zap.Error(issue))
	}
	s.account = a
	return s, nil
}

func (s *session) close() {
	if s.store != nil {
		s.store.Close()
	}
	s.logger.Sync()
}

// save writes the account file, then records the change in the store with
// record. An account missing from the store is stored whole.
func (s *session) save(ctx context.Context, record func(*store.Store) error) error {
	if err := stockbook.SaveAccount(s.file, s.account); err != nil {
		return err
	}
	if s.store == nil {
		return nil
	}
	err := record(s.store)
	if errors.Is(err, store.ErrNotFound) {
		err = s.store.Save(ctx, s.account)
	}
	if err != nil {
		return fmt.Errorf("account saved to %q but not to the store: %w", s.file, err)
	}
	return nil
}

// parseTime reads a date or a RFC 3339 time. The empty string is now.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC().Truncate(time.Second), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
