package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/store"
	"github.com/google/subcommands"
)

// setup points the global flags to a fresh directory and captures the output.
func setup(t *testing.T, withStore bool) (dir string, out *bytes.Buffer) {
	t.Helper()
	dir = t.TempDir()
	t.Chdir(dir)
	out = new(bytes.Buffer)

	saved := []string{*configFile, *accountFile, *storeFile}
	savedRaw, savedOut := *rawOutput, stdout
	t.Cleanup(func() {
		*configFile, *accountFile, *storeFile = saved[0], saved[1], saved[2]
		*rawOutput, stdout = savedRaw, savedOut
	})

	*configFile = filepath.Join(dir, "stockbook.toml")
	*accountFile = filepath.Join(dir, "account.json")
	*storeFile = ""
	if withStore {
		*storeFile = filepath.Join(dir, "stockbook.db")
	}
	*rawOutput = true
	stdout = out
	return dir, out
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("%s: cannot parse %v: %v", cmd.Name(), args, err)
	}
	return cmd.Execute(context.Background(), f)
}

func load(t *testing.T) *stockbook.Account {
	t.Helper()
	a, issues, err := stockbook.LoadAccount(*accountFile)
	if err != nil {
		t.Fatalf("LoadAccount() failed: %v", err)
	}
	if len(issues) > 0 {
		t.Fatalf("LoadAccount() issues: %v", issues)
	}
	return a
}

func TestTradingSession(t *testing.T) {
	setup(t, false)
	buy := &orderCmd{action: stockbook.Buy}
	sell := &orderCmd{action: stockbook.Sell}

	steps := []struct {
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{&initCmd{}, []string{"-cash", "1000", "-id", "alice"}, subcommands.ExitSuccess},
		{&initCmd{}, []string{"-cash", "5"}, subcommands.ExitFailure}, // already exists
		{buy, []string{"-d", "2025-01-02", "AAPL", "2", "100"}, subcommands.ExitSuccess},
		{buy, []string{"-d", "2025-01-03", "AAPL", "3", "120"}, subcommands.ExitSuccess},
		{buy, []string{"MSFT", "10", "100"}, subcommands.ExitFailure}, // 1000 > 440
		{sell, []string{"-d", "2025-01-04", "AAPL", "4", "130"}, subcommands.ExitSuccess},
		{sell, []string{"AAPL", "2", "130"}, subcommands.ExitFailure}, // only 1 left
		{sell, []string{"AAPL", "1"}, subcommands.ExitUsageError},
		{&depositCmd{}, []string{"-d", "2025-01-05", "60"}, subcommands.ExitSuccess},
		{&depositCmd{}, []string{"--", "-10"}, subcommands.ExitFailure},
		{&watchCmd{}, []string{"GOOG", "AMZN"}, subcommands.ExitSuccess},
		{&watchCmd{remove: true}, []string{"AMZN"}, subcommands.ExitSuccess},
	}
	for i, s := range steps {
		if got := run(t, s.cmd, s.args...); got != s.want {
			t.Fatalf("step %d: %s %v = %v, want %v", i, s.cmd.Name(), s.args, got, s.want)
		}
	}

	a := load(t)
	if a.ID() != "alice" {
		t.Errorf("ID() = %q, want alice", a.ID())
	}
	// 1000 - 200 - 360 + 520 + 60
	if want := stockbook.M(1020, "USD"); !a.Cash().Equal(want) {
		t.Errorf("Cash() = %v, want %v", a.Cash(), want)
	}
	if a.OrderCount() != 3 {
		t.Errorf("OrderCount() = %d, want 3", a.OrderCount())
	}
	// the cheapest lots are sold first: 2@100 then 2 of 3@120
	lots := a.Ledger("AAPL").Lots()
	if len(lots) != 1 || !lots[0].Price.Equal(stockbook.M(120, "USD")) || !lots[0].Quantity.Equal(stockbook.Q(1)) {
		t.Errorf("AAPL lots = %v, want [1@120]", lots)
	}
	if got := a.Watchlist(); len(got) != 1 || got[0] != "GOOG" {
		t.Errorf("Watchlist() = %v, want [GOOG]", got)
	}
}

func TestInitGeneratesID(t *testing.T) {
	setup(t, false)
	if got := run(t, &initCmd{}, "-cash", "10", "-currency", "EUR"); got != subcommands.ExitSuccess {
		t.Fatalf("init = %v", got)
	}
	a := load(t)
	if len(a.ID()) != 36 {
		t.Errorf("ID() = %q, want a UUID", a.ID())
	}
	if a.Currency() != "EUR" {
		t.Errorf("Currency() = %q, want EUR", a.Currency())
	}
}

func TestCommandsWithStore(t *testing.T) {
	dir, _ := setup(t, true)
	run(t, &initCmd{}, "-cash", "500", "-id", "bob")
	run(t, &orderCmd{action: stockbook.Buy}, "-d", "2025-01-02", "AIR", "2", "100")
	run(t, &depositCmd{}, "-d", "2025-01-03", "50")
	run(t, &watchCmd{}, "SAF")

	st, err := store.Open(filepath.Join(dir, "stockbook.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	a, skipped, err := st.Load(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("Load() skipped %v", skipped)
	}
	if want := load(t); !a.Cash().Equal(want.Cash()) || a.OrderCount() != want.OrderCount() {
		t.Errorf("store has cash %v and %d orders, file has %v and %d", a.Cash(), a.OrderCount(), want.Cash(), want.OrderCount())
	}
	if got := a.Watchlist(); len(got) != 1 || got[0] != "SAF" {
		t.Errorf("Watchlist() = %v, want [SAF]", got)
	}
}

func TestHoldingAndHistory(t *testing.T) {
	dir, out := setup(t, false)
	run(t, &initCmd{}, "-cash", "1000", "-id", "carol")
	run(t, &orderCmd{action: stockbook.Buy}, "AAPL", "2", "100")
	run(t, &orderCmd{action: stockbook.Buy}, "MSFT", "1", "300")
	quotes := filepath.Join(dir, "quotes.json")
	if err := os.WriteFile(quotes, []byte(`{"AAPL": {"last": 150}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if got := run(t, &holdingCmd{}, "-q", quotes, "-path", "$.{symbol}.last", "-lots"); got != subcommands.ExitSuccess {
		t.Fatalf("holding = %v", got)
	}
	for _, want := range []string{"# Account carol", "| AAPL | 2 |", "| MSFT | 1 |", "n/a", "Lots of MSFT"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("holding output missing %q:\n%s", want, out)
		}
	}

	out.Reset()
	run(t, &holdingCmd{}, "-q", quotes, "-path", "$.{symbol}.last", "-default-price", "250")
	if strings.Contains(out.String(), "n/a") {
		t.Errorf("default price must value every holding:\n%s", out)
	}

	out.Reset()
	run(t, &historyCmd{}, "-s", "MSFT")
	if !strings.Contains(out.String(), "MSFT") || strings.Contains(out.String(), "AAPL") {
		t.Errorf("history -s MSFT:\n%s", out)
	}
}

func TestHoldingQuoteCurrency(t *testing.T) {
	dir, out := setup(t, false)
	run(t, &initCmd{}, "-cash", "1000", "-id", "erin")
	run(t, &orderCmd{action: stockbook.Buy}, "AAPL", "2", "100")
	quotes := filepath.Join(dir, "quotes.json")
	if err := os.WriteFile(quotes, []byte(`{"AAPL": 150}`), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		currency string
		unpriced bool
	}{
		{currency: "USD", unpriced: false},
		{currency: "EUR", unpriced: true}, // quotes in another currency than the account
	} {
		t.Run(tc.currency, func(t *testing.T) {
			config := "[quotes]\ncurrency = \"" + tc.currency + "\"\n"
			if err := os.WriteFile(*configFile, []byte(config), 0o644); err != nil {
				t.Fatal(err)
			}
			out.Reset()
			if got := run(t, &holdingCmd{}, "-q", quotes); got != subcommands.ExitSuccess {
				t.Fatalf("holding = %v", got)
			}
			if got := strings.Contains(out.String(), "n/a"); got != tc.unpriced {
				t.Errorf("AAPL unpriced = %v, want %v:\n%s", got, tc.unpriced, out)
			}
		})
	}
}

func TestReplayVerify(t *testing.T) {
	_, out := setup(t, false)
	run(t, &initCmd{}, "-cash", "100", "-id", "dave")
	run(t, &orderCmd{action: stockbook.Buy}, "X", "1", "40")

	if got := run(t, &replayCmd{}, "-verify"); got != subcommands.ExitSuccess {
		t.Fatalf("replay -verify = %v on a consistent account:\n%s", got, out)
	}

	// tamper with the stored cash
	data, err := os.ReadFile(*accountFile)
	if err != nil {
		t.Fatal(err)
	}
	data = bytes.Replace(data, []byte(`"current_money": 60`), []byte(`"current_money": 75`), 1)
	if err := os.WriteFile(*accountFile, data, 0o644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if got := run(t, &replayCmd{}, "-verify"); got != subcommands.ExitFailure {
		t.Errorf("replay -verify = %v on a tampered account, want failure:\n%s", got, out)
	}
	if got := run(t, &replayCmd{}, "-save"); got != subcommands.ExitSuccess {
		t.Fatalf("replay -save = %v", got)
	}
	if got := run(t, &replayCmd{}, "-verify"); got != subcommands.ExitSuccess {
		t.Errorf("replay -verify = %v after -save", got)
	}
}

func TestCompletion(t *testing.T) {
	global := flag.NewFlagSet("sbk", flag.ContinueOnError)
	global.String("config", "", "")
	global.Bool("raw", false, "")
	c := Completion(global)
	for _, name := range []string{"init", "buy", "sell", "deposit", "watch", "unwatch", "holding", "history", "replay", "topic"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("Completion() misses %q", name)
		}
	}
	if _, ok := c.Sub["holding"].Flags["q"]; !ok {
		t.Errorf("Completion() misses holding -q")
	}
	if _, ok := c.Flags["config"]; !ok {
		t.Errorf("Completion() misses -config")
	}
}
