package cmd

import (
	"flag"

	"github.com/etnz/stockbook"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Commands lists the sbk subcommands by group.
func Commands() map[string][]subcommands.Command {
	return map[string][]subcommands.Command{
		"account": {
			&initCmd{},
			&depositCmd{},
			&watchCmd{},
			&watchCmd{remove: true},
		},
		"orders": {
			&orderCmd{action: stockbook.Buy},
			&orderCmd{action: stockbook.Sell},
		},
		"reports": {
			&holdingCmd{},
			&historyCmd{},
			&replayCmd{},
		},
		"help": {
			&topicCmd{},
		},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for group, cmds := range Commands() {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
}

// flagPredictors predicts the values of flags that name files.
var flagPredictors = map[string]complete.Predictor{
	"config":  predict.Files("*.toml"),
	"account": predict.Files("*.json"),
	"store":   predict.Files("*.db"),
	"q":       predict.Files("*.json"),
}

func predictFlags(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}

// Completion describes the sbk command line for shell completion.
func Completion(global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictFlags(global),
	}
	for _, cmds := range Commands() {
		for _, cmd := range cmds {
			fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
			cmd.SetFlags(fs)
			root.Sub[cmd.Name()] = &complete.Command{Flags: predictFlags(fs)}
		}
	}
	return root
}
