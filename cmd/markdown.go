package cmd

import (
	"flag"
	"fmt"

	"github.com/charmbracelet/glamour"
)

var rawOutput = flag.Bool("raw", false, "Print reports as raw markdown")

// printMarkdown renders md for the terminal. It falls back to the raw markdown
// when the rendering fails.
func printMarkdown(md string) {
	if *rawOutput {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}
