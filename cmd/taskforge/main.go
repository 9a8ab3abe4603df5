package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/taskforge/internal"
	"github.com/valter-silva-au/taskforge/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	root := app.ResolveRoot()

	a, err := app.NewApp(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing taskforge: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
