package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/luapack/luapack/internal/exitcode"
	"github.com/luapack/luapack/pkg/cli"
)

// Overridden at release time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Special-case the version flag so scripts get a bare version string
	// without paying for command startup
	for _, arg := range os.Args[1:] {
		if arg == "--version" {
			fmt.Fprintf(os.Stderr, "%s\n", version)
			os.Exit(0)
		}
	}

	if err := fang.Execute(
		context.Background(),
		cli.NewRootCommand(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(exitcode.Get(err))
	}
}
