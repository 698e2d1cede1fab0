package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rshade/planfocus/internal/cli"
	"github.com/rshade/planfocus/pkg/version"
)

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	return root.ExecuteContext(context.Background())
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
