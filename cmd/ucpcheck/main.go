package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ucpkit/ucpcheck/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Formatters already wrote the user-facing message; keep stderr to
		// the bare error for anything that escaped them.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
