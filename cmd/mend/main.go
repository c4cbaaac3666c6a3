// Package main is the entry point for the mend CLI.
// Mend is a CI self-healing engine: it classifies failing end-to-end runs,
// performs bounded reversible remediation, and gates generated fixes behind
// structural and risk checks.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mendci/mend/internal/cli"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			if !exitErr.Printed {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
