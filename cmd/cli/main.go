// Package main is the entry point for the storformat CLI.
package main

import (
	"os"

	"storformat/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
