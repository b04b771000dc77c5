// Package main is the entry point for the pricing CLI.
package main

import (
	"os"

	"pricing-engine/cmd/cli/cmd"
	"pricing-engine/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
