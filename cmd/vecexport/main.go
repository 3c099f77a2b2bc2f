// Package main is the entry point for the vecexport CLI.
//
// Usage:
//
//	vecexport [flags]                 convert the professor index (default)
//	vecexport convert [flags]         convert one index + metadata pair
//	vecexport batch -f jobs.yaml      convert several pairs concurrently
//	vecexport inspect <index>         describe an index without converting it
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/vecexport/cmd/vecexport/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
