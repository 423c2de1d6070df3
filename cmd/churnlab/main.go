// Package main provides the churnlab CLI entry point.
package main

import (
	"os"

	"github.com/leapstack-labs/churnlab/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
