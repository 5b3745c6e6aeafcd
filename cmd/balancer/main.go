// Package main provides the entry point for the balancer CLI.
package main

import (
	"fmt"
	"os"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
