// Package main is the entry point for ecomflow.
package main

import (
	"fmt"
	"os"

	"github.com/datamill-io/ecomflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
