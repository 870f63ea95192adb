// Package main is the entry point for the vitalwatch CLI.
package main

import (
	"os"

	"github.com/vitalwatch/vitalwatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
