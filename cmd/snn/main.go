// Package main provides the snn CLI: build, inspect and evaluate the spiking
// surrogate-gradient operators.
package main

import (
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
