// Package main is the entry point for the dealquery CLI binary.
package main

import (
	"os"

	"dealquery/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
