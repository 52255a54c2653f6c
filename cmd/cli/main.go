// Package main is the entry point for the snowclone CLI binary.
package main

import (
	"os"

	cli "snowclone/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
