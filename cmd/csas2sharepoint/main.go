// Package main is the entry point for the csas2sharepoint CLI.
package main

import (
	"os"

	"github.com/vitexsoftware/csas-sharepoint/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
