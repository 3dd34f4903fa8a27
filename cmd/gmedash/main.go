package main

import (
	"os"

	"github.com/kkaya/gmedash/cmd/gmedash/commands"
)

// main is the entry point for the gmedash CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
