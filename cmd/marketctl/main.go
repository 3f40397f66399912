package main

import (
	"os"

	"github.com/spec-kit/property-market/cmd/marketctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
