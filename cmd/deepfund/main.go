package main

import (
	"os"

	"github.com/wonny/deepfund/cmd/deepfund/commands"
)

// main is the entry point for the deepfund CLI: go run ./cmd/deepfund [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
