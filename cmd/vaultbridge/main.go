package main

import (
	"os"

	"vaultbridge/cmd/vaultbridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
