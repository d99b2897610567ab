package main

import (
	"os"

	"cipherledger/cmd/ledgerctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
