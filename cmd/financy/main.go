package main

import (
	"os"

	"financy/cmd/financy/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
