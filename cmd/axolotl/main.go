package main

import (
	"os"

	"axolotl/cmd/axolotl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
