package main

import (
	"os"

	"tryon-client/cmd/tryon-client/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
