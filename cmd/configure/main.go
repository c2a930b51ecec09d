package main

import (
	"fmt"
	"os"

	"github.com/benvon/lockin/cmd/configure/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
