package main

import (
	"os"

	"github.com/benvon/lockin/cmd/lockin/commands"
)

func main() {
	err := commands.NewRootCmd().Execute()
	commands.ReportError(os.Stderr, err)
	os.Exit(commands.ExitCode(err))
}
