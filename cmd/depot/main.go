package main

import (
	"os"

	"github.com/pirakansa/depot/internal/cli/commands"
)

var Version = "dev"

func main() {
	os.Exit(commands.Execute(Version))
}
