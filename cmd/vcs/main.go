package main

import (
	"os"

	"minivcs/cmd/vcs/commands"
)

func main() {
	os.Exit(commands.Execute())
}
