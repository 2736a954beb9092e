package main

import (
	"os"

	"github.com/CrazyForks/waylog-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
