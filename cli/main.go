package main

import (
	"os"

	"github.com/lendline/lendline-stack/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
