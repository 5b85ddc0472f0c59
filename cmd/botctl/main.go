package main

import (
	"os"

	"github.com/bnema/botctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
