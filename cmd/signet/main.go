package main

import (
	"os"

	"github.com/majorcontext/signet/cmd/signet/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
