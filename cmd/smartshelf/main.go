package main

import (
	"os"

	"github.com/samarth126/SmartShelf/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
