package main

import (
	"os"

	"github.com/techbantu/gharse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
