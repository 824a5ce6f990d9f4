package main

import (
	"os"

	"github.com/radiusdt/vector-insights/internal/cli"
)

func main() {
	if err := cli.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
