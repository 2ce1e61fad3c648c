package main

import (
	"os"

	"github.com/theirongolddev/iuv/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
