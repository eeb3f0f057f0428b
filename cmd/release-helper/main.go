package main

import (
	"os"

	"github.com/jovyan123-playground/release-helper/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
