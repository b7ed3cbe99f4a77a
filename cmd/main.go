package main

import (
	"os"

	"github.com/tinoosan/microfin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
