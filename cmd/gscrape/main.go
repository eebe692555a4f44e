package main

import (
	"os"

	"github.com/FranksOps/gscrape/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
