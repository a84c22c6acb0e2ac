package main

import (
	"os"

	"github.com/dshills/revet/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
