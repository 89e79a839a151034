package main

import (
	"os"

	"github.com/rustyeddy/retail/cmd/retail/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
