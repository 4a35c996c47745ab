// Package main provides the descent command line tool.
package main

import (
	"os"

	"github.com/born-ml/descent/cmd/descent/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
