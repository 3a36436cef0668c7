// Package main is the entry point for the sitectl CLI tool.
package main

import (
	"os"

	"github.com/calm-red-fox/siteops/cmd/sitectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
