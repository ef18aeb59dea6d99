// Package main is the entry point for the fewshot CLI.
package main

import (
	"os"

	"github.com/fewshotlabs/fewshot/cmd/fewshot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
