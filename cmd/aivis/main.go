// Package main is the entry point for the aivis CLI.
//
// Usage:
//
//	aivis [flags] <command> [args]
//
// Commands:
//
//	create-segments  - Separate, transcribe, and slice sources into utterance clips
//	create-datasets  - Review clips and assemble per-speaker training datasets
//	version          - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/tsukumijima/Aivis/cmd/aivis/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
