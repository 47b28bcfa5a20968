package main

import (
	"os"

	"github.com/Cocofu92/rs-dashboard/cmd/rsscan/commands"
)

// main is the entry point for the rsscan CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/rsscan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
