package main

import (
	"github.com/1amageek/app-mcp-sub001/cmd"

	// Registers the macOS provider via init.
	_ "github.com/1amageek/app-mcp-sub001/internal/platform/darwin"
)

func main() {
	cmd.Execute()
}
