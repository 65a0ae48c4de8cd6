package main

import (
	"os"

	"github.com/tphakala/birdnet-exporter/cmd"
	"github.com/tphakala/birdnet-exporter/internal/buildinfo"
)

// Set with -ldflags at build time
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	build := &buildinfo.Context{
		Version:   version,
		BuildDate: buildDate,
	}

	if err := cmd.RootCommand(build).Execute(); err != nil {
		os.Exit(1)
	}
}
