// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

// Package main is the entry point for the Sharebox server.
package main

import (
	"fmt"
	"os"

	"github.com/sharebox/sharebox/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	config.LoadDotEnv()

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
