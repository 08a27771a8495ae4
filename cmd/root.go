/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nowspinning",
	Short: "Adaptive now-playing service for Spotify",
	Long: `nowspinning keeps an always-fresh answer to "what is this Spotify
account listening to right now" and serves it over HTTP.

It runs as a foreground service that polls the Spotify API at an
adaptive cadence (fast while music plays, slow while idle), caches
snapshots with content-dependent lifetimes, and exposes them with
cache freshness metadata for status widgets and other consumers.

It also provides a CLI command to print the currently playing track,
useful for displaying in tmux status lines or other status bars.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
