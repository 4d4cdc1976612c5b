package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information, set at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tagmirror",
	Short: "Mirror hashtags from remote Mastodon servers into your own",
	Long: `tagmirror continuously imports statuses tagged with configured hashtags
from a set of remote Mastodon servers into one local server.

It never imports the same status twice and stays within several layered
rate budgets: one query per minute per server, a per-upstream import
budget, a global import budget, and an overall pass cadence.

Getting started:
  1. tagmirror register      register the app on your server
  2. tagmirror login         authorize and store the access token
  3. tagmirror config init   write a config file and add your hashtags
  4. tagmirror run           start the sync loop`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/tagmirror/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}
