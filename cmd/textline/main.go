package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "textline",
		Short: "Exact-line lookup server over TCP",
		Long: `textline answers whether a string exists as a whole line of a text file.

Clients connect over TCP, send one line (up to 1024 bytes) and receive
either "STRING EXISTS" or "STRING NOT FOUND". The file is either loaded
once at startup or re-read on every query (reread_on_query).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		queryCmd(),
		versionCmd(),
	)

	return rootCmd
}
