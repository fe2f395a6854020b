// Package cli wires the marketd commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "marketd",
	Short: "marketd - asset marketplace settlement daemon",
	Long: `marketd runs a marketplace settlement engine for non-fungible assets:
direct sales and rentals, English auctions with outbid compensation, and
negotiated offers, exposed over a JSON-RPC API. Every action settles
atomically; fees and royalties are split on each sale.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
}
