package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for vpnsentry.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vpnsentry",
		Short: "Detect VPN, proxy and Tor usage from the client side",
		Long: `vpnsentry estimates, from this host, whether the current network connection
is relayed through a VPN, proxy or anonymization service.

Each pass combines an IP-intelligence lookup, the locale, timezone and
language settings, WebRTC candidate addresses, a privacy-mode probe and a
device fingerprint into a score. The score is classified as "VPN detected",
"VPN likely", "VPN not detected" or "Unreliable detection".

It is a best-effort heuristic and reports when its evidence is incomplete.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .vpnsentry in current or home directory)")
	cmd.PersistentFlags().Bool("reveal", false,
		"Do not mask IP addresses in log output")
	cmd.PersistentFlags().Bool("log-json", false,
		"Write log output as JSON")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
