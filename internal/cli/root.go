// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

var (
	// Global configuration
	globalConfig *Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "passkey",
	Short: "go-passkey CLI - Platform authenticator ceremony tool",
	Long: `go-passkey CLI runs WebAuthn ceremonies against the operating
system's platform authenticator (Windows Hello, Touch ID) or against an
in-memory software authenticator for development and testing.

Commands:
  probe:   check platform authenticator availability
  create:  run a credential registration ceremony
  get:     run an assertion ceremony
  version: print version information`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return globalConfig.Load()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize global config
	globalConfig = NewConfig()

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&globalConfig.ConfigFile, "config", "",
		"config file (default is $HOME/.passkey.yaml)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.RPID, "rp-id", "",
		"Relying Party identifier (domain name)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.RPName, "rp-name", "",
		"Relying Party display name")
	rootCmd.PersistentFlags().StringVar(&globalConfig.Origin, "origin", "",
		"ceremony origin (default https://<rp-id>)")
	rootCmd.PersistentFlags().DurationVar(&globalConfig.Timeout, "timeout", 0,
		"ceremony timeout (0 uses the client default)")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.Virtual, "virtual", false,
		"use the in-memory software authenticator instead of the platform")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat, "output", "o", "text",
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&globalConfig.Verbose, "verbose", "v", false,
		"verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(getCmd)
}

// getConfig returns the global configuration
func getConfig() *Config {
	return globalConfig
}

// newClient builds the ceremony client from the global configuration.
func newClient() *passkey.Client {
	cfg := getConfig()
	opts := []passkey.Option{
		passkey.WithLogger(logging.NewLogger(cfg.Verbose)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, passkey.WithTimeout(cfg.Timeout))
	}
	if cfg.Virtual {
		opts = append(opts, passkey.WithAdapter(
			passkey.NewVirtualAdapter(cfg.RPID, cfg.RPName, cfg.Origin)))
	}
	return passkey.NewClient(opts...)
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(globalConfig.OutputFormat, os.Stderr)
	_ = printer.PrintError(err) // Error printing to stderr is best-effort
	os.Exit(1)
}
