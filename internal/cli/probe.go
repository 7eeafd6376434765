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
)

// probeCmd reports whether a platform authenticator is available.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check platform authenticator availability",
	Long: `Probe reports whether a usable platform authenticator is present.
The exit code is 0 when one is available and 1 otherwise, so the command
can gate scripts.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		supported := client.IsSupported()

		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)
		if err := printer.PrintSupport(supported); err != nil {
			handleError(err)
		}
		if !supported {
			os.Exit(1)
		}
	},
}
