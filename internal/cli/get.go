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
	"context"
	"os"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

var getFlags struct {
	challenge        string
	userVerification string
	allow            []string
}

// getCmd runs an assertion ceremony.
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Run an assertion ceremony",
	Long: `Get produces an assertion against a previously registered
credential. An empty allow list requests a discoverable credential.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()

		challenge, err := resolveChallenge(getFlags.challenge)
		if err != nil {
			handleError(err)
		}
		allow, err := parseDescriptors(getFlags.allow)
		if err != nil {
			handleError(err)
		}

		req := &passkey.AssertionRequest{
			Challenge:        challenge,
			Timeout:          cfg.Timeout,
			RelyingPartyID:   cfg.RPID,
			AllowCredentials: allow,
			UserVerification: protocol.UserVerificationRequirement(getFlags.userVerification),
		}

		outcome, err := newClient().Get(context.Background(), req)
		if err != nil {
			handleError(err)
		}

		printer := NewPrinter(cfg.OutputFormat, os.Stdout)
		if err := printer.PrintOutcome(outcome); err != nil {
			handleError(err)
		}
	},
}

func init() {
	getCmd.Flags().StringVar(&getFlags.challenge, "challenge", "",
		"challenge as unpadded URL-safe base64 (random when omitted)")
	getCmd.Flags().StringVar(&getFlags.userVerification, "user-verification", "",
		"user verification requirement (required, preferred, discouraged)")
	getCmd.Flags().StringArrayVar(&getFlags.allow, "allow", nil,
		"credential ID to allow, unpadded URL-safe base64 (repeatable)")
}
