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
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

var createFlags struct {
	userID           string
	userName         string
	userDisplayName  string
	challenge        string
	attestation      string
	attachment       string
	userVerification string
	residentKey      bool
	algorithms       []int
	exclude          []string
}

// createCmd runs a credential registration ceremony.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Run a credential registration ceremony",
	Long: `Create registers a new credential with the platform authenticator.
The challenge is accepted as unpadded URL-safe base64; when omitted a
random 32-byte challenge is generated (useful for local testing only; a
real Relying Party must supply its own).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()

		challenge, err := resolveChallenge(createFlags.challenge)
		if err != nil {
			handleError(err)
		}
		exclude, err := parseDescriptors(createFlags.exclude)
		if err != nil {
			handleError(err)
		}

		req := &passkey.CreationRequest{
			RelyingParty: passkey.RelyingPartyEntity{
				ID:   cfg.RPID,
				Name: cfg.RPName,
			},
			User: passkey.UserEntity{
				ID:          []byte(createFlags.userID),
				Name:        createFlags.userName,
				DisplayName: createFlags.userDisplayName,
			},
			Challenge:          challenge,
			Timeout:            cfg.Timeout,
			ExcludeCredentials: exclude,
			Attestation:        protocol.ConveyancePreference(createFlags.attestation),
		}
		for _, alg := range createFlags.algorithms {
			req.PubKeyCredParams = append(req.PubKeyCredParams, passkey.CredentialParameters{
				Type:      protocol.PublicKeyCredentialType,
				Algorithm: webauthncose.COSEAlgorithmIdentifier(alg),
			})
		}
		if createFlags.attachment != "" || createFlags.userVerification != "" || createFlags.residentKey {
			selection := &passkey.AuthenticatorSelection{
				AuthenticatorAttachment: protocol.AuthenticatorAttachment(createFlags.attachment),
				UserVerification:        protocol.UserVerificationRequirement(createFlags.userVerification),
			}
			if createFlags.residentKey {
				residentKey := true
				selection.RequireResidentKey = &residentKey
				selection.ResidentKey = protocol.ResidentKeyRequirementRequired
			}
			req.AuthenticatorSelection = selection
		}

		outcome, err := newClient().Create(context.Background(), req)
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
	createCmd.Flags().StringVar(&createFlags.userID, "user-id", "",
		"opaque user handle")
	createCmd.Flags().StringVar(&createFlags.userName, "user-name", "",
		"account name (email address or username)")
	createCmd.Flags().StringVar(&createFlags.userDisplayName, "user-display-name", "",
		"human-friendly account name")
	createCmd.Flags().StringVar(&createFlags.challenge, "challenge", "",
		"challenge as unpadded URL-safe base64 (random when omitted)")
	createCmd.Flags().StringVar(&createFlags.attestation, "attestation", "",
		"attestation conveyance (none, indirect, direct)")
	createCmd.Flags().StringVar(&createFlags.attachment, "attachment", "",
		"authenticator attachment (platform, cross-platform)")
	createCmd.Flags().StringVar(&createFlags.userVerification, "user-verification", "",
		"user verification requirement (required, preferred, discouraged)")
	createCmd.Flags().BoolVar(&createFlags.residentKey, "resident-key", false,
		"require a resident (discoverable) credential")
	createCmd.Flags().IntSliceVar(&createFlags.algorithms, "alg", []int{-7, -257},
		"acceptable COSE algorithms in preference order")
	createCmd.Flags().StringArrayVar(&createFlags.exclude, "exclude", nil,
		"credential ID to exclude, unpadded URL-safe base64 (repeatable)")
}

// resolveChallenge decodes the flag value or generates a random challenge.
func resolveChallenge(flag string) ([]byte, error) {
	if flag != "" {
		challenge, err := base64.RawURLEncoding.DecodeString(flag)
		if err != nil {
			return nil, fmt.Errorf("challenge is not valid unpadded URL-safe base64: %w", err)
		}
		return challenge, nil
	}
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		return nil, fmt.Errorf("generating challenge: %w", err)
	}
	return challenge, nil
}

// parseDescriptors decodes base64url credential IDs into descriptors.
func parseDescriptors(encoded []string) ([]passkey.CredentialDescriptor, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	descs := make([]passkey.CredentialDescriptor, 0, len(encoded))
	for _, e := range encoded {
		id, err := base64.RawURLEncoding.DecodeString(e)
		if err != nil {
			return nil, fmt.Errorf("credential ID %q is not valid unpadded URL-safe base64: %w", e, err)
		}
		descs = append(descs, passkey.CredentialDescriptor{
			Type: protocol.PublicKeyCredentialType,
			ID:   id,
		})
	}
	return descs, nil
}
