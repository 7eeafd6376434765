//go:build integration

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

package passkey

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

const (
	testRPID   = "example.com"
	testRPName = "Example Corp"
	testOrigin = "https://example.com"
)

func newChallenge(t *testing.T) []byte {
	t.Helper()
	challenge := make([]byte, 32)
	_, err := rand.Read(challenge)
	require.NoError(t, err)
	return challenge
}

func registerCredential(t *testing.T, client *passkey.Client) *passkey.CredentialOutcome {
	t.Helper()
	outcome, err := client.Create(context.Background(), &passkey.CreationRequest{
		RelyingParty: passkey.RelyingPartyEntity{ID: testRPID, Name: testRPName},
		User: passkey.UserEntity{
			ID:          []byte("integration-user"),
			Name:        "alice@example.com",
			DisplayName: "Alice",
		},
		Challenge: newChallenge(t),
		PubKeyCredParams: []passkey.CredentialParameters{
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
		},
	})
	require.NoError(t, err)
	return outcome
}

// parseAttestation feeds the ceremony outcome back through the standard
// Relying Party parser, the same path a server would take.
func parseAttestation(t *testing.T, outcome *passkey.CredentialOutcome) *protocol.ParsedCredentialCreationData {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":    outcome.ID,
		"rawId": base64.RawURLEncoding.EncodeToString(outcome.RawID),
		"type":  "public-key",
		"response": map[string]interface{}{
			"clientDataJSON":    base64.RawURLEncoding.EncodeToString(outcome.Attestation.ClientDataJSON),
			"attestationObject": base64.RawURLEncoding.EncodeToString(outcome.Attestation.AttestationObject),
		},
	})
	require.NoError(t, err)

	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(body))
	require.NoError(t, err)
	return parsed
}

func TestE2E_CreateProducesVerifiableAttestation(t *testing.T) {
	adapter := passkey.NewVirtualAdapter(testRPID, testRPName, testOrigin)
	client := passkey.NewClient(passkey.WithAdapter(adapter))

	outcome := registerCredential(t, client)

	assert.Equal(t, base64.RawURLEncoding.EncodeToString(outcome.RawID), outcome.ID)

	parsed := parseAttestation(t, outcome)
	authData := parsed.Response.AttestationObject.AuthData

	// The attestation must be bound to our Relying Party.
	rpIDHash := sha256.Sum256([]byte(testRPID))
	assert.Equal(t, rpIDHash[:], authData.RPIDHash)
	assert.True(t, authData.Flags.UserPresent())
	assert.Equal(t, outcome.RawID, []byte(authData.AttData.CredentialID))

	// The embedded public key must parse as COSE.
	_, err := webauthncose.ParsePublicKey(authData.AttData.CredentialPublicKey)
	require.NoError(t, err)
}

func TestE2E_GetProducesVerifiableAssertion(t *testing.T) {
	adapter := passkey.NewVirtualAdapter(testRPID, testRPName, testOrigin)
	client := passkey.NewClient(passkey.WithAdapter(adapter))

	created := registerCredential(t, client)
	parsedCreation := parseAttestation(t, created)
	publicKey := parsedCreation.Response.AttestationObject.AuthData.AttData.CredentialPublicKey

	outcome, err := client.Get(context.Background(), &passkey.AssertionRequest{
		Challenge:      newChallenge(t),
		RelyingPartyID: testRPID,
		AllowCredentials: []passkey.CredentialDescriptor{
			{Type: protocol.PublicKeyCredentialType, ID: created.RawID},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Assertion)
	assert.Equal(t, created.RawID, outcome.RawID)

	// Verify the signature exactly the way a Relying Party would:
	// over authenticatorData || SHA-256(clientDataJSON).
	clientDataHash := sha256.Sum256(outcome.Assertion.ClientDataJSON)
	signedData := append([]byte{}, outcome.Assertion.AuthenticatorData...)
	signedData = append(signedData, clientDataHash[:]...)

	key, err := webauthncose.ParsePublicKey(publicKey)
	require.NoError(t, err)

	valid, err := webauthncose.VerifySignature(key, signedData, outcome.Assertion.Signature)
	require.NoError(t, err)
	assert.True(t, valid, "assertion signature must verify against the registered public key")
}

func TestE2E_CeremonyPairSurvivesMultipleCredentials(t *testing.T) {
	adapter := passkey.NewVirtualAdapter(testRPID, testRPName, testOrigin)
	client := passkey.NewClient(passkey.WithAdapter(adapter))

	first := registerCredential(t, client)
	second := registerCredential(t, client)
	require.NotEqual(t, first.RawID, second.RawID)

	// Targeting the first credential through the allow list must bypass
	// the more recent one.
	outcome, err := client.Get(context.Background(), &passkey.AssertionRequest{
		Challenge:      newChallenge(t),
		RelyingPartyID: testRPID,
		AllowCredentials: []passkey.CredentialDescriptor{
			{Type: protocol.PublicKeyCredentialType, ID: first.RawID},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, first.RawID, outcome.RawID)
}
