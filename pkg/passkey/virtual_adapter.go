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
	"encoding/json"
	"fmt"
	"sync"

	"github.com/descope/virtualwebauthn"
	"github.com/go-webauthn/webauthn/protocol"
)

// VirtualAdapter is a software authenticator backed by a virtual WebAuthn
// implementation. It satisfies the full Adapter contract without any
// platform API or user interaction, which makes end-to-end ceremony tests
// and development on unsupported platforms possible.
//
// Credentials created through the adapter are retained in memory and can
// satisfy later assertion ceremonies in the same process.
type VirtualAdapter struct {
	rp            virtualwebauthn.RelyingParty
	authenticator virtualwebauthn.Authenticator

	mu          sync.Mutex
	credentials []virtualwebauthn.Credential
}

// NewVirtualAdapter creates a software authenticator bound to the given
// Relying Party. An empty origin defaults to https://<rpID>.
func NewVirtualAdapter(rpID, rpName, origin string) *VirtualAdapter {
	if origin == "" {
		origin = "https://" + rpID
	}
	return &VirtualAdapter{
		rp: virtualwebauthn.RelyingParty{
			ID:     rpID,
			Name:   rpName,
			Origin: origin,
		},
		authenticator: virtualwebauthn.NewAuthenticator(),
	}
}

// virtualCreationRequest carries the parsed attestation options plus the
// fresh credential that will answer them.
type virtualCreationRequest struct {
	options    *virtualwebauthn.AttestationOptions
	credential virtualwebauthn.Credential
}

func (r *virtualCreationRequest) Ceremony() Ceremony { return CeremonyCreate }

// virtualAssertionRequest carries the parsed assertion options plus the
// stored credential selected to answer them.
type virtualAssertionRequest struct {
	options    *virtualwebauthn.AssertionOptions
	credential virtualwebauthn.Credential
	noMatch    bool
}

func (r *virtualAssertionRequest) Ceremony() Ceremony { return CeremonyGet }

// BuildCreationRequest converts the request to standard creation options
// JSON and parses it into the virtual authenticator's model. A fresh EC2
// credential is minted per request.
func (a *VirtualAdapter) BuildCreationRequest(req *CreationRequest) (NativeRequest, error) {
	optionsJSON, err := json.Marshal(req.Protocol())
	if err != nil {
		return nil, fmt.Errorf("marshaling creation options: %w", err)
	}
	options, err := virtualwebauthn.ParseAttestationOptions(string(optionsJSON))
	if err != nil {
		return nil, invalidArgument(err.Error())
	}
	return &virtualCreationRequest{
		options:    options,
		credential: virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2),
	}, nil
}

// BuildAssertionRequest converts the request to standard assertion options
// JSON and selects the stored credential that satisfies the allow list. An
// empty allow list matches any stored (discoverable) credential.
func (a *VirtualAdapter) BuildAssertionRequest(req *AssertionRequest) (NativeRequest, error) {
	optionsJSON, err := json.Marshal(req.Protocol())
	if err != nil {
		return nil, fmt.Errorf("marshaling assertion options: %w", err)
	}
	options, err := virtualwebauthn.ParseAssertionOptions(string(optionsJSON))
	if err != nil {
		return nil, invalidArgument(err.Error())
	}

	nr := &virtualAssertionRequest{options: options}
	cred, ok := a.findCredential(req.AllowCredentials)
	if !ok {
		// Surfaced at Start so the ceremony fails the way a real platform
		// does: through the completion slot, not the build step.
		nr.noMatch = true
	} else {
		nr.credential = cred
	}
	return nr, nil
}

// Start generates the attestation or assertion response asynchronously and
// resolves the slot with the raw ceremony bytes.
func (a *VirtualAdapter) Start(req NativeRequest, slot *CompletionSlot) error {
	switch nr := req.(type) {
	case *virtualCreationRequest:
		go a.createCredential(nr, slot)
		return nil
	case *virtualAssertionRequest:
		go a.assert(nr, slot)
		return nil
	default:
		return invalidArgument("unrecognized native request type")
	}
}

// ProbeSupport always reports true; the software authenticator needs no
// platform capability.
func (a *VirtualAdapter) ProbeSupport() bool {
	return true
}

// RequiresRelyingPartyID reports false; the adapter falls back to the
// Relying Party it was constructed with.
func (a *VirtualAdapter) RequiresRelyingPartyID() bool {
	return false
}

// SeedCredential registers an existing credential with the authenticator so
// assertion ceremonies can find it.
func (a *VirtualAdapter) SeedCredential(cred virtualwebauthn.Credential) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authenticator.AddCredential(cred)
	a.credentials = append(a.credentials, cred)
}

// CredentialCount reports how many credentials the authenticator holds.
func (a *VirtualAdapter) CredentialCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.credentials)
}

func (a *VirtualAdapter) createCredential(nr *virtualCreationRequest, slot *CompletionSlot) {
	responseJSON := virtualwebauthn.CreateAttestationResponse(
		a.rp, a.authenticator, nr.credential, *nr.options)

	var resp struct {
		ID       string                        `json:"id"`
		RawID    protocol.URLEncodedBase64     `json:"rawId"`
		Response attestationResponseParameters `json:"response"`
	}
	if err := json.Unmarshal([]byte(responseJSON), &resp); err != nil {
		slot.Resolve(CeremonyResult{Err: &NativeError{Code: -1, Message: "malformed attestation response: " + err.Error()}})
		return
	}

	a.mu.Lock()
	a.authenticator.AddCredential(nr.credential)
	a.credentials = append(a.credentials, nr.credential)
	a.mu.Unlock()

	slot.Resolve(CeremonyResult{Attestation: &NativeAttestation{
		CredentialID:      resp.RawID,
		ClientDataJSON:    resp.Response.ClientDataJSON,
		AttestationObject: resp.Response.AttestationObject,
		Transports:        []protocol.AuthenticatorTransport{protocol.Internal},
		Attachment:        protocol.Platform,
	}})
}

func (a *VirtualAdapter) assert(nr *virtualAssertionRequest, slot *CompletionSlot) {
	if nr.noMatch {
		slot.Resolve(CeremonyResult{Err: &NativeError{
			Code:    -1,
			Message: "NotAllowedError: no credential matches the request",
		}})
		return
	}

	responseJSON := virtualwebauthn.CreateAssertionResponse(
		a.rp, a.authenticator, nr.credential, *nr.options)

	var resp struct {
		ID       string                      `json:"id"`
		RawID    protocol.URLEncodedBase64   `json:"rawId"`
		Response assertionResponseParameters `json:"response"`
	}
	if err := json.Unmarshal([]byte(responseJSON), &resp); err != nil {
		slot.Resolve(CeremonyResult{Err: &NativeError{Code: -1, Message: "malformed assertion response: " + err.Error()}})
		return
	}

	slot.Resolve(CeremonyResult{Assertion: &NativeAssertion{
		CredentialID:      resp.RawID,
		ClientDataJSON:    resp.Response.ClientDataJSON,
		AuthenticatorData: resp.Response.AuthenticatorData,
		Signature:         resp.Response.Signature,
		UserHandle:        resp.Response.UserHandle,
		Attachment:        protocol.Platform,
	}})
}

// findCredential picks the stored credential satisfying the allow list. An
// empty list matches the most recently created credential.
func (a *VirtualAdapter) findCredential(allow []CredentialDescriptor) (virtualwebauthn.Credential, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(allow) == 0 {
		if len(a.credentials) == 0 {
			return virtualwebauthn.Credential{}, false
		}
		return a.credentials[len(a.credentials)-1], true
	}
	for _, desc := range allow {
		for _, cred := range a.credentials {
			if bytes.Equal(cred.ID, desc.ID) {
				return cred, true
			}
		}
	}
	return virtualwebauthn.Credential{}, false
}

type attestationResponseParameters struct {
	ClientDataJSON    protocol.URLEncodedBase64 `json:"clientDataJSON"`
	AttestationObject protocol.URLEncodedBase64 `json:"attestationObject"`
}

type assertionResponseParameters struct {
	ClientDataJSON    protocol.URLEncodedBase64 `json:"clientDataJSON"`
	AuthenticatorData protocol.URLEncodedBase64 `json:"authenticatorData"`
	Signature         protocol.URLEncodedBase64 `json:"signature"`
	UserHandle        protocol.URLEncodedBase64 `json:"userHandle"`
}
