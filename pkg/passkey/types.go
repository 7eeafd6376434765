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
	"encoding/base64"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
)

// Ceremony identifies which WebAuthn ceremony an operation belongs to.
type Ceremony string

const (
	// CeremonyCreate is the credential registration ceremony.
	CeremonyCreate Ceremony = "create"

	// CeremonyGet is the assertion (authentication) ceremony.
	CeremonyGet Ceremony = "get"
)

// RelyingPartyEntity identifies the Relying Party requesting a ceremony.
// An empty ID means the ambient origin should be used; adapters that
// require an explicit identifier reject requests without one before any
// native call is made.
type RelyingPartyEntity struct {
	// ID is the Relying Party identifier, typically the domain name.
	ID string `json:"id,omitempty"`

	// Name is the human-readable Relying Party name.
	Name string `json:"name"`
}

// UserEntity describes the account a credential is being created for.
type UserEntity struct {
	// ID is the opaque user handle. The WebAuthn spec caps it at 64 bytes;
	// the limit is enforced by the authenticator, not here.
	ID []byte `json:"id"`

	// Name is the account name (typically an email address or username).
	Name string `json:"name"`

	// DisplayName is the human-friendly account name.
	DisplayName string `json:"displayName"`
}

// CredentialParameters describes an acceptable credential type and COSE
// signature algorithm pair, in caller-preference order.
type CredentialParameters struct {
	Type      protocol.CredentialType              `json:"type"`
	Algorithm webauthncose.COSEAlgorithmIdentifier `json:"alg"`
}

// AuthenticatorSelection restricts which authenticators may satisfy a
// creation request.
type AuthenticatorSelection struct {
	AuthenticatorAttachment protocol.AuthenticatorAttachment     `json:"authenticatorAttachment,omitempty"`
	RequireResidentKey      *bool                                `json:"requireResidentKey,omitempty"`
	ResidentKey             protocol.ResidentKeyRequirement      `json:"residentKey,omitempty"`
	UserVerification        protocol.UserVerificationRequirement `json:"userVerification,omitempty"`
}

// CredentialDescriptor identifies a previously registered credential for
// use in exclude and allow lists.
type CredentialDescriptor struct {
	Type       protocol.CredentialType           `json:"type"`
	ID         []byte                            `json:"id"`
	Transports []protocol.AuthenticatorTransport `json:"transports,omitempty"`
}

// CreationRequest carries everything needed to run a credential
// registration ceremony against the platform authenticator. Opaque byte
// fields flow to the native layer verbatim.
type CreationRequest struct {
	RelyingParty           RelyingPartyEntity
	User                   UserEntity
	Challenge              []byte
	PubKeyCredParams       []CredentialParameters
	Timeout                time.Duration // zero means use the client default
	ExcludeCredentials     []CredentialDescriptor
	AuthenticatorSelection *AuthenticatorSelection
	Attestation            protocol.ConveyancePreference
	Extensions             protocol.AuthenticationExtensions
}

// AssertionRequest carries everything needed to run an authentication
// ceremony against an existing credential.
type AssertionRequest struct {
	Challenge        []byte
	Timeout          time.Duration // zero means use the client default
	RelyingPartyID   string
	AllowCredentials []CredentialDescriptor
	UserVerification protocol.UserVerificationRequirement
	Extensions       protocol.AuthenticationExtensions
}

// AttestationResult is the successful outcome of a creation ceremony.
type AttestationResult struct {
	ClientDataJSON    []byte                            `json:"clientDataJSON"`
	AttestationObject []byte                            `json:"attestationObject"`
	Transports        []protocol.AuthenticatorTransport `json:"transports,omitempty"`
}

// AssertionResult is the successful outcome of an assertion ceremony.
type AssertionResult struct {
	ClientDataJSON    []byte `json:"clientDataJSON"`
	AuthenticatorData []byte `json:"authenticatorData"`
	Signature         []byte `json:"signature"`
	UserHandle        []byte `json:"userHandle,omitempty"`
}

// CredentialOutcome is the result of a completed ceremony. Exactly one of
// Attestation or Assertion is set, matching the ceremony that ran.
//
// ID is always the unpadded URL-safe base64 encoding of RawID. The
// orchestrator recomputes it from RawID rather than trusting any
// native-supplied string, so the two can never diverge.
type CredentialOutcome struct {
	ID                      string                           `json:"id"`
	RawID                   []byte                           `json:"rawId"`
	Attestation             *AttestationResult               `json:"attestation,omitempty"`
	Assertion               *AssertionResult                 `json:"assertion,omitempty"`
	AuthenticatorAttachment protocol.AuthenticatorAttachment `json:"authenticatorAttachment,omitempty"`
	Type                    protocol.CredentialType          `json:"type"`
}

// Ceremony reports which ceremony produced this outcome.
func (o *CredentialOutcome) Ceremony() Ceremony {
	if o.Assertion != nil {
		return CeremonyGet
	}
	return CeremonyCreate
}

// EncodeCredentialID returns the unpadded URL-safe base64 text form of a
// raw credential ID, as required for CredentialOutcome.ID.
func EncodeCredentialID(rawID []byte) string {
	return base64.RawURLEncoding.EncodeToString(rawID)
}

// Validate checks the request-shape invariants that are not enforced by
// the type system. requireRPID is true when the active adapter needs an
// explicit Relying Party identifier. All failures are ErrInvalidArgument.
func (r *CreationRequest) Validate(requireRPID bool) error {
	if len(r.Challenge) == 0 {
		return NewError("create", invalidArgument("challenge is required"))
	}
	if r.RelyingParty.Name == "" {
		return NewError("create", invalidArgument("rp.name is required"))
	}
	if requireRPID && r.RelyingParty.ID == "" {
		return NewError("create", invalidArgument("rp.id is required"))
	}
	if len(r.User.ID) == 0 {
		return NewError("create", invalidArgument("user.id is required"))
	}
	if r.User.Name == "" {
		return NewError("create", invalidArgument("user.name is required"))
	}
	if len(r.PubKeyCredParams) == 0 {
		return NewError("create", invalidArgument("at least one pubKeyCredParams entry is required"))
	}
	return nil
}

// Validate checks the request-shape invariants for an assertion request.
func (r *AssertionRequest) Validate(requireRPID bool) error {
	if len(r.Challenge) == 0 {
		return NewError("get", invalidArgument("challenge is required"))
	}
	if requireRPID && r.RelyingPartyID == "" {
		return NewError("get", invalidArgument("rpId is required"))
	}
	return nil
}

// Protocol converts the request to go-webauthn creation options. Byte
// fields are carried over without re-encoding; the conversion is used by
// adapters that speak the standard JSON options shape.
func (r *CreationRequest) Protocol() protocol.PublicKeyCredentialCreationOptions {
	opts := protocol.PublicKeyCredentialCreationOptions{
		RelyingParty: protocol.RelyingPartyEntity{
			CredentialEntity: protocol.CredentialEntity{Name: r.RelyingParty.Name},
			ID:               r.RelyingParty.ID,
		},
		User: protocol.UserEntity{
			CredentialEntity: protocol.CredentialEntity{Name: r.User.Name},
			DisplayName:      r.User.DisplayName,
			ID:               protocol.URLEncodedBase64(r.User.ID),
		},
		Challenge:   protocol.URLEncodedBase64(r.Challenge),
		Attestation: r.Attestation,
		Extensions:  r.Extensions,
	}
	if r.Timeout > 0 {
		opts.Timeout = int(r.Timeout / time.Millisecond)
	}
	for _, p := range r.PubKeyCredParams {
		opts.Parameters = append(opts.Parameters, protocol.CredentialParameter{
			Type:      p.Type,
			Algorithm: p.Algorithm,
		})
	}
	opts.CredentialExcludeList = toProtocolDescriptors(r.ExcludeCredentials)
	if s := r.AuthenticatorSelection; s != nil {
		opts.AuthenticatorSelection = protocol.AuthenticatorSelection{
			AuthenticatorAttachment: s.AuthenticatorAttachment,
			RequireResidentKey:      s.RequireResidentKey,
			ResidentKey:             s.ResidentKey,
			UserVerification:        s.UserVerification,
		}
	}
	return opts
}

// Protocol converts the request to go-webauthn assertion options.
func (r *AssertionRequest) Protocol() protocol.PublicKeyCredentialRequestOptions {
	opts := protocol.PublicKeyCredentialRequestOptions{
		Challenge:        protocol.URLEncodedBase64(r.Challenge),
		RelyingPartyID:   r.RelyingPartyID,
		UserVerification: r.UserVerification,
		Extensions:       r.Extensions,
	}
	if r.Timeout > 0 {
		opts.Timeout = int(r.Timeout / time.Millisecond)
	}
	opts.AllowedCredentials = toProtocolDescriptors(r.AllowCredentials)
	return opts
}

func toProtocolDescriptors(descs []CredentialDescriptor) []protocol.CredentialDescriptor {
	if len(descs) == 0 {
		return nil
	}
	out := make([]protocol.CredentialDescriptor, len(descs))
	for i, d := range descs {
		out[i] = protocol.CredentialDescriptor{
			Type:         d.Type,
			CredentialID: protocol.URLEncodedBase64(d.ID),
			Transport:    d.Transports,
		}
	}
	return out
}
