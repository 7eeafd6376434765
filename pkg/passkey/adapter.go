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

import "github.com/go-webauthn/webauthn/protocol"

// NativeAttestation is the raw successful result of a native creation
// ceremony. All byte fields are opaque and passed through unmodified.
type NativeAttestation struct {
	CredentialID      []byte
	ClientDataJSON    []byte
	AttestationObject []byte
	Transports        []protocol.AuthenticatorTransport
	Attachment        protocol.AuthenticatorAttachment
}

// NativeAssertion is the raw successful result of a native assertion
// ceremony.
type NativeAssertion struct {
	CredentialID      []byte
	ClientDataJSON    []byte
	AuthenticatorData []byte
	Signature         []byte
	UserHandle        []byte
	Attachment        protocol.AuthenticatorAttachment
}

// NativeRequest is an opaque handle to a platform-native request object.
// The adapter that built it owns its lifetime and any foreign objects
// behind it, releasing them only after the completion slot has fired.
type NativeRequest interface {
	// Ceremony reports which ceremony this request was built for.
	Ceremony() Ceremony
}

// Adapter is the bridge between the normalized ceremony model and one
// platform's native authenticator API. Implementations convert requests to
// native objects, start the native authorization flow, and deliver exactly
// one terminal result into the completion slot they are given.
type Adapter interface {
	// BuildCreationRequest converts a creation request into a native
	// request object. It fails with ErrUnavailable when the platform's
	// authenticator provider does not exist at this OS version, or
	// ErrInvalidArgument when a required field is missing.
	BuildCreationRequest(req *CreationRequest) (NativeRequest, error)

	// BuildAssertionRequest converts an assertion request into a native
	// request object, with the same failure modes as BuildCreationRequest.
	BuildAssertionRequest(req *AssertionRequest) (NativeRequest, error)

	// Start begins the native ceremony. It must return quickly without
	// blocking on user interaction; the actual wait happens on the slot.
	// The adapter guarantees the slot is resolved exactly once, eventually,
	// unless the process terminates first.
	Start(req NativeRequest, slot *CompletionSlot) error

	// ProbeSupport reports whether a platform authenticator is usable.
	// It is a pure capability check: no UI, no side effects, safe to call
	// repeatedly.
	ProbeSupport() bool

	// RequiresRelyingPartyID reports whether this platform needs an
	// explicit Relying Party identifier in every request.
	RequiresRelyingPartyID() bool
}
