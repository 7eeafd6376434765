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

// unsupportedAdapter is the no-capability adapter bound on platforms
// without a native bridge. Every build fails fast with ErrUnsupported and
// no ceremony ever reaches a completion slot, so callers cannot hang.
type unsupportedAdapter struct{}

// NewUnsupportedAdapter returns the adapter used when the platform has no
// WebAuthn capability.
func NewUnsupportedAdapter() Adapter {
	return unsupportedAdapter{}
}

// BuildCreationRequest always fails with ErrUnsupported.
func (unsupportedAdapter) BuildCreationRequest(req *CreationRequest) (NativeRequest, error) {
	return nil, ErrUnsupported
}

// BuildAssertionRequest always fails with ErrUnsupported.
func (unsupportedAdapter) BuildAssertionRequest(req *AssertionRequest) (NativeRequest, error) {
	return nil, ErrUnsupported
}

// Start is unreachable in practice since no request can be built.
func (unsupportedAdapter) Start(req NativeRequest, slot *CompletionSlot) error {
	return ErrUnsupported
}

// ProbeSupport always reports false.
func (unsupportedAdapter) ProbeSupport() bool {
	return false
}

// RequiresRelyingPartyID reports false; requests are rejected before the
// relying-party check ever matters.
func (unsupportedAdapter) RequiresRelyingPartyID() bool {
	return false
}
