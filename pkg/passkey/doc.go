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

// Package passkey runs WebAuthn ceremonies against the operating system's
// platform authenticator (Windows Hello, Touch ID, and friends) from a
// native process, without a browser in the loop.
//
// A Client exposes the two WebAuthn ceremonies: Create registers a new
// credential, Get produces an assertion against an existing one. Both
// suspend the caller until the native authorization flow delivers exactly
// one terminal result, the effective timeout elapses, or the context is
// cancelled. All cryptographic payloads (challenges, credential IDs,
// attestation objects, signatures) are treated as opaque bytes and passed
// through unmodified; validation of their contents belongs to the Relying
// Party server.
//
// Platform capability lives behind the Adapter interface. The build
// selects a default adapter (webauthn.dll on Windows, a no-capability
// adapter elsewhere); WithAdapter swaps in an external bridge, the
// in-memory VirtualAdapter, or a MockAdapter for tests.
//
// Failures map onto a small stable taxonomy: ErrInvalidArgument,
// ErrUnavailable, ErrUnsupported, ErrTimeout, and NativeError for
// authenticator-reported failures such as user cancellation. Errors are
// wrapped in a CeremonyError naming the operation, so errors.Is and
// errors.As work across the whole chain.
package passkey
