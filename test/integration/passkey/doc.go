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

// Package passkey provides end-to-end integration tests for the ceremony
// client.
//
// The tests drive full create-then-get ceremony pairs through the
// in-memory software authenticator and verify the resulting attestation
// objects and assertions with a Relying Party implementation
// (go-webauthn), proving the payloads survive the client untouched.
//
// # Running Tests
//
//	go test -v -tags integration ./test/integration/passkey/...
//
// No platform authenticator or browser is required.
package passkey
