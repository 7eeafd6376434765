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

//go:build windows

package passkey

// DefaultAdapter returns the platform adapter for Windows, backed by the
// native WebAuthn API (webauthn.dll). The binding is resolved once and is
// immutable for the process lifetime.
func DefaultAdapter() Adapter {
	return newWindowsAdapter()
}
