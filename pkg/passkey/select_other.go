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

//go:build !windows

package passkey

// DefaultAdapter returns the no-capability adapter on platforms without a
// compiled-in native bridge. A platform bridge built out of tree (for
// example a darwin ASAuthorization shim) is wired in with WithAdapter.
func DefaultAdapter() Adapter {
	return NewUnsupportedAdapter()
}
