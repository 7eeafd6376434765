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

// Package correlation assigns unique identifiers to ceremonies so a single
// create or get flow can be followed through logs and adapter callbacks.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// CeremonyIDKey is the context key for storing ceremony correlation IDs
const CeremonyIDKey contextKey = "ceremony-id"

// WithCeremonyID adds a ceremony correlation ID to the context.
func WithCeremonyID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, CeremonyIDKey, id)
}

// GetCeremonyID retrieves the ceremony correlation ID from context.
// Returns an empty string if none is present.
func GetCeremonyID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CeremonyIDKey).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 ceremony ID.
func NewID() string {
	return uuid.New().String()
}

// GetOrGenerate retrieves an existing ceremony ID from context or
// generates a new one if none exists.
func GetOrGenerate(ctx context.Context) string {
	if id := GetCeremonyID(ctx); id != "" {
		return id
	}
	return NewID()
}
