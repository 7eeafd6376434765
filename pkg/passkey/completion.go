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

import "sync"

// CeremonyResult is the terminal value a native flow delivers into a
// CompletionSlot. Exactly one of Attestation, Assertion, or Err should be
// set; a result with none of them set is treated by the orchestrator as a
// native-layer contract violation.
type CeremonyResult struct {
	Attestation *NativeAttestation
	Assertion   *NativeAssertion
	Err         error
}

// CompletionSlot is a single-delivery handoff point bridging a
// callback-driven native flow into one awaited result.
//
// The slot is heap-owned and independent of any ceremony call's stack: the
// orchestrator may return (on timeout or cancellation) while the native
// layer still holds a reference, and a late Resolve is retained by the
// slot's buffer and garbage collected with it rather than delivered.
// Resolve never blocks, and only the first delivery is observable; this
// makes a double-firing native callback a recoverable bug instead of a
// crash.
type CompletionSlot struct {
	once sync.Once
	ch   chan CeremonyResult
}

// NewCompletionSlot creates a slot ready to receive exactly one result.
func NewCompletionSlot() *CompletionSlot {
	return &CompletionSlot{
		ch: make(chan CeremonyResult, 1),
	}
}

// Resolve delivers the terminal result. It returns true if this call won
// the delivery, false if the slot had already been resolved (the result is
// silently discarded in that case).
func (s *CompletionSlot) Resolve(res CeremonyResult) bool {
	delivered := false
	s.once.Do(func() {
		s.ch <- res
		delivered = true
	})
	return delivered
}

// Done returns the channel the single result is delivered on. The channel
// yields at most one value and is never closed.
func (s *CompletionSlot) Done() <-chan CeremonyResult {
	return s.ch
}
