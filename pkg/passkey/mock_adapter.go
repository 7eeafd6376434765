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
	"sync"
	"sync/atomic"
	"time"
)

// MockAdapter simulates a platform adapter for testing purposes. It records
// every request it is handed and delivers a configured result (or error)
// into the completion slot, optionally after a delay, twice, or never.
type MockAdapter struct {
	// Supported controls what ProbeSupport reports.
	Supported bool

	// NeedsRPID controls what RequiresRelyingPartyID reports.
	NeedsRPID bool

	// Attestation is delivered for create ceremonies when set.
	Attestation *NativeAttestation

	// Assertion is delivered for get ceremonies when set.
	Assertion *NativeAssertion

	// BuildErr fails the build step when set.
	BuildErr error

	// StartErr fails the start step when set.
	StartErr error

	// ResolveErr is delivered into the slot as a native failure when set.
	ResolveErr error

	// Delay postpones delivery, simulating user interaction time.
	Delay time.Duration

	// DoubleFire delivers the result twice to exercise the slot's
	// single-delivery guarantee.
	DoubleFire bool

	// NeverFire starts the ceremony but never resolves the slot,
	// simulating a hung native flow.
	NeverFire bool

	// BuildCalls and StartCalls count adapter invocations.
	BuildCalls atomic.Int32
	StartCalls atomic.Int32

	mu            sync.Mutex
	lastCreation  *CreationRequest
	lastAssertion *AssertionRequest
}

// MockAdapterOption is a functional option for configuring a MockAdapter.
type MockAdapterOption func(*MockAdapter)

// WithMockSupported sets the ProbeSupport result.
func WithMockSupported(supported bool) MockAdapterOption {
	return func(m *MockAdapter) {
		m.Supported = supported
	}
}

// WithMockRequiresRPID makes the adapter demand an explicit rp identifier.
func WithMockRequiresRPID(required bool) MockAdapterOption {
	return func(m *MockAdapter) {
		m.NeedsRPID = required
	}
}

// WithMockAttestation sets the result delivered for create ceremonies.
func WithMockAttestation(att *NativeAttestation) MockAdapterOption {
	return func(m *MockAdapter) {
		m.Attestation = att
	}
}

// WithMockAssertion sets the result delivered for get ceremonies.
func WithMockAssertion(asr *NativeAssertion) MockAdapterOption {
	return func(m *MockAdapter) {
		m.Assertion = asr
	}
}

// WithMockBuildError fails the build step.
func WithMockBuildError(err error) MockAdapterOption {
	return func(m *MockAdapter) {
		m.BuildErr = err
	}
}

// WithMockStartError fails the start step.
func WithMockStartError(err error) MockAdapterOption {
	return func(m *MockAdapter) {
		m.StartErr = err
	}
}

// WithMockResolveError delivers err into the slot instead of a result.
func WithMockResolveError(err error) MockAdapterOption {
	return func(m *MockAdapter) {
		m.ResolveErr = err
	}
}

// WithMockDelay postpones delivery by d.
func WithMockDelay(d time.Duration) MockAdapterOption {
	return func(m *MockAdapter) {
		m.Delay = d
	}
}

// WithMockDoubleFire delivers the result twice.
func WithMockDoubleFire() MockAdapterOption {
	return func(m *MockAdapter) {
		m.DoubleFire = true
	}
}

// WithMockNeverFire starts the ceremony but never resolves the slot.
func WithMockNeverFire() MockAdapterOption {
	return func(m *MockAdapter) {
		m.NeverFire = true
	}
}

// NewMockAdapter creates a mock adapter for testing. By default it reports
// support and delivers immediately.
func NewMockAdapter(opts ...MockAdapterOption) *MockAdapter {
	m := &MockAdapter{
		Supported: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// mockRequest is the opaque handle the mock hands back from its build
// methods.
type mockRequest struct {
	ceremony Ceremony
}

func (r *mockRequest) Ceremony() Ceremony { return r.ceremony }

// BuildCreationRequest records the request and returns a handle for it.
func (m *MockAdapter) BuildCreationRequest(req *CreationRequest) (NativeRequest, error) {
	m.BuildCalls.Add(1)
	if m.BuildErr != nil {
		return nil, m.BuildErr
	}
	m.mu.Lock()
	m.lastCreation = req
	m.mu.Unlock()
	return &mockRequest{ceremony: CeremonyCreate}, nil
}

// BuildAssertionRequest records the request and returns a handle for it.
func (m *MockAdapter) BuildAssertionRequest(req *AssertionRequest) (NativeRequest, error) {
	m.BuildCalls.Add(1)
	if m.BuildErr != nil {
		return nil, m.BuildErr
	}
	m.mu.Lock()
	m.lastAssertion = req
	m.mu.Unlock()
	return &mockRequest{ceremony: CeremonyGet}, nil
}

// Start delivers the configured result into the slot, honoring Delay,
// DoubleFire, and NeverFire.
func (m *MockAdapter) Start(req NativeRequest, slot *CompletionSlot) error {
	m.StartCalls.Add(1)
	if m.StartErr != nil {
		return m.StartErr
	}
	if m.NeverFire {
		return nil
	}

	res := m.resultFor(req.Ceremony())
	go func() {
		if m.Delay > 0 {
			time.Sleep(m.Delay)
		}
		slot.Resolve(res)
		if m.DoubleFire {
			slot.Resolve(res)
		}
	}()
	return nil
}

func (m *MockAdapter) resultFor(ceremony Ceremony) CeremonyResult {
	if m.ResolveErr != nil {
		return CeremonyResult{Err: m.ResolveErr}
	}
	if ceremony == CeremonyCreate {
		return CeremonyResult{Attestation: m.Attestation}
	}
	return CeremonyResult{Assertion: m.Assertion}
}

// ProbeSupport reports the configured support flag.
func (m *MockAdapter) ProbeSupport() bool {
	return m.Supported
}

// RequiresRelyingPartyID reports the configured rp identifier requirement.
func (m *MockAdapter) RequiresRelyingPartyID() bool {
	return m.NeedsRPID
}

// LastCreationRequest returns the most recent creation request the mock
// was asked to build.
func (m *MockAdapter) LastCreationRequest() *CreationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCreation
}

// LastAssertionRequest returns the most recent assertion request the mock
// was asked to build.
func (m *MockAdapter) LastAssertionRequest() *AssertionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAssertion
}
