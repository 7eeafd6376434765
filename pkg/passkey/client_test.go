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
	"context"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAssertionRequest() *AssertionRequest {
	return &AssertionRequest{
		Challenge:      []byte("assert-challenge"),
		RelyingPartyID: "example.com",
	}
}

func TestClient_Create_Success(t *testing.T) {
	mock := NewMockAdapter(WithMockAttestation(&NativeAttestation{
		CredentialID:      []byte{0x12, 0x34},
		ClientDataJSON:    []byte(`{"type":"webauthn.create"}`),
		AttestationObject: []byte{0xa3, 0x01, 0x02},
		Transports:        []protocol.AuthenticatorTransport{protocol.Internal},
		Attachment:        protocol.Platform,
	}))
	client := NewClient(WithAdapter(mock))

	outcome, err := client.Create(context.Background(), validCreationRequest())
	require.NoError(t, err)
	require.NotNil(t, outcome)

	// The text id is always recomputed from the raw id.
	assert.Equal(t, "EjQ", outcome.ID)
	assert.Equal(t, []byte{0x12, 0x34}, outcome.RawID)
	assert.Equal(t, protocol.PublicKeyCredentialType, outcome.Type)
	assert.Equal(t, protocol.Platform, outcome.AuthenticatorAttachment)
	assert.Equal(t, CeremonyCreate, outcome.Ceremony())

	require.NotNil(t, outcome.Attestation)
	assert.Nil(t, outcome.Assertion)
	assert.Equal(t, []byte(`{"type":"webauthn.create"}`), outcome.Attestation.ClientDataJSON)
	assert.Equal(t, []byte{0xa3, 0x01, 0x02}, outcome.Attestation.AttestationObject)
	assert.Equal(t, []protocol.AuthenticatorTransport{protocol.Internal}, outcome.Attestation.Transports)

	assert.Equal(t, int32(1), mock.BuildCalls.Load())
	assert.Equal(t, int32(1), mock.StartCalls.Load())
}

func TestClient_Get_Success(t *testing.T) {
	mock := NewMockAdapter(WithMockAssertion(&NativeAssertion{
		CredentialID:      []byte{0x12, 0x34},
		ClientDataJSON:    []byte(`{"type":"webauthn.get"}`),
		AuthenticatorData: []byte{0x01, 0x02, 0x03},
		Signature:         []byte{0x30, 0x45},
		UserHandle:        []byte("user-1"),
		Attachment:        protocol.Platform,
	}))
	client := NewClient(WithAdapter(mock))

	outcome, err := client.Get(context.Background(), validAssertionRequest())
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, "EjQ", outcome.ID)
	assert.Equal(t, []byte{0x12, 0x34}, outcome.RawID)
	assert.Equal(t, CeremonyGet, outcome.Ceremony())

	require.NotNil(t, outcome.Assertion)
	assert.Nil(t, outcome.Attestation)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, outcome.Assertion.AuthenticatorData)
	assert.Equal(t, []byte{0x30, 0x45}, outcome.Assertion.Signature)
	assert.Equal(t, []byte("user-1"), outcome.Assertion.UserHandle)
}

func TestClient_Create_InvalidArgumentBeforeNativeCall(t *testing.T) {
	mock := NewMockAdapter(WithMockRequiresRPID(true))
	client := NewClient(WithAdapter(mock))

	req := validCreationRequest()
	req.RelyingParty.ID = ""

	outcome, err := client.Create(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, IsInvalidArgument(err))

	// Validation failures must never reach the adapter.
	assert.Equal(t, int32(0), mock.BuildCalls.Load())
	assert.Equal(t, int32(0), mock.StartCalls.Load())
}

func TestClient_Get_InvalidArgumentBeforeNativeCall(t *testing.T) {
	mock := NewMockAdapter(WithMockRequiresRPID(true))
	client := NewClient(WithAdapter(mock))

	req := validAssertionRequest()
	req.RelyingPartyID = ""

	_, err := client.Get(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
	assert.Equal(t, int32(0), mock.BuildCalls.Load())
}

func TestClient_UnsupportedPlatform(t *testing.T) {
	client := NewClient(WithAdapter(NewUnsupportedAdapter()))

	assert.False(t, client.IsSupported())

	_, err := client.Create(context.Background(), validCreationRequest())
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))

	_, err = client.Get(context.Background(), validAssertionRequest())
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}

func TestClient_NilAdapterFallsBackToUnsupported(t *testing.T) {
	client := NewClient(WithAdapter(nil))

	assert.False(t, client.IsSupported())

	_, err := client.Create(context.Background(), validCreationRequest())
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}

func TestClient_Timeout(t *testing.T) {
	mock := NewMockAdapter(WithMockNeverFire())
	client := NewClient(WithAdapter(mock), WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := client.Create(context.Background(), validCreationRequest())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Less(t, elapsed, 2*time.Second, "timeout should fire near the configured ceiling")
}

func TestClient_CallerTimeoutBelowDefaultWins(t *testing.T) {
	mock := NewMockAdapter(WithMockNeverFire())
	client := NewClient(WithAdapter(mock), WithTimeout(10*time.Second))

	req := validCreationRequest()
	req.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := client.Create(context.Background(), req)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Less(t, elapsed, 2*time.Second, "caller timeout below the default must apply")
}

func TestClient_EffectiveTimeout(t *testing.T) {
	client := NewClient(WithAdapter(NewMockAdapter()), WithTimeout(10*time.Second))

	tests := []struct {
		name     string
		caller   time.Duration
		expected time.Duration
	}{
		{name: "zero caller uses default", caller: 0, expected: 10 * time.Second},
		{name: "caller below default wins", caller: 3 * time.Second, expected: 3 * time.Second},
		{name: "caller above default is clamped", caller: 30 * time.Second, expected: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, client.effectiveTimeout(tt.caller))
		})
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	mock := NewMockAdapter(WithMockNeverFire())
	client := NewClient(WithAdapter(mock))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Create(ctx, validCreationRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeout(err), "cancellation is not a timeout")
}

func TestClient_NativeErrorPreserved(t *testing.T) {
	mock := NewMockAdapter(WithMockResolveError(&NativeError{
		Code:    -2147023673,
		Message: "NotAllowedError",
	}))
	client := NewClient(WithAdapter(mock))

	_, err := client.Create(context.Background(), validCreationRequest())
	require.Error(t, err)

	ne, ok := AsNativeError(err)
	require.True(t, ok)
	assert.Equal(t, int32(-2147023673), ne.Code)
	assert.Equal(t, "NotAllowedError", ne.Message)
}

func TestClient_BuildErrorWrapped(t *testing.T) {
	mock := NewMockAdapter(WithMockBuildError(ErrUnavailable))
	client := NewClient(WithAdapter(mock))

	_, err := client.Create(context.Background(), validCreationRequest())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "create")

	// Build failed, so the ceremony never started.
	assert.Equal(t, int32(0), mock.StartCalls.Load())
}

func TestClient_StartErrorWrapped(t *testing.T) {
	mock := NewMockAdapter(WithMockStartError(ErrUnavailable))
	client := NewClient(WithAdapter(mock))

	_, err := client.Get(context.Background(), validAssertionRequest())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "get")
}

func TestClient_DoubleFireYieldsOneOutcome(t *testing.T) {
	mock := NewMockAdapter(
		WithMockAttestation(&NativeAttestation{CredentialID: []byte{0x12, 0x34}}),
		WithMockDoubleFire(),
	)
	client := NewClient(WithAdapter(mock))

	outcome, err := client.Create(context.Background(), validCreationRequest())
	require.NoError(t, err)
	assert.Equal(t, "EjQ", outcome.ID)
}

func TestClient_LateFireAfterTimeoutIsHarmless(t *testing.T) {
	mock := NewMockAdapter(
		WithMockAttestation(&NativeAttestation{CredentialID: []byte{0x12, 0x34}}),
		WithMockDelay(200*time.Millisecond),
	)
	client := NewClient(WithAdapter(mock), WithTimeout(20*time.Millisecond))

	_, err := client.Create(context.Background(), validCreationRequest())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	// Let the delayed resolve land on the abandoned slot, then prove the
	// client still runs clean ceremonies.
	time.Sleep(300 * time.Millisecond)

	fast := NewMockAdapter(WithMockAttestation(&NativeAttestation{CredentialID: []byte{0x56}}))
	client = NewClient(WithAdapter(fast))
	outcome, err := client.Create(context.Background(), validCreationRequest())
	require.NoError(t, err)
	assert.Equal(t, EncodeCredentialID([]byte{0x56}), outcome.ID)
}

func TestClient_EmptyResultIsNativeFailure(t *testing.T) {
	// Mock with no configured attestation resolves an empty result.
	mock := NewMockAdapter()
	client := NewClient(WithAdapter(mock))

	_, err := client.Create(context.Background(), validCreationRequest())
	require.Error(t, err)

	ne, ok := AsNativeError(err)
	require.True(t, ok)
	assert.Contains(t, ne.Message, "without a result")
}

func TestClient_RequestPassThrough(t *testing.T) {
	mock := NewMockAdapter(WithMockAttestation(&NativeAttestation{CredentialID: []byte{0x01}}))
	client := NewClient(WithAdapter(mock))

	req := validCreationRequest()
	req.ExcludeCredentials = []CredentialDescriptor{
		{Type: protocol.PublicKeyCredentialType, ID: []byte{0xaa, 0xbb}},
		{Type: protocol.PublicKeyCredentialType, ID: []byte{0xcc}},
	}

	_, err := client.Create(context.Background(), req)
	require.NoError(t, err)

	seen := mock.LastCreationRequest()
	require.NotNil(t, seen)
	assert.Equal(t, []byte("challenge-bytes"), seen.Challenge)
	require.Len(t, seen.ExcludeCredentials, 2)
	assert.Equal(t, []byte{0xaa, 0xbb}, seen.ExcludeCredentials[0].ID)
	assert.Equal(t, []byte{0xcc}, seen.ExcludeCredentials[1].ID)

	mockGet := NewMockAdapter(WithMockAssertion(&NativeAssertion{CredentialID: []byte{0x01}}))
	client = NewClient(WithAdapter(mockGet))

	areq := validAssertionRequest()
	areq.AllowCredentials = []CredentialDescriptor{
		{Type: protocol.PublicKeyCredentialType, ID: []byte{0x11}},
	}

	_, err = client.Get(context.Background(), areq)
	require.NoError(t, err)

	seenGet := mockGet.LastAssertionRequest()
	require.NotNil(t, seenGet)
	assert.Equal(t, []byte("assert-challenge"), seenGet.Challenge)
	require.Len(t, seenGet.AllowCredentials, 1)
	assert.Equal(t, []byte{0x11}, seenGet.AllowCredentials[0].ID)
}

func TestClient_ConcurrentCeremonies(t *testing.T) {
	mock := NewMockAdapter(
		WithMockAttestation(&NativeAttestation{CredentialID: []byte{0x12, 0x34}}),
		WithMockDelay(10*time.Millisecond),
	)
	client := NewClient(WithAdapter(mock))

	const ceremonies = 8
	errs := make(chan error, ceremonies)
	for i := 0; i < ceremonies; i++ {
		go func() {
			_, err := client.Create(context.Background(), validCreationRequest())
			errs <- err
		}()
	}
	for i := 0; i < ceremonies; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, int32(ceremonies), mock.StartCalls.Load())
}
