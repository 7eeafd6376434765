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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionSlot_SingleDelivery(t *testing.T) {
	slot := NewCompletionSlot()

	delivered := slot.Resolve(CeremonyResult{Attestation: &NativeAttestation{
		CredentialID: []byte{0x01},
	}})
	assert.True(t, delivered)

	res := <-slot.Done()
	require.NotNil(t, res.Attestation)
	assert.Equal(t, []byte{0x01}, res.Attestation.CredentialID)
}

func TestCompletionSlot_DoubleFireDropsSecond(t *testing.T) {
	slot := NewCompletionSlot()

	first := slot.Resolve(CeremonyResult{Attestation: &NativeAttestation{CredentialID: []byte{0x01}}})
	second := slot.Resolve(CeremonyResult{Attestation: &NativeAttestation{CredentialID: []byte{0x02}}})

	assert.True(t, first)
	assert.False(t, second)

	res := <-slot.Done()
	assert.Equal(t, []byte{0x01}, res.Attestation.CredentialID)

	// The dropped delivery must not be observable later.
	select {
	case extra := <-slot.Done():
		t.Fatalf("unexpected second delivery: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCompletionSlot_ResolveNeverBlocks(t *testing.T) {
	// Nobody reads the slot. Both deliveries must still return promptly,
	// which is what makes a late native callback after timeout harmless.
	slot := NewCompletionSlot()

	done := make(chan struct{})
	go func() {
		slot.Resolve(CeremonyResult{Err: ErrTimeout})
		slot.Resolve(CeremonyResult{Err: ErrTimeout})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Resolve blocked with no reader")
	}
}

func TestCompletionSlot_ConcurrentResolvers(t *testing.T) {
	slot := NewCompletionSlot()

	const resolvers = 16
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func(n int32) {
			defer wg.Done()
			if slot.Resolve(CeremonyResult{Err: &NativeError{Code: n}}) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(int32(i))
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)

	res := <-slot.Done()
	require.Error(t, res.Err)
}
