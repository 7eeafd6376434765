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

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCeremony(t *testing.T) {
	CeremoniesTotal.Reset()
	CeremonyDuration.Reset()

	RecordCeremony("create", StatusSuccess, 500*time.Millisecond)

	count := testutil.CollectAndCount(CeremoniesTotal)
	if count != 1 {
		t.Errorf("Expected 1 ceremony recorded, got %d", count)
	}

	histCount := testutil.CollectAndCount(CeremonyDuration)
	if histCount != 1 {
		t.Errorf("Expected 1 histogram sample, got %d", histCount)
	}

	RecordCeremony("get", StatusError, 100*time.Millisecond)

	count = testutil.CollectAndCount(CeremoniesTotal)
	if count != 2 {
		t.Errorf("Expected 2 ceremonies recorded, got %d", count)
	}

	value := testutil.ToFloat64(CeremoniesTotal.WithLabelValues("create", StatusSuccess))
	if value != 1 {
		t.Errorf("Expected create/success counter = 1, got %f", value)
	}
}

func TestRecordError(t *testing.T) {
	ErrorsTotal.Reset()

	RecordError("create", ErrorTimeout)
	RecordError("create", ErrorTimeout)
	RecordError("get", ErrorNativeFailure)

	value := testutil.ToFloat64(ErrorsTotal.WithLabelValues("create", ErrorTimeout))
	if value != 2 {
		t.Errorf("Expected create/timeout counter = 2, got %f", value)
	}

	value = testutil.ToFloat64(ErrorsTotal.WithLabelValues("get", ErrorNativeFailure))
	if value != 1 {
		t.Errorf("Expected get/native_failure counter = 1, got %f", value)
	}
}
