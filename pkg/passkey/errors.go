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
	"errors"
	"fmt"
)

// Sentinel errors forming the stable ceremony error taxonomy. Every
// failure surfaced by a Client matches exactly one of these (native
// failures match via NativeError).
var (
	// ErrInvalidArgument is returned when a required field is missing or
	// malformed. It is always detected before any native call is made.
	ErrInvalidArgument = errors.New("passkey: invalid argument")

	// ErrUnavailable is returned when the platform's authenticator
	// provider does not exist at the installed OS version. Permanent for
	// the process.
	ErrUnavailable = errors.New("passkey: platform authenticator unavailable")

	// ErrUnsupported is returned when the active platform has no adapter
	// at all. Permanent for the process.
	ErrUnsupported = errors.New("passkey: webauthn is not supported on this platform")

	// ErrTimeout is returned when the ceremony ceiling elapsed before the
	// native layer delivered a result.
	ErrTimeout = errors.New("passkey: ceremony timed out")
)

// NativeError preserves a native authenticator failure (user
// cancellation, hardware failure, policy rejection) as a stable
// code/message pair. Raw foreign error objects never cross this boundary.
type NativeError struct {
	// Code is the platform error code (an HRESULT on Windows).
	Code int32

	// Message is the platform error name or description.
	Message string
}

// Error returns the error message.
func (e *NativeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("passkey: native authenticator error %#x", uint32(e.Code))
	}
	return fmt.Sprintf("passkey: native authenticator error %#x: %s", uint32(e.Code), e.Message)
}

// CeremonyError wraps an error with the ceremony operation that failed.
type CeremonyError struct {
	Op  string // Operation that failed ("create" or "get")
	Err error  // Underlying error
}

// Error returns the error message.
func (e *CeremonyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CeremonyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *CeremonyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new CeremonyError with the given operation and error.
func NewError(op string, err error) error {
	return &CeremonyError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// invalidArgument attaches detail to ErrInvalidArgument.
func invalidArgument(detail string) error {
	return fmt.Errorf("%s: %w", detail, ErrInvalidArgument)
}

// IsInvalidArgument returns true if the error indicates a malformed request.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsUnavailable returns true if the error indicates the native provider is
// missing at this OS version.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsUnsupported returns true if the error indicates the platform has no
// adapter.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsTimeout returns true if the error indicates the ceremony ceiling fired.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// AsNativeError returns the NativeError in err's chain, if any.
func AsNativeError(err error) (*NativeError, bool) {
	var ne *NativeError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
