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
	"errors"
	"time"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/jeremyhahn/go-passkey/pkg/correlation"
	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/metrics"
)

// DefaultTimeout is the orchestrator's ceiling for a ceremony when the
// caller does not supply one. The effective ceiling is always
// min(caller timeout, DefaultTimeout); the native layer may additionally
// enforce its own shorter limit.
const DefaultTimeout = 60 * time.Second

// Client orchestrates WebAuthn ceremonies against the active platform
// adapter. A Client is safe for concurrent use; each ceremony owns its own
// native request and completion slot, and the adapter binding is fixed at
// construction for the Client's lifetime.
type Client struct {
	adapter Adapter
	logger  *logging.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAdapter overrides the build-selected platform adapter. This is how
// an externally supplied bridge (or a test double) is wired in.
func WithAdapter(adapter Adapter) Option {
	return func(c *Client) {
		c.adapter = adapter
	}
}

// WithLogger sets the logger used for ceremony lifecycle events.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the client's default ceremony ceiling.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a ceremony client bound to the platform adapter
// selected at build time, unless WithAdapter overrides it.
func NewClient(opts ...Option) *Client {
	c := &Client{
		adapter: DefaultAdapter(),
		logger:  logging.DefaultLogger(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.adapter == nil {
		c.adapter = NewUnsupportedAdapter()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

// IsSupported reports whether a platform authenticator is available.
func (c *Client) IsSupported() bool {
	return c.adapter.ProbeSupport()
}

// Create runs a credential registration ceremony and returns the new
// credential. The call suspends until the native flow delivers a terminal
// result, the effective timeout elapses, or ctx is cancelled.
func (c *Client) Create(ctx context.Context, req *CreationRequest) (*CredentialOutcome, error) {
	if err := req.Validate(c.adapter.RequiresRelyingPartyID()); err != nil {
		metrics.RecordError(string(CeremonyCreate), metrics.ErrorInvalidArgument)
		return nil, err
	}
	return c.run(ctx, CeremonyCreate, req.Timeout, func() (NativeRequest, error) {
		return c.adapter.BuildCreationRequest(req)
	})
}

// Get runs an assertion ceremony against a previously created credential.
func (c *Client) Get(ctx context.Context, req *AssertionRequest) (*CredentialOutcome, error) {
	if err := req.Validate(c.adapter.RequiresRelyingPartyID()); err != nil {
		metrics.RecordError(string(CeremonyGet), metrics.ErrorInvalidArgument)
		return nil, err
	}
	return c.run(ctx, CeremonyGet, req.Timeout, func() (NativeRequest, error) {
		return c.adapter.BuildAssertionRequest(req)
	})
}

// run drives one ceremony to completion: build the native request, acquire
// a fresh completion slot, start the native flow, then await exactly one
// terminal outcome. The slot is heap-owned, so returning early on timeout
// or cancellation leaves the native layer free to deliver its late result
// harmlessly.
func (c *Client) run(ctx context.Context, ceremony Ceremony, callerTimeout time.Duration, build func() (NativeRequest, error)) (*CredentialOutcome, error) {
	op := string(ceremony)
	start := time.Now()
	log := c.logger.With("ceremony", op, "ceremony_id", correlation.GetOrGenerate(ctx))

	native, err := build()
	if err != nil {
		return nil, c.fail(log, ceremony, start, WrapError(op, err))
	}

	slot := NewCompletionSlot()
	if err := c.adapter.Start(native, slot); err != nil {
		return nil, c.fail(log, ceremony, start, WrapError(op, err))
	}

	ceiling := c.effectiveTimeout(callerTimeout)
	log.Debug("ceremony started", "timeout", ceiling)

	timer := time.NewTimer(ceiling)
	defer timer.Stop()

	select {
	case res := <-slot.Done():
		if res.Err != nil {
			return nil, c.fail(log, ceremony, start, WrapError(op, res.Err))
		}
		outcome, err := outcomeFromResult(ceremony, res)
		if err != nil {
			return nil, c.fail(log, ceremony, start, WrapError(op, err))
		}
		metrics.RecordCeremony(op, metrics.StatusSuccess, time.Since(start))
		log.Info("ceremony completed", "credential_id", outcome.ID)
		return outcome, nil
	case <-timer.C:
		return nil, c.fail(log, ceremony, start, WrapError(op, ErrTimeout))
	case <-ctx.Done():
		return nil, c.fail(log, ceremony, start, WrapError(op, ctx.Err()))
	}
}

// effectiveTimeout applies the min(caller, default) rule. A zero caller
// timeout means the caller has no opinion.
func (c *Client) effectiveTimeout(callerTimeout time.Duration) time.Duration {
	if callerTimeout > 0 && callerTimeout < c.timeout {
		return callerTimeout
	}
	return c.timeout
}

func (c *Client) fail(log *logging.Logger, ceremony Ceremony, start time.Time, err error) error {
	op := string(ceremony)
	metrics.RecordCeremony(op, metrics.StatusError, time.Since(start))
	metrics.RecordError(op, errorKind(err))
	log.Error(err)
	return err
}

// outcomeFromResult maps a native result into a CredentialOutcome,
// preserving all opaque byte fields exactly and recomputing the text id
// from the raw credential id.
func outcomeFromResult(ceremony Ceremony, res CeremonyResult) (*CredentialOutcome, error) {
	switch {
	case ceremony == CeremonyCreate && res.Attestation != nil:
		a := res.Attestation
		return &CredentialOutcome{
			ID:    EncodeCredentialID(a.CredentialID),
			RawID: a.CredentialID,
			Attestation: &AttestationResult{
				ClientDataJSON:    a.ClientDataJSON,
				AttestationObject: a.AttestationObject,
				Transports:        a.Transports,
			},
			AuthenticatorAttachment: a.Attachment,
			Type:                    protocol.PublicKeyCredentialType,
		}, nil
	case ceremony == CeremonyGet && res.Assertion != nil:
		a := res.Assertion
		return &CredentialOutcome{
			ID:    EncodeCredentialID(a.CredentialID),
			RawID: a.CredentialID,
			Assertion: &AssertionResult{
				ClientDataJSON:    a.ClientDataJSON,
				AuthenticatorData: a.AuthenticatorData,
				Signature:         a.Signature,
				UserHandle:        a.UserHandle,
			},
			AuthenticatorAttachment: a.Attachment,
			Type:                    protocol.PublicKeyCredentialType,
		}, nil
	}
	// The sink fired without a usable payload. Surface it as a native
	// failure rather than a partially populated outcome.
	return nil, &NativeError{Code: -1, Message: "native layer completed without a result"}
}

// errorKind maps an error to its metrics taxonomy label.
func errorKind(err error) string {
	switch {
	case IsInvalidArgument(err):
		return metrics.ErrorInvalidArgument
	case IsUnavailable(err):
		return metrics.ErrorUnavailable
	case IsUnsupported(err):
		return metrics.ErrorUnsupported
	case IsTimeout(err):
		return metrics.ErrorTimeout
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return metrics.ErrorCancelled
	default:
		return metrics.ErrorNativeFailure
	}
}
