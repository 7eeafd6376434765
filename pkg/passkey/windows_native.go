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

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-webauthn/webauthn/protocol"
	"golang.org/x/sys/windows"
)

var (
	modWebAuthn = windows.NewLazySystemDLL("webauthn.dll")
	modUser32   = windows.NewLazySystemDLL("user32.dll")

	procGetApiVersionNumber       = modWebAuthn.NewProc("WebAuthNGetApiVersionNumber")
	procIsUVPlatformAuthenticator = modWebAuthn.NewProc("WebAuthNIsUserVerifyingPlatformAuthenticatorAvailable")
	procMakeCredential            = modWebAuthn.NewProc("WebAuthNAuthenticatorMakeCredential")
	procGetAssertion              = modWebAuthn.NewProc("WebAuthNAuthenticatorGetAssertion")
	procFreeAttestation           = modWebAuthn.NewProc("WebAuthNFreeCredentialAttestation")
	procFreeAssertion             = modWebAuthn.NewProc("WebAuthNFreeAssertion")
	procGetErrorName              = modWebAuthn.NewProc("WebAuthNGetErrorName")

	procGetForegroundWindow = modUser32.NewProc("GetForegroundWindow")
)

// webauthn.h struct versions and enum values.
const (
	rpEntityVersion      = 1
	userEntityVersion    = 1
	coseParameterVersion = 1
	clientDataVersion    = 1
	credentialVersion    = 1
	credentialExVersion  = 1

	makeCredentialOptionsVersion = 3
	getAssertionOptionsVersion   = 4

	attachmentAny           = 0
	attachmentPlatform      = 1
	attachmentCrossPlatform = 2

	uvAny         = 0
	uvRequired    = 1
	uvPreferred   = 2
	uvDiscouraged = 3

	attestationConveyanceAny      = 0
	attestationConveyanceNone     = 1
	attestationConveyanceIndirect = 2
	attestationConveyanceDirect   = 3

	transportUSB      = 0x01
	transportNFC      = 0x02
	transportBLE      = 0x04
	transportInternal = 0x10
	transportHybrid   = 0x20
)

type webauthnRPEntity struct {
	Version uint32
	ID      *uint16
	Name    *uint16
	Icon    *uint16
}

type webauthnUserEntity struct {
	Version     uint32
	IDLen       uint32
	ID          *byte
	Name        *uint16
	Icon        *uint16
	DisplayName *uint16
}

type webauthnCoseParameter struct {
	Version        uint32
	CredentialType *uint16
	Alg            int32
}

type webauthnCoseParameters struct {
	Count      uint32
	Parameters *webauthnCoseParameter
}

type webauthnClientData struct {
	Version   uint32
	JSONLen   uint32
	JSON      *byte
	HashAlgID *uint16
}

type webauthnCredential struct {
	Version        uint32
	IDLen          uint32
	ID             *byte
	CredentialType *uint16
}

type webauthnCredentials struct {
	Count       uint32
	Credentials *webauthnCredential
}

type webauthnCredentialEx struct {
	Version        uint32
	IDLen          uint32
	ID             *byte
	CredentialType *uint16
	Transports     uint32
}

type webauthnCredentialList struct {
	Count       uint32
	Credentials **webauthnCredentialEx
}

type webauthnExtensions struct {
	Count      uint32
	Extensions uintptr
}

type webauthnMakeCredentialOptions struct {
	Version                         uint32
	TimeoutMilliseconds             uint32
	CredentialList                  webauthnCredentials
	Extensions                      webauthnExtensions
	AuthenticatorAttachment         uint32
	RequireResidentKey              int32
	UserVerificationRequirement     uint32
	AttestationConveyancePreference uint32
	Flags                           uint32
	CancellationID                  *windows.GUID
	ExcludeCredentialList           *webauthnCredentialList
}

type webauthnGetAssertionOptions struct {
	Version                     uint32
	TimeoutMilliseconds         uint32
	CredentialList              webauthnCredentials
	Extensions                  webauthnExtensions
	AuthenticatorAttachment     uint32
	UserVerificationRequirement uint32
	Flags                       uint32
	U2fAppID                    *uint16
	IsU2fAppIDUsed              *int32
	CancellationID              *windows.GUID
	AllowCredentialList         *webauthnCredentialList
}

type webauthnCredentialAttestation struct {
	Version               uint32
	FormatType            *uint16
	AuthenticatorDataLen  uint32
	AuthenticatorData     *byte
	AttestationLen        uint32
	Attestation           *byte
	AttestationDecodeType uint32
	AttestationDecode     uintptr
	AttestationObjectLen  uint32
	AttestationObject     *byte
	CredentialIDLen       uint32
	CredentialID          *byte
	Extensions            webauthnExtensions
	UsedTransport         uint32
}

type webauthnAssertion struct {
	Version              uint32
	AuthenticatorDataLen uint32
	AuthenticatorData    *byte
	SignatureLen         uint32
	Signature            *byte
	Credential           webauthnCredential
	UserIDLen            uint32
	UserID               *byte
}

// windowsAdapter drives ceremonies through the Windows WebAuthn API. The
// native calls are blocking and present the Windows Hello UI themselves,
// so Start moves them onto their own goroutine and reports back through
// the completion slot.
type windowsAdapter struct{}

func newWindowsAdapter() *windowsAdapter {
	return &windowsAdapter{}
}

// RequiresRelyingPartyID reports true: the Windows API takes the RP
// identifier as a mandatory top-level argument.
func (a *windowsAdapter) RequiresRelyingPartyID() bool {
	return true
}

// ProbeSupport reports whether webauthn.dll is present and a
// user-verifying platform authenticator (Windows Hello) is configured.
func (a *windowsAdapter) ProbeSupport() bool {
	if modWebAuthn.Load() != nil || procIsUVPlatformAuthenticator.Find() != nil {
		return false
	}
	var available int32
	hr, _, _ := procIsUVPlatformAuthenticator.Call(uintptr(unsafe.Pointer(&available)))
	return int32(uint32(hr)) >= 0 && available != 0
}

// APIVersion returns the webauthn.dll API version number, or 0 when the
// DLL is missing.
func (a *windowsAdapter) APIVersion() uint32 {
	if modWebAuthn.Load() != nil || procGetApiVersionNumber.Find() != nil {
		return 0
	}
	v, _, _ := procGetApiVersionNumber.Call()
	return uint32(v)
}

// windowsCreationRequest pins the marshalled native structures for one
// make-credential ceremony. The pinned buffers stay reachable until the
// native call has returned and the slot has fired.
type windowsCreationRequest struct {
	rpID       *uint16
	rp         webauthnRPEntity
	user       webauthnUserEntity
	params     webauthnCoseParameters
	clientData webauthnClientData
	opts       webauthnMakeCredentialOptions

	// backing storage referenced by the structs above
	paramStorage []webauthnCoseParameter
	exclude      credentialListStorage
	pinned       [][]byte
}

func (r *windowsCreationRequest) Ceremony() Ceremony { return CeremonyCreate }

// windowsAssertionRequest pins the marshalled native structures for one
// get-assertion ceremony.
type windowsAssertionRequest struct {
	rpID       *uint16
	clientData webauthnClientData
	opts       webauthnGetAssertionOptions

	allow  credentialListStorage
	pinned [][]byte
}

func (r *windowsAssertionRequest) Ceremony() Ceremony { return CeremonyGet }

// credentialListStorage holds the native form of an allow/exclude list
// plus the Go memory backing it.
type credentialListStorage struct {
	list    webauthnCredentialList
	entries []webauthnCredentialEx
	ptrs    []*webauthnCredentialEx
	ids     [][]byte
}

func (a *windowsAdapter) checkAvailable() error {
	if err := modWebAuthn.Load(); err != nil {
		return fmt.Errorf("%w: webauthn.dll not present", ErrUnavailable)
	}
	if procMakeCredential.Find() != nil || procGetAssertion.Find() != nil {
		return fmt.Errorf("%w: webauthn.dll is missing required entry points", ErrUnavailable)
	}
	return nil
}

// BuildCreationRequest marshals the normalized request into the native
// make-credential argument structures. All opaque byte fields are pinned
// verbatim; nothing is re-encoded.
func (a *windowsAdapter) BuildCreationRequest(req *CreationRequest) (NativeRequest, error) {
	if err := a.checkAvailable(); err != nil {
		return nil, err
	}
	if req.RelyingParty.ID == "" {
		return nil, invalidArgument("rp.id is required")
	}

	nr := &windowsCreationRequest{}

	var err error
	if nr.rpID, err = windows.UTF16PtrFromString(req.RelyingParty.ID); err != nil {
		return nil, invalidArgument("rp.id contains a NUL byte")
	}
	rpName, err := windows.UTF16PtrFromString(req.RelyingParty.Name)
	if err != nil {
		return nil, invalidArgument("rp.name contains a NUL byte")
	}
	userName, err := windows.UTF16PtrFromString(req.User.Name)
	if err != nil {
		return nil, invalidArgument("user.name contains a NUL byte")
	}
	displayName, err := windows.UTF16PtrFromString(req.User.DisplayName)
	if err != nil {
		return nil, invalidArgument("user.displayName contains a NUL byte")
	}

	nr.rp = webauthnRPEntity{
		Version: rpEntityVersion,
		ID:      nr.rpID,
		Name:    rpName,
	}

	userID := pin(&nr.pinned, req.User.ID)
	nr.user = webauthnUserEntity{
		Version:     userEntityVersion,
		IDLen:       uint32(len(req.User.ID)),
		ID:          userID,
		Name:        userName,
		DisplayName: displayName,
	}

	credType, _ := windows.UTF16PtrFromString(string(protocol.PublicKeyCredentialType))
	nr.paramStorage = make([]webauthnCoseParameter, len(req.PubKeyCredParams))
	for i, p := range req.PubKeyCredParams {
		ct := credType
		if p.Type != protocol.PublicKeyCredentialType {
			ct, _ = windows.UTF16PtrFromString(string(p.Type))
		}
		nr.paramStorage[i] = webauthnCoseParameter{
			Version:        coseParameterVersion,
			CredentialType: ct,
			Alg:            int32(p.Algorithm),
		}
	}
	nr.params = webauthnCoseParameters{
		Count:      uint32(len(nr.paramStorage)),
		Parameters: &nr.paramStorage[0],
	}

	clientData, err := buildClientDataJSON("webauthn.create", req.Challenge, req.RelyingParty.ID)
	if err != nil {
		return nil, fmt.Errorf("building client data: %w", err)
	}
	nr.clientData = newClientData(pin(&nr.pinned, clientData), len(clientData))

	nr.opts = webauthnMakeCredentialOptions{
		Version:                         makeCredentialOptionsVersion,
		TimeoutMilliseconds:             uint32(req.Timeout.Milliseconds()),
		AttestationConveyancePreference: attestationPreferenceValue(req.Attestation),
	}
	if s := req.AuthenticatorSelection; s != nil {
		nr.opts.AuthenticatorAttachment = attachmentValue(s.AuthenticatorAttachment)
		nr.opts.UserVerificationRequirement = userVerificationValue(s.UserVerification)
		if s.RequireResidentKey != nil && *s.RequireResidentKey {
			nr.opts.RequireResidentKey = 1
		}
		if s.ResidentKey == protocol.ResidentKeyRequirementRequired {
			nr.opts.RequireResidentKey = 1
		}
	}
	buildCredentialList(&nr.exclude, req.ExcludeCredentials)
	if nr.exclude.list.Count > 0 {
		nr.opts.ExcludeCredentialList = &nr.exclude.list
	}

	return nr, nil
}

// BuildAssertionRequest marshals the normalized request into the native
// get-assertion argument structures, including the full allow list.
func (a *windowsAdapter) BuildAssertionRequest(req *AssertionRequest) (NativeRequest, error) {
	if err := a.checkAvailable(); err != nil {
		return nil, err
	}
	if req.RelyingPartyID == "" {
		return nil, invalidArgument("rpId is required")
	}

	nr := &windowsAssertionRequest{}

	var err error
	if nr.rpID, err = windows.UTF16PtrFromString(req.RelyingPartyID); err != nil {
		return nil, invalidArgument("rpId contains a NUL byte")
	}

	clientData, err := buildClientDataJSON("webauthn.get", req.Challenge, req.RelyingPartyID)
	if err != nil {
		return nil, fmt.Errorf("building client data: %w", err)
	}
	nr.clientData = newClientData(pin(&nr.pinned, clientData), len(clientData))

	nr.opts = webauthnGetAssertionOptions{
		Version:                     getAssertionOptionsVersion,
		TimeoutMilliseconds:         uint32(req.Timeout.Milliseconds()),
		UserVerificationRequirement: userVerificationValue(req.UserVerification),
	}
	buildCredentialList(&nr.allow, req.AllowCredentials)
	if nr.allow.list.Count > 0 {
		nr.opts.AllowCredentialList = &nr.allow.list
	}

	return nr, nil
}

// Start launches the blocking native call on its own goroutine. The
// request handle keeps every marshalled buffer alive until the slot has
// fired; native output buffers are copied out and freed before delivery.
func (a *windowsAdapter) Start(req NativeRequest, slot *CompletionSlot) error {
	switch nr := req.(type) {
	case *windowsCreationRequest:
		go a.makeCredential(nr, slot)
		return nil
	case *windowsAssertionRequest:
		go a.getAssertion(nr, slot)
		return nil
	default:
		return invalidArgument("unrecognized native request type")
	}
}

func (a *windowsAdapter) makeCredential(nr *windowsCreationRequest, slot *CompletionSlot) {
	var attestation *webauthnCredentialAttestation
	hr, _, _ := procMakeCredential.Call(
		foregroundWindow(),
		uintptr(unsafe.Pointer(&nr.rp)),
		uintptr(unsafe.Pointer(&nr.user)),
		uintptr(unsafe.Pointer(&nr.params)),
		uintptr(unsafe.Pointer(&nr.clientData)),
		uintptr(unsafe.Pointer(&nr.opts)),
		uintptr(unsafe.Pointer(&attestation)),
	)
	runtime.KeepAlive(nr)

	if code := int32(uint32(hr)); code < 0 || attestation == nil {
		slot.Resolve(CeremonyResult{Err: nativeFailure(code)})
		return
	}

	result := &NativeAttestation{
		CredentialID:      copyBytes(attestation.CredentialID, attestation.CredentialIDLen),
		ClientDataJSON:    append([]byte(nil), nr.clientData.json()...),
		AttestationObject: copyBytes(attestation.AttestationObject, attestation.AttestationObjectLen),
		Transports:        transportsFromMask(attestation.UsedTransport),
		Attachment:        protocol.Platform,
	}
	procFreeAttestation.Call(uintptr(unsafe.Pointer(attestation)))

	slot.Resolve(CeremonyResult{Attestation: result})
}

func (a *windowsAdapter) getAssertion(nr *windowsAssertionRequest, slot *CompletionSlot) {
	var assertion *webauthnAssertion
	hr, _, _ := procGetAssertion.Call(
		foregroundWindow(),
		uintptr(unsafe.Pointer(nr.rpID)),
		uintptr(unsafe.Pointer(&nr.clientData)),
		uintptr(unsafe.Pointer(&nr.opts)),
		uintptr(unsafe.Pointer(&assertion)),
	)
	runtime.KeepAlive(nr)

	if code := int32(uint32(hr)); code < 0 || assertion == nil {
		slot.Resolve(CeremonyResult{Err: nativeFailure(code)})
		return
	}

	result := &NativeAssertion{
		CredentialID:      copyBytes(assertion.Credential.ID, assertion.Credential.IDLen),
		ClientDataJSON:    append([]byte(nil), nr.clientData.json()...),
		AuthenticatorData: copyBytes(assertion.AuthenticatorData, assertion.AuthenticatorDataLen),
		Signature:         copyBytes(assertion.Signature, assertion.SignatureLen),
		UserHandle:        copyBytes(assertion.UserID, assertion.UserIDLen),
		Attachment:        protocol.Platform,
	}
	procFreeAssertion.Call(uintptr(unsafe.Pointer(assertion)))

	slot.Resolve(CeremonyResult{Assertion: result})
}

// buildClientDataJSON synthesizes the client data the Windows API hashes
// and embeds into the attestation. The challenge is carried as unpadded
// URL-safe base64 per the WebAuthn client data rules.
func buildClientDataJSON(ceremonyType string, challenge []byte, rpID string) ([]byte, error) {
	return json.Marshal(struct {
		Type        string `json:"type"`
		Challenge   string `json:"challenge"`
		Origin      string `json:"origin"`
		CrossOrigin bool   `json:"crossOrigin"`
	}{
		Type:      ceremonyType,
		Challenge: base64.RawURLEncoding.EncodeToString(challenge),
		Origin:    "https://" + rpID,
	})
}

func newClientData(data *byte, length int) webauthnClientData {
	hashAlg, _ := windows.UTF16PtrFromString("SHA-256")
	return webauthnClientData{
		Version:   clientDataVersion,
		JSONLen:   uint32(length),
		JSON:      data,
		HashAlgID: hashAlg,
	}
}

func (c *webauthnClientData) json() []byte {
	return unsafe.Slice(c.JSON, c.JSONLen)
}

// buildCredentialList marshals descriptors into the versioned
// WEBAUTHN_CREDENTIAL_LIST form so per-credential transports survive the
// crossing.
func buildCredentialList(dst *credentialListStorage, descs []CredentialDescriptor) {
	if len(descs) == 0 {
		return
	}
	credType, _ := windows.UTF16PtrFromString(string(protocol.PublicKeyCredentialType))
	dst.entries = make([]webauthnCredentialEx, len(descs))
	dst.ptrs = make([]*webauthnCredentialEx, len(descs))
	dst.ids = make([][]byte, len(descs))
	for i, d := range descs {
		dst.ids[i] = append([]byte(nil), d.ID...)
		ct := credType
		if d.Type != protocol.PublicKeyCredentialType && d.Type != "" {
			ct, _ = windows.UTF16PtrFromString(string(d.Type))
		}
		dst.entries[i] = webauthnCredentialEx{
			Version:        credentialExVersion,
			IDLen:          uint32(len(dst.ids[i])),
			ID:             bytePtr(dst.ids[i]),
			CredentialType: ct,
			Transports:     transportMask(d.Transports),
		}
		dst.ptrs[i] = &dst.entries[i]
	}
	dst.list = webauthnCredentialList{
		Count:       uint32(len(descs)),
		Credentials: &dst.ptrs[0],
	}
}

func attachmentValue(attachment protocol.AuthenticatorAttachment) uint32 {
	switch attachment {
	case protocol.Platform:
		return attachmentPlatform
	case protocol.CrossPlatform:
		return attachmentCrossPlatform
	default:
		return attachmentAny
	}
}

func userVerificationValue(uv protocol.UserVerificationRequirement) uint32 {
	switch uv {
	case protocol.VerificationRequired:
		return uvRequired
	case protocol.VerificationPreferred:
		return uvPreferred
	case protocol.VerificationDiscouraged:
		return uvDiscouraged
	default:
		return uvAny
	}
}

func attestationPreferenceValue(pref protocol.ConveyancePreference) uint32 {
	switch pref {
	case protocol.PreferNoAttestation:
		return attestationConveyanceNone
	case protocol.PreferIndirectAttestation:
		return attestationConveyanceIndirect
	case protocol.PreferDirectAttestation:
		return attestationConveyanceDirect
	default:
		return attestationConveyanceAny
	}
}

func transportMask(transports []protocol.AuthenticatorTransport) uint32 {
	var mask uint32
	for _, t := range transports {
		switch t {
		case protocol.USB:
			mask |= transportUSB
		case protocol.NFC:
			mask |= transportNFC
		case protocol.BLE:
			mask |= transportBLE
		case protocol.Internal:
			mask |= transportInternal
		case protocol.Hybrid:
			mask |= transportHybrid
		}
	}
	return mask
}

func transportsFromMask(mask uint32) []protocol.AuthenticatorTransport {
	var transports []protocol.AuthenticatorTransport
	if mask&transportUSB != 0 {
		transports = append(transports, protocol.USB)
	}
	if mask&transportNFC != 0 {
		transports = append(transports, protocol.NFC)
	}
	if mask&transportBLE != 0 {
		transports = append(transports, protocol.BLE)
	}
	if mask&transportInternal != 0 {
		transports = append(transports, protocol.Internal)
	}
	if mask&transportHybrid != 0 {
		transports = append(transports, protocol.Hybrid)
	}
	return transports
}

// nativeFailure converts an HRESULT into the stable error taxonomy,
// resolving the symbolic name (NotAllowedError, ConstraintError, ...)
// when webauthn.dll can provide one.
func nativeFailure(hr int32) error {
	message := ""
	if procGetErrorName.Find() == nil {
		name, _, _ := procGetErrorName.Call(uintptr(uint32(hr)))
		if name != 0 {
			message = windows.UTF16PtrToString((*uint16)(unsafe.Pointer(name)))
		}
	}
	return &NativeError{Code: hr, Message: message}
}

func foregroundWindow() uintptr {
	if procGetForegroundWindow.Find() != nil {
		return 0
	}
	hwnd, _, _ := procGetForegroundWindow.Call()
	return hwnd
}

func copyBytes(data *byte, length uint32) []byte {
	if data == nil || length == 0 {
		return nil
	}
	return append([]byte(nil), unsafe.Slice(data, length)...)
}

func bytePtr(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}

// pin copies b into the request's pinned storage and returns a pointer to
// the copy, keeping it reachable for the lifetime of the native call.
func pin(storage *[][]byte, b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	c := append([]byte(nil), b...)
	*storage = append(*storage, c)
	return &c[0]
}
