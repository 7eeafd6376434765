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

package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintSupport prints platform authenticator availability
func (p *Printer) PrintSupport(supported bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"supported": supported,
		})
	case OutputFormatText:
		if supported {
			fmt.Fprintln(p.writer, "Platform authenticator available")
		} else {
			fmt.Fprintln(p.writer, "Platform authenticator not available")
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintOutcome prints a completed ceremony result
func (p *Printer) PrintOutcome(outcome *passkey.CredentialOutcome) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(outcome)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Ceremony:      %s\n", outcome.Ceremony())
		fmt.Fprintf(p.writer, "Credential ID: %s\n", outcome.ID)
		fmt.Fprintf(p.writer, "Type:          %s\n", outcome.Type)
		if outcome.AuthenticatorAttachment != "" {
			fmt.Fprintf(p.writer, "Attachment:    %s\n", outcome.AuthenticatorAttachment)
		}
		if att := outcome.Attestation; att != nil {
			fmt.Fprintf(p.writer, "Attestation:   %s\n",
				base64.StdEncoding.EncodeToString(att.AttestationObject))
			if len(att.Transports) > 0 {
				fmt.Fprintf(p.writer, "Transports:    %v\n", att.Transports)
			}
		}
		if asr := outcome.Assertion; asr != nil {
			fmt.Fprintf(p.writer, "Signature:     %s\n",
				base64.StdEncoding.EncodeToString(asr.Signature))
			if len(asr.UserHandle) > 0 {
				fmt.Fprintf(p.writer, "User Handle:   %s\n",
					base64.StdEncoding.EncodeToString(asr.UserHandle))
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		result := map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
		if ne, ok := passkey.AsNativeError(err); ok {
			result["native_code"] = ne.Code
			result["native_message"] = ne.Message
		}
		return p.printJSON(result)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
