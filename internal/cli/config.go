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
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds global CLI configuration. Values resolve in the usual
// precedence order: flags, then PASSKEY_* environment variables, then the
// config file, then defaults.
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// RPID is the Relying Party identifier (domain name)
	RPID string

	// RPName is the human-readable Relying Party name
	RPName string

	// Origin is the ceremony origin; empty derives https://<RPID>
	Origin string

	// Timeout is the ceremony ceiling; zero uses the client default
	Timeout time.Duration

	// Virtual selects the in-memory software authenticator
	Virtual bool

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: "text",
	}
}

// Load merges config-file and environment values underneath any flags the
// user set. Flags always win because they are written before Load runs.
func (c *Config) Load() error {
	v := viper.New()
	v.SetEnvPrefix("PASSKEY")
	v.AutomaticEnv()

	if c.ConfigFile != "" {
		v.SetConfigFile(c.ConfigFile)
	} else {
		v.SetConfigName(".passkey")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && c.ConfigFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	if c.RPID == "" {
		c.RPID = v.GetString("rp_id")
	}
	if c.RPName == "" {
		c.RPName = v.GetString("rp_name")
	}
	if c.Origin == "" {
		c.Origin = v.GetString("origin")
	}
	if c.Timeout == 0 {
		c.Timeout = v.GetDuration("timeout")
	}
	if !c.Virtual {
		c.Virtual = v.GetBool("virtual")
	}
	return nil
}
