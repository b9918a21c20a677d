// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development enables the inspector by default.
	Development Environment = "development"
	// Production disables it unless configured otherwise.
	Production Environment = "production"
)

// EnvVar names the environment variable Load reads.
const EnvVar = "INSPECTOR_CONFIG"

const (
	DefaultBatchIntervalMs = 500
	DefaultBatchMaxItems   = 50
	DefaultMaxPayloadSize  = 10240
	DefaultQueueLimit      = 1024
	DefaultHostAddress     = "${XDG_RUNTIME_DIR:-/tmp}/flipper-inspector.sock"
)

// DefaultRedactHeaders are the request and response headers whose
// values never leave the process.
var DefaultRedactHeaders = []string{"authorization", "cookie", "x-api-key"}

// Config is the inspector configuration.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment"`

	// Enabled turns the inspector on. Nil means enabled in
	// development only; see IsEnabled.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	Batch BatchConfig `yaml:"batch" json:"batch"`

	// Tags are merged into every envelope. Per-call tags win.
	Tags map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// MaxPayloadSize bounds the serialized size of one payload in
	// bytes.
	MaxPayloadSize int `yaml:"max_payload_size" json:"max_payload_size"`

	NetworkEnabled bool     `yaml:"network_enabled" json:"network_enabled"`
	RedactHeaders  []string `yaml:"redact_headers" json:"redact_headers"`
	RedactBody     bool     `yaml:"redact_body" json:"redact_body"`

	Host HostConfig `yaml:"host" json:"host"`

	Development *Overrides `yaml:"development,omitempty" json:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty" json:"production,omitempty"`
}

// BatchConfig controls envelope batching.
type BatchConfig struct {
	// IntervalMs is the flush period. Zero disables batching: each
	// envelope goes straight to the transport.
	IntervalMs int `yaml:"interval_ms" json:"interval_ms"`

	// MaxItems flushes early once this many envelopes are buffered.
	MaxItems int `yaml:"max_items" json:"max_items"`
}

// HostConfig locates the inspection host socket.
type HostConfig struct {
	// Network is "unix" or "tcp".
	Network string `yaml:"network" json:"network"`
	Address string `yaml:"address" json:"address"`

	// Compression is "none", "lz4", or "zstd".
	Compression string `yaml:"compression" json:"compression"`

	// QueueLimit bounds frames waiting to be written.
	QueueLimit int `yaml:"queue_limit" json:"queue_limit"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Enabled        *bool           `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	NetworkEnabled *bool           `yaml:"network_enabled,omitempty" json:"network_enabled,omitempty"`
	Batch          *BatchOverrides `yaml:"batch,omitempty" json:"batch,omitempty"`
	Host           *HostConfig     `yaml:"host,omitempty" json:"host,omitempty"`
}

// BatchOverrides distinguishes an absent value from zero, which is
// meaningful for IntervalMs.
type BatchOverrides struct {
	IntervalMs *int `yaml:"interval_ms,omitempty" json:"interval_ms,omitempty"`
	MaxItems   *int `yaml:"max_items,omitempty" json:"max_items,omitempty"`
}

// Default returns the default configuration, with host.address
// expanded.
func Default() Config {
	cfg := Config{
		Environment: DefaultEnvironment,
		Batch: BatchConfig{
			IntervalMs: DefaultBatchIntervalMs,
			MaxItems:   DefaultBatchMaxItems,
		},
		MaxPayloadSize: DefaultMaxPayloadSize,
		RedactHeaders:  slices.Clone(DefaultRedactHeaders),
		Host: HostConfig{
			Network:     "unix",
			Address:     DefaultHostAddress,
			Compression: "none",
			QueueLimit:  DefaultQueueLimit,
		},
	}
	cfg.expandVariables()
	return cfg
}

// IsEnabled resolves Enabled against the environment.
func (c Config) IsEnabled() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return c.Environment == Development
}

// Load loads the file named by INSPECTOR_CONFIG.
func Load() (Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Config{}, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your inspector config file, or use --config flag", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile loads a config file overlaid on Default. The format is
// chosen by extension: .json and .jsonc are JSON with comments,
// anything else is YAML.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.decode(path, data); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return json.Unmarshal(jsonc.ToJSON(data), c)
	default:
		return yaml.Unmarshal(data, c)
	}
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Enabled != nil {
		enabled := *overrides.Enabled
		c.Enabled = &enabled
	}
	if overrides.NetworkEnabled != nil {
		c.NetworkEnabled = *overrides.NetworkEnabled
	}
	if overrides.Batch != nil {
		if overrides.Batch.IntervalMs != nil {
			c.Batch.IntervalMs = *overrides.Batch.IntervalMs
		}
		if overrides.Batch.MaxItems != nil {
			c.Batch.MaxItems = *overrides.Batch.MaxItems
		}
	}
	if overrides.Host != nil {
		if overrides.Host.Network != "" {
			c.Host.Network = overrides.Host.Network
		}
		if overrides.Host.Address != "" {
			c.Host.Address = overrides.Host.Address
		}
		if overrides.Host.Compression != "" {
			c.Host.Compression = overrides.Host.Compression
		}
		if overrides.Host.QueueLimit != 0 {
			c.Host.QueueLimit = overrides.Host.QueueLimit
		}
	}
}

func (c *Config) expandVariables() {
	c.Host.Address = expandVars(c.Host.Address)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Normalize replaces invalid values with defaults and describes each
// replacement. A nil result means the config was already valid.
func (c *Config) Normalize() []string {
	var fallbacks []string
	fallback := func(format string, args ...any) {
		fallbacks = append(fallbacks, fmt.Sprintf(format, args...))
	}

	if c.Environment != Development && c.Environment != Production {
		fallback("environment %q is not development or production; using %s", c.Environment, DefaultEnvironment)
		c.Environment = DefaultEnvironment
	}
	if c.Batch.IntervalMs < 0 {
		fallback("batch.interval_ms %d is negative; using %d", c.Batch.IntervalMs, DefaultBatchIntervalMs)
		c.Batch.IntervalMs = DefaultBatchIntervalMs
	}
	if c.Batch.MaxItems <= 0 {
		fallback("batch.max_items %d is not positive; using %d", c.Batch.MaxItems, DefaultBatchMaxItems)
		c.Batch.MaxItems = DefaultBatchMaxItems
	}
	if c.MaxPayloadSize <= 0 {
		fallback("max_payload_size %d is not positive; using %d", c.MaxPayloadSize, DefaultMaxPayloadSize)
		c.MaxPayloadSize = DefaultMaxPayloadSize
	}
	if c.RedactHeaders == nil {
		c.RedactHeaders = slices.Clone(DefaultRedactHeaders)
	}
	if c.Host.Network != "unix" && c.Host.Network != "tcp" {
		fallback("host.network %q is not unix or tcp; using unix", c.Host.Network)
		c.Host.Network = "unix"
	}
	if c.Host.Address == "" {
		fallback("host.address is empty; using %s", DefaultHostAddress)
		c.Host.Address = expandVars(DefaultHostAddress)
	}
	switch c.Host.Compression {
	case "", "none", "lz4", "zstd":
	default:
		fallback("host.compression %q is not none, lz4, or zstd; using none", c.Host.Compression)
		c.Host.Compression = "none"
	}
	if c.Host.QueueLimit <= 0 {
		fallback("host.queue_limit %d is not positive; using %d", c.Host.QueueLimit, DefaultQueueLimit)
		c.Host.QueueLimit = DefaultQueueLimit
	}
	return fallbacks
}
