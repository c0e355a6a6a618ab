package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/ShellGate/shellgate/internal/logger"
	"github.com/ShellGate/shellgate/internal/shell"
	"github.com/ShellGate/shellgate/internal/types"
)

var cfgLog = logger.New("config")

// Config represents the shellgate configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Gate      GateConfig      `yaml:"gate"`
	Allowlist AllowlistConfig `yaml:"allowlist"`
}

// ServerConfig holds management API server settings
type ServerConfig struct {
	Port     int            `yaml:"port"`
	LogLevel types.LogLevel `yaml:"log_level"`
	NoColor  bool           `yaml:"no_color"`
}

// GateConfig holds command gate settings
type GateConfig struct {
	// Dialect selects the shell dialect ("posix", "cmd", "powershell").
	// Empty or "auto" detects from the environment.
	Dialect string `yaml:"dialect"`
	// DefaultAction applies to safe commands with no allowlist match:
	// "prompt" (default), "deny", or "allow".
	DefaultAction types.Action `yaml:"default_action"`
	// DenyLimit caps denials per DenyWindow before the gate stops
	// prompting and denies outright. 0 disables the limiter.
	DenyLimit  int `yaml:"deny_limit"`
	DenyWindow int `yaml:"deny_window"` // seconds
	// ProtectedPaths are glob patterns; a command token matching one is
	// always denied regardless of the allowlist.
	ProtectedPaths []string `yaml:"protected_paths"`
}

// AllowlistConfig holds allowlist persistence settings
type AllowlistConfig struct {
	// Path to the allowlist YAML file (default: ~/.shellgate/allowlist.yaml)
	Path string `yaml:"path"`
}

// DefaultConfigPath returns the default config file path (~/.shellgate/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".shellgate", "config.yaml")
}

// DefaultAllowlistPath returns the default allowlist path under ~/.shellgate/.
func DefaultAllowlistPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./allowlist.yaml"
	}
	return filepath.Join(home, ".shellgate", "allowlist.yaml")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     7468,
			LogLevel: types.LogLevelInfo,
			NoColor:  false,
		},
		Gate: GateConfig{
			Dialect:       "auto",
			DefaultAction: types.ActionPrompt,
			DenyLimit:     5,
			DenyWindow:    60,
			ProtectedPaths: []string{
				"/etc/**",
				"**/.ssh/**",
				"**/.aws/credentials",
			},
		},
		Allowlist: AllowlistConfig{
			Path: DefaultAllowlistPath(),
		},
	}
}

// Validate checks all Config fields and returns a multi-error report.
// Call this AFTER CLI overrides have been applied, not during Load().
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be 1-65535 (got %d)", c.Server.Port))
	}

	if !c.Server.LogLevel.Valid() {
		errs = append(errs, fmt.Sprintf("server.log_level: unknown log level %q (valid: trace, debug, info, warn, error)", c.Server.LogLevel))
	}

	if c.Gate.Dialect != "" && c.Gate.Dialect != "auto" {
		if _, err := shell.ParseDialect(c.Gate.Dialect); err != nil {
			errs = append(errs, fmt.Sprintf("gate.dialect: %v", err))
		}
	}

	if !c.Gate.DefaultAction.Valid() {
		errs = append(errs, fmt.Sprintf("gate.default_action: must be 'allow', 'deny' or 'prompt' (got %q)", c.Gate.DefaultAction))
	}

	if c.Gate.DenyLimit < 0 {
		errs = append(errs, fmt.Sprintf("gate.deny_limit: must be >= 0 (got %d)", c.Gate.DenyLimit))
	}
	if c.Gate.DenyLimit > 0 && c.Gate.DenyWindow <= 0 {
		errs = append(errs, fmt.Sprintf("gate.deny_window: must be positive when deny_limit is set (got %d)", c.Gate.DenyWindow))
	}

	for _, pattern := range c.Gate.ProtectedPaths {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Sprintf("gate.protected_paths: invalid pattern %q: %v", pattern, err))
		}
	}

	if c.Allowlist.Path == "" {
		errs = append(errs, "allowlist.path: must not be empty")
	}

	if len(errs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for i, e := range errs {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e)
	}
	return errors.New(sb.String())
}

// Dialect resolves the configured dialect, detecting from the environment
// when set to "auto" or empty. Call after Validate().
func (c *Config) Dialect() shell.Dialect {
	if c.Gate.Dialect == "" || c.Gate.Dialect == "auto" {
		return shell.DetectDefaultDialect()
	}
	d, err := shell.ParseDialect(c.Gate.Dialect)
	if err != nil {
		return shell.DetectDefaultDialect()
	}
	return d
}

// isUnknownFieldError returns true if the error is from yaml.Decoder.KnownFields(true)
// detecting an unrecognized key (e.g. typo like "servr:").
func isUnknownFieldError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found in type")
}

// Load loads configuration from a YAML file.
// Note: Load does NOT call Validate(). Callers should apply CLI overrides
// first, then call cfg.Validate() themselves.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// Try strict decode to warn about unknown fields (typos like "servr:")
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if isUnknownFieldError(err) {
			cfgLog.Warn("config has unknown fields (ignored): %v", err)
			// Re-parse without strict mode for forward compatibility
			cfg = DefaultConfig()
			if err2 := yaml.Unmarshal(data, cfg); err2 != nil {
				return nil, fmt.Errorf("config parse error: %w", err2)
			}
		} else {
			return nil, fmt.Errorf("config parse error: %w", err)
		}
	}

	return cfg, nil
}
