package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShellGate/shellgate/internal/shell"
	"github.com/ShellGate/shellgate/internal/types"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 7468 {
		t.Errorf("Server.Port = %d, want 7468", cfg.Server.Port)
	}
	if cfg.Gate.Dialect != "auto" {
		t.Errorf("Gate.Dialect = %q, want auto", cfg.Gate.Dialect)
	}
	if cfg.Gate.DefaultAction != types.ActionPrompt {
		t.Errorf("Gate.DefaultAction = %q, want prompt", cfg.Gate.DefaultAction)
	}
	if len(cfg.Gate.ProtectedPaths) == 0 {
		t.Error("ProtectedPaths should not be empty by default")
	}
	if cfg.Allowlist.Path == "" {
		t.Error("Allowlist.Path should not be empty by default")
	}
}

func TestValidate_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass validation: %v", err)
	}
}

func TestValidate_PortRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "server.port") {
		t.Errorf("port 0 should fail: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Server.Port = 99999
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "server.port") {
		t.Errorf("port 99999 should fail: %v", err)
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := DefaultConfig()

	for _, level := range []types.LogLevel{
		types.LogLevelTrace, types.LogLevelDebug, types.LogLevelInfo,
		types.LogLevelWarn, types.LogLevelError, "",
	} {
		cfg.Server.LogLevel = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("log level %q should be valid: %v", level, err)
		}
	}

	cfg.Server.LogLevel = types.LogLevel("invalid")
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Errorf("invalid log level should fail: %v", err)
	}
}

func TestValidate_Dialect(t *testing.T) {
	cfg := DefaultConfig()

	for _, d := range []string{"", "auto", "posix", "bash", "cmd", "powershell", "pwsh"} {
		cfg.Gate.Dialect = d
		if err := cfg.Validate(); err != nil {
			t.Errorf("dialect %q should be valid: %v", d, err)
		}
	}

	cfg.Gate.Dialect = "fish"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "gate.dialect") {
		t.Errorf("unknown dialect should fail: %v", err)
	}
}

func TestValidate_DefaultAction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gate.DefaultAction = types.Action("block")
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "default_action") {
		t.Errorf("invalid default_action should fail: %v", err)
	}
}

func TestValidate_DenyLimiter(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Gate.DenyLimit = -1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "deny_limit") {
		t.Errorf("negative deny_limit should fail: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Gate.DenyLimit = 5
	cfg.Gate.DenyWindow = 0
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "deny_window") {
		t.Errorf("deny_limit without window should fail: %v", err)
	}

	// 0 disables the limiter; window is then irrelevant.
	cfg = DefaultConfig()
	cfg.Gate.DenyLimit = 0
	cfg.Gate.DenyWindow = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled limiter should be valid: %v", err)
	}
}

func TestValidate_ProtectedPathGlobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gate.ProtectedPaths = []string{"/etc/**", "[bad"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "protected_paths") {
		t.Errorf("malformed glob should fail: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	cfg.Server.LogLevel = types.LogLevel("invalid")
	cfg.Gate.Dialect = "fish"
	cfg.Gate.DenyLimit = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple errors")
	}
	errStr := err.Error()
	// Should collect all errors, not fail on first
	for _, want := range []string{"server.port", "log_level", "gate.dialect", "deny_limit"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("missing %s error in %q", want, errStr)
		}
	}
}

func TestConfigDialect_Resolution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gate.Dialect = "powershell"
	if got := cfg.Dialect(); got != shell.DialectPowerShell {
		t.Errorf("Dialect() = %v, want powershell", got)
	}

	cfg.Gate.Dialect = "auto"
	if got := cfg.Dialect(); got == shell.DialectUnknown {
		t.Error("auto dialect should resolve to a concrete dialect")
	}
}

func TestLoad_UnknownField(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	// "servr" is a typo for "server"
	data := []byte("servr:\n  port: 8080\nserver:\n  port: 8080\n")
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load with unknown field should warn, not fail: %v", err)
	}
	// The known "server.port" should still be parsed
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoad_FileNotExist(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("missing file should return defaults: %v", err)
	}
	if cfg.Server.Port != 7468 {
		t.Errorf("Server.Port = %d, want default 7468", cfg.Server.Port)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte("gate:\n  dialect: cmd\n  default_action: deny\n")
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gate.Dialect != "cmd" {
		t.Errorf("Gate.Dialect = %q, want cmd", cfg.Gate.Dialect)
	}
	if cfg.Gate.DefaultAction != types.ActionDeny {
		t.Errorf("Gate.DefaultAction = %q, want deny", cfg.Gate.DefaultAction)
	}
	// Untouched sections keep their defaults
	if cfg.Server.Port != 7468 {
		t.Errorf("Server.Port = %d, want default 7468", cfg.Server.Port)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	p := DefaultConfigPath()
	if p == "" {
		t.Fatal("DefaultConfigPath should not be empty")
	}
	if !strings.HasSuffix(p, filepath.Join(".shellgate", "config.yaml")) {
		t.Errorf("DefaultConfigPath = %q, want suffix .shellgate/config.yaml", p)
	}
}

func TestMaskAPIToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "(not set)"},
		{"short", "****"},
		{"0123456789abcdef", "0123****cdef"},
	}
	for _, tt := range tests {
		s := &Secrets{APIToken: tt.token}
		if got := s.MaskAPIToken(); got != tt.want {
			t.Errorf("MaskAPIToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestValidateForServe(t *testing.T) {
	if err := (&Secrets{}).ValidateForServe(); err == nil {
		t.Error("empty token should fail")
	}
	if err := (&Secrets{APIToken: "short"}).ValidateForServe(); err == nil {
		t.Error("short token should fail")
	}
	if err := (&Secrets{APIToken: "0123456789abcdef"}).ValidateForServe(); err != nil {
		t.Errorf("16-char token should pass: %v", err)
	}
}
