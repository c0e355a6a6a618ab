// Package shell parses shell commands conservatively for allowlist matching.
//
// Three dialect-specific tokenizers (POSIX, cmd.exe, PowerShell) turn a raw
// command string into tokens plus structural flags (chain, pipe, subshell,
// redirect). The parsers never execute anything and never try to be a full
// shell grammar: whenever syntax is ambiguous they classify the command as
// unsafe for matching rather than guess at semantics.
package shell

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Dialect identifies which shell's quoting and metacharacter rules apply.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectPosix
	DialectCmd
	DialectPowerShell
)

// ErrInvalidDialect is returned by ParseDialect for unrecognized names.
var ErrInvalidDialect = errors.New("invalid shell dialect name")

// String returns the canonical lowercase name of the dialect.
func (d Dialect) String() string {
	switch d {
	case DialectPosix:
		return "posix"
	case DialectCmd:
		return "cmd"
	case DialectPowerShell:
		return "powershell"
	default:
		return "unknown"
	}
}

// ParseDialect converts a user-supplied dialect name to a Dialect.
// Accepts common aliases, case-insensitively.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "posix", "bash", "sh", "zsh", "dash":
		return DialectPosix, nil
	case "cmd", "cmd.exe":
		return DialectCmd, nil
	case "powershell", "pwsh", "ps":
		return DialectPowerShell, nil
	}
	return DialectUnknown, fmt.Errorf("%w: %q", ErrInvalidDialect, name)
}

// DetectDefaultDialect inspects the environment to pick the dialect the
// agent's commands will most likely run under. Pure query, no mutation.
//
// On Windows, PSModulePath is only set inside a PowerShell session; COMSPEC
// normally names cmd.exe. Elsewhere, SHELL may point at pwsh for users who
// run PowerShell Core as their login shell.
func DetectDefaultDialect() Dialect {
	if runtime.GOOS == "windows" {
		if os.Getenv("PSModulePath") != "" {
			return DialectPowerShell
		}
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			if strings.Contains(strings.ToLower(comspec), "cmd.") ||
				strings.HasSuffix(strings.ToLower(comspec), "cmd") {
				return DialectCmd
			}
		}
		return DialectCmd
	}

	if sh := os.Getenv("SHELL"); sh != "" {
		if strings.Contains(sh, "pwsh") || strings.Contains(sh, "powershell") {
			return DialectPowerShell
		}
	}
	return DialectPosix
}
