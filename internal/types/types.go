// Package types defines common type-safe enums used across the codebase.
package types

// Action represents what the gate does with an evaluated command.
type Action string

const (
	// ActionAllow lets the command through without interaction.
	ActionAllow Action = "allow"
	// ActionDeny rejects the command outright.
	ActionDeny Action = "deny"
	// ActionPrompt defers the decision to the operator.
	ActionPrompt Action = "prompt"
)

// Valid returns true if the Action is a known valid value.
func (a Action) Valid() bool {
	return a == ActionAllow || a == ActionDeny || a == ActionPrompt
}

// IsAllow returns true if the command should pass without interaction.
func (a Action) IsAllow() bool {
	return a == ActionAllow
}

// IsDeny returns true if the command should be rejected.
func (a Action) IsDeny() bool {
	return a == ActionDeny
}

// IsPrompt returns true if the decision goes to the operator.
func (a Action) IsPrompt() bool {
	return a == ActionPrompt
}

// LogLevel represents the logging verbosity as configured.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Valid returns true if the LogLevel is a known valid value.
// Empty is valid and means the default (info).
func (l LogLevel) Valid() bool {
	switch l {
	case "", LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}
