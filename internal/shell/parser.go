package shell

import (
	"errors"
	"fmt"
)

// MaxCommandLength is the hard input ceiling. Longer commands are rejected
// outright; this bounds worst-case parsing work to linear time in a known
// maximum.
const MaxCommandLength = 65536

// ErrInvalidInput is returned when a command exceeds MaxCommandLength.
var ErrInvalidInput = errors.New("invalid command input")

// ParsedCommand is the result of tokenizing one command string.
// It is produced atomically by Parse, immutable afterwards, and owned by the
// caller. If any of the five flags is true the command can never match an
// allowlist prefix.
type ParsedCommand struct {
	// Raw is the original command string as given to Parse.
	Raw    string   `json:"raw"`
	Tokens []string `json:"tokens"`

	HasChain    bool `json:"has_chain"`    // ; && || lone &, escapes, unbalanced quotes
	HasPipe     bool `json:"has_pipe"`     // lone |
	HasSubshell bool `json:"has_subshell"` // $( ` ( ) %VAR% $var { }
	HasRedirect bool `json:"has_redirect"` // < > >> <<
	Dangerous   bool `json:"dangerous"`    // raw text hit a dangerous pattern

	Dialect Dialect `json:"dialect"`
}

// Parse tokenizes command under the given dialect's rules.
// Unknown falls back to POSIX, the most common case for agent-issued
// commands. An empty command parses to an empty, flag-free result.
func Parse(command string, d Dialect) (*ParsedCommand, error) {
	if len(command) > MaxCommandLength {
		return nil, fmt.Errorf("%w: command exceeds %d bytes", ErrInvalidInput, MaxCommandLength)
	}

	var cmd *ParsedCommand
	switch d {
	case DialectCmd:
		cmd = parseCmd(command)
	case DialectPowerShell:
		cmd = parsePowerShell(command)
	default:
		cmd = parsePosix(command)
	}
	cmd.Raw = command
	return cmd, nil
}

// Base returns the command name (first token), or "" for an empty command.
func (c *ParsedCommand) Base() string {
	if len(c.Tokens) == 0 {
		return ""
	}
	return c.Tokens[0]
}

// tokenScanner accumulates tokens during a single left-to-right pass.
// An empty quote pair ("" or '') still yields one empty token, so the
// scanner tracks whether the current token saw quotes independently of
// whether it has content.
type tokenScanner struct {
	tokens    []string
	buf       []byte
	hadQuotes bool
}

func (s *tokenScanner) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

// flush ends the current token if it has content or came from quotes.
func (s *tokenScanner) flush() {
	if len(s.buf) > 0 || s.hadQuotes {
		s.tokens = append(s.tokens, string(s.buf))
		s.buf = s.buf[:0]
		s.hadQuotes = false
	}
}

// flushMeta ends the current token at a metacharacter boundary.
// Unlike flush, an empty pending quote pair does not produce a token here;
// the quote marker survives the operator and the empty token is emitted at
// the next whitespace or end of input.
func (s *tokenScanner) flushMeta() {
	if len(s.buf) > 0 {
		s.tokens = append(s.tokens, string(s.buf))
		s.buf = s.buf[:0]
	}
}
