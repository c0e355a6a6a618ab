// Package gate evaluates shell commands against the allowlist, dangerous
// pattern detection and protected paths, and produces an approval decision.
package gate

import (
	"fmt"
	"strings"

	"github.com/ShellGate/shellgate/internal/allowlist"
	"github.com/ShellGate/shellgate/internal/logger"
	"github.com/ShellGate/shellgate/internal/shell"
	"github.com/ShellGate/shellgate/internal/types"
)

var log = logger.New("gate")

// Decision is the outcome of evaluating one command.
type Decision struct {
	Action types.Action `json:"action"`
	// Reason explains the action in one line, suitable for logs and
	// prompt headers.
	Reason string `json:"reason"`
	// Parsed is the tokenized command the decision was made on.
	Parsed *shell.ParsedCommand `json:"parsed"`
	// Matched is set when an allowlist entry covered the command.
	Matched *allowlist.Entry `json:"matched,omitempty"`
	// Warnings carries non-fatal findings (unicode lookalikes, stripped
	// characters) that the operator should see before approving.
	Warnings []string `json:"warnings,omitempty"`
}

// Options configures a Gate.
type Options struct {
	Dialect       shell.Dialect
	DefaultAction types.Action
	// ProtectedPaths are glob patterns; commands touching a matching
	// path are always denied.
	ProtectedPaths []string
	// DenyLimit and DenyWindowSeconds configure the denial limiter.
	// DenyLimit 0 disables it.
	DenyLimit         int
	DenyWindowSeconds int
}

// Gate evaluates commands. Safe for concurrent use.
type Gate struct {
	dialect       shell.Dialect
	defaultAction types.Action
	store         *allowlist.Store
	protected     *pathGuard
	limiter       *denyLimiter
}

// New creates a Gate backed by the given allowlist store.
func New(store *allowlist.Store, opts Options) (*Gate, error) {
	if store == nil {
		return nil, fmt.Errorf("allowlist store is required")
	}

	guard, err := newPathGuard(opts.ProtectedPaths)
	if err != nil {
		return nil, fmt.Errorf("protected paths: %w", err)
	}

	action := opts.DefaultAction
	if !action.Valid() {
		action = types.ActionPrompt
	}

	return &Gate{
		dialect:       opts.Dialect,
		defaultAction: action,
		store:         store,
		protected:     guard,
		limiter:       newDenyLimiter(opts.DenyLimit, opts.DenyWindowSeconds),
	}, nil
}

// Dialect returns the gate's shell dialect.
func (g *Gate) Dialect() shell.Dialect {
	return g.dialect
}

// EvaluateShell parses and evaluates a command in the gate's dialect.
func (g *Gate) EvaluateShell(command string) (Decision, error) {
	return g.Evaluate(command, g.dialect)
}

// Evaluate parses and evaluates a command in an explicit dialect.
//
// Order matters: dangerous patterns and protected paths deny before the
// allowlist is consulted, so an allowlist entry can never override them.
func (g *Gate) Evaluate(command string, d shell.Dialect) (Decision, error) {
	parsed, err := shell.Parse(command, d)
	if err != nil {
		return Decision{}, err
	}

	dec := Decision{Parsed: parsed}
	dec.Warnings = inspectSuspicious(command)

	if g.limiter.tripped() {
		dec.Action = types.ActionDeny
		dec.Reason = "too many recent denials, cooling down"
		log.Warn("denied %q: limiter tripped", parsed.Base())
		return dec, nil
	}

	if parsed.Dangerous {
		dec.Action = types.ActionDeny
		dec.Reason = "command matches a dangerous pattern"
		g.recordDenial()
		return dec, nil
	}

	if hit := g.protected.check(parsed); hit != "" {
		dec.Action = types.ActionDeny
		dec.Reason = fmt.Sprintf("command touches protected path %s", hit)
		g.recordDenial()
		return dec, nil
	}

	if entry, ok := g.store.Match(parsed); ok {
		// Suspicious input never auto-passes, even when allowlisted.
		if len(dec.Warnings) > 0 {
			dec.Action = types.ActionPrompt
			dec.Reason = "allowlisted, but input contains suspicious characters"
			dec.Matched = &entry
			return dec, nil
		}
		dec.Action = types.ActionAllow
		dec.Reason = fmt.Sprintf("matches allowlist entry %s", strings.Join(entry.Prefix, " "))
		dec.Matched = &entry
		log.Debug("allowed %q via allowlist", parsed.Base())
		return dec, nil
	}

	if !shell.IsSafeForMatching(parsed) {
		dec.Action = types.ActionPrompt
		dec.Reason = structuralReason(parsed)
		return dec, nil
	}

	dec.Action = g.defaultAction
	dec.Reason = "no allowlist entry covers this command"
	if dec.Action.IsDeny() {
		g.recordDenial()
	}
	return dec, nil
}

// RecordDenial feeds an operator denial into the limiter. Call it when a
// prompted command is rejected interactively.
func (g *Gate) RecordDenial() {
	g.recordDenial()
}

func (g *Gate) recordDenial() {
	if g.limiter.record() {
		log.Warn("denial limit reached, further commands denied for the cooldown window")
	}
}

// structuralReason names the first structural flag that makes a command
// unmatchable, in severity order.
func structuralReason(cmd *shell.ParsedCommand) string {
	switch {
	case cmd.HasSubshell:
		return "command spawns a subshell or expands variables"
	case cmd.HasChain:
		return "command chains multiple commands"
	case cmd.HasPipe:
		return "command contains a pipeline"
	case cmd.HasRedirect:
		return "command redirects input or output"
	}
	return "command cannot be matched against the allowlist"
}
