package shell

import "strings"

// commandEquivalents groups command names with truly equivalent behavior
// across dialects.
//
// Only genuine equivalents are listed:
//   - Get-Item is NOT equivalent to ls/dir (it fetches a single item, not a
//     directory listing)
//   - cd is NOT equivalent to pwd (cd with an argument changes directory)
var commandEquivalents = [][]string{
	{"ls", "dir", "Get-ChildItem", "gci"},
	{"cat", "type", "Get-Content", "gc"},
	{"rm", "del", "erase", "Remove-Item", "ri"},
	{"cp", "copy", "Copy-Item", "cpi"},
	{"mv", "move", "ren", "Move-Item", "mi"},
	{"echo", "Write-Output", "Write-Host"},
	{"clear", "cls", "Clear-Host"},
	{"pwd", "Get-Location", "gl"},
}

// IsSafeForMatching reports whether the command may be compared against an
// allowlist at all. Any structural flag or dangerous-pattern hit disqualifies
// it.
func IsSafeForMatching(cmd *ParsedCommand) bool {
	if cmd == nil {
		return false
	}
	return !cmd.HasChain && !cmd.HasPipe && !cmd.HasSubshell &&
		!cmd.HasRedirect && !cmd.Dangerous
}

// MatchesPrefix reports whether the command's leading tokens equal prefix
// exactly (case-sensitive). Unsafe commands never match; neither does an
// empty prefix.
func MatchesPrefix(cmd *ParsedCommand, prefix []string) bool {
	if cmd == nil || len(prefix) == 0 {
		return false
	}

	if !IsSafeForMatching(cmd) {
		return false
	}

	if len(cmd.Tokens) < len(prefix) {
		return false
	}

	for i, want := range prefix {
		if cmd.Tokens[i] != want {
			return false
		}
	}
	return true
}

// CommandEquivalents reports whether two command names are interchangeable
// across dialects (e.g. ls and Get-ChildItem). Names are compared
// case-insensitively; exact matches are always equivalent.
func CommandEquivalents(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	for _, group := range commandEquivalents {
		foundA := false
		foundB := false
		for _, name := range group {
			if strings.EqualFold(a, name) {
				foundA = true
			}
			if strings.EqualFold(b, name) {
				foundB = true
			}
		}
		if foundA && foundB {
			return true
		}
	}
	return false
}
