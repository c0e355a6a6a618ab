package gate

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/text/unicode/norm"
	"mvdan.cc/sh/v3/syntax"

	"github.com/ShellGate/shellgate/internal/shell"
)

// pathGuard matches command paths against protected glob patterns.
type pathGuard struct {
	patterns []string
	globs    []glob.Glob
	homeDir  string
}

func newPathGuard(patterns []string) (*pathGuard, error) {
	g := &pathGuard{patterns: patterns}
	home, err := os.UserHomeDir()
	if err == nil {
		g.homeDir = filepath.ToSlash(home)
	}
	for _, p := range patterns {
		compiled, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		g.globs = append(g.globs, compiled)
	}
	return g, nil
}

// check returns the first protected pattern hit by any path-like token of
// the command, or empty when clean.
func (g *pathGuard) check(cmd *shell.ParsedCommand) string {
	if len(g.globs) == 0 || cmd == nil {
		return ""
	}

	for _, candidate := range candidatePaths(cmd) {
		p := g.normalize(candidate)
		if p == "" {
			continue
		}
		for i, compiled := range g.globs {
			if compiled.Match(p) {
				return g.patterns[i]
			}
		}
	}
	return ""
}

// normalize prepares a candidate path for glob matching: slash form, NFKC,
// lookalike stripping, tilde expansion and cleaning. Mirrors what the
// suspicion inspector flags, so a homoglyph path both warns and matches.
func (g *pathGuard) normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\x00", "")
	if p == "" {
		return ""
	}
	p = filepath.ToSlash(p)
	p = strings.ToValidUTF8(p, "�")
	p = norm.NFKC.String(p)
	p = stripInvisible(p)
	p = stripConfusables(p)

	if g.homeDir != "" {
		if p == "~" {
			p = g.homeDir
		} else if strings.HasPrefix(p, "~/") {
			p = g.homeDir + p[1:]
		}
	}

	cleaned := path.Clean(p)
	if strings.HasPrefix(p, "/") && !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}

// candidatePaths collects tokens that plausibly name filesystem paths.
// POSIX commands go through the full shell AST so redirect targets and
// pipeline members are covered even though the tokenizer flattens them;
// cmd.exe and PowerShell fall back to a token heuristic.
func candidatePaths(cmd *shell.ParsedCommand) []string {
	if cmd.Dialect == shell.DialectPosix {
		if paths := astPaths(cmd.Raw); paths != nil {
			return paths
		}
	}

	var out []string
	for _, tok := range cmd.Tokens {
		if looksLikePath(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// astPaths parses a POSIX command with a full Bash AST parser and returns
// every argument and redirect target that looks like a path. Returns nil if
// parsing fails; the caller falls back to token scanning.
func astPaths(command string) []string {
	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil
	}

	var out []string
	syntax.Walk(file, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.CallExpr:
			for i, w := range n.Args {
				if i == 0 {
					continue // command name
				}
				if lit := literalWord(w); looksLikePath(lit) {
					out = append(out, lit)
				}
			}
		case *syntax.Redirect:
			if lit := literalWord(n.Word); lit != "" {
				out = append(out, lit)
			}
		}
		return true
	})
	return out
}

// literalWord flattens the literal parts of a shell word. Expansions are
// dropped; the gate treats them as unresolvable and the tokenizer already
// flags them.
func literalWord(w *syntax.Word) string {
	if w == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if lit, ok := inner.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		}
	}
	return sb.String()
}

// looksLikePath reports whether a token plausibly names a file. Flags and
// bare words are excluded; separators, tilde and drive letters qualify.
func looksLikePath(tok string) bool {
	if tok == "" || strings.HasPrefix(tok, "-") {
		return false
	}
	if strings.ContainsAny(tok, "/\\") {
		return true
	}
	if tok == "~" || strings.HasPrefix(tok, "~/") {
		return true
	}
	// Windows drive letter (C:, D:foo)
	if len(tok) >= 2 && tok[1] == ':' {
		c := tok[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return strings.HasPrefix(tok, ".")
}
