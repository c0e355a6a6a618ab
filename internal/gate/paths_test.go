package gate

import (
	"testing"

	"github.com/ShellGate/shellgate/internal/shell"
)

func mustGuard(t *testing.T, patterns ...string) *pathGuard {
	t.Helper()
	g, err := newPathGuard(patterns)
	if err != nil {
		t.Fatalf("newPathGuard(%v): %v", patterns, err)
	}
	return g
}

func parseFor(t *testing.T, command string, d shell.Dialect) *shell.ParsedCommand {
	t.Helper()
	cmd, err := shell.Parse(command, d)
	if err != nil {
		t.Fatalf("Parse(%q): %v", command, err)
	}
	return cmd
}

func TestPathGuardCheck(t *testing.T) {
	g := mustGuard(t, "/etc/**", "**/.ssh/**", "**/.aws/credentials")

	tests := []struct {
		name    string
		command string
		dialect shell.Dialect
		hit     string
	}{
		{name: "etc file", command: "cat /etc/shadow", dialect: shell.DialectPosix, hit: "/etc/**"},
		{name: "ssh key", command: "cat /home/dev/.ssh/id_rsa", dialect: shell.DialectPosix, hit: "**/.ssh/**"},
		{name: "aws credentials", command: "head /root/.aws/credentials", dialect: shell.DialectPosix, hit: "**/.aws/credentials"},
		{name: "safe path", command: "cat /tmp/notes.txt", dialect: shell.DialectPosix, hit: ""},
		{name: "no paths at all", command: "whoami", dialect: shell.DialectPosix, hit: ""},
		{name: "traversal resolves", command: "cat /tmp/../etc/shadow", dialect: shell.DialectPosix, hit: "/etc/**"},
		{name: "double slash resolves", command: "cat //etc//shadow", dialect: shell.DialectPosix, hit: "/etc/**"},
		{name: "powershell token heuristic", command: "Get-Content /etc/shadow", dialect: shell.DialectPowerShell, hit: "/etc/**"},
		{name: "cmd token heuristic", command: "type C:\\Users\\dev\\.ssh\\id_rsa", dialect: shell.DialectCmd, hit: "**/.ssh/**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := parseFor(t, tt.command, tt.dialect)
			if got := g.check(cmd); got != tt.hit {
				t.Errorf("check(%q) = %q, want %q", tt.command, got, tt.hit)
			}
		})
	}

	if got := g.check(nil); got != "" {
		t.Errorf("check(nil) = %q, want empty", got)
	}
}

func TestPathGuardHomoglyphPath(t *testing.T) {
	g := mustGuard(t, "/etc/**")

	// Cyrillic "с" in /etc would dodge a naive string match; normalization
	// folds it back before the glob runs.
	cmd := parseFor(t, "cat '/etс/passwd'", shell.DialectPosix)
	if got := g.check(cmd); got != "/etc/**" {
		t.Errorf("homoglyph path: check = %q, want /etc/**", got)
	}
}

func TestPathGuardRedirectTargets(t *testing.T) {
	g := mustGuard(t, "/etc/**")

	cmd := parseFor(t, "echo x >> /etc/hosts", shell.DialectPosix)
	if got := g.check(cmd); got != "/etc/**" {
		t.Errorf("append redirect: check = %q, want /etc/**", got)
	}
}

func TestPathGuardEmptyPatterns(t *testing.T) {
	g := mustGuard(t)
	cmd := parseFor(t, "cat /etc/shadow", shell.DialectPosix)
	if got := g.check(cmd); got != "" {
		t.Errorf("no patterns should never hit, got %q", got)
	}
}

func TestNewPathGuardBadPattern(t *testing.T) {
	if _, err := newPathGuard([]string{"[bad"}); err == nil {
		t.Error("malformed glob should error")
	}
}

func TestLooksLikePath(t *testing.T) {
	yes := []string{"/etc/passwd", "./run.sh", "../up", "~", "~/notes", "C:\\Windows", "a/b", ".env", "D:stuff"}
	for _, tok := range yes {
		if !looksLikePath(tok) {
			t.Errorf("looksLikePath(%q) = false, want true", tok)
		}
	}
	no := []string{"", "-la", "--flag", "status", "whoami", "HEAD"}
	for _, tok := range no {
		if looksLikePath(tok) {
			t.Errorf("looksLikePath(%q) = true, want false", tok)
		}
	}
}
