package gate

import (
	"strings"
	"testing"
)

func TestInspectSuspiciousClean(t *testing.T) {
	clean := []string{
		"",
		"git status -s",
		"ls -la /tmp",
		`echo "hello world"`,
	}
	for _, command := range clean {
		if got := inspectSuspicious(command); len(got) != 0 {
			t.Errorf("inspectSuspicious(%q) = %v, want none", command, got)
		}
	}
}

func TestInspectSuspiciousFindings(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{
			name:    "zero-width joiner",
			command: "cat .e‍nv",
			want:    "invisible",
		},
		{
			name:    "cyrillic lookalike",
			command: "cat /etc/pаsswd",
			want:    "lookalike",
		},
		{
			name:    "greek question mark",
			command: "echo hi ; whoami",
			want:    "lookalike",
		},
		{
			name:    "fullwidth solidus",
			command: "cat ／etc／passwd",
			want:    "normalization",
		},
		{
			name:    "invalid utf-8",
			command: "echo \xf5",
			want:    "invalid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inspectSuspicious(tt.command)
			if len(got) == 0 {
				t.Fatalf("inspectSuspicious(%q) found nothing", tt.command)
			}
			joined := strings.Join(got, "; ")
			if !strings.Contains(joined, tt.want) {
				t.Errorf("findings = %q, want %q mention", joined, tt.want)
			}
		})
	}
}

func TestStripHelpers(t *testing.T) {
	if got := stripInvisible("a‍b"); got != "ab" {
		t.Errorf("stripInvisible = %q, want ab", got)
	}
	if got := stripConfusables("pаsswd"); got != "passwd" {
		t.Errorf("stripConfusables = %q, want passwd", got)
	}
	// ASCII passes through untouched.
	if got := stripConfusables("passwd"); got != "passwd" {
		t.Errorf("stripConfusables(ascii) = %q", got)
	}
}
