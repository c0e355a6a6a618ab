package shell

import (
	"errors"
	"runtime"
	"testing"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Dialect
		wantErr bool
	}{
		{name: "posix", input: "posix", want: DialectPosix},
		{name: "bash", input: "bash", want: DialectPosix},
		{name: "sh", input: "sh", want: DialectPosix},
		{name: "zsh", input: "zsh", want: DialectPosix},
		{name: "dash", input: "dash", want: DialectPosix},
		{name: "cmd", input: "cmd", want: DialectCmd},
		{name: "cmd.exe", input: "cmd.exe", want: DialectCmd},
		{name: "powershell", input: "powershell", want: DialectPowerShell},
		{name: "pwsh", input: "pwsh", want: DialectPowerShell},
		{name: "ps", input: "ps", want: DialectPowerShell},
		{name: "uppercase alias", input: "BASH", want: DialectPosix},
		{name: "mixed case", input: "PowerShell", want: DialectPowerShell},
		{name: "surrounding whitespace", input: "  cmd  ", want: DialectCmd},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown name", input: "fish", wantErr: true},
		{name: "close but wrong", input: "power", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDialect(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDialect(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDialect) {
					t.Errorf("ParseDialect(%q) error = %v, want ErrInvalidDialect", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseDialect(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDialectString(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{DialectPosix, "posix"},
		{DialectCmd, "cmd"},
		{DialectPowerShell, "powershell"},
		{DialectUnknown, "unknown"},
		{Dialect(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.dialect.String(); got != tt.want {
			t.Errorf("Dialect(%d).String() = %q, want %q", tt.dialect, got, tt.want)
		}
	}
}

func TestDetectDefaultDialect(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX-side detection paths")
	}

	tests := []struct {
		name  string
		shell string
		want  Dialect
	}{
		{name: "bash login shell", shell: "/bin/bash", want: DialectPosix},
		{name: "zsh login shell", shell: "/usr/bin/zsh", want: DialectPosix},
		{name: "pwsh login shell", shell: "/usr/local/bin/pwsh", want: DialectPowerShell},
		{name: "powershell path", shell: "/opt/microsoft/powershell/7/powershell", want: DialectPowerShell},
		{name: "unset", shell: "", want: DialectPosix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHELL", tt.shell)
			if got := DetectDefaultDialect(); got != tt.want {
				t.Errorf("DetectDefaultDialect() = %v, want %v", got, tt.want)
			}
		})
	}
}
