package shell

import "strings"

// Dangerous command patterns that always require approval, checked against
// the raw command string before tokenization. Case-sensitive.
var dangerousPatterns = []string{
	"rm -rf",
	"rm -fr",
	"rm -r -f",
	"rm -f -r",
	"chmod 777",
	"chmod -R",
	":(){ :|:& };:", // fork bomb
}

// Download commands that, combined with a pipe to a shell, indicate a
// download-then-execute attempt. The check is substring co-occurrence, not
// sequence-aware: ordering tricks don't make the combination safer.
var downloadCommands = []string{
	"curl",
	"wget",
}

var pipeToShellPatterns = []string{
	"| sh",
	"| bash",
	"| zsh",
	"|sh",
	"|bash",
	"|zsh",
}

// Raw writes to disk devices.
var diskWritePatterns = []string{
	"of=/dev/sd",
	"of=/dev/hd",
	"of=/dev/nvme",
	"> /dev/sd",
	"> /dev/hd",
	"> /dev/nvme",
}

// Dangerous PowerShell cmdlets and switches, matched case-insensitively
// because PowerShell itself is case-insensitive.
var powerShellDangerousPatterns = []string{
	"invoke-expression",
	"invoke-command",
	"start-process",
	"invoke-webrequest",
	"invoke-restmethod",
	"iex",
	"icm",
	"iwr",
	"irm",
	"-encodedcommand",
	"-enc",
	"downloadstring",
	"downloadfile",
}

// Dangerous cmd.exe built-ins and tools, matched case-insensitively because
// cmd.exe is case-insensitive.
var cmdDangerousPatterns = []string{
	"format ",    // format disk
	"del /s",     // recursive delete
	"del /q",     // quiet delete, no confirmation
	"rd /s",      // recursive directory removal
	"rmdir /s",   // recursive directory removal
	"diskpart",   // disk partitioning
	"bcdedit",    // boot configuration
	"reg delete", // registry deletion
	"powershell", // PowerShell invocation from cmd
	"pwsh",       // PowerShell Core invocation
}

// containsDangerousPattern runs the shared danger scan over the raw,
// unparsed command text. It never fails; empty input is not dangerous.
func containsDangerousPattern(command string) bool {
	if command == "" {
		return false
	}

	for _, p := range dangerousPatterns {
		if strings.Contains(command, p) {
			return true
		}
	}

	// Remote code execution: download piped to a shell.
	hasDownload := false
	for _, c := range downloadCommands {
		if strings.Contains(command, c) {
			hasDownload = true
			break
		}
	}
	if hasDownload {
		for _, p := range pipeToShellPatterns {
			if strings.Contains(command, p) {
				return true
			}
		}
	}

	for _, p := range diskWritePatterns {
		if strings.Contains(command, p) {
			return true
		}
	}

	// dd with a device output target, in any argument order.
	if strings.Contains(command, "dd ") && strings.Contains(command, "of=/dev/") {
		return true
	}

	return false
}

// containsPowerShellDangerousPattern layers the case-insensitive cmdlet
// blocklist on top of the shared scan.
func containsPowerShellDangerousPattern(command string) bool {
	if command == "" {
		return false
	}
	lower := strings.ToLower(command)
	for _, p := range powerShellDangerousPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// containsCmdDangerousPattern checks the cmd.exe-specific blocklist.
func containsCmdDangerousPattern(command string) bool {
	if command == "" {
		return false
	}
	lower := strings.ToLower(command)
	for _, p := range cmdDangerousPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
