// Package completion provides CLI tab-completion for shellgate.
//
// The binary itself handles completions: when invoked with COMP_LINE set
// (by the shell), it outputs matching completions and exits.
// Works across bash, zsh, and fish with a one-time install.
package completion

import (
	"os"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/install"
	"github.com/posener/complete/v2/predict"
)

// commonFlags are accepted by every subcommand.
var commonFlags = map[string]complete.Predictor{
	"config":    predict.Files("*.yaml"),
	"dialect":   predict.Set{"posix", "cmd", "powershell"},
	"log-level": predict.Set{"trace", "debug", "info", "warn", "error"},
	"no-color":  predict.Nothing,
}

func withCommon(extra map[string]complete.Predictor) map[string]complete.Predictor {
	merged := make(map[string]complete.Predictor, len(commonFlags)+len(extra))
	for k, v := range commonFlags {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// command defines the full shellgate CLI completion tree.
var command = &complete.Command{
	Sub: map[string]*complete.Command{
		"check": {Flags: withCommon(map[string]complete.Predictor{
			"json": predict.Nothing,
		})},
		"parse": {Flags: withCommon(nil)},
		"serve": {Flags: withCommon(map[string]complete.Predictor{
			"port":       predict.Nothing,
			"background": predict.Nothing,
		})},
		"stop":   {},
		"status": {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
		"allowlist": {
			Sub: map[string]*complete.Command{
				"list": {Flags: withCommon(map[string]complete.Predictor{
					"json": predict.Nothing,
				})},
				"add": {Flags: withCommon(map[string]complete.Predictor{
					"for-dialect": predict.Set{"posix", "cmd", "powershell"},
					"comment":     predict.Nothing,
				})},
				"remove": {Flags: withCommon(map[string]complete.Predictor{
					"for-dialect": predict.Set{"posix", "cmd", "powershell"},
				})},
			},
		},
		"version":    {},
		"help":       {},
		"completion": {Flags: map[string]complete.Predictor{"install": predict.Nothing, "uninstall": predict.Nothing}},
	},
}

// Run checks if the binary was invoked for shell completion.
// If COMP_LINE is set, it outputs completions and exits (never returns).
// Otherwise it returns false and the program continues normally.
func Run() bool {
	if os.Getenv("COMP_LINE") != "" || os.Getenv("COMP_INSTALL") != "" || os.Getenv("COMP_UNINSTALL") != "" {
		command.Complete("shellgate")
		return true
	}
	return false
}

// Install sets up shell completion for the detected shells.
func Install() error {
	return install.Install("shellgate")
}

// Uninstall removes shell completion for the detected shells.
func Uninstall() error {
	return install.Uninstall("shellgate")
}

// IsInstalled reports whether shell completion is already set up.
func IsInstalled() bool {
	return install.IsInstalled("shellgate")
}
