package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ShellGate/shellgate/internal/allowlist"
	"github.com/ShellGate/shellgate/internal/api"
	"github.com/ShellGate/shellgate/internal/completion"
	"github.com/ShellGate/shellgate/internal/config"
	"github.com/ShellGate/shellgate/internal/daemon"
	"github.com/ShellGate/shellgate/internal/gate"
	"github.com/ShellGate/shellgate/internal/logger"
	"github.com/ShellGate/shellgate/internal/shell"
	"github.com/ShellGate/shellgate/internal/types"
)

// Version is set at build time via ldflags: -X main.Version=x.y.z
var Version = "1.0.0"

var mainLog = logger.New("main")

func main() {
	// Shell completion: when COMP_LINE is set the binary only emits
	// completions and exits.
	if completion.Run() {
		return
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "check":
			runCheck(os.Args[2:])
			return
		case "parse":
			runParse(os.Args[2:])
			return
		case "serve":
			runServe(os.Args[1:])
			return
		case "stop":
			runStop()
			return
		case "status":
			runStatus(os.Args[2:])
			return
		case "completion":
			runCompletion(os.Args[2:])
			return
		case "allowlist":
			runAllowlist(os.Args[2:])
			return
		case "help", "-h", "--help":
			printUsage()
			return
		case "version", "-v", "--version":
			fmt.Printf("shellgate version %s\n", Version)
			return
		}
	}

	printUsage()
}

// commonFlags registers the flags shared by every subcommand.
type commonFlags struct {
	configPath string
	logLevel   string
	noColor    bool
	dialect    string
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.configPath, "config", config.DefaultConfigPath(), "Path to configuration file")
	fs.StringVar(&cf.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	fs.BoolVar(&cf.noColor, "no-color", false, "Disable colored log output")
	fs.StringVar(&cf.dialect, "dialect", "", "Shell dialect: posix, cmd, powershell (default from config)")
	return cf
}

// setup loads config, applies CLI overrides and builds the shared pieces.
func (cf *commonFlags) setup() (*config.Config, *allowlist.Store, *gate.Gate) {
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cf.logLevel != "" {
		cfg.Server.LogLevel = types.LogLevel(cf.logLevel)
	}
	if cf.noColor {
		cfg.Server.NoColor = true
	}
	if cf.dialect != "" {
		cfg.Gate.Dialect = cf.dialect
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v", err)
		os.Exit(1)
	}

	logger.SetGlobalLevelFromString(string(cfg.Server.LogLevel))
	logger.SetColored(!cfg.Server.NoColor)

	store := allowlist.New(cfg.Allowlist.Path)
	if err := store.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load allowlist: %v\n", err)
		os.Exit(1)
	}

	g, err := gate.New(store, gate.Options{
		Dialect:           cfg.Dialect(),
		DefaultAction:     cfg.Gate.DefaultAction,
		ProtectedPaths:    cfg.Gate.ProtectedPaths,
		DenyLimit:         cfg.Gate.DenyLimit,
		DenyWindowSeconds: cfg.Gate.DenyWindow,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build gate: %v\n", err)
		os.Exit(1)
	}

	return cfg, store, g
}

// runCheck evaluates one command and exits 0 (allowed) or 1 (denied).
// When the decision is a prompt and a terminal is attached, the operator
// decides; otherwise prompts fail closed.
func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cf := registerCommon(fs)
	jsonOut := fs.Bool("json", false, "Print the decision as JSON instead of prompting")
	_ = fs.Parse(args)

	command := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(command) == "" {
		fmt.Fprintln(os.Stderr, "Usage: shellgate check [flags] -- <command>")
		os.Exit(2)
	}

	_, store, g := cf.setup()

	dec, err := g.EvaluateShell(command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to evaluate command: %v\n", err)
		os.Exit(2)
	}

	if *jsonOut {
		printJSON(dec)
		if dec.Action.IsAllow() {
			os.Exit(0)
		}
		os.Exit(1)
	}

	switch {
	case dec.Action.IsAllow():
		mainLog.Info("allowed: %s", dec.Reason)
		os.Exit(0)
	case dec.Action.IsDeny():
		fmt.Fprintf(os.Stderr, "Denied: %s\n", dec.Reason)
		os.Exit(1)
	}

	// Prompt path
	prompter := gate.NewPrompter()
	verdict, err := prompter.Ask(command, dec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Denied: %v\n", err)
		os.Exit(1)
	}

	switch verdict {
	case gate.VerdictApprove:
		os.Exit(0)
	case gate.VerdictApproveAlways:
		if dec.Parsed != nil && shell.IsSafeForMatching(dec.Parsed) {
			entry := allowlist.Entry{
				Prefix:  dec.Parsed.Tokens,
				Dialect: g.Dialect().String(),
			}
			if err := store.Add(entry); err == nil {
				if err := store.Save(); err != nil {
					mainLog.Warn("failed to persist allowlist: %v", err)
				}
			}
		} else {
			mainLog.Warn("command cannot be allowlisted, approved once")
		}
		os.Exit(0)
	default:
		g.RecordDenial()
		fmt.Fprintln(os.Stderr, "Denied by operator")
		os.Exit(1)
	}
}

// runParse tokenizes a command and prints the result as JSON.
func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	cf := registerCommon(fs)
	_ = fs.Parse(args)

	command := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(command) == "" {
		fmt.Fprintln(os.Stderr, "Usage: shellgate parse [flags] -- <command>")
		os.Exit(2)
	}

	cfg, _, _ := cf.setup()

	parsed, err := shell.Parse(command, cfg.Dialect())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse command: %v\n", err)
		os.Exit(2)
	}
	printJSON(parsed)
}

// runServe starts the management API. args includes the "serve" word itself
// so the background re-exec can reuse it verbatim.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cf := registerCommon(fs)
	port := fs.Int("port", 0, "Management API port (default from config)")
	background := fs.Bool("background", false, "Run in the background and return")
	daemonMode := fs.Bool("daemon-mode", false, "Internal: this process is the re-executed background child")
	_ = fs.Parse(args[1:])

	if *background && !*daemonMode {
		if running, pid := daemon.IsRunning(); running {
			fmt.Fprintf(os.Stderr, "shellgate is already running (PID %d)\n", pid)
			os.Exit(1)
		}
		pid, err := daemon.Daemonize(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start in background: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("shellgate started in background (PID %d), logs at %s\n", pid, daemon.LogFileDisplay())
		return
	}

	cfg, store, g := cf.setup()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// SECURITY: the API token comes from the environment, never a flag.
	secrets, err := config.LoadSecrets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load secrets: %v\n", err)
		os.Exit(1)
	}
	if err := secrets.ValidateForServe(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	mainLog.Info("API token: %s", secrets.MaskAPIToken())

	if *daemonMode || daemon.IsDaemonMode() {
		if err := daemon.WritePID(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer daemon.CleanupPID()
		if err := daemon.WritePort(cfg.Server.Port); err != nil {
			mainLog.Warn("failed to write port file: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(g, store, secrets.APIToken)
	if err := server.Run(ctx, cfg.Server.Port); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// runStop stops a background serve process.
func runStop() {
	if err := daemon.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Println("shellgate stopped")
}

// runStatus reports whether a background serve process is running.
func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Print status as JSON")
	_ = fs.Parse(args)

	running, pid := daemon.IsRunning()
	port, _ := daemon.ReadPort()

	if *jsonOut {
		printJSON(map[string]any{"running": running, "pid": pid, "port": port})
		if !running {
			os.Exit(1)
		}
		return
	}

	if !running {
		fmt.Println("shellgate is not running")
		os.Exit(1)
	}
	if port != 0 {
		fmt.Printf("shellgate is running (PID %d), management API on 127.0.0.1:%d\n", pid, port)
	} else {
		fmt.Printf("shellgate is running (PID %d)\n", pid)
	}
}

// runCompletion installs or removes shell tab-completion.
func runCompletion(args []string) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)
	doInstall := fs.Bool("install", false, "Install shell completion")
	doUninstall := fs.Bool("uninstall", false, "Remove shell completion")
	_ = fs.Parse(args)

	switch {
	case *doInstall:
		if completion.IsInstalled() {
			fmt.Println("Shell completion is already installed.")
			return
		}
		if err := completion.Install(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to install completion: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Shell completion installed. Restart your shell to activate it.")
	case *doUninstall:
		if err := completion.Uninstall(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to remove completion: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Shell completion removed.")
	default:
		fmt.Fprintln(os.Stderr, "Usage: shellgate completion --install | --uninstall")
		os.Exit(2)
	}
}

// runAllowlist dispatches the allowlist list/add/remove subcommands.
func runAllowlist(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: shellgate allowlist <list|add|remove> [flags] [tokens...]")
		os.Exit(2)
	}

	switch args[0] {
	case "list":
		runAllowlistList(args[1:])
	case "add":
		runAllowlistAdd(args[1:])
	case "remove":
		runAllowlistRemove(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown allowlist subcommand: %s\n", args[0])
		os.Exit(2)
	}
}

func runAllowlistList(args []string) {
	fs := flag.NewFlagSet("allowlist list", flag.ExitOnError)
	cf := registerCommon(fs)
	jsonOut := fs.Bool("json", false, "Print entries as JSON")
	_ = fs.Parse(args)

	_, store, _ := cf.setup()

	entries := store.Entries()
	if *jsonOut {
		printJSON(entries)
		return
	}

	if len(entries) == 0 {
		fmt.Println("Allowlist is empty.")
		return
	}
	for _, e := range entries {
		line := strings.Join(e.Prefix, " ")
		if e.Dialect != "" {
			line += fmt.Sprintf("  [%s]", e.Dialect)
		}
		if e.Comment != "" {
			line += fmt.Sprintf("  # %s", e.Comment)
		}
		fmt.Println(line)
	}
}

func runAllowlistAdd(args []string) {
	fs := flag.NewFlagSet("allowlist add", flag.ExitOnError)
	cf := registerCommon(fs)
	entryDialect := fs.String("for-dialect", "", "Pin the entry to one dialect (default: any)")
	comment := fs.String("comment", "", "Free-form note stored with the entry")
	_ = fs.Parse(args)

	prefix := fs.Args()
	if len(prefix) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: shellgate allowlist add [flags] <token>...")
		os.Exit(2)
	}

	_, store, _ := cf.setup()

	entry := allowlist.Entry{Prefix: prefix, Dialect: *entryDialect, Comment: *comment}
	if err := store.Add(entry); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to add entry: %v\n", err)
		os.Exit(1)
	}
	if err := store.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save allowlist: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added: %s\n", strings.Join(prefix, " "))
}

func runAllowlistRemove(args []string) {
	fs := flag.NewFlagSet("allowlist remove", flag.ExitOnError)
	cf := registerCommon(fs)
	entryDialect := fs.String("for-dialect", "", "Dialect the entry is pinned to")
	_ = fs.Parse(args)

	prefix := fs.Args()
	if len(prefix) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: shellgate allowlist remove [flags] <token>...")
		os.Exit(2)
	}

	_, store, _ := cf.setup()

	if !store.Remove(prefix, *entryDialect) {
		fmt.Fprintf(os.Stderr, "No such entry: %s\n", strings.Join(prefix, " "))
		os.Exit(1)
	}
	if err := store.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save allowlist: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed: %s\n", strings.Join(prefix, " "))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`shellgate - Shell command approval gate for AI agents

Usage:
  shellgate check [flags] -- <command>   Evaluate a command (exit 0=allow, 1=deny)
  shellgate parse [flags] -- <command>   Tokenize a command and print JSON
  shellgate serve [flags]                Run the management API
  shellgate stop                         Stop a background serve process
  shellgate status [--json]              Show background serve status

  shellgate allowlist list [--json]             List allowlist entries
  shellgate allowlist add [flags] <token>...    Add a command prefix
  shellgate allowlist remove [flags] <token>... Remove a command prefix

  shellgate completion --install         Install shell tab-completion
  shellgate help                         Show this help message
  shellgate version                      Show version

Common Flags:
  --config string      Path to configuration file (default ~/.shellgate/config.yaml)
  --dialect string     Shell dialect: posix, cmd, powershell (default: detect)
  --log-level string   Log level: trace, debug, info, warn, error
  --no-color           Disable colored log output

Serve Flags:
  --port int           Management API port (default 7468)
  --background         Run in the background and return

Allowlist Add Flags:
  --for-dialect string  Pin the entry to one dialect (default: any)
  --comment string      Free-form note stored with the entry

Environment Variables:
  SHELLGATE_API_TOKEN   Bearer token required by 'serve' (min 16 chars)

Examples:
  shellgate check -- git status                  Evaluate against the allowlist
  shellgate check --dialect powershell -- gci    Evaluate a PowerShell command
  shellgate parse -- "ls -la | grep go"          Inspect tokenization and flags
  shellgate allowlist add git status             Approve 'git status ...' forever
  SHELLGATE_API_TOKEN=... shellgate serve        Start the management API`)
}
