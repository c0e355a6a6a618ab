package main

import (
	"flag"
	"testing"
)

func TestRegisterCommonDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cf := registerCommon(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cf.configPath == "" {
		t.Error("configPath default should not be empty")
	}
	if cf.logLevel != "" {
		t.Errorf("logLevel default = %q, want empty (use config value)", cf.logLevel)
	}
	if cf.noColor {
		t.Error("noColor should default to false")
	}
	if cf.dialect != "" {
		t.Errorf("dialect default = %q, want empty (use config value)", cf.dialect)
	}
}

func TestRegisterCommonOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cf := registerCommon(fs)

	args := []string{
		"--config", "/tmp/custom.yaml",
		"--log-level", "debug",
		"--no-color",
		"--dialect", "powershell",
		"git", "status",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cf.configPath != "/tmp/custom.yaml" {
		t.Errorf("configPath = %q", cf.configPath)
	}
	if cf.logLevel != "debug" {
		t.Errorf("logLevel = %q", cf.logLevel)
	}
	if !cf.noColor {
		t.Error("noColor should be true")
	}
	if cf.dialect != "powershell" {
		t.Errorf("dialect = %q", cf.dialect)
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "git" || got[1] != "status" {
		t.Errorf("positional args = %v, want [git status]", got)
	}
}

func TestServeFlagSetAcceptsDaemonMode(t *testing.T) {
	// The background re-exec inserts --daemon-mode after "serve"; the serve
	// flag set has to accept it without error.
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	registerCommon(fs)
	fs.Int("port", 0, "")
	fs.Bool("background", false, "")
	fs.Bool("daemon-mode", false, "")

	if err := fs.Parse([]string{"--daemon-mode", "--background", "--port", "9000"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}
