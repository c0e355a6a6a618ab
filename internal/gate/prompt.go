package gate

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Verdict is the operator's answer to an approval prompt.
type Verdict int

const (
	// VerdictDeny rejects the command.
	VerdictDeny Verdict = iota
	// VerdictApprove runs the command this once.
	VerdictApprove
	// VerdictApproveAlways approves and asks the caller to allowlist it.
	VerdictApproveAlways
)

var (
	promptHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5C07B"))
	promptCommandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB3D5"))
	promptWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	promptFaintStyle   = lipgloss.NewStyle().Faint(true)
)

// ErrNoTerminal is returned when approval is needed but stdin is not a TTY.
var ErrNoTerminal = errors.New("no interactive terminal available for approval")

// Prompter asks the operator to approve a command on the terminal.
type Prompter struct {
	in  *os.File
	out *os.File
}

// NewPrompter prompts on stdin/stderr.
func NewPrompter() *Prompter {
	return &Prompter{in: os.Stdin, out: os.Stderr}
}

// CanPrompt reports whether an interactive terminal is attached.
func (p *Prompter) CanPrompt() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

// Ask renders the decision and reads the operator's verdict.
// Anything other than an explicit yes is a deny; fail closed on EOF too.
func (p *Prompter) Ask(command string, dec Decision) (Verdict, error) {
	if !p.CanPrompt() {
		return VerdictDeny, ErrNoTerminal
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, promptHeaderStyle.Render("Command approval required"))
	fmt.Fprintf(p.out, "  %s\n", promptCommandStyle.Render(command))
	fmt.Fprintf(p.out, "  %s\n", promptFaintStyle.Render(dec.Reason))
	for _, w := range dec.Warnings {
		fmt.Fprintf(p.out, "  %s\n", promptWarnStyle.Render("! "+w))
	}
	fmt.Fprintf(p.out, "Approve? [y]es / [a]lways / [N]o: ")

	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintln(p.out)
		return VerdictDeny, nil
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return VerdictApprove, nil
	case "a", "always":
		return VerdictApproveAlways, nil
	default:
		return VerdictDeny, nil
	}
}
