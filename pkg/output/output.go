// Package output provides styled terminal output for the heron CLI.
//
// Functions use lipgloss for styling but abstract away the details from
// callers. Messages go to stdout unless redirected with SetOutput.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/simonhull/heron/pkg/diag"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	kindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	mu          sync.Mutex
	out         io.Writer = os.Stdout
	verboseMode bool
)

// SetOutput redirects all messages. Passing nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetVerbose enables or disables verbose output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

func write(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, s)
}

// Success prints a completed operation in green.
func Success(msg string) {
	write(successStyle.Render("✅ " + msg))
}

// Error prints a failure in red.
func Error(msg string) {
	write(errorStyle.Render("❌ " + msg))
}

// Warn prints something the user should look at but that did not fail.
func Warn(msg string) {
	write(warnStyle.Render("⚠️  " + msg))
}

// Info prints a status update.
func Info(msg string) {
	write(infoStyle.Render("ℹ️  " + msg))
}

// Step prints an indented sub-item in gray.
func Step(msg string) {
	write(stepStyle.Render("   " + msg))
}

// Verbose prints msg only when verbose mode is enabled.
func Verbose(msg string) {
	mu.Lock()
	enabled := verboseMode
	mu.Unlock()
	if enabled {
		write(stepStyle.Render("🔍 " + msg))
	}
}

// Diagnostic prints one diagnostic: location, severity, kind, then the
// message wrapped to the terminal width.
func Diagnostic(d diag.Diagnostic) {
	style := infoStyle
	switch d.Severity {
	case diag.SeverityDefect:
		style = errorStyle
	case diag.SeverityMaintainability:
		style = warnStyle
	}

	header := fmt.Sprintf("%s %s %s",
		d.Location,
		style.Render(d.Severity.String()),
		kindStyle.Render("["+string(d.Kind)+"]"))
	body := lipgloss.NewStyle().PaddingLeft(3).Width(Width()).Render(d.Message)

	write(header + "\n" + body)
}

// Width returns the terminal width of stdout, 80 when it is not a terminal.
func Width() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
