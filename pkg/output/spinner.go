package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Spin runs fn while showing a spinner with message on stderr. Without a
// terminal fn simply runs.
func Spin(message string, fn func() error) error {
	if !IsTerminal(os.Stderr) {
		return fn()
	}
	return spin(os.Stderr, message, fn)
}

func spin(w io.Writer, message string, fn func() error) error {
	m := newSpinnerModel(message)
	p := tea.NewProgram(m, tea.WithOutput(w), tea.WithInput(nil))

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		// Spinner failures never affect the wrapped operation.
		_, _ = p.Run()
	}()

	err := fn()
	p.Send(spinnerDoneMsg{err: err})
	<-exited

	return err
}

type spinnerModel struct {
	spinner spinner.Model
	message string
	done    bool
	err     error
}

type spinnerDoneMsg struct {
	err error
}

func newSpinnerModel(message string) *spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = infoStyle
	return &spinnerModel{
		spinner: s,
		message: message,
	}
}

func (m *spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	switch {
	case !m.done:
		return fmt.Sprintf("%s %s...", m.spinner.View(), m.message)
	case m.err != nil:
		return errorStyle.Render("❌ "+m.message) + "\n"
	default:
		return successStyle.Render("✅ "+m.message) + "\n"
	}
}
