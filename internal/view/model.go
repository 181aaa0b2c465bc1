// Package view is the quick copy window: it fetches the pending credential
// once and lets the user copy individual fields to the clipboard.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OsbornePro/quickcopy/internal/client"
	"github.com/OsbornePro/quickcopy/internal/clipboard"
	"github.com/OsbornePro/quickcopy/internal/credential"
	"github.com/OsbornePro/quickcopy/internal/window"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// CopiedFor is how long the "copied" marker stays next to a field.
const CopiedFor = 2 * time.Second

// Backend is the command surface the window talks to.
type Backend interface {
	Fetch(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// Model ties together the fetched credential and the window state.
type Model struct {
	ctx     context.Context
	backend Backend
	clip    clipboard.Copier
	opts    window.Options

	cred    *credential.Credential
	fields  []credential.Field
	cursor  int
	reveal  bool
	loading bool
	closing bool
	err     error
	status  string

	copiedKey string
	copiedSeq int
	width     int
}

func New(ctx context.Context, backend Backend, clip clipboard.Copier, opts window.Options) *Model {
	return &Model{
		ctx:     ctx,
		backend: backend,
		clip:    clip,
		opts:    opts,
		loading: true,
		width:   opts.Width / 8,
	}
}

type credentialMsg struct{ cred *credential.Credential }

type loadErrMsg struct{ error }

type copiedMsg struct {
	key string
	seq int
}

type copyErrMsg struct{ error }

type clearCopiedMsg struct{ seq int }

type closedMsg struct{ err error }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle(m.opts.Title), m.fetch())
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		raw, err := m.backend.Fetch(m.ctx)
		if err != nil {
			return loadErrMsg{err}
		}
		c, err := credential.Parse([]byte(raw))
		if err != nil {
			return loadErrMsg{err}
		}
		return credentialMsg{c}
	}
}

func (m *Model) copyCmd(key, text string, seq int) tea.Cmd {
	return func() tea.Msg {
		if err := m.clip.Copy(text); err != nil {
			return copyErrMsg{err}
		}
		return copiedMsg{key: key, seq: seq}
	}
}

func (m *Model) closeCmd() tea.Cmd {
	return func() tea.Msg {
		return closedMsg{err: m.backend.Close(m.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case credentialMsg:
		m.loading = false
		m.cred = msg.cred
		m.fields = msg.cred.Fields()
		m.cursor = 0
		return m, nil

	case loadErrMsg:
		m.loading = false
		m.err = msg.error
		return m, nil

	case copiedMsg:
		if msg.seq != m.copiedSeq {
			return m, nil
		}
		m.copiedKey = msg.key
		m.status = ""
		seq := msg.seq
		return m, tea.Tick(CopiedFor, func(time.Time) tea.Msg { return clearCopiedMsg{seq: seq} })

	case clearCopiedMsg:
		if msg.seq == m.copiedSeq {
			m.copiedKey = ""
		}
		return m, nil

	case copyErrMsg:
		m.status = "Copy failed: " + msg.Error()
		return m, nil

	case closedMsg:
		// The daemon usually ends this process before the reply arrives.
		if msg.err != nil {
			m.closing = false
			m.status = "Close failed: " + msg.err.Error()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		if m.closing {
			return m, nil
		}
		m.closing = true
		return m, m.closeCmd()
	}
	if m.cred == nil {
		return m, nil
	}

	switch k.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.fields)-1 {
			m.cursor++
		}
	case "v":
		m.reveal = !m.reveal
	case "enter", "c":
		if len(m.fields) == 0 {
			return m, nil
		}
		f := m.fields[m.cursor]
		m.copiedSeq++
		return m, m.copyCmd(f.Key, f.Value, m.copiedSeq)
	case "a":
		m.copiedSeq++
		return m, m.copyCmd("all", m.cred.FormatText(), m.copiedSeq)
	}
	return m, nil
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Faint(true)
	labelStyle    = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	copiedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

func (m *Model) View() string {
	var b strings.Builder

	switch {
	case m.loading:
		b.WriteString(subtitleStyle.Render("Loading..."))
	case m.err != nil:
		b.WriteString(titleStyle.Render(m.opts.Title))
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(errorText(m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("[esc] Close"))
	default:
		m.renderCredential(&b)
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.status))
	}
	return b.String() + "\n"
}

func (m *Model) renderCredential(b *strings.Builder) {
	title := m.cred.Title
	if title == "" {
		title = m.opts.Title
	}
	b.WriteString(titleStyle.Render(title))
	if m.cred.Subtitle != "" {
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(m.cred.Subtitle))
	}
	b.WriteString("\n\n")

	for i, f := range m.fields {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		value := m.cred.Display(f, m.reveal)
		if m.width > 0 && len([]rune(value)) > m.width {
			value = string([]rune(value)[:m.width-1]) + "…"
		}
		fmt.Fprintf(b, "%s%s\n  %s", prefix, labelStyle.Render(f.Label), value)
		if m.copiedKey == f.Key {
			b.WriteString(" " + copiedStyle.Render("copied"))
		}
		b.WriteString("\n")
	}
	if m.copiedKey == "all" {
		b.WriteString(copiedStyle.Render("all fields copied") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[enter] Copy  [a] Copy all  [v] Reveal  [esc] Close"))
}

func errorText(err error) string {
	switch {
	case errors.Is(err, client.ErrNoCredential):
		return "No credential data available"
	case errors.Is(err, credential.ErrUnknownType), errors.Is(err, credential.ErrMissingType):
		return "Unsupported credential"
	case strings.HasPrefix(err.Error(), "decoding credential"):
		return "Credential data is unreadable"
	}
	return err.Error()
}
