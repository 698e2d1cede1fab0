package detail

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Field is one labelled line of the pane.
type Field struct {
	Label string
	Value string
}

// Loader fetches the fields to show.
type Loader func(ctx context.Context) ([]Field, error)

// State is the pane's load state.
type State int

const (
	// StateLoading is shown until the first load completes.
	StateLoading State = iota
	// StateLoaded shows the fields.
	StateLoaded
	// StateError shows the load error with a retry hint.
	StateError
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

// LoadedMsg carries a finished load. seq ties it to the load that started it.
type LoadedMsg struct {
	seq    int
	fields []Field
	err    error
}

// Model is the detail pane.
type Model struct {
	ctx    context.Context
	title  string
	loader Loader

	state  State
	fields []Field
	err    error
	seq    int
}

// New creates a pane titled title. Call Init to start loading.
func New(ctx context.Context, title string, loader Loader) *Model {
	return &Model{ctx: ctx, title: title, loader: loader}
}

// Init starts the first load.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) load() tea.Cmd {
	m.seq++
	m.state = StateLoading
	m.err = nil
	seq, ctx, loader := m.seq, m.ctx, m.loader
	return func() tea.Msg {
		fields, err := loader(ctx)
		return LoadedMsg{seq: seq, fields: fields, err: err}
	}
}

// Update applies load results and handles the retry key.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			m.state = StateError
			m.err = msg.err
			return m, nil
		}
		m.state = StateLoaded
		m.fields = msg.fields
	case tea.KeyMsg:
		if m.state == StateError && msg.String() == "r" {
			return m, m.load()
		}
	}
	return m, nil
}

// State returns the load state.
func (m *Model) State() State {
	return m.state
}

// Err returns the last load error.
func (m *Model) Err() error {
	return m.err
}

// View renders the pane.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	switch m.state {
	case StateLoading:
		b.WriteString(hintStyle.Render("Loading..."))
	case StateError:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("r: retry  esc: back"))
	case StateLoaded:
		width := 0
		for _, f := range m.fields {
			width = max(width, len(f.Label))
		}
		for _, f := range m.fields {
			b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", width+2, f.Label+":")))
			b.WriteString(f.Value)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("esc: back"))
	}
	return b.String()
}
