package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petervdpas/textlog/internal/ui/page"
)

// Messages posted by the bridge.
type (
	directoryMsg   string
	alertMsg       string
	scrollMsg      struct{}
	clearEditorMsg struct{ sent string }
	previewMsg     struct {
		header string
		body   string
		empty  bool
	}
	pickRequestMsg struct{ current string }
)

type keyMap struct {
	Send   key.Binding
	Change key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Send:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "send")),
	Change: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "change location")),
	Reload: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2ff"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9aa3b2"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	emptyStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6b7385"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3b4252"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f1115")).Background(lipgloss.Color("#e5c07b")).Padding(0, 1)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2ff"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7385"))
)

type model struct {
	ctx    context.Context
	ctrl   *page.Controller
	sub    page.Subscriber
	bridge *bridge
	picker *Picker

	editor  textarea.Model
	preview viewport.Model
	prompt  textinput.Model

	dir     string
	header  string
	body    string
	empty   bool
	alert   string
	picking bool

	width  int
	height int
}

func newModel(ctx context.Context, ctrl *page.Controller, sub page.Subscriber, b *bridge, p *Picker, opts Options) model {
	ed := textarea.New()
	ed.Placeholder = opts.Placeholder
	ed.ShowLineNumbers = false
	ed.SetWidth(80)
	ed.SetHeight(8)
	ed.Focus()

	in := textinput.New()
	in.Prompt = "Directory: "
	in.Placeholder = "/path/to/journal"

	return model{
		ctx:     ctx,
		ctrl:    ctrl,
		sub:     sub,
		bridge:  b,
		picker:  p,
		editor:  ed,
		preview: viewport.New(80, 10),
		prompt:  in,
		width:   80,
		height:  24,
	}
}

// do runs a controller action off the event loop.
func (m model) do(action func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		action(ctx)
		return nil
	}
}

func (m model) Init() tea.Cmd {
	ctrl, sub := m.ctrl, m.sub
	return tea.Batch(
		textarea.Blink,
		m.do(func(ctx context.Context) { ctrl.Start(ctx, sub) }),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case directoryMsg:
		m.dir = string(msg)
		return m, nil

	case previewMsg:
		m.header, m.body, m.empty = msg.header, msg.body, msg.empty
		m.preview.SetContent(m.previewContent())
		return m, nil

	case scrollMsg:
		m.preview.GotoBottom()
		return m, nil

	case alertMsg:
		m.alert = string(msg)
		return m, nil

	case clearEditorMsg:
		if m.editor.Value() == msg.sent {
			m.editor.Reset()
			m.bridge.setText("")
		}
		return m, nil

	case pickRequestMsg:
		m.picking = true
		m.prompt.SetValue(msg.current)
		m.prompt.CursorEnd()
		m.editor.Blur()
		return m, m.prompt.Focus()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		if m.picking {
			m.picker.answer("")
		}
		return m, tea.Quit
	}

	// Alerts are modal: the next key only dismisses them.
	if m.alert != "" {
		m.alert = ""
		return m, nil
	}

	if m.picking {
		switch msg.Type {
		case tea.KeyEnter:
			return m.finishPick(strings.TrimSpace(m.prompt.Value()))
		case tea.KeyEsc:
			return m.finishPick("")
		}
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}

	ctrl := m.ctrl
	switch {
	case key.Matches(msg, keys.Send):
		return m, m.do(ctrl.Send)
	case key.Matches(msg, keys.Change):
		return m, m.do(ctrl.ChangeDirectory)
	case key.Matches(msg, keys.Reload):
		return m, m.do(func(ctx context.Context) {
			ctrl.LoadCurrentDirectory(ctx)
			ctrl.LoadCurrentFile(ctx)
		})
	case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	return m.forward(msg)
}

func (m model) finishPick(path string) (tea.Model, tea.Cmd) {
	m.picking = false
	m.prompt.Blur()
	m.picker.answer(path)
	return m, m.editor.Focus()
}

// forward passes a message to the editor and publishes its new text.
func (m model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.bridge.setText(m.editor.Value())
	return m, cmd
}

func (m *model) layout() {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	// title, directory, editor box, preview header, preview box, status, help
	editorH := m.height / 3
	if editorH < 3 {
		editorH = 3
	}
	previewH := m.height - editorH - 10
	if previewH < 3 {
		previewH = 3
	}

	m.editor.SetWidth(w)
	m.editor.SetHeight(editorH)
	m.preview.Width = w
	m.preview.Height = previewH
	m.preview.SetContent(m.previewContent())
}

func (m model) previewContent() string {
	if m.empty {
		return emptyStyle.Render(m.body)
	}
	return m.body
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("textlog"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Saving to: "))
	b.WriteString(m.dir)
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.editor.View()))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(m.header))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.preview.View()))
	b.WriteString("\n")

	switch {
	case m.alert != "":
		b.WriteString(alertStyle.Render(m.alert))
		b.WriteString(helpStyle.Render("  (any key)"))
	case m.picking:
		b.WriteString(promptStyle.Render(m.prompt.View()))
		b.WriteString(helpStyle.Render("  enter confirm · esc cancel"))
	default:
		b.WriteString(helpStyle.Render(helpLine()))
	}
	return b.String()
}

func helpLine() string {
	parts := make([]string, 0, 4)
	for _, k := range []key.Binding{keys.Send, keys.Change, keys.Reload, keys.Quit} {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
