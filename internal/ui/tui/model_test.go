package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/petervdpas/textlog/internal/ui/page"
)

type stubHost struct {
	dir     string
	file    string
	saveID  string
	saveErr error
	saved   []string
}

func (h *stubHost) SaveEntry(_ context.Context, content string) (string, error) {
	if h.saveErr != nil {
		return "", h.saveErr
	}
	h.saved = append(h.saved, content)
	return h.saveID, nil
}
func (h *stubHost) GetDirectory(context.Context) (string, error)    { return h.dir, nil }
func (h *stubHost) ChooseDirectory(context.Context) error           { return nil }
func (h *stubHost) ReadCurrentFile(context.Context) (string, error) { return h.file, nil }

// captured collects the messages the bridge posts.
type captured struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (c *captured) send(msg tea.Msg) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

func (c *captured) drain() []tea.Msg {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.msgs
	c.msgs = nil
	return out
}

func testModel(h page.Host) (model, *App, *captured) {
	app := New(Options{
		Placeholder: "Start writing...",
		Now:         func() time.Time { return time.Date(2024, time.January, 1, 8, 0, 0, 0, time.Local) },
	})
	sent := &captured{}
	app.bridge.attach(sent.send)
	ctrl := page.New(h, app.bridge, app.bridge, page.WithClock(app.opts.Now))
	return newModel(context.Background(), ctrl, nil, app.bridge, app.picker, app.opts), app, sent
}

func apply(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypingPublishesEditorText(t *testing.T) {
	m, app, _ := testModel(&stubHost{})

	m = apply(t, m, typeText("Hello world"))

	if got := app.bridge.Text(); got != "Hello world" {
		t.Fatalf("bridge text = %q", got)
	}
}

func TestSendRoundTrip(t *testing.T) {
	h := &stubHost{dir: "/j", saveID: "/j/2024-01-01.txt", file: "[2024-01-01 08:00:00]\nHello world\n\n---\n\n"}
	m, _, sent := testModel(h)
	m = apply(t, m, typeText("Hello world"))

	m.ctrl.Send(context.Background())
	m = apply(t, m, sent.drain()...)

	if len(h.saved) != 1 || h.saved[0] != "Hello world" {
		t.Fatalf("saved = %q", h.saved)
	}
	if m.editor.Value() != "" {
		t.Fatalf("editor = %q, want empty", m.editor.Value())
	}
	if m.alert != "Saved to /j/2024-01-01.txt" {
		t.Fatalf("alert = %q", m.alert)
	}
	if m.body != h.file || m.empty {
		t.Fatalf("preview = %q empty=%v", m.body, m.empty)
	}
}

func TestTypingDuringSaveIsKept(t *testing.T) {
	h := &stubHost{dir: "/j", saveID: "/j/2024-01-01.txt", file: "[2024-01-01 08:00:00]\nfirst\n\n---\n\n"}
	m, app, sent := testModel(h)
	m = apply(t, m, typeText("first"))

	m.ctrl.Send(context.Background())
	// Keys that arrive before the save's messages are processed.
	m = apply(t, m, typeText(" second"))
	m = apply(t, m, sent.drain()...)

	if len(h.saved) != 1 || h.saved[0] != "first" {
		t.Fatalf("saved = %q", h.saved)
	}
	if m.editor.Value() != "first second" {
		t.Fatalf("editor = %q, want the unsent text kept", m.editor.Value())
	}
	if got := app.bridge.Text(); got != "first second" {
		t.Fatalf("bridge text = %q", got)
	}
	if m.alert != "Saved to /j/2024-01-01.txt" {
		t.Fatalf("alert = %q", m.alert)
	}
}

func TestFailedSendKeepsEditor(t *testing.T) {
	h := &stubHost{saveErr: errors.New("read-only file system")}
	m, _, sent := testModel(h)
	m = apply(t, m, typeText("keep me"))

	m.ctrl.Send(context.Background())
	m = apply(t, m, sent.drain()...)

	if m.editor.Value() != "keep me" {
		t.Fatalf("editor = %q", m.editor.Value())
	}
	if m.alert != "Error: read-only file system" {
		t.Fatalf("alert = %q", m.alert)
	}
}

func TestAlertSwallowsNextKey(t *testing.T) {
	m, _, _ := testModel(&stubHost{})
	m = apply(t, m, alertMsg("Saved to x"))

	if !strings.Contains(m.View(), "Saved to x") {
		t.Fatal("alert not rendered")
	}

	m = apply(t, m, typeText("a"))
	if m.alert != "" {
		t.Fatal("alert not dismissed")
	}
	if m.editor.Value() != "" {
		t.Fatalf("dismissing key reached the editor: %q", m.editor.Value())
	}
}

func TestEmptyPreviewUsesPlaceholder(t *testing.T) {
	m, _, sent := testModel(&stubHost{dir: "/j", file: "   \n"})

	m.ctrl.Start(context.Background(), nil)
	m = apply(t, m, sent.drain()...)

	if m.dir != "/j" {
		t.Fatalf("dir = %q", m.dir)
	}
	if !m.empty || m.body != page.EmptyPlaceholder {
		t.Fatalf("preview = %q empty=%v", m.body, m.empty)
	}
	if m.header != "Today's Entries (2024-01-01)" {
		t.Fatalf("header = %q", m.header)
	}
}

func TestPickPromptAnswers(t *testing.T) {
	m, app, _ := testModel(&stubHost{})

	m = apply(t, m, pickRequestMsg{current: "/old"})
	if !m.picking {
		t.Fatal("prompt not shown")
	}
	if m.prompt.Value() != "/old" {
		t.Fatalf("prompt prefill = %q", m.prompt.Value())
	}

	m.prompt.SetValue("/new/journal")
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.picking {
		t.Fatal("prompt still open")
	}
	select {
	case got := <-app.picker.answers:
		if got != "/new/journal" {
			t.Fatalf("answer = %q", got)
		}
	default:
		t.Fatal("no answer delivered")
	}
}

func TestPickPromptEscCancels(t *testing.T) {
	m, app, _ := testModel(&stubHost{})

	m = apply(t, m, pickRequestMsg{current: "/old"}, tea.KeyMsg{Type: tea.KeyEsc})

	select {
	case got := <-app.picker.answers:
		if got != "" {
			t.Fatalf("answer = %q, want empty", got)
		}
	default:
		t.Fatal("no answer delivered")
	}
}

func TestPickerWaitsForAnswer(t *testing.T) {
	app := New(Options{})
	sent := &captured{}
	app.bridge.attach(sent.send)

	go func() {
		for {
			for _, msg := range sent.drain() {
				if req, ok := msg.(pickRequestMsg); ok {
					app.picker.answer(req.current + "/sub")
					return
				}
			}
			time.Sleep(time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := app.picker.PickDirectory(ctx, "/base")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/base/sub" {
		t.Fatalf("picked %q", got)
	}
}

func TestPickerWithoutProgram(t *testing.T) {
	app := New(Options{})
	if _, err := app.picker.PickDirectory(context.Background(), "/x"); !errors.Is(err, errNotRunning) {
		t.Fatalf("err = %v, want errNotRunning", err)
	}
}
