// Package tui is the terminal front-end of the journal. It drives the same
// page controller as the desktop window; controller calls run as tea
// commands and their view updates come back to the program as messages.
package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/textlog/internal/events"
	"github.com/petervdpas/textlog/internal/ui/page"
)

var log = logging.Logger("tui")

var errNotRunning = errors.New("terminal is not running")

type Options struct {
	Placeholder string
	Now         func() time.Time
}

// App owns the bridge between the page controller and the tea program.
type App struct {
	opts   Options
	bridge *bridge
	picker *Picker
}

func New(opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	b := &bridge{}
	return &App{
		opts:   opts,
		bridge: b,
		picker: &Picker{bridge: b, answers: make(chan string, 1)},
	}
}

// Picker is the directory picker to hand to the host service.
func (a *App) Picker() *Picker {
	return a.picker
}

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context, h page.Host, sub page.Subscriber) error {
	ctrl := page.New(h, a.bridge, a.bridge, page.WithClock(a.opts.Now))
	m := newModel(ctx, ctrl, sub, a.bridge, a.picker, a.opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	a.bridge.attach(p.Send)
	defer a.bridge.attach(nil)

	if sub != nil {
		stop := sub.On(events.FileChanged, func(string) {
			ctrl.LoadCurrentFile(ctx)
		})
		defer stop()
	}
	defer ctrl.Stop()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// bridge implements page.View and page.Editor for code running outside the
// tea event loop. View changes are posted as messages; Text reads the last
// editor value the model published.
type bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
	text string
	sent string // value last handed out by Text
}

func (b *bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *bridge) post(msg tea.Msg) bool {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send == nil {
		log.Debugf("dropped %T: program not running", msg)
		return false
	}
	send(msg)
	return true
}

func (b *bridge) setText(s string) {
	b.mu.Lock()
	b.text = s
	b.mu.Unlock()
}

func (b *bridge) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = b.text
	return b.text
}

// Clear empties the editor only if it still holds the text that was sent;
// anything typed while the save ran is kept.
func (b *bridge) Clear() {
	b.mu.Lock()
	sent := b.sent
	if b.text == sent {
		b.text = ""
	}
	b.mu.Unlock()
	b.post(clearEditorMsg{sent: sent})
}

func (b *bridge) SetDirectory(path string) { b.post(directoryMsg(path)) }

func (b *bridge) SetPreview(header, body string, empty bool) {
	b.post(previewMsg{header: header, body: body, empty: empty})
}

func (b *bridge) ScrollPreviewToBottom() { b.post(scrollMsg{}) }

func (b *bridge) Alert(msg string) { b.post(alertMsg(msg)) }

// Picker asks for a directory with an inline prompt.
type Picker struct {
	bridge  *bridge
	answers chan string
}

// PickDirectory shows the prompt prefilled with current and waits for the
// answer ("" when dismissed).
func (p *Picker) PickDirectory(ctx context.Context, current string) (string, error) {
	// Forget an answer left over from an abandoned pick.
	select {
	case <-p.answers:
	default:
	}
	if !p.bridge.post(pickRequestMsg{current: current}) {
		return "", errNotRunning
	}
	select {
	case a := <-p.answers:
		return a, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Picker) answer(path string) {
	select {
	case p.answers <- path:
	default:
		log.Warnf("directory answer dropped: nobody is waiting")
	}
}
