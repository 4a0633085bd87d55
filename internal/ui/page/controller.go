// Package page binds the journal page (editor, directory label, daily preview)
// to the host commands. Every action is one awaited host call whose result is
// written to the view; nothing is retried or cached.
package page

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/petervdpas/textlog/internal/events"
)

const (
	DirectoryError     = "Error loading directory"
	PreviewErrorHeader = "Error loading file"
	EmptyPlaceholder   = "No entries yet today. Start writing!"
)

// Host is the set of commands the page invokes.
type Host interface {
	SaveEntry(ctx context.Context, content string) (string, error)
	GetDirectory(ctx context.Context) (string, error)
	ChooseDirectory(ctx context.Context) error
	ReadCurrentFile(ctx context.Context) (string, error)
}

// Editor is the rich-text widget as the page uses it.
type Editor interface {
	Text() string
	Clear()
}

// View is the page's display surface.
type View interface {
	SetDirectory(path string)
	SetPreview(header, body string, empty bool)
	ScrollPreviewToBottom()
	Alert(msg string)
}

// Subscriber registers a listener for a named host notification.
type Subscriber interface {
	On(event string, fn func(payload string)) (cancel func())
}

type Controller struct {
	host   Host
	editor Editor
	view   View
	now    func() time.Time

	mu     sync.Mutex
	cancel func()
}

type Option func(*Controller)

// WithClock sets the clock used for the preview header date.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func New(host Host, editor Editor, view View, opts ...Option) *Controller {
	c := &Controller{host: host, editor: editor, view: view, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start subscribes to directory changes and renders the directory and preview.
func (c *Controller) Start(ctx context.Context, sub Subscriber) {
	if sub != nil {
		c.Listen(ctx, sub)
	}
	c.LoadCurrentDirectory(ctx)
	c.LoadCurrentFile(ctx)
}

// Listen installs the single directory-changed listener, replacing any
// earlier one.
func (c *Controller) Listen(ctx context.Context, sub Subscriber) {
	cancel := sub.On(events.DirectoryChanged, func(path string) {
		c.DirectoryChanged(ctx, path)
	})

	c.mu.Lock()
	prev := c.cancel
	c.cancel = cancel
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Stop removes the directory-changed listener.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Controller) LoadCurrentDirectory(ctx context.Context) {
	dir, err := c.host.GetDirectory(ctx)
	if err != nil {
		c.view.SetDirectory(DirectoryError)
		return
	}
	c.view.SetDirectory(dir)
}

// ChangeDirectory only opens the host picker; the chosen path comes back as
// a directory-changed notification.
func (c *Controller) ChangeDirectory(ctx context.Context) {
	if err := c.host.ChooseDirectory(ctx); err != nil {
		c.view.Alert(errorText(err))
	}
}

// DirectoryChanged shows the pushed path and reloads the preview, which
// belongs to the new directory.
func (c *Controller) DirectoryChanged(ctx context.Context, path string) {
	c.view.SetDirectory(path)
	c.LoadCurrentFile(ctx)
}

// PreviewHeader labels the preview with the local calendar date.
func (c *Controller) PreviewHeader() string {
	return fmt.Sprintf("Today's Entries (%s)", c.now().Format("2006-01-02"))
}

func (c *Controller) LoadCurrentFile(ctx context.Context) {
	text, err := c.host.ReadCurrentFile(ctx)
	if err != nil {
		c.view.SetPreview(PreviewErrorHeader, err.Error(), false)
		return
	}

	if strings.TrimSpace(text) == "" {
		c.view.SetPreview(c.PreviewHeader(), EmptyPlaceholder, true)
		return
	}
	c.view.SetPreview(c.PreviewHeader(), text, false)
	c.view.ScrollPreviewToBottom()
}

// Send saves the editor text. The editor is cleared only after a successful
// save so a failed save loses nothing.
func (c *Controller) Send(ctx context.Context) {
	id, err := c.host.SaveEntry(ctx, c.editor.Text())
	if err != nil {
		c.view.Alert(errorText(err))
		return
	}
	c.view.Alert("Saved to " + id)
	c.editor.Clear()
	c.LoadCurrentFile(ctx)
}

func errorText(err error) string {
	return "Error: " + err.Error()
}
