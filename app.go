// app.go
package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/petervdpas/textlog/internal/config"
	"github.com/petervdpas/textlog/internal/host"
)

var log = logging.Logger("app")

var errNotReady = errors.New("journal is not ready")

// App is bound to the Wails frontend. Its exported methods are the host
// commands the page calls through window.go.main.App.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfgPath string
	cfg     config.Config

	mu  sync.RWMutex
	svc *host.Service
}

// EditorOptions configures the Quill editor in the page.
type EditorOptions struct {
	Placeholder string  `json:"placeholder"`
	Toolbar     [][]any `json:"toolbar"`
	Theme       string  `json:"theme"`
}

func NewApp(cfgPath string, cfg config.Config) *App {
	return &App{cfgPath: cfgPath, cfg: cfg}
}

func (a *App) startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	svc, err := host.New(a.ctx, host.Options{
		CfgPath:  a.cfgPath,
		Cfg:      a.cfg,
		Picker:   nativePicker{a},
		Notifier: webviewNotifier{a},
	})
	if err != nil {
		log.Errorf("journal start: %v", err)
		return
	}

	a.mu.Lock()
	a.svc = svc
	a.mu.Unlock()
}

func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	svc := a.svc
	a.svc = nil
	a.mu.Unlock()

	if svc != nil {
		if err := svc.Close(); err != nil {
			log.Warnf("journal close: %v", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *App) service() (*host.Service, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.svc == nil {
		return nil, errNotReady
	}
	return a.svc, nil
}

// -------------------------
// Page commands
// -------------------------

func (a *App) SaveEntry(content string) (string, error) {
	svc, err := a.service()
	if err != nil {
		return "", err
	}
	return svc.SaveEntry(a.ctx, content)
}

func (a *App) GetDirectory() (string, error) {
	svc, err := a.service()
	if err != nil {
		return "", err
	}
	return svc.GetDirectory(a.ctx)
}

// ChooseDirectory opens the native folder dialog. The chosen folder arrives
// as a "directory-changed" event.
func (a *App) ChooseDirectory() error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	return svc.ChooseDirectory(a.ctx)
}

func (a *App) ReadCurrentFile() (string, error) {
	svc, err := a.service()
	if err != nil {
		return "", err
	}
	return svc.ReadCurrentFile(a.ctx)
}

// -------------------------
// Supporting API
// -------------------------

// Today is the date label for the preview header.
func (a *App) Today() string {
	svc, err := a.service()
	if err != nil {
		return ""
	}
	return svc.Today()
}

func (a *App) EditorOptions() EditorOptions {
	cfg := a.cfg
	if svc, err := a.service(); err == nil {
		cfg = svc.Config()
	}
	return EditorOptions{
		Placeholder: cfg.Editor.Placeholder,
		Toolbar:     quillToolbar(cfg.Editor.Toolbar),
		Theme:       cfg.UI.Theme,
	}
}

func (a *App) SetTheme(theme string) (string, error) {
	svc, err := a.service()
	if err != nil {
		return "", err
	}
	return svc.SetTheme(a.ctx, theme)
}

func (a *App) ListDays() ([]host.DayInfo, error) {
	svc, err := a.service()
	if err != nil {
		return nil, err
	}
	return svc.ListDays(a.ctx)
}

func (a *App) RecentActivity() []host.Activity {
	svc, err := a.service()
	if err != nil {
		return []host.Activity{}
	}
	return svc.Recent(20)
}

// ExportDay renders a day (YYYY-MM-DD) to HTML and saves it where the user
// chooses. Returns the saved path, or "" when the dialog was cancelled.
func (a *App) ExportDay(day string) (string, error) {
	svc, err := a.service()
	if err != nil {
		return "", err
	}

	page, err := svc.ExportDay(a.ctx, day)
	if err != nil {
		return "", err
	}

	savePath, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export journal day",
		DefaultFilename: "journal-" + day + ".html",
		Filters: []runtime.FileFilter{
			{DisplayName: "HTML (*.html)", Pattern: "*.html"},
		},
	})
	if err != nil {
		return "", err
	}
	if savePath == "" {
		return "", nil
	}

	if err := os.WriteFile(savePath, page, 0o644); err != nil {
		return "", err
	}
	log.Infof("exported %s to %s", day, savePath)
	return savePath, nil
}

// -------------------------
// Adapters
// -------------------------

// nativePicker opens the OS folder dialog. Not bound to the frontend.
type nativePicker struct{ a *App }

func (p nativePicker) PickDirectory(ctx context.Context, current string) (string, error) {
	return runtime.OpenDirectoryDialog(p.a.ctx, runtime.OpenDialogOptions{
		Title:                "Choose journal folder",
		DefaultDirectory:     current,
		CanCreateDirectories: true,
	})
}

// webviewNotifier forwards host notifications as Wails events.
type webviewNotifier struct{ a *App }

func (n webviewNotifier) Notify(event, payload string) {
	runtime.EventsEmit(n.a.ctx, event, payload)
}

// quillToolbar turns config groups into Quill's toolbar shape:
// "list:ordered" becomes {"list": "ordered"}.
func quillToolbar(groups [][]string) [][]any {
	out := make([][]any, 0, len(groups))
	for _, g := range groups {
		row := make([]any, 0, len(g))
		for _, item := range g {
			if k, v, ok := strings.Cut(item, ":"); ok {
				row = append(row, map[string]string{k: v})
				continue
			}
			row = append(row, item)
		}
		out = append(out, row)
	}
	return out
}
