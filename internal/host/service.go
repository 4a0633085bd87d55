// Package host implements the commands the journal page invokes: saving an
// entry, reading today's file, and reporting or choosing the journal directory.
package host

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/textlog/internal/config"
	"github.com/petervdpas/textlog/internal/events"
	"github.com/petervdpas/textlog/internal/export"
	"github.com/petervdpas/textlog/internal/journal"
	"github.com/petervdpas/textlog/internal/storage"
	"github.com/petervdpas/textlog/internal/util"
	"github.com/petervdpas/textlog/internal/watch"
)

var log = logging.Logger("host")

var (
	ErrPickerBusy = errors.New("directory picker already open")
	ErrNoPicker   = errors.New("no directory picker available")
)

const dayLabel = "2006-01-02"

// DirectoryPicker asks the user for a directory. It blocks until the user
// answers and returns "" when the dialog was cancelled.
type DirectoryPicker interface {
	PickDirectory(ctx context.Context, current string) (string, error)
}

// Notifier pushes an unsolicited event to the page.
type Notifier interface {
	Notify(event, payload string)
}

// Activity is one line of the recent-activity log.
type Activity struct {
	At     time.Time `json:"at"`
	Kind   string    `json:"kind"` // save | directory
	Detail string    `json:"detail"`
}

// DayInfo describes one journal day for listings.
type DayInfo struct {
	Day     string `json:"day"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	Entries int    `json:"entries"` // 0 when the day predates the index
}

type Options struct {
	CfgPath  string
	Cfg      config.Config
	Picker   DirectoryPicker
	Notifier Notifier

	// Now defaults to time.Now. "Today" is recomputed from it on every call.
	Now func() time.Time

	// Recent sets the recent-activity capacity (default 50).
	Recent int
}

type Service struct {
	mu      sync.RWMutex
	cfgPath string
	cfg     config.Config

	picker   DirectoryPicker
	notifier Notifier
	now      func() time.Time

	index    *storage.DB
	watcher  *watch.Watcher
	renderer *export.Renderer
	recent   *util.RingBuffer[Activity]

	picking atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the service. The index and watcher are optional: failing to
// start either is logged and the service runs without it.
func New(ctx context.Context, opts Options) (*Service, error) {
	if err := opts.Cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Recent <= 0 {
		opts.Recent = 50
	}

	dir, err := util.ExpandDir(opts.Cfg.Journal.Directory)
	if err != nil {
		return nil, fmt.Errorf("journal directory: %w", err)
	}
	opts.Cfg.Journal.Directory = dir

	s := &Service{
		cfgPath:  opts.CfgPath,
		cfg:      opts.Cfg,
		picker:   opts.Picker,
		notifier: opts.Notifier,
		now:      opts.Now,
		renderer: export.New(),
		recent:   util.NewRingBuffer[Activity](opts.Recent),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	if opts.Cfg.Index.Enabled && opts.CfgPath != "" {
		db, err := storage.Open(config.IndexPath(opts.CfgPath, opts.Cfg))
		if err != nil {
			log.Warnf("entry index disabled: %v", err)
		} else {
			s.index = db
		}
	}

	if opts.Cfg.Watch.Enabled {
		layout := s.layout()
		w, err := watch.New(dir, layout.IsDayFile, s.onDayFileChanged)
		if err != nil {
			log.Warnf("directory watch disabled: %v", err)
		} else {
			s.watcher = w
		}
	}

	log.Infof("journal directory: %s", dir)
	return s, nil
}

// Close stops background work and releases the index.
func (s *Service) Close() error {
	s.cancel()
	s.wg.Wait()

	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	return errors.Join(errs...)
}

func (s *Service) layout() journal.Layout {
	return journal.Layout{
		File:      s.cfg.Journal.FileLayout,
		Timestamp: s.cfg.Journal.TimestampLayout,
		Separator: s.cfg.Journal.Separator,
	}
}

// snapshot returns the directory and layout under one read lock.
func (s *Service) snapshot() (string, journal.Layout) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Journal.Directory, s.layout()
}

// Config returns a copy of the current configuration.
func (s *Service) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Today is the local calendar date used to label the preview.
func (s *Service) Today() string {
	return s.now().Format(dayLabel)
}

// -------------------------
// Page commands
// -------------------------

// SaveEntry appends content to today's file and returns the file path.
func (s *Service) SaveEntry(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, layout := s.snapshot()
	now := s.now()

	path, err := journal.Append(dir, layout, content, now)
	if err != nil {
		log.Errorf("save entry: %v", err)
		return "", err
	}

	if s.index != nil {
		if _, err := s.index.InsertEntry(dir, path, now, len([]rune(content))); err != nil {
			log.Warnf("index entry: %v", err)
		}
	}

	s.record("save", path)
	log.Infof("saved entry to %s", path)
	return path, nil
}

// GetDirectory returns the current journal directory.
func (s *Service) GetDirectory(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, _ := s.snapshot()
	return dir, nil
}

// ChooseDirectory opens the picker and returns at once. A chosen directory is
// persisted and announced with a directory-changed notification; a cancelled
// picker announces nothing.
func (s *Service) ChooseDirectory(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.picker == nil {
		return ErrNoPicker
	}
	if !s.picking.CompareAndSwap(false, true) {
		return ErrPickerBusy
	}

	current, _ := s.snapshot()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.picking.Store(false)

		path, err := s.picker.PickDirectory(s.ctx, current)
		if err != nil {
			log.Warnf("directory picker: %v", err)
			return
		}
		if path == "" {
			log.Debugf("directory picker cancelled")
			return
		}
		if err := s.SetDirectory(s.ctx, path); err != nil {
			log.Errorf("set directory: %v", err)
		}
	}()

	return nil
}

// ReadCurrentFile returns today's file; a missing file is "".
func (s *Service) ReadCurrentFile(ctx context.Context) (string, error) {
	return s.ReadDay(ctx, s.now())
}

// -------------------------
// Supporting commands
// -------------------------

// SetDirectory switches the journal directory, persists it, and notifies
// directory-changed listeners.
func (s *Service) SetDirectory(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := util.ExpandDir(path)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}

	s.mu.Lock()
	next := s.cfg
	next.Journal.Directory = dir
	if s.cfgPath != "" {
		if err := config.Save(s.cfgPath, next); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("save settings: %w", err)
		}
	}
	s.cfg = next
	s.mu.Unlock()

	if s.watcher != nil {
		if err := s.watcher.Retarget(dir); err != nil {
			log.Warnf("retarget watch: %v", err)
		}
	}

	s.record("directory", dir)
	log.Infof("journal directory changed to %s", dir)
	s.notify(events.DirectoryChanged, dir)
	return nil
}

// SetTheme persists the window theme ("light" or "dark"; anything else is dark).
func (s *Service) SetTheme(ctx context.Context, theme string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if theme != "light" {
		theme = "dark"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	next.UI.Theme = theme
	if s.cfgPath != "" {
		if err := config.Save(s.cfgPath, next); err != nil {
			return "", fmt.Errorf("save settings: %w", err)
		}
	}
	s.cfg = next
	return theme, nil
}

// ReadDay returns the file of the local calendar day of t.
func (s *Service) ReadDay(ctx context.Context, t time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, layout := s.snapshot()
	text, err := journal.Read(dir, layout, t)
	if err != nil {
		log.Warnf("read %s: %v", layout.DayFile(dir, t), err)
		return "", err
	}
	return text, nil
}

// ParseDay parses a YYYY-MM-DD label in local time.
func ParseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation(dayLabel, day, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q: want YYYY-MM-DD", day)
	}
	return t, nil
}

// ListDays lists the day files of the current directory, newest first, with
// entry counts from the index where known.
func (s *Service) ListDays(ctx context.Context) ([]DayInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, layout := s.snapshot()

	days, err := journal.ListDays(dir, layout)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	if s.index != nil {
		sums, err := s.index.ListDays(dir)
		if err != nil {
			log.Warnf("index days: %v", err)
		}
		for _, d := range sums {
			counts[d.Day] = d.Count
		}
	}

	out := make([]DayInfo, 0, len(days))
	for _, d := range days {
		label := d.Date.Format(dayLabel)
		out = append(out, DayInfo{
			Day:     label,
			Path:    d.Path,
			Size:    d.Size,
			Entries: counts[label],
		})
	}
	return out, nil
}

// ExportDay renders one day (YYYY-MM-DD) as a standalone HTML page.
func (s *Service) ExportDay(ctx context.Context, day string) ([]byte, error) {
	t, err := ParseDay(day)
	if err != nil {
		return nil, err
	}
	text, err := s.ReadDay(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.renderer.Page("Journal · "+day, text)
}

// Recent returns up to n recent activities, oldest first.
func (s *Service) Recent(n int) []Activity {
	return s.recent.Last(n)
}

func (s *Service) record(kind, detail string) {
	s.recent.Push(Activity{At: s.now(), Kind: kind, Detail: detail})
}

func (s *Service) notify(event, payload string) {
	if s.notifier != nil {
		s.notifier.Notify(event, payload)
	}
}

// onDayFileChanged forwards writes to today's file only.
func (s *Service) onDayFileChanged(path string) {
	dir, layout := s.snapshot()
	if filepath.Clean(path) != layout.DayFile(dir, s.now()) {
		return
	}
	s.notify(events.FileChanged, path)
}
