package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/petervdpas/textlog/internal/util"
)

// AppDirName is the folder under the user config dir that holds settings and the index.
const AppDirName = "text_log"

type Config struct {
	Journal Journal `json:"journal"`
	Editor  Editor  `json:"editor"`
	UI      UI      `json:"ui"`
	Index   Index   `json:"index"`
	Watch   Watch   `json:"watch"`
	Log     Log     `json:"log"`
}

type Journal struct {
	Directory string `json:"directory"`

	// Go time layouts. FileLayout names one file per local calendar day.
	FileLayout      string `json:"file_layout"`
	TimestampLayout string `json:"timestamp_layout"`

	// Line written between entries.
	Separator string `json:"separator"`
}

type Editor struct {
	Placeholder string `json:"placeholder"`

	// Quill toolbar groups. Plain strings are format names ("bold"),
	// "list:ordered" / "list:bullet" become {list: ...} objects in the page.
	Toolbar [][]string `json:"toolbar"`
}

type UI struct {
	Theme  string `json:"theme"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Index struct {
	Enabled bool `json:"enabled"`

	// Relative to the settings directory.
	Path string `json:"path"`
}

type Watch struct {
	Enabled bool `json:"enabled"`
}

type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"` // plaintext | color | json
	File   string `json:"file"`
}

func Default() Config {
	return Config{
		Journal: Journal{
			Directory:       DefaultJournalDir(),
			FileLayout:      "2006-01-02.txt",
			TimestampLayout: "2006-01-02 15:04:05",
			Separator:       "---",
		},
		Editor: Editor{
			Placeholder: "Start writing...",
			Toolbar: [][]string{
				{"bold", "italic", "underline"},
				{"link"},
				{"list:ordered", "list:bullet"},
				{"clean"},
			},
		},
		UI: UI{
			Theme:  "dark",
			Width:  900,
			Height: 700,
		},
		Index: Index{
			Enabled: true,
			Path:    "index.db",
		},
		Watch: Watch{
			Enabled: true,
		},
		Log: Log{
			Level:  "info",
			Format: "plaintext",
		},
	}
}

// DefaultJournalDir is <Documents>/MyJournal, or ./MyJournal when no home is known.
func DefaultJournalDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "MyJournal")
	}
	return filepath.Join(home, "Documents", "MyJournal")
}

// DefaultPath is <user config dir>/text_log/settings.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, AppDirName, "settings.json")
}

var validLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validFormats = map[string]bool{
	"plaintext": true, "color": true, "json": true,
}

func (c *Config) Validate() error {
	// Journal
	if strings.TrimSpace(c.Journal.Directory) == "" {
		return errors.New("journal.directory is required")
	}
	if err := validateFileLayout(c.Journal.FileLayout); err != nil {
		return fmt.Errorf("journal.file_layout: %w", err)
	}
	if strings.TrimSpace(c.Journal.TimestampLayout) == "" {
		return errors.New("journal.timestamp_layout is required")
	}
	if strings.ContainsAny(c.Journal.Separator, "\r\n") {
		return errors.New("journal.separator must be a single line")
	}

	// Editor
	for i, group := range c.Editor.Toolbar {
		if len(group) == 0 {
			return fmt.Errorf("editor.toolbar[%d] is empty", i)
		}
	}

	// UI
	if c.UI.Theme != "light" && c.UI.Theme != "dark" {
		return errors.New("ui.theme must be light or dark")
	}
	if c.UI.Width < 0 || c.UI.Height < 0 {
		return errors.New("ui.width and ui.height must be >= 0")
	}

	// Index
	if c.Index.Enabled && strings.TrimSpace(c.Index.Path) == "" {
		return errors.New("index.path is required when index is enabled")
	}

	// Log
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("log.format %q must be plaintext, color or json", c.Log.Format)
	}

	return nil
}

// validateFileLayout checks that a day file layout stays inside the journal
// directory and round-trips a date.
func validateFileLayout(layout string) error {
	if strings.TrimSpace(layout) == "" {
		return errors.New("is required")
	}
	if strings.ContainsAny(layout, `/\`) {
		return errors.New("must not contain path separators")
	}
	day := time.Date(2024, time.March, 17, 0, 0, 0, 0, time.Local)
	name := day.Format(layout)
	parsed, err := time.ParseInLocation(layout, name, time.Local)
	if err != nil {
		return fmt.Errorf("does not parse back: %v", err)
	}
	if !parsed.Equal(day) {
		return errors.New("must include year, month and day")
	}
	return nil
}

// ErrInvalid marks a settings file that exists but cannot be parsed or
// does not validate.
var ErrInvalid = errors.New("invalid settings")

func Load(path string) (Config, error) {
	cfg, err := LoadPartial(path)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return cfg, nil
}

// LoadPartial reads a config file without validation.
func LoadPartial(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return cfg, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return util.WriteJSONFile(path, cfg)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	return cfg, true, nil
}

// Reset moves an unusable settings file aside to <path>.bad and writes
// defaults in its place.
func Reset(path string) (Config, error) {
	if err := os.Rename(path, path+".bad"); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("keep old settings: %w", err)
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, fmt.Errorf("write default config: %w", err)
	}
	return cfg, nil
}

// IndexPath resolves the index database path against the settings directory.
func IndexPath(cfgPath string, cfg Config) string {
	return util.ResolvePath(filepath.Dir(cfgPath), cfg.Index.Path)
}
