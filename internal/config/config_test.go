package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if filepath.Base(cfg.Journal.Directory) != "MyJournal" {
		t.Fatalf("default directory = %q, want .../MyJournal", cfg.Journal.Directory)
	}
}

func TestEnsureCreatesThenLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text_log", "settings.json")

	cfg, created, err := Ensure(path)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("expected a new config file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file missing: %v", err)
	}

	cfg.Journal.Directory = "/tmp/elsewhere"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	again, created, err := Ensure(path)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("expected existing config to be loaded")
	}
	if again.Journal.Directory != "/tmp/elsewhere" {
		t.Fatalf("directory = %q", again.Journal.Directory)
	}
}

func TestLoadKeepsDefaultsAndStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	body := "\xEF\xBB\xBF" + `{"journal":{"directory":"/data/journal"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Journal.Directory != "/data/journal" {
		t.Fatalf("directory = %q", cfg.Journal.Directory)
	}
	if cfg.Journal.FileLayout != "2006-01-02.txt" {
		t.Fatalf("file layout default lost: %q", cfg.Journal.FileLayout)
	}
	if len(cfg.Editor.Toolbar) != 4 {
		t.Fatalf("toolbar default lost: %v", cfg.Editor.Toolbar)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty directory", func(c *Config) { c.Journal.Directory = "  " }, "journal.directory"},
		{"layout with slash", func(c *Config) { c.Journal.FileLayout = "2006/01-02.txt" }, "path separators"},
		{"layout without day", func(c *Config) { c.Journal.FileLayout = "2006-01.txt" }, "journal.file_layout"},
		{"multi-line separator", func(c *Config) { c.Journal.Separator = "--\n--" }, "single line"},
		{"empty toolbar group", func(c *Config) { c.Editor.Toolbar = [][]string{{}} }, "editor.toolbar[0]"},
		{"bad theme", func(c *Config) { c.UI.Theme = "pink" }, "ui.theme"},
		{"index without path", func(c *Config) { c.Index.Path = "" }, "index.path"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadPartialSkipsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"ui":{"theme":"pink"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject an invalid theme")
	}
	cfg, err := LoadPartial(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Theme != "pink" {
		t.Fatalf("theme = %q", cfg.UI.Theme)
	}
}

func TestCorruptSettingsResetToDefaults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"journal": `},
		{"fails validation", `{"ui":{"theme":"pink"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}

			_, _, err := Ensure(path)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Ensure err = %v, want ErrInvalid", err)
			}

			cfg, err := Reset(path)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.UI.Theme != Default().UI.Theme {
				t.Fatalf("theme = %q", cfg.UI.Theme)
			}

			old, err := os.ReadFile(path + ".bad")
			if err != nil || string(old) != tt.body {
				t.Fatalf("old settings = %q, %v", old, err)
			}
			if _, created, err := Ensure(path); err != nil || created {
				t.Fatalf("rewritten settings: created=%v err=%v", created, err)
			}
		})
	}
}

func TestMissingFileIsNotInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestIndexPath(t *testing.T) {
	cfg := Default()
	got := IndexPath("/home/u/.config/text_log/settings.json", cfg)
	if got != "/home/u/.config/text_log/index.db" {
		t.Fatalf("IndexPath = %q", got)
	}
}
