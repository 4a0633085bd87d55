// Package journal reads and appends the per-day journal text files.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("journal")

var ErrBadLayout = errors.New("journal: file name does not match layout")

// Layout controls how day files are named and how entries are written.
type Layout struct {
	File      string // e.g. "2006-01-02.txt"
	Timestamp string // e.g. "2006-01-02 15:04:05"
	Separator string // e.g. "---"
}

func DefaultLayout() Layout {
	return Layout{
		File:      "2006-01-02.txt",
		Timestamp: "2006-01-02 15:04:05",
		Separator: "---",
	}
}

// Day is a journal file on disk.
type Day struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
	Path string    `json:"path"`
	Size int64     `json:"size"`
}

// FileName returns the file name for the local calendar day of t.
func (l Layout) FileName(t time.Time) string {
	return t.Format(l.File)
}

// DayFile returns the full path of the day file for t inside dir.
func (l Layout) DayFile(dir string, t time.Time) string {
	return filepath.Join(dir, l.FileName(t))
}

// ParseDay maps a file name back to its local calendar day.
func (l Layout) ParseDay(name string) (time.Time, error) {
	t, err := time.ParseInLocation(l.File, name, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrBadLayout, name)
	}
	return t, nil
}

// FormatEntry renders one entry block:
//
//	[2006-01-02 15:04:05]
//	content
//
//	---
func (l Layout) FormatEntry(content string, now time.Time) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(now.Format(l.Timestamp))
	b.WriteString("]\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(l.Separator)
	b.WriteString("\n\n")
	return b.String()
}

// Append writes an entry to the day file for now, creating dir and the file
// as needed, and returns the file path.
func Append(dir string, l Layout, content string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create journal dir: %w", err)
	}

	path := l.DayFile(dir, now)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open day file: %w", err)
	}

	if _, err := f.WriteString(l.FormatEntry(content, now)); err != nil {
		f.Close()
		return "", fmt.Errorf("write entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close day file: %w", err)
	}

	log.Debugf("appended %d bytes to %s", len(content), path)
	return path, nil
}

// Read returns the day file for t. A missing file (or directory) reads as "".
func Read(dir string, l Layout, t time.Time) (string, error) {
	b, err := os.ReadFile(l.DayFile(dir, t))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(b), nil
}

// ListDays returns the day files in dir, newest first. Files that do not
// match the layout are skipped; a missing dir yields an empty list.
func ListDays(dir string, l Layout) ([]Day, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Day{}, nil
		}
		return nil, err
	}

	days := []Day{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		date, err := l.ParseDay(e.Name())
		if err != nil {
			continue
		}
		d := Day{Date: date, Name: e.Name(), Path: filepath.Join(dir, e.Name())}
		if info, err := e.Info(); err == nil {
			d.Size = info.Size()
		}
		days = append(days, d)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date.After(days[j].Date) })
	return days, nil
}

// IsDayFile reports whether path names a day file under the layout.
func (l Layout) IsDayFile(path string) bool {
	_, err := l.ParseDay(filepath.Base(path))
	return err == nil
}
