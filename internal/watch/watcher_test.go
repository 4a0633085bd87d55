package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("no event for %s", want)
		}
	}
}

func TestWatcherReportsMatchingWrites(t *testing.T) {
	dir := t.TempDir()
	events := make(chan string, 32)

	w, err := New(dir, func(p string) bool { return strings.HasSuffix(p, ".txt") }, func(p string) {
		events <- p
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	os.WriteFile(filepath.Join(dir, "ignored.tmp"), []byte("x"), 0o644)
	day := filepath.Join(dir, "2024-01-01.txt")
	if err := os.WriteFile(day, []byte("entry"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, events, day)
}

func TestRetargetCreatesAndMoves(t *testing.T) {
	first := t.TempDir()
	second := filepath.Join(t.TempDir(), "new", "journal")
	events := make(chan string, 32)

	w, err := New(first, nil, func(p string) { events <- p })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Retarget(second); err != nil {
		t.Fatal(err)
	}
	if w.Dir() != second {
		t.Fatalf("Dir = %q", w.Dir())
	}
	if _, err := os.Stat(second); err != nil {
		t.Fatalf("retarget should create the dir: %v", err)
	}

	day := filepath.Join(second, "2024-02-02.txt")
	if err := os.WriteFile(day, []byte("entry"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, day)
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), nil, func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
