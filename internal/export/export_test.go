package export

import (
	"strings"
	"testing"
)

const day = "[2024-01-01 09:30:00]\nHello **world**\n\n---\n\n" +
	"[2024-01-01 21:05:07]\n<script>alert(1)</script>\n\n---\n\n"

func TestBodyTurnsStampsIntoHeadings(t *testing.T) {
	r := New()
	body, err := r.Body(day)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"<h3>2024-01-01 09:30:00</h3>",
		"<h3>2024-01-01 21:05:07</h3>",
		"<strong>world</strong>",
		"<hr",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("raw html must not pass through:\n%s", body)
	}
}

func TestBodyEmpty(t *testing.T) {
	body, err := New().Body(" \n\t")
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		t.Fatalf("body = %q", body)
	}
}

func TestPageIsMinifiedDocument(t *testing.T) {
	r := New()
	out, err := r.Page("Journal 2024-01-01", day)
	if err != nil {
		t.Fatal(err)
	}
	page := string(out)

	if !strings.Contains(page, "Journal 2024-01-01") {
		t.Fatalf("title missing:\n%s", page)
	}
	if strings.Contains(page, "\n\n") {
		t.Fatalf("page does not look minified:\n%s", page)
	}
}

func TestPagePlaceholderWhenEmpty(t *testing.T) {
	out, err := New().Page("Journal", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "No entries.") {
		t.Fatalf("placeholder missing:\n%s", out)
	}
}
