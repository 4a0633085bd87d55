// Package export renders a journal day as a standalone HTML page.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	mhtml "github.com/tdewolff/minify/v2/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// [2006-01-02 15:04:05] on a line of its own
var stampRe = regexp.MustCompile(`(?m)^\[([^\[\]\n]+)\][ \t]*$`)

const pageTmpl = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { max-width: 760px; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.55; color: #1d2330; }
h1 { font-size: 1.6rem; margin-bottom: 1.5rem; }
h3 { font-size: .9rem; color: #6b7385; font-weight: 600; margin: 2rem 0 .5rem; }
hr { border: 0; border-top: 1px solid #d9dde6; margin: 1.5rem 0; }
pre { padding: .75rem; border-radius: 6px; overflow-x: auto; }
.empty { color: #6b7385; font-style: italic; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Body}}{{.Body}}{{else}}<p class="empty">No entries.</p>{{end}}
</body>
</html>
`

// Renderer converts day text to HTML. Safe for concurrent use.
type Renderer struct {
	md   goldmark.Markdown
	page *template.Template
	min  *minify.M
}

func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(highlighting.WithStyle("github")),
		),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	m := minify.New()
	m.AddFunc("text/html", mhtml.Minify)
	m.AddFunc("text/css", css.Minify)

	return &Renderer{
		md:   md,
		page: template.Must(template.New("page").Parse(pageTmpl)),
		min:  m,
	}
}

// Body renders day text to an HTML fragment. Entry timestamp lines become
// third-level headings; raw HTML in entries is escaped.
func (r *Renderer) Body(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	src := stampRe.ReplaceAllString(text, "### $1")

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Page renders a full, minified HTML document.
func (r *Renderer) Page(title, text string) ([]byte, error) {
	body, err := r.Body(text)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body)}); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	out, err := r.min.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify page: %w", err)
	}
	return out, nil
}
