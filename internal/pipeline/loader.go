package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/evidentia/internal/tokenize"
)

// maxFileBytes guards against loading a scan dump that was never split into
// pages.
const maxFileBytes = 32 << 20

// Loader turns case files into per-page text windows. Plain text files use
// form feed (\f) as the page separator, the convention OCR exporters follow;
// HTML files are flattened to their visible text as a single page.
type Loader struct{}

// NewLoader creates a loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir loads every supported file in dir, in name order so repeated runs
// see identical window order.
func (l *Loader) LoadDir(dir string) ([]tokenize.Window, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read case dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".html", ".htm":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no .txt or .html files in %s", dir)
	}

	var windows []tokenize.Window
	for _, name := range names {
		ws, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		windows = append(windows, ws...)
	}
	return windows, nil
}

// LoadFile loads one case file into windows. The document id is the file
// name without its extension.
func (l *Loader) LoadFile(path string) ([]tokenize.Window, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxFileBytes {
		return nil, fmt.Errorf("%s: file too large (%d bytes)", path, info.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	docID := strings.TrimSuffix(name, filepath.Ext(name))

	switch ext {
	case ".txt":
		return textWindows(docID, string(raw)), nil
	case ".html", ".htm":
		text, err := extractVisibleText(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return textWindows(docID, text), nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

// textWindows splits a document on form feeds into 1-based pages. Blank
// pages are dropped; page numbers still count them so provenance matches
// the source document.
func textWindows(docID, text string) []tokenize.Window {
	var windows []tokenize.Window
	for i, page := range strings.Split(text, "\f") {
		trimmed := strings.TrimSpace(page)
		if trimmed == "" {
			continue
		}
		windows = append(windows, tokenize.Window{
			DocumentID: docID,
			Page:       i + 1,
			Text:       trimmed,
		})
	}
	return windows
}

// extractVisibleText flattens an HTML document to the text a reader sees.
// Script and style subtrees are skipped; block-ish boundaries become line
// breaks so sentence segmentation still works.
func extractVisibleText(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "table":
				b.WriteString("\n")
			}
		case html.TextNode:
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// collapse runs of whitespace-only lines
	lines := strings.Split(b.String(), "\n")
	var out []string
	for _, line := range lines {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n"), nil
}
