package plan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// ReadFile extracts plan text from a PDF, HTML, Markdown or plain-text
// file. HTML is reduced to Markdown-style text.
func ReadFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		defer f.Close()
		doc, err := html.Parse(f)
		if err != nil {
			return "", fmt.Errorf("parsing HTML %s: %w", path, err)
		}
		var b strings.Builder
		writeText(&b, doc)
		return cleanText(b.String()), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

// writeText walks an HTML tree and keeps headings, paragraphs and list
// items as Markdown.
func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			b.WriteString(text)
			b.WriteString(" ")
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "head", "nav", "footer":
			return
		case "h1":
			b.WriteString("\n\n# ")
		case "h2":
			b.WriteString("\n\n## ")
		case "h3", "h4", "h5", "h6":
			b.WriteString("\n\n### ")
		case "p", "div", "table", "ul", "ol":
			b.WriteString("\n\n")
		case "br", "tr":
			b.WriteString("\n")
		case "li":
			b.WriteString("\n- ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if n.Type == html.ElementNode && len(n.Data) == 2 && n.Data[0] == 'h' {
		b.WriteString("\n\n")
	}
}

// cleanText trims every line and collapses runs of blank lines.
func cleanText(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	text, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", fmt.Errorf("reading PDF text: %w", err)
	}
	return buf.String(), nil
}
