// browser/dom/innertext.go
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags end and start a line of rendered text.
var blockTags = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "caption": {},
	"dd": {}, "details": {}, "dialog": {}, "div": {}, "dl": {}, "dt": {},
	"fieldset": {}, "figcaption": {}, "figure": {}, "footer": {}, "form": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "header": {},
	"hgroup": {}, "hr": {}, "legend": {}, "li": {}, "main": {}, "nav": {},
	"ol": {}, "pre": {}, "section": {}, "summary": {}, "table": {}, "tr": {},
	"ul": {},
}

// skippedTags are never rendered as text.
var skippedTags = map[string]struct{}{
	"script": {}, "style": {}, "template": {}, "noscript": {}, "head": {},
}

// InnerText approximates the rendered text the way HTMLElement.innerText
// does: runs of whitespace collapse to one space, <br> and block boundaries
// become line breaks and paragraphs are set apart by a blank line. Table
// cells of a row are joined with tabs. When the document carries layout,
// descendants without a box are not rendered and are skipped.
func (e *Element) InnerText() string {
	t := textBuilder{doc: e.doc}
	t.children(e.node, false)
	return t.String()
}

type textBuilder struct {
	doc *Document

	b strings.Builder
	// breaks is the number of line breaks owed before the next text.
	breaks int
	// space is set when collapsed whitespace is owed before the next text.
	space bool
}

func (t *textBuilder) children(n *html.Node, pre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if pre {
				t.raw(c.Data)
			} else {
				t.text(c.Data)
			}
		case html.ElementNode:
			t.element(c, pre)
		}
	}
}

func (t *textBuilder) element(n *html.Node, pre bool) {
	tag := strings.ToLower(n.Data)
	if _, skip := skippedTags[tag]; skip {
		return
	}
	if t.doc.layout {
		if _, rendered := t.doc.rects[n]; !rendered {
			return
		}
	}

	switch tag {
	case "br":
		t.raw("\n")
		return
	case "p":
		t.lineBreak(2)
		t.children(n, pre)
		t.lineBreak(2)
		return
	case "td", "th":
		t.children(n, pre)
		if next := nextElement(n); next != nil && (next.Data == "td" || next.Data == "th") {
			t.raw("\t")
		}
		return
	}

	if _, block := blockTags[tag]; block {
		t.lineBreak(1)
		t.children(n, pre || tag == "pre")
		t.lineBreak(1)
		return
	}
	t.children(n, pre)
}

// text appends s with whitespace collapsed.
func (t *textBuilder) text(s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" {
			t.space = true
		}
		return
	}
	if startsWithSpace(s) {
		t.space = true
	}
	t.flush()
	if t.space && t.b.Len() > 0 && !t.atLineStart() {
		t.b.WriteByte(' ')
	}
	t.b.WriteString(strings.Join(words, " "))
	t.space = endsWithSpace(s)
}

// raw appends s verbatim, as preformatted text and <br> are.
func (t *textBuilder) raw(s string) {
	if s == "" {
		return
	}
	t.flush()
	t.space = false
	t.b.WriteString(s)
}

// lineBreak owes at least n line breaks before the next text. Adjacent
// requirements merge rather than add up.
func (t *textBuilder) lineBreak(n int) {
	if n > t.breaks {
		t.breaks = n
	}
	t.space = false
}

func (t *textBuilder) flush() {
	if t.breaks > 0 && t.b.Len() > 0 {
		t.b.WriteString(strings.Repeat("\n", t.breaks))
		t.space = false
	}
	t.breaks = 0
}

func (t *textBuilder) atLineStart() bool {
	s := t.b.String()
	return s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "\t")
}

func (t *textBuilder) String() string {
	lines := strings.Split(t.b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\n\r\f") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\n\r\f") != s
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}
