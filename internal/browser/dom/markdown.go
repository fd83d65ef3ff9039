// internal/browser/dom/markdown.go
package dom

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

var blankRun = regexp.MustCompile(`\n{4,}`)

// MarkdownOptions tunes Markdown.
type MarkdownOptions struct {
	// MaxChars truncates the result when positive.
	MaxChars int
}

// Markdown renders the body of the document as markdown. The head, scripts,
// styles and the highlight overlay are left out; shadow trees are not part
// of the serialized page and are skipped too.
func (d *Document) Markdown(opts MarkdownOptions) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}

	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "-",
	})
	conv.Remove("head", "script", "style", "noscript", "template")
	conv.AddRules(md.Rule{
		Filter: []string{"div"},
		Replacement: func(content string, selec *goquery.Selection, _ *md.Options) *string {
			if id, _ := selec.Attr("id"); id == probe.ContainerID {
				return md.String("")
			}
			return nil
		},
	})

	out, err := conv.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert document to markdown: %w", err)
	}
	return truncateRunes(CollapseBlankLines(out), opts.MaxChars), nil
}

// CollapseBlankLines replaces every run of four or more newlines with a
// single blank line and trims the result.
func CollapseBlankLines(s string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(s, "\n\n"))
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
