// browser/dom/xpath.go
package dom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/scalpel-probe/internal/browser/shadowdom"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

// XPath returns an XPath for the element, anchored at the nearest ancestor
// with an id. Inside a shadow tree the XPath of the host comes first, joined
// with " >>> " the way selectors chain shadow roots. Step reports and logs
// carry it next to the selector.
func (e *Element) XPath() string {
	path := GenerateUniqueXPath(e.node)
	root := e.RootNode()
	if root == nil || root.IsDocument() {
		return path
	}
	host, ok := root.Host().(*Element)
	if !ok || host == nil {
		return path
	}
	return host.XPath() + probe.ShadowSeparator + path
}

// GenerateUniqueXPath builds an XPath for node. The walk stops at the
// document or at a shadow root boundary.
func GenerateUniqueXPath(node *html.Node) string {
	if node == nil {
		return ""
	}

	var path []string
	for n := node; n != nil && n.Type != html.DocumentNode && !shadowdom.IsBoundary(n); n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)

		if id := htmlquery.SelectAttr(n, "id"); id != "" {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}

		// XPath positions count same-tag siblings, 1-based.
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}

	if len(path) == 0 {
		return "/"
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}
