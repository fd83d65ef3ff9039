// browser/dom/element.go
package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/shadowdom"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

// Element is a node of a Document. It implements probe.Element.
type Element struct {
	doc  *Document
	node *html.Node
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

func (e *Element) TagName() string { return strings.ToLower(e.node.Data) }

func (e *Element) ID() string { return htmlquery.SelectAttr(e.node, "id") }

func (e *Element) ClassList() []string {
	return strings.Fields(htmlquery.SelectAttr(e.node, "class"))
}

func (e *Element) Attribute(name string) (string, bool) {
	for _, attr := range e.node.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

func (e *Element) ParentElement() probe.Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode || shadowdom.IsBoundary(p) {
		return nil
	}
	return e.doc.Lookup(p)
}

func (e *Element) ChildIndex() int {
	if e.node.Parent == nil {
		return 0
	}
	idx := 1
	for prev := e.node.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if prev.Type == html.ElementNode {
			idx++
		}
	}
	return idx
}

func (e *Element) RootNode() probe.Root { return e.doc.rootOf(e.node) }

// ShadowRoot returns nil for closed roots, as the page API does.
func (e *Element) ShadowRoot() probe.Root {
	sr, ok := e.doc.shadows[e.node]
	if !ok || sr.mode != shadowdom.ModeOpen {
		return nil
	}
	return sr
}

func (e *Element) BoundingClientRect() schemas.Rect { return e.doc.rects[e.node] }

func (e *Element) Href() string {
	href, ok := e.Attribute("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	if e.doc.base == nil {
		return href
	}
	u, err := e.doc.base.Parse(href)
	if err != nil {
		return href
	}
	return u.String()
}

// inputTypes are the values of the type attribute browsers recognize.
var inputTypes = map[string]struct{}{
	"button": {}, "checkbox": {}, "color": {}, "date": {}, "datetime-local": {},
	"email": {}, "file": {}, "hidden": {}, "image": {}, "month": {}, "number": {},
	"password": {}, "radio": {}, "range": {}, "reset": {}, "search": {}, "submit": {},
	"tel": {}, "text": {}, "time": {}, "url": {}, "week": {},
}

func (e *Element) InputType() string {
	t, _ := e.Attribute("type")
	t = strings.ToLower(strings.TrimSpace(t))
	if _, ok := inputTypes[t]; !ok {
		return "text"
	}
	return t
}

// Value returns the recorded live value, falling back to the value attribute.
func (e *Element) Value() string {
	if v, ok := e.doc.values[e.node]; ok {
		return v
	}
	v, _ := e.Attribute("value")
	return v
}
