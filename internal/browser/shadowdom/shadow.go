// internal/browser/shadowdom/shadow.go
package shadowdom

import (
	"strings"

	"golang.org/x/net/html"
)

// BoundaryTag is the tag of the synthetic node that stands in for a shadow
// root. It is never attached to the host's child list, so queries run against
// the light tree cannot see into it.
const BoundaryTag = "shadow-root-boundary"

// Mode is the encapsulation mode of a shadow root.
type Mode string

const (
	ModeOpen   Mode = "open"
	ModeClosed Mode = "closed"
)

// ParseMode maps a shadowrootmode or shadowRootType value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOpen:
		return ModeOpen, true
	case ModeClosed:
		return ModeClosed, true
	}
	return "", false
}

// Engine instantiates declarative shadow roots
// (<template shadowrootmode="open|closed">).
type Engine struct{}

// DetectShadowHost reports whether n carries a declarative shadow root
// template as a direct child.
func (e Engine) DetectShadowHost(n *html.Node) bool {
	return declarativeTemplate(n) != nil
}

// InstantiateShadowRoot moves the contents of the host's declarative template
// into a new boundary node and removes the template from the host. It
// returns nil when host has no such template. Templates nested inside the
// new root are left alone; the caller instantiates them in turn.
func (e Engine) InstantiateShadowRoot(host *html.Node) (*html.Node, Mode) {
	tmpl := declarativeTemplate(host)
	if tmpl == nil {
		return nil, ""
	}
	mode, _ := ParseMode(getAttr(tmpl, "shadowrootmode"))

	root := NewBoundary()
	for c := tmpl.FirstChild; c != nil; c = c.NextSibling {
		root.AppendChild(cloneNode(c))
	}
	host.RemoveChild(tmpl)
	return root, mode
}

// NewBoundary returns an empty, detached shadow root node.
func NewBoundary() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: BoundaryTag}
}

// IsBoundary reports whether n is a shadow root node.
func IsBoundary(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == BoundaryTag
}

func declarativeTemplate(n *html.Node) *html.Node {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "template" {
			continue
		}
		if _, ok := ParseMode(getAttr(c, "shadowrootmode")); ok {
			return c
		}
	}
	return nil
}

// getAttr is a case-insensitive attribute lookup.
func getAttr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}

// cloneNode deep copies n and its subtree, detached from any parent.
func cloneNode(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      make([]html.Attribute, len(n.Attr)),
	}
	copy(clone.Attr, n.Attr)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneNode(c))
	}
	return clone
}
