// browser/dom/document.go
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/shadowdom"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

// Document is an in-memory DOM with shadow roots, per node geometry and a
// viewport. It implements probe.Document. It is not safe for concurrent
// mutation.
type Document struct {
	root      *html.Node
	base      *url.URL
	viewport  schemas.Viewport
	selectors *SelectorCache

	elements map[*html.Node]*Element
	// shadows maps a host to its shadow root, roots maps the boundary node.
	shadows map[*html.Node]*ShadowRoot
	roots   map[*html.Node]*ShadowRoot
	rects   map[*html.Node]schemas.Rect
	values  map[*html.Node]string
	// layout is set when rects come from a layout pass, so an element
	// without one was not rendered.
	layout bool

	overlayMu sync.Mutex
	overlay   *OverlayContainer
}

// Option configures a Document.
type Option func(*Document)

// WithBaseURL sets the URL hrefs are resolved against. Unparseable values
// leave hrefs unresolved.
func WithBaseURL(raw string) Option {
	return func(d *Document) {
		if u, err := url.Parse(raw); err == nil && raw != "" {
			d.base = u
		}
	}
}

// WithViewport sets the viewport used by visibility checks.
func WithViewport(vp schemas.Viewport) Option {
	return func(d *Document) { d.viewport = vp }
}

// WithLayout marks the geometry as complete: elements without a rect have
// no box and contribute no rendered text.
func WithLayout() Option {
	return func(d *Document) { d.layout = true }
}

// WithSelectorCache shares a compiled selector cache between documents.
func WithSelectorCache(c *SelectorCache) Option {
	return func(d *Document) {
		if c != nil {
			d.selectors = c
		}
	}
}

// NewDocument wraps a parsed node tree. Shadow roots are attached separately.
func NewDocument(root *html.Node, opts ...Option) *Document {
	d := &Document{
		root:      root,
		selectors: defaultSelectorCache,
		elements:  make(map[*html.Node]*Element),
		shadows:   make(map[*html.Node]*ShadowRoot),
		roots:     make(map[*html.Node]*ShadowRoot),
		rects:     make(map[*html.Node]schemas.Rect),
		values:    make(map[*html.Node]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse reads an HTML document and instantiates its declarative shadow roots.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	d := NewDocument(root, opts...)
	d.instantiateDeclarative(root, shadowdom.Engine{})
	return d, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

func (d *Document) instantiateDeclarative(n *html.Node, engine shadowdom.Engine) {
	if engine.DetectShadowHost(n) {
		if boundary, mode := engine.InstantiateShadowRoot(n); boundary != nil {
			d.AttachShadowRoot(n, boundary, mode)
			d.instantiateDeclarative(boundary, engine)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.instantiateDeclarative(c, engine)
	}
}

// AttachShadowRoot registers boundary as the shadow root of host.
func (d *Document) AttachShadowRoot(host, boundary *html.Node, mode shadowdom.Mode) *ShadowRoot {
	sr := &ShadowRoot{doc: d, node: boundary, host: host, mode: mode}
	d.shadows[host] = sr
	d.roots[boundary] = sr
	return sr
}

// SetRect records the client rect of n.
func (d *Document) SetRect(n *html.Node, r schemas.Rect) { d.rects[n] = r }

// SetViewport replaces the viewport.
func (d *Document) SetViewport(vp schemas.Viewport) { d.viewport = vp }

// SetInputValue records the live value of a form control.
func (d *Document) SetInputValue(n *html.Node, v string) { d.values[n] = v }

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Lookup returns the Element for n, the same value for every call.
func (d *Document) Lookup(n *html.Node) *Element {
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}

// -- probe.Document --

func (d *Document) QuerySelectorAll(selector string) ([]probe.Element, error) {
	return d.query(d.root, selector)
}

func (d *Document) Host() probe.Element { return nil }

func (d *Document) IsDocument() bool { return true }

func (d *Document) Body() probe.Element {
	if body := d.body(); body != nil {
		return d.Lookup(body)
	}
	return nil
}

func (d *Document) Viewport() schemas.Viewport { return d.viewport }

func (d *Document) body() *html.Node {
	return htmlquery.FindOne(d.root, "//body")
}

// Title returns the text of the document's title element.
func (d *Document) Title() string {
	if t := htmlquery.FindOne(d.root, "//head/title"); t != nil {
		return strings.TrimSpace(htmlquery.InnerText(t))
	}
	return ""
}

// Elements lists every element of the document in composed tree order: a
// host's shadow tree comes right after the host, before its light children.
func (d *Document) Elements() []*Element {
	var out []*Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			out = append(out, d.Lookup(c))
			if sr, ok := d.shadows[c]; ok {
				walk(sr.node)
			}
			walk(c)
		}
	}
	walk(d.root)
	return out
}

func (d *Document) query(n *html.Node, selector string) ([]probe.Element, error) {
	matcher, err := d.selectors.Compile(selector)
	if err != nil {
		return nil, err
	}
	nodes := goquery.NewDocumentFromNode(n).FindMatcher(matcher).Nodes
	out := make([]probe.Element, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, d.Lookup(node))
	}
	return out, nil
}

// rootOf returns the traversal root holding n.
func (d *Document) rootOf(n *html.Node) probe.Root {
	top := n
	for top.Parent != nil {
		top = top.Parent
	}
	if top == d.root {
		return d
	}
	if sr, ok := d.roots[top]; ok {
		return sr
	}
	// Detached subtree: a root without a host.
	return &ShadowRoot{doc: d, node: top}
}

// -- ShadowRoot --

// ShadowRoot is an attached shadow tree, or a detached subtree when it has no
// host.
type ShadowRoot struct {
	doc  *Document
	node *html.Node
	host *html.Node
	mode shadowdom.Mode
}

func (s *ShadowRoot) QuerySelectorAll(selector string) ([]probe.Element, error) {
	return s.doc.query(s.node, selector)
}

func (s *ShadowRoot) Host() probe.Element {
	if s.host == nil {
		return nil
	}
	return s.doc.Lookup(s.host)
}

func (s *ShadowRoot) IsDocument() bool { return false }

// Mode returns the encapsulation mode.
func (s *ShadowRoot) Mode() shadowdom.Mode { return s.mode }

// Node returns the boundary node holding the shadow tree.
func (s *ShadowRoot) Node() *html.Node { return s.node }
