// browser/dom/overlay.go
package dom

import (
	"errors"
	"strconv"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

// ErrNoBody is returned when the overlay container has nowhere to live.
var ErrNoBody = errors.New("document has no body")

// OverlayContainer is the page wide element highlights are appended to.
// There is at most one per document.
type OverlayContainer struct {
	doc  *Document
	node *html.Node
}

// EnsureOverlayContainer returns the document's overlay container, creating
// it as the first child of body on first use. An existing element with the
// container id is adopted rather than duplicated.
func (d *Document) EnsureOverlayContainer() (*OverlayContainer, error) {
	d.overlayMu.Lock()
	defer d.overlayMu.Unlock()

	if d.overlay != nil && d.attached(d.overlay.node) {
		return d.overlay, nil
	}

	if existing := htmlquery.FindOne(d.root, "//*[@id='"+probe.ContainerID+"']"); existing != nil {
		d.overlay = &OverlayContainer{doc: d, node: existing}
		return d.overlay, nil
	}

	body := d.body()
	if body == nil {
		return nil, ErrNoBody
	}
	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "id", Val: probe.ContainerID},
			{Key: "style", Val: probe.ContainerStyle},
		},
	}
	body.InsertBefore(node, body.FirstChild)
	d.overlay = &OverlayContainer{doc: d, node: node}
	return d.overlay, nil
}

func (d *Document) attached(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// Node returns the container element.
func (c *OverlayContainer) Node() *html.Node { return c.node }

// Len counts the overlay elements drawn so far, boxes and labels alike.
func (c *OverlayContainer) Len() int {
	n := 0
	for child := c.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			n++
		}
	}
	return n
}

// Remove detaches the container. The next EnsureOverlayContainer call
// creates a fresh one.
func (c *OverlayContainer) Remove() {
	if p := c.node.Parent; p != nil {
		p.RemoveChild(c.node)
	}
}

// Overlay draws highlights into an OverlayContainer. It implements
// probe.Overlay.
type Overlay struct {
	container *OverlayContainer
}

// NewOverlay returns an Overlay drawing into container.
func NewOverlay(container *OverlayContainer) *Overlay {
	return &Overlay{container: container}
}

// Draw appends a box and an index label for h.
func (o *Overlay) Draw(h schemas.Highlight) {
	box := newDiv(probe.BoxStyle(h))
	label := newDiv(probe.LabelStyle(h))
	label.AppendChild(&html.Node{Type: html.TextNode, Data: strconv.Itoa(h.ID)})

	o.container.node.AppendChild(box)
	o.container.node.AppendChild(label)
}

func newDiv(style string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "style", Val: style}},
	}
}
