// internal/browser/capture/build.go
package capture

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/dom"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/shadowdom"
)

// ErrNoDocumentNode is returned when the first snapshot node is not a document.
var ErrNoDocumentNode = errors.New("snapshot does not start with a document node")

// Build reconstructs the main document of a snapshot as a dom.Document.
//
// Elements keep their attributes, live form values and client rects (layout
// bounds minus the scroll offset). Open and closed shadow roots are attached
// to their hosts. Comments, doctypes, pseudo elements, user-agent shadow
// roots and any other fragments are dropped along with their subtrees. The
// viewport's scroll position is taken from the snapshot.
func Build(s *Snapshot, vp schemas.Viewport, opts ...dom.Option) (*dom.Document, error) {
	if s == nil || len(s.Documents) == 0 {
		return nil, ErrEmptySnapshot
	}
	ds := s.Documents[0]
	nt := ds.Nodes
	count := len(nt.NodeType)
	if count == 0 || nt.NodeType[0] != nodeDocument {
		return nil, ErrNoDocumentNode
	}

	vp.ScrollX, vp.ScrollY = ds.ScrollOffsetX, ds.ScrollOffsetY
	base := s.String(ds.BaseURL)
	if base == "" {
		base = s.URL()
	}

	root := &html.Node{Type: html.DocumentNode}
	doc := dom.NewDocument(root, append([]dom.Option{dom.WithBaseURL(base), dom.WithViewport(vp), dom.WithLayout()}, opts...)...)

	shadowTypes := nt.ShadowRootType.lookup(s)
	inputValues := nt.InputValue.lookup(s)
	textValues := nt.TextValue.lookup(s)

	// nodes[i] stays nil for anything dropped, which drops its subtree too.
	nodes := make([]*html.Node, count)
	nodes[0] = root
	for i := 1; i < count; i++ {
		p := at(nt.ParentIndex, i)
		if p < 0 || p >= count || nodes[p] == nil {
			continue
		}
		parent := nodes[p]

		switch nt.NodeType[i] {
		case nodeElement:
			name := strings.ToLower(s.String(at(nt.NodeName, i)))
			if name == "" || strings.HasPrefix(name, "::") {
				continue
			}
			el := &html.Node{
				Type:     html.ElementNode,
				DataAtom: atom.Lookup([]byte(name)),
				Data:     name,
				Attr:     attributes(s, nt, i),
			}
			parent.AppendChild(el)
			nodes[i] = el
			if v, ok := inputValues[i]; ok {
				doc.SetInputValue(el, v)
			} else if v, ok := textValues[i]; ok {
				doc.SetInputValue(el, v)
			}

		case nodeText:
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: s.String(at(nt.NodeValue, i))})

		case nodeDocumentFragment:
			mode, ok := shadowdom.ParseMode(shadowTypes[i])
			if !ok || parent.Type != html.ElementNode {
				continue
			}
			boundary := shadowdom.NewBoundary()
			doc.AttachShadowRoot(parent, boundary, mode)
			nodes[i] = boundary

		case nodeComment, nodeDocumentType, nodeDocument:
			// Not part of the element tree.
		}
	}

	bounds := ds.Layout.Bounds
	for li, ni := range ds.Layout.NodeIndex {
		if ni < 0 || ni >= count || li >= len(bounds) || len(bounds[li]) < 4 {
			continue
		}
		n := nodes[ni]
		if n == nil || n.Type != html.ElementNode || shadowdom.IsBoundary(n) {
			continue
		}
		b := bounds[li]
		doc.SetRect(n, schemas.Rect{
			X:      b[0] - ds.ScrollOffsetX,
			Y:      b[1] - ds.ScrollOffsetY,
			Width:  b[2],
			Height: b[3],
		})
	}
	return doc, nil
}

// attributes decodes the pairwise name/value indices of node i.
func attributes(s *Snapshot, nt NodeTree, i int) []html.Attribute {
	if i >= len(nt.Attributes) {
		return nil
	}
	pairs := nt.Attributes[i]
	attrs := make([]html.Attribute, 0, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name := s.String(pairs[j])
		if name == "" {
			continue
		}
		attrs = append(attrs, html.Attribute{Key: name, Val: s.String(pairs[j+1])})
	}
	return attrs
}
