// internal/probe/dom.go
package probe

import "github.com/xkilldash9x/scalpel-probe/api/schemas"

// Element is the view of a DOM element the extraction walk needs.
//
// Implementations must hand out one value per underlying node so that two
// lookups of the same node compare equal with ==. Hosts are deduplicated and
// the document body is recognized by identity.
type Element interface {
	// TagName returns the lower-cased tag name.
	TagName() string
	// ID returns the id attribute, or "" when absent.
	ID() string
	ClassList() []string
	// Attribute reports the attribute value and whether it is present.
	Attribute(name string) (string, bool)

	// ParentElement returns nil at the top of a tree, including directly
	// below a shadow root.
	ParentElement() Element
	// ChildIndex is the 1-based position among the element children of the
	// parent node, which may be a shadow root. Zero means detached.
	ChildIndex() int
	// RootNode returns the document or shadow root containing the element.
	RootNode() Root
	// ShadowRoot returns the open shadow root attached to the element, if any.
	ShadowRoot() Root

	BoundingClientRect() schemas.Rect
	InnerText() string
	// Href returns the resolved absolute URL for anchors.
	Href() string
	// InputType returns the effective input type, "text" when unset.
	InputType() string
	// Value returns the current form value.
	Value() string
}

// Root is a traversal root: the document or a shadow root.
type Root interface {
	// QuerySelectorAll returns the descendants matching selector in document
	// order. Malformed selectors produce an error.
	QuerySelectorAll(selector string) ([]Element, error)
	// Host returns the shadow host, or nil for the document and detached trees.
	Host() Element
	IsDocument() bool
}

// Document is the entry point of an extraction.
type Document interface {
	Root
	Body() Element
	Viewport() schemas.Viewport
}
