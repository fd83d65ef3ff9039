// internal/probe/selector.go
package probe

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// ChildSeparator joins the segments of a path inside one tree.
	ChildSeparator = " > "
	// ShadowSeparator joins host selectors across shadow boundaries.
	ShadowSeparator = " >>> "
)

// classToken matches class names that can be used verbatim in a selector.
var classToken = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Synthesizer builds re-locating selectors for the elements of one document.
type Synthesizer struct {
	body Element
}

// NewSynthesizer prepares a synthesizer for doc. The document body bounds
// every ancestor walk.
func NewSynthesizer(doc Document) *Synthesizer {
	return &Synthesizer{body: doc.Body()}
}

// SelectorFor returns a selector for el. An id yields "#id" directly;
// otherwise the ancestors are walked up to the body or the nearest ancestor
// with an id, each contributing a unique class or an nth-child position. A
// light DOM path that is still ambiguous at the body is anchored with
// "body > ".
// With includeShadowPath the chain of shadow hosts is prepended.
func (s *Synthesizer) SelectorFor(el Element, includeShadowPath bool) string {
	path := s.pathFor(el)
	if !includeShadowPath {
		return path
	}
	return JoinShadowPath(s.ShadowPathFor(el), path)
}

func (s *Synthesizer) pathFor(el Element) string {
	if id := el.ID(); id != "" {
		return "#" + id
	}

	// Uniqueness is judged within the tree that holds el; the ancestor walk
	// never leaves it.
	root := el.RootNode()

	var parts []string
	reachedBody := false
	for current := el; current != nil; current = current.ParentElement() {
		if current == s.body {
			reachedBody = true
			break
		}
		if id := current.ID(); id != "" {
			parts = append([]string{"#" + id}, parts...)
			break
		}
		if seg := s.segmentFor(root, current, parts); seg != "" {
			parts = append([]string{seg}, parts...)
		}
	}
	path := strings.Join(parts, ChildSeparator)

	// A positional path that stops below the body can also match deeper in
	// the document; anchoring it at the body pins it to el.
	if reachedBody && path != "" && root != nil && root.IsDocument() && !IsUniqueSelector(root, path) {
		path = "body" + ChildSeparator + path
	}
	return path
}

// segmentFor picks the first class that makes the path unique, falling back
// to the element's position among its siblings. Detached elements contribute
// nothing.
func (s *Synthesizer) segmentFor(root Root, el Element, suffix []string) string {
	idx := el.ChildIndex()
	if idx <= 0 {
		return ""
	}
	for _, cls := range el.ClassList() {
		if !classToken.MatchString(cls) {
			continue
		}
		candidate := "." + cls
		if IsUniqueSelector(root, joinSegments(candidate, suffix)) {
			return candidate
		}
	}
	return fmt.Sprintf("%s:nth-child(%d)", el.TagName(), idx)
}

func joinSegments(head string, tail []string) string {
	if len(tail) == 0 {
		return head
	}
	return head + ChildSeparator + strings.Join(tail, ChildSeparator)
}

// ShadowPathFor returns the selectors of the shadow hosts enclosing el,
// outermost first and joined with " >>> ". It is empty for light DOM elements.
func (s *Synthesizer) ShadowPathFor(el Element) string {
	var hosts []string
	seen := make(map[Element]struct{})

	for current := el; current != nil; {
		root := current.RootNode()
		inShadow := root != nil && !root.IsDocument()

		if inShadow {
			if host := root.Host(); host != nil {
				if _, dup := seen[host]; !dup {
					if id := host.ID(); id != "" {
						hosts = append([]string{"#" + id}, hosts...)
						seen[host] = struct{}{}
					} else if sel := s.SelectorFor(host, false); !contains(hosts, sel) {
						hosts = append([]string{sel}, hosts...)
						seen[host] = struct{}{}
					}
				}
			}
		}

		next := current.ParentElement()
		if next == nil && inShadow {
			next = root.Host()
		}
		current = next
	}
	return strings.Join(hosts, ShadowSeparator)
}

// JoinShadowPath prefixes path with a shadow host chain.
func JoinShadowPath(shadowPath, path string) string {
	switch {
	case shadowPath == "":
		return path
	case path == "":
		return shadowPath
	default:
		return shadowPath + ShadowSeparator + path
	}
}

// IsUniqueSelector reports whether selector matches exactly one element under
// root. It never fails: malformed selectors and query errors count as not
// unique.
func IsUniqueSelector(root Root, selector string) (unique bool) {
	if root == nil || strings.TrimSpace(selector) == "" {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			unique = false
		}
	}()
	matches, err := root.QuerySelectorAll(selector)
	return err == nil && len(matches) == 1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
