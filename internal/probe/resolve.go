// internal/probe/resolve.go
package probe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSelector = errors.New("invalid selector")
	ErrNotFound        = errors.New("no element matches selector")
	ErrNoShadowRoot    = errors.New("element has no open shadow root")
	ErrAmbiguous       = errors.New("selector matches more than one element")
)

// SplitShadowPath splits a selector produced by SelectorFor into one selector
// per tree, outermost first.
func SplitShadowPath(selector string) []string {
	var segments []string
	for _, seg := range strings.Split(selector, strings.TrimSpace(ShadowSeparator)) {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Resolve locates the element a selector refers to, descending through the
// shadow root of each host segment. Every segment has to match exactly one
// element in its tree.
func Resolve(doc Document, selector string) (Element, error) {
	segments := SplitShadowPath(selector)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}

	var root Root = doc
	for i, seg := range segments {
		matches, err := root.QuerySelectorAll(seg)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, seg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, seg)
		}
		if len(matches) > 1 {
			return nil, fmt.Errorf("%w: %q (%d matches)", ErrAmbiguous, seg, len(matches))
		}
		el := matches[0]
		if i == len(segments)-1 {
			return el, nil
		}
		next := el.ShadowRoot()
		if next == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoShadowRoot, seg)
		}
		root = next
	}
	// Unreachable: the loop returns on its last segment.
	return nil, fmt.Errorf("%w: %q", ErrNotFound, selector)
}
