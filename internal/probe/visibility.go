// internal/probe/visibility.go
package probe

import "github.com/xkilldash9x/scalpel-probe/api/schemas"

// IsPartiallyVisible reports whether the element's box has positive area and
// overlaps the viewport vertically while extending right of its left edge.
// The left edge is never compared against the viewport width. CSS level
// hiding (visibility, opacity) is not considered.
func IsPartiallyVisible(el Element, vp schemas.Viewport) bool {
	return rectIntersectsViewport(el.BoundingClientRect(), vp)
}

func rectIntersectsViewport(r schemas.Rect, vp schemas.Viewport) bool {
	return r.Width > 0 &&
		r.Height > 0 &&
		r.Bottom() > 0 &&
		r.Right() > 0 &&
		r.Top() < vp.Height
}
