// internal/probe/overlay.go
package probe

import (
	"fmt"
	"strconv"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
)

// Overlay receives one highlight per extracted element during an annotated
// run. Drawing is a side effect only; it never feeds back into the records.
type Overlay interface {
	Draw(h schemas.Highlight)
}

const (
	// ContainerID is the id of the page wide highlight container.
	ContainerID = "highlight-container"
	// LabelOffset lifts the index label above its box.
	LabelOffset = 20
)

// ContainerStyle positions the container over the whole page without
// intercepting input.
const ContainerStyle = "position: absolute; top: 0; left: 0; width: 100%; height: 100%; " +
	"pointer-events: none; z-index: 2147483647;"

// HighlightFor converts a client rect into page coordinates for drawing.
func HighlightFor(id int, r schemas.Rect, vp schemas.Viewport) schemas.Highlight {
	box := r.Translate(vp.ScrollX, vp.ScrollY)
	return schemas.Highlight{
		ID:        id,
		Box:       box,
		LabelTop:  box.Y - LabelOffset,
		LabelLeft: box.X,
	}
}

// BoxStyle is the inline style of a highlight rectangle.
func BoxStyle(h schemas.Highlight) string {
	return fmt.Sprintf("position: absolute; border: 2px solid blue; top: %spx; left: %spx; width: %spx; height: %spx; "+
		"background-color: rgba(0, 0, 255, 0.2); box-shadow: 0 0 10px rgba(0, 0, 255, 0.5);",
		px(h.Box.Y), px(h.Box.X), px(h.Box.Width), px(h.Box.Height))
}

// LabelStyle is the inline style of the index label drawn above a box.
func LabelStyle(h schemas.Highlight) string {
	return fmt.Sprintf("position: absolute; color: white; background-color: blue; padding: 2px 4px; "+
		"border-radius: 3px; font-size: 12px; top: %spx; left: %spx; z-index: 2147483648;",
		px(h.LabelTop), px(h.LabelLeft))
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
