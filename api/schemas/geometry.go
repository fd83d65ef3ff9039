package schemas

// Rect is an axis aligned box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Top() float64    { return r.Y }
func (r Rect) Left() float64   { return r.X }
func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Right() float64  { return r.X + r.Width }

// Center returns the midpoint of the box.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Translate returns the box shifted by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Viewport carries the visible area of a document and its scroll offsets.
type Viewport struct {
	Width   float64 `json:"innerWidth"`
	Height  float64 `json:"innerHeight"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

// Highlight is an overlay box drawn for an extracted element, in page coordinates.
type Highlight struct {
	ID        int     `json:"id"`
	Box       Rect    `json:"box"`
	LabelTop  float64 `json:"labelTop"`
	LabelLeft float64 `json:"labelLeft"`
}
