// internal/annotate/annotate.go
package annotate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
)

// ErrEmptyImage is returned for a screenshot with no pixels.
var ErrEmptyImage = errors.New("screenshot has no pixels")

var (
	boxStroke = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	boxFill   = color.NRGBA{R: 0, G: 0, B: 255, A: 51}
	labelText = color.White
)

const (
	strokeWidth = 2
	labelPadX   = 4
	labelPadY   = 2
)

// Options controls how a screenshot is annotated.
type Options struct {
	// MaxWidth downscales the result when it is wider. Zero keeps the size.
	MaxWidth uint
}

// Annotate draws the highlight boxes and their index labels onto a PNG
// screenshot of the viewport and returns the re-encoded image. Highlights
// are in page coordinates; vp's scroll offsets bring them into the frame.
func Annotate(screenshot []byte, highlights []schemas.Highlight, vp schemas.Viewport, opts Options) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmptyImage
	}

	dc := gg.NewContextForImage(img)
	for _, h := range highlights {
		drawHighlight(dc, h, vp)
	}

	out := dc.Image()
	out = Downscale(out, opts.MaxWidth)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode annotated screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

func drawHighlight(dc *gg.Context, h schemas.Highlight, vp schemas.Viewport) {
	box := h.Box.Translate(-vp.ScrollX, -vp.ScrollY)

	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	dc.SetColor(boxFill)
	dc.FillPreserve()
	dc.SetColor(boxStroke)
	dc.SetLineWidth(strokeWidth)
	dc.Stroke()

	label := strconv.Itoa(h.ID)
	tw, th := dc.MeasureString(label)
	lx := h.LabelLeft - vp.ScrollX
	ly := h.LabelTop - vp.ScrollY
	// Keep labels of boxes at the top edge inside the frame.
	if ly < 0 {
		ly = box.Y
	}
	dc.DrawRectangle(lx, ly, tw+2*labelPadX, th+2*labelPadY)
	dc.SetColor(boxStroke)
	dc.Fill()
	dc.SetColor(labelText)
	dc.DrawStringAnchored(label, lx+labelPadX, ly+labelPadY, 0, 1)
}

// Downscale shrinks img to maxWidth, keeping the aspect ratio. Images that
// already fit and a zero maxWidth are returned unchanged.
func Downscale(img image.Image, maxWidth uint) image.Image {
	if maxWidth == 0 || uint(img.Bounds().Dx()) <= maxWidth {
		return img
	}
	return resize.Resize(maxWidth, 0, img, resize.Lanczos3)
}
