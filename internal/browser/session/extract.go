// internal/browser/session/extract.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/annotate"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/dom"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/shim"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

// PageOverlay collects the highlights of an annotated walk so they can be
// drawn into the live page in a single script.
type PageOverlay struct {
	highlights []schemas.Highlight
}

func (o *PageOverlay) Draw(h schemas.Highlight) {
	o.highlights = append(o.highlights, h)
}

// Highlights returns what was drawn, in walk order.
func (o *PageOverlay) Highlights() []schemas.Highlight { return o.highlights }

type drawnHighlight struct {
	ID         int    `json:"id"`
	BoxStyle   string `json:"boxStyle"`
	LabelStyle string `json:"labelStyle"`
}

type drawArgs struct {
	ContainerID    string           `json:"containerId"`
	ContainerStyle string           `json:"containerStyle"`
	Highlights     []drawnHighlight `json:"highlights"`
}

type containerArgs struct {
	ContainerID string `json:"containerId"`
}

// Extract captures the page and returns its visible interactive elements.
// Any overlay left by an earlier run is removed first so it neither shows up
// in the records nor shifts positional selectors. With annotate the new
// highlights are drawn into the page once the walk is done.
func (s *Session) Extract(ctx context.Context, annotated bool) (*schemas.ExtractionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearOverlay(ctx); err != nil {
		return nil, err
	}
	doc, snap, err := s.capture(ctx)
	if err != nil {
		return nil, err
	}

	overlay := &PageOverlay{}
	extractor := probe.NewExtractor(probe.Options{
		Annotate:  annotated,
		Overlay:   overlay,
		IndexMode: s.indexMode,
		Selectors: s.cfg.Probe().Selectors,
		Logger:    s.logger,
	})
	records, err := extractor.Extract(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract elements: %w", err)
	}

	if annotated {
		if err := s.drawHighlights(ctx, overlay.Highlights()); err != nil {
			return nil, err
		}
	}

	result := &schemas.ExtractionResult{
		RunID:      uuid.New().String(),
		URL:        snap.URL(),
		Title:      snap.Title(),
		Annotated:  annotated,
		CapturedAt: time.Now().UTC(),
		Elements:   records,
	}
	s.doc = doc
	s.last = result
	s.highlights = overlay.Highlights()

	s.logger.Info("Extracted interactive elements.",
		zap.String("run_id", result.RunID),
		zap.String("url", result.URL),
		zap.Int("elements", len(records)),
		zap.Bool("annotated", annotated))
	return result, nil
}

func (s *Session) drawHighlights(ctx context.Context, highlights []schemas.Highlight) error {
	args := drawArgs{
		ContainerID:    probe.ContainerID,
		ContainerStyle: probe.ContainerStyle,
		Highlights:     make([]drawnHighlight, 0, len(highlights)),
	}
	for _, h := range highlights {
		args.Highlights = append(args.Highlights, drawnHighlight{
			ID:         h.ID,
			BoxStyle:   probe.BoxStyle(h),
			LabelStyle: probe.LabelStyle(h),
		})
	}
	script, err := shim.Script(shim.DrawHighlights, args)
	if err != nil {
		return err
	}
	var drawn int
	if err := s.driver.Evaluate(ctx, script, &drawn); err != nil {
		return fmt.Errorf("failed to draw highlights: %w", err)
	}
	if drawn < 0 {
		s.logger.Warn("Page has no body, highlights were not drawn.")
		return nil
	}
	s.overlayLive = true
	s.logger.Debug("Highlights drawn.", zap.Int("count", drawn))
	return nil
}

// ClearOverlay removes the highlight container from the page, if present.
func (s *Session) ClearOverlay(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearOverlay(ctx)
}

func (s *Session) clearOverlay(ctx context.Context) error {
	script, err := shim.Script(shim.ClearOverlay, containerArgs{ContainerID: probe.ContainerID})
	if err != nil {
		return err
	}
	var removed bool
	if err := s.driver.Evaluate(ctx, script, &removed); err != nil {
		return fmt.Errorf("failed to clear overlay: %w", err)
	}
	s.overlayLive = false
	if removed {
		s.logger.Debug("Overlay removed.")
	}
	return nil
}

// Screenshot captures the viewport as PNG. When the last extraction was
// annotated but its overlay is no longer in the page, the highlights are
// painted onto the image instead. Wide images are downscaled to the
// configured maximum width.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := s.driver.Screenshot(ctx)
	if err != nil {
		return nil, err
	}

	var paint []schemas.Highlight
	if s.last != nil && s.last.Annotated && !s.overlayLive {
		paint = s.highlights
	}
	maxWidth := s.cfg.Output().ScreenshotMaxWidth
	if len(paint) == 0 && maxWidth == 0 {
		return img, nil
	}

	var vp schemas.Viewport
	if len(paint) > 0 {
		if vp, err = s.driver.Viewport(ctx); err != nil {
			return nil, err
		}
	}
	return annotate.Annotate(img, paint, vp, annotate.Options{MaxWidth: maxWidth})
}

// Markdown returns the content of the page as markdown. The document of the
// last extraction is reused; without one the page is captured first.
func (s *Session) Markdown(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.doc
	if doc == nil {
		var err error
		if doc, _, err = s.capture(ctx); err != nil {
			return "", err
		}
	}
	out, err := doc.Markdown(dom.MarkdownOptions{MaxChars: s.cfg.Output().MarkdownMaxChars})
	if err != nil {
		return "", err
	}
	s.logger.Debug("Markdown extracted.", zap.Int("chars", len(out)))
	return out, nil
}
