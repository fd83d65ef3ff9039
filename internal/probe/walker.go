// internal/probe/walker.go
package probe

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"go.uber.org/zap"
)

// DefaultSelectors is the list of interactive element selectors queried in
// every traversal root.
var DefaultSelectors = []string{"button", "a", "input", "select", "textarea", `[role="button"]`}

// IndexMode controls how the id counter moves across shadow roots.
type IndexMode string

const (
	// IndexShared threads one counter through the whole walk, so ids are
	// strictly increasing and unique.
	IndexShared IndexMode = "shared"
	// IndexPerRoot hands each shadow root a copy of the counter and discards
	// what it advanced to. Sibling shadow roots then reuse the same ids.
	IndexPerRoot IndexMode = "per-root"
)

// ParseIndexMode maps a configuration value to an IndexMode.
func ParseIndexMode(s string) (IndexMode, error) {
	switch IndexMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", IndexShared:
		return IndexShared, nil
	case IndexPerRoot:
		return IndexPerRoot, nil
	default:
		return "", fmt.Errorf("unknown index mode %q", s)
	}
}

// Options configures an Extractor.
type Options struct {
	// Annotate makes the walk report a highlight per record to Overlay.
	Annotate bool
	Overlay  Overlay
	// IndexMode defaults to IndexShared.
	IndexMode IndexMode
	// Selectors defaults to DefaultSelectors.
	Selectors []string
	Logger    *zap.Logger
}

// Extractor walks a document and its shadow trees for interactive elements.
type Extractor struct {
	opts   Options
	query  string
	logger *zap.Logger
}

// NewExtractor creates an Extractor, filling in defaults for unset options.
func NewExtractor(opts Options) *Extractor {
	if len(opts.Selectors) == 0 {
		opts.Selectors = DefaultSelectors
	}
	if opts.IndexMode == "" {
		opts.IndexMode = IndexShared
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		opts:   opts,
		query:  strings.Join(opts.Selectors, ", "),
		logger: logger.Named("extractor"),
	}
}

// walk carries the state of one extraction.
type walk struct {
	*Extractor
	synth   *Synthesizer
	vp      schemas.Viewport
	records []schemas.ElementRecord
}

// Extract returns the visible interactive elements of doc. Matches of each
// root come in document order, followed by the contents of the shadow roots
// found under that root. The only failure is a selector list the DOM rejects.
func (e *Extractor) Extract(doc Document) ([]schemas.ElementRecord, error) {
	w := &walk{
		Extractor: e,
		synth:     NewSynthesizer(doc),
		vp:        doc.Viewport(),
		records:   []schemas.ElementRecord{},
	}
	if _, err := w.processRoot(doc, 0, 0); err != nil {
		return nil, err
	}
	e.logger.Debug("Extraction finished.",
		zap.Int("records", len(w.records)),
		zap.String("index_mode", string(e.opts.IndexMode)))
	return w.records, nil
}

// processRoot handles one traversal root and returns the counter value after
// it and everything below it.
func (w *walk) processRoot(root Root, index, depth int) (int, error) {
	matches, err := root.QuerySelectorAll(w.query)
	if err != nil {
		return index, fmt.Errorf("querying %q: %w", w.query, err)
	}

	visible := 0
	for _, el := range matches {
		if !IsPartiallyVisible(el, w.vp) {
			continue
		}
		rec := newRecord(el, index, w.synth.SelectorFor(el, true))
		if w.opts.Annotate && w.opts.Overlay != nil {
			w.opts.Overlay.Draw(HighlightFor(index, el.BoundingClientRect(), w.vp))
		}
		w.records = append(w.records, rec)
		index++
		visible++
	}
	w.logger.Debug("Processed traversal root.",
		zap.Int("depth", depth),
		zap.Int("matches", len(matches)),
		zap.Int("visible", visible))

	// "*" is always valid, an error here means the root itself is broken.
	descendants, err := root.QuerySelectorAll("*")
	if err != nil {
		return index, fmt.Errorf("listing shadow hosts: %w", err)
	}
	for _, el := range descendants {
		shadow := el.ShadowRoot()
		if shadow == nil {
			continue
		}
		next, err := w.processRoot(shadow, index, depth+1)
		if err != nil {
			return index, err
		}
		if w.opts.IndexMode == IndexShared {
			index = next
		}
	}
	return index, nil
}
