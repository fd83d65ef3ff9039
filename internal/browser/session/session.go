// internal/browser/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/browser"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/capture"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/dom"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

var (
	// ErrUnsupportedTag is returned when asked to interact with an element
	// that is neither clicked nor filled.
	ErrUnsupportedTag = errors.New("unsupported element tag for interaction")
	// ErrMissingArguments is returned when an input is filled without text.
	ErrMissingArguments = errors.New("arguments are required to fill an input")
	// ErrUnknownElement is returned for an id absent from the last extraction.
	ErrUnknownElement = errors.New("no element with this id in the last extraction")
	// ErrNoExtraction is returned when an operation needs a prior extraction.
	ErrNoExtraction = errors.New("no extraction has been run on the current page")
)

// Session drives one page: it loads URLs, extracts interactive elements,
// keeps the page overlay in sync and performs interactions. All operations
// are serialized.
type Session struct {
	driver browser.Driver
	cfg    config.Interface
	logger *zap.Logger

	selectors *dom.SelectorCache
	indexMode probe.IndexMode

	mu sync.Mutex
	// State of the current page, reset on navigation.
	doc         *dom.Document
	last        *schemas.ExtractionResult
	highlights  []schemas.Highlight
	overlayLive bool
}

// New creates a session on top of a launched driver. The session does not
// own the driver; callers close it.
func New(driver browser.Driver, cfg config.Interface, logger *zap.Logger) (*Session, error) {
	if driver == nil {
		return nil, fmt.Errorf("session requires a browser driver")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	mode, err := probe.ParseIndexMode(cfg.Probe().IndexMode)
	if err != nil {
		return nil, err
	}
	size := cfg.Probe().SelectorCacheSize
	if size <= 0 {
		size = dom.DefaultSelectorCacheSize
	}
	cache, err := dom.NewSelectorCache(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create selector cache: %w", err)
	}
	return &Session{
		driver:    driver,
		cfg:       cfg,
		logger:    logger.Named("session"),
		selectors: cache,
		indexMode: mode,
	}, nil
}

// Navigate loads url and waits for the configured post load delay.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.logger.Info("Navigating.", zap.String("url", url))
	if err := s.driver.Navigate(ctx, url); err != nil {
		return err
	}
	return sleep(ctx, s.cfg.Browser().PostLoadWait)
}

func (s *Session) reset() {
	s.doc = nil
	s.last = nil
	s.highlights = nil
	s.overlayLive = false
}

// Capture snapshots the page into an in-memory document.
func (s *Session) Capture(ctx context.Context) (*dom.Document, *capture.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture(ctx)
}

// capture fetches the DOM snapshot and the window metrics concurrently.
func (s *Session) capture(ctx context.Context) (*dom.Document, *capture.Snapshot, error) {
	var (
		raw []byte
		vp  schemas.Viewport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = s.driver.Snapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		vp, err = s.driver.Viewport(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to capture page: %w", err)
	}

	snap, err := capture.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	doc, err := capture.Build(snap, vp, dom.WithSelectorCache(s.selectors))
	if err != nil {
		return nil, nil, err
	}
	return doc, snap, nil
}

// LastExtraction returns the result of the most recent extraction on the
// current page, or nil.
func (s *Session) LastExtraction() *schemas.ExtractionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// sleep waits for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
