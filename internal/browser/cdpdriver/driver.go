// internal/browser/cdpdriver/driver.go
package cdpdriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/domsnapshot"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 15 * time.Second

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("browser driver is closed")

// ViewportScript reads the window metrics as a schemas.Viewport.
const ViewportScript = `({innerWidth: window.innerWidth, innerHeight: window.innerHeight, scrollX: window.scrollX, scrollY: window.scrollY})`

// Driver controls a single tab of a browser launched through chromedp's
// exec allocator.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// New launches the browser and opens its first tab. The browser outlives
// ctx; it is stopped by Close.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("cdp_driver")

	allocCtx, allocCancel := chromedp.NewExecAllocator(valueOnlyContext{ctx}, DefaultAllocatorOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Debugf),
	)

	d := &Driver{
		cfg:         cfg,
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}

	// The first Run on the tab context allocates the browser; it has to use
	// that context itself so the process is tied to the allocator, not ctx.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			d.cancelAll()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-ctx.Done():
		d.cancelAll()
		<-started
		return nil, ctx.Err()
	}

	width, height := cfg.ViewportSize()
	if err := d.SetViewport(ctx, width, height); err != nil {
		d.logger.Warn("Could not apply viewport.", zap.Error(err))
	}
	d.logger.Info("Browser started.", zap.Bool("headless", cfg.Headless))
	return d, nil
}

func (d *Driver) cancelAll() {
	d.tabCancel()
	d.allocCancel()
}

// run executes actions on the tab, bounded by ctx.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}
	runCtx, cancel := CombineContext(d.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if timeout := d.cfg.NavigationTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Driver) SetViewport(ctx context.Context, width, height int) error {
	return d.run(ctx, chromedp.EmulateViewport(int64(width), int64(height)))
}

// snapshotResult mirrors the captureSnapshot response layout.
type snapshotResult struct {
	Documents []*domsnapshot.DocumentSnapshot `json:"documents"`
	Strings   []string                        `json:"strings"`
}

func (d *Driver) Snapshot(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		docs, strs, err := domsnapshot.CaptureSnapshot([]string{}).
			WithIncludeDOMRects(true).
			Do(ctx)
		if err != nil {
			return err
		}
		raw, err = json.Marshal(snapshotResult{Documents: docs, Strings: strs})
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to capture DOM snapshot: %w", err)
	}
	return raw, nil
}

func (d *Driver) Viewport(ctx context.Context) (schemas.Viewport, error) {
	var vp schemas.Viewport
	if err := d.Evaluate(ctx, ViewportScript, &vp); err != nil {
		return vp, fmt.Errorf("failed to read viewport: %w", err)
	}
	return vp, nil
}

func (d *Driver) Evaluate(ctx context.Context, expression string, out interface{}) error {
	if out == nil {
		var discard []byte
		return d.run(ctx, chromedp.Evaluate(expression, &discard))
	}
	return d.run(ctx, chromedp.Evaluate(expression, out))
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *Driver) ClickAt(ctx context.Context, x, y float64) error {
	return d.run(ctx, chromedp.MouseClickXY(x, y))
}

func (d *Driver) InsertText(ctx context.Context, text string) error {
	return d.run(ctx, input.InsertText(text))
}

// Close stops the browser. It waits up to ctx's deadline for a graceful
// shutdown before killing the process.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(valueOnlyContext{ctx}, shutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(d.tabCtx) }()

	var err error
	select {
	case err = <-done:
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	case <-ctx.Done():
		err = ctx.Err()
	case <-shutdownCtx.Done():
		d.logger.Warn("Browser shutdown timed out, killing the process.")
	}
	d.cancelAll()
	d.logger.Debug("Browser stopped.")
	return err
}
