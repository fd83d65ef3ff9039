// internal/browser/driver.go
package browser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/cdpdriver"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/roddriver"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
)

// Driver is one browser tab driven over the DevTools protocol. Read calls
// such as Snapshot and Viewport may overlap; callers serialize everything
// that changes the page.
type Driver interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	SetViewport(ctx context.Context, width, height int) error
	// Snapshot returns the raw DOMSnapshot.captureSnapshot response with DOM
	// rects included.
	Snapshot(ctx context.Context) ([]byte, error)
	// Viewport reports the window metrics and scroll offsets.
	Viewport(ctx context.Context) (schemas.Viewport, error)
	// Evaluate runs a JavaScript expression and decodes its JSON value into
	// out, which may be nil.
	Evaluate(ctx context.Context, expression string, out interface{}) error
	// Screenshot captures the visible viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	ClickAt(ctx context.Context, x, y float64) error
	// InsertText types text into the focused element.
	InsertText(ctx context.Context, text string) error
	Close(ctx context.Context) error
}

var (
	_ Driver = (*cdpdriver.Driver)(nil)
	_ Driver = (*roddriver.Driver)(nil)
)

// NewDriver launches a browser with the configured driver.
func NewDriver(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Driver, error) {
	var (
		d   Driver
		err error
	)
	switch cfg.Driver {
	case config.DriverChromedp, "":
		d, err = newCDP(ctx, cfg, logger)
	case config.DriverRod:
		d, err = newRod(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s driver: %w", cfg.Driver, err)
	}
	return d, nil
}

// Launchers are variables so tests can replace them.
var (
	newCDP = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Driver, error) {
		d, err := cdpdriver.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	newRod = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Driver, error) {
		d, err := roddriver.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
)
