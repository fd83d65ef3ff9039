// internal/browser/roddriver/driver.go
package roddriver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("browser driver is closed")

const viewportFunc = `() => ({innerWidth: window.innerWidth, innerHeight: window.innerHeight, scrollX: window.scrollX, scrollY: window.scrollY})`

// Driver controls a single page of a browser started by rod's launcher.
type Driver struct {
	cfg      config.BrowserConfig
	logger   *zap.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	mu     sync.Mutex
	closed bool
}

// New launches a browser and opens a blank page.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("rod_driver")

	l := newLauncher(cfg)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	// Detach from the launch context; Close ends the browser.
	browser = browser.Context(context.Background())

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	d := &Driver{cfg: cfg, logger: logger, launcher: l, browser: browser, page: page}
	width, height := cfg.ViewportSize()
	if err := d.SetViewport(ctx, width, height); err != nil {
		d.logger.Warn("Could not apply viewport.", zap.Error(err))
	}
	d.logger.Info("Browser started.", zap.Bool("headless", cfg.Headless))
	return d, nil
}

// newLauncher translates cfg into launcher flags.
func newLauncher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().Headless(cfg.Headless)
	if path, found := launcher.LookPath(); found {
		l = l.Bin(path)
	}

	width, height := cfg.ViewportSize()
	l = l.Set("window-size", fmt.Sprintf("%d,%d", width, height)).
		Set("disable-dev-shm-usage")
	if cfg.IgnoreTLSErrors {
		l = l.Set("ignore-certificate-errors").Set("allow-insecure-localhost")
	}
	if runtime.GOOS == "linux" {
		l = l.NoSandbox(true)
	}
	for _, arg := range cfg.Args {
		arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
		if arg == "" {
			continue
		}
		if key, value, found := strings.Cut(arg, "="); found {
			l = l.Set(flags.Flag(key), strings.Trim(value, `"'`))
		} else {
			l = l.Set(flags.Flag(arg))
		}
	}
	return l.Delete("enable-automation")
}

// pageFor returns the page bound to ctx.
func (d *Driver) pageFor(ctx context.Context) (*rod.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return d.page.Context(ctx), nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if timeout := d.cfg.NavigationTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for load of %s: %w", url, err)
	}
	return nil
}

func (d *Driver) SetViewport(ctx context.Context, width, height int) error {
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	return page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

func (d *Driver) Snapshot(ctx context.Context) ([]byte, error) {
	page, err := d.pageFor(ctx)
	if err != nil {
		return nil, err
	}
	res, err := proto.DOMSnapshotCaptureSnapshot{
		ComputedStyles:  []string{},
		IncludeDOMRects: true,
	}.Call(page)
	if err != nil {
		return nil, fmt.Errorf("failed to capture DOM snapshot: %w", err)
	}
	return json.Marshal(res)
}

func (d *Driver) Viewport(ctx context.Context) (schemas.Viewport, error) {
	var vp schemas.Viewport
	if err := d.eval(ctx, viewportFunc, &vp); err != nil {
		return vp, fmt.Errorf("failed to read viewport: %w", err)
	}
	return vp, nil
}

// Evaluate wraps the expression in a function, as rod evaluates functions.
func (d *Driver) Evaluate(ctx context.Context, expression string, out interface{}) error {
	return d.eval(ctx, "() => ("+expression+")", out)
}

func (d *Driver) eval(ctx context.Context, fn string, out interface{}) error {
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	res, err := page.Eval(fn)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.UnmarshalFromString(res.Value.JSON("", ""), out); err != nil {
		return fmt.Errorf("failed to decode evaluation result: %w", err)
	}
	return nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	page, err := d.pageFor(ctx)
	if err != nil {
		return nil, err
	}
	buf, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *Driver) ClickAt(ctx context.Context, x, y float64) error {
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	if err := page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return err
	}
	return page.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

func (d *Driver) InsertText(ctx context.Context, text string) error {
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	return page.InsertText(text)
}

// Close closes the browser and removes its profile directory.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	err := d.browser.Context(ctx).Close()
	d.launcher.Kill()
	d.launcher.Cleanup()
	d.logger.Debug("Browser stopped.")
	return err
}
