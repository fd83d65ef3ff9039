// internal/browser/cdpdriver/options.go
package cdpdriver

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/scalpel-probe/internal/config"
)

// DefaultAllocatorOptions builds the exec allocator options for cfg. The
// automation banner flag is never set.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
	}

	flags := launchFlags(cfg)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}
	return opts
}

// launchFlags returns the command line flags, keyed without the leading
// dashes. Boolean flags map to true.
func launchFlags(cfg config.BrowserConfig) map[string]interface{} {
	width, height := cfg.ViewportSize()
	flags := map[string]interface{}{
		"disable-dev-shm-usage": true,
		"window-size":           fmt.Sprintf("%d,%d", width, height),
	}

	if cfg.Headless {
		flags["headless"] = true
		flags["hide-scrollbars"] = true
		flags["mute-audio"] = true
	}
	if cfg.IgnoreTLSErrors {
		flags["ignore-certificate-errors"] = true
		flags["allow-insecure-localhost"] = true
	}
	// Containers rarely allow the sandbox's namespaces.
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
	}

	// key=value arguments carry a value, anything else is a switch.
	for _, arg := range cfg.Args {
		arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
		if arg == "" {
			continue
		}
		if key, value, found := strings.Cut(arg, "="); found {
			flags[key] = strings.Trim(value, `"'`)
		} else {
			flags[arg] = true
		}
	}
	delete(flags, "enable-automation")
	return flags
}
