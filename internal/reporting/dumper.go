// internal/reporting/dumper.go
package reporting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
)

// Dumper writes the per step artifacts of a run into an output folder:
//
//	interactive_elements_<step>.json
//	interactive_elements_minified_<step>.json
//	screenshot_<step>.png
//	markdown_<step>.md
//
// The folder is created on the first write.
type Dumper struct {
	dir    string
	format string
	logger *zap.Logger

	mu      sync.Mutex
	created bool
}

// NewDumper creates a Dumper for the output section of the configuration.
func NewDumper(cfg config.OutputConfig, logger *zap.Logger) *Dumper {
	if logger == nil {
		logger = zap.NewNop()
	}
	format := cfg.Format
	if format == "" {
		format = config.FormatBoth
	}
	return &Dumper{dir: cfg.Dir, format: format, logger: logger.Named("dumper")}
}

// Dir returns the output folder.
func (d *Dumper) Dir() string { return d.dir }

func (d *Dumper) ensureDir() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.created {
		return nil
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder %s: %w", d.dir, err)
	}
	d.created = true
	return nil
}

// ElementsPath is the path of the full element dump of a step.
func (d *Dumper) ElementsPath(step int) string {
	return filepath.Join(d.dir, fmt.Sprintf("interactive_elements_%d.json", step))
}

// MinifiedPath is the path of the stripped element dump of a step.
func (d *Dumper) MinifiedPath(step int) string {
	return filepath.Join(d.dir, fmt.Sprintf("interactive_elements_minified_%d.json", step))
}

// ScreenshotPath is the path of the screenshot of a step.
func (d *Dumper) ScreenshotPath(step int) string {
	return filepath.Join(d.dir, fmt.Sprintf("screenshot_%d.png", step))
}

// MarkdownPath is the path of the markdown content of a step.
func (d *Dumper) MarkdownPath(step int) string {
	return filepath.Join(d.dir, fmt.Sprintf("markdown_%d.md", step))
}

// WriteElements dumps the records of a step in the configured formats and
// returns the paths written.
func (d *Dumper) WriteElements(step int, records []schemas.ElementRecord) ([]string, error) {
	if err := d.ensureDir(); err != nil {
		return nil, err
	}

	var written []string
	if d.format == config.FormatJSON || d.format == config.FormatBoth {
		var buf bytes.Buffer
		if err := EncodeIndented(&buf, records); err != nil {
			return written, err
		}
		path := d.ElementsPath(step)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	if d.format == config.FormatMinified || d.format == config.FormatBoth {
		var buf bytes.Buffer
		if err := EncodeMinified(&buf, records); err != nil {
			return written, err
		}
		path := d.MinifiedPath(step)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}

	d.logger.Info("Interactive elements dumped.",
		zap.Int("step", step),
		zap.Int("elements", len(records)),
		zap.Strings("files", written))
	return written, nil
}

// WriteScreenshot stores a PNG screenshot for a step.
func (d *Dumper) WriteScreenshot(step int, png []byte) (string, error) {
	if err := d.ensureDir(); err != nil {
		return "", err
	}
	path := d.ScreenshotPath(step)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	d.logger.Debug("Screenshot written.", zap.String("path", path))
	return path, nil
}

// WriteMarkdown stores the markdown content of a step.
func (d *Dumper) WriteMarkdown(step int, markdown string) (string, error) {
	if err := d.ensureDir(); err != nil {
		return "", err
	}
	path := d.MarkdownPath(step)
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	d.logger.Debug("Markdown written.", zap.String("path", path), zap.Int("chars", len(markdown)))
	return path, nil
}
