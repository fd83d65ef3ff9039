// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reporter defines the interface for writing extraction results to an output.
type Reporter interface {
	// Write emits a single extraction result.
	Write(result *schemas.ExtractionResult) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for the given format writing to outputPath, or to
// stdout when the path is empty or "stdout".
func New(format, outputPath string) (Reporter, error) {
	switch format {
	case config.FormatJSON, config.FormatMinified, config.FormatBoth:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewStreamReporter(writer, format), nil
}

// NewWriterReporter reports to w without ever closing it.
func NewWriterReporter(w io.Writer, format string) *StreamReporter {
	return NewStreamReporter(&nopWriteCloser{w}, format)
}

// StreamReporter writes each result's elements as one JSON document.
type StreamReporter struct {
	w      io.WriteCloser
	format string
}

// NewStreamReporter takes ownership of w. The "both" format streams the
// full records.
func NewStreamReporter(w io.WriteCloser, format string) *StreamReporter {
	return &StreamReporter{w: w, format: format}
}

func (r *StreamReporter) Write(result *schemas.ExtractionResult) error {
	if result == nil {
		return nil
	}
	var err error
	if r.format == config.FormatMinified {
		err = EncodeMinified(r.w, result.Elements)
	} else {
		err = EncodeIndented(r.w, result.Elements)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(r.w, "\n")
	return err
}

func (r *StreamReporter) Close() error {
	return r.w.Close()
}

// EncodeIndented writes the full records with four space indentation.
func EncodeIndented(w io.Writer, records []schemas.ElementRecord) error {
	if records == nil {
		records = []schemas.ElementRecord{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode elements: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// EncodeMinified writes the stripped records without any whitespace.
func EncodeMinified(w io.Writer, records []schemas.ElementRecord) error {
	data, err := json.Marshal(schemas.StripAll(records))
	if err != nil {
		return fmt.Errorf("failed to encode stripped elements: %w", err)
	}
	_, err = w.Write(data)
	return err
}
