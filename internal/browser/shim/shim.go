// internal/browser/shim/shim.go
package shim

import (
	"embed"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const (
	// ArgsPlaceholder is replaced in a script template with its JSON arguments.
	ArgsPlaceholder = "/*{{SCALPEL_PROBE_ARGS}}*/"
)

// Embedded page scripts.
const (
	DrawHighlights = "draw_highlights.js"
	ClearOverlay   = "clear_overlay.js"
	LocateElement  = "locate_element.js"
)

//go:embed scripts/*.js
var scripts embed.FS

// Build injects args, encoded as JSON, into the template.
func Build(template string, args interface{}) (string, error) {
	if template == "" {
		return "", fmt.Errorf("template is empty")
	}

	if !strings.Contains(template, ArgsPlaceholder) {
		return "", fmt.Errorf("template does not contain the required placeholder: %s", ArgsPlaceholder)
	}

	argsJSON := "{}"
	if args != nil {
		encoded, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(args)
		if err != nil {
			return "", fmt.Errorf("failed to encode script arguments: %w", err)
		}
		argsJSON = encoded
	}

	return strings.Replace(template, ArgsPlaceholder, argsJSON, 1), nil
}

// Script loads an embedded script by name and injects args.
func Script(name string, args interface{}) (string, error) {
	template, err := scripts.ReadFile("scripts/" + name)
	if err != nil {
		return "", fmt.Errorf("unknown script %q: %w", name, err)
	}
	return Build(strings.TrimSpace(string(template)), args)
}
