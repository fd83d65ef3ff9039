// internal/browser/session/interact.go
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/dom"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/shim"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

// Action is what an interaction does to an element.
type Action string

const (
	ActionClick Action = "click"
	ActionFill  Action = "fill"
)

// ActionFor maps an element tag to its interaction. Buttons and links are
// clicked, inputs are filled; anything else is unsupported.
func ActionFor(tag string) (Action, error) {
	switch tag {
	case "button", "a":
		return ActionClick, nil
	case "input":
		return ActionFill, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTag, tag)
	}
}

type locateArgs struct {
	Segments []string `json:"segments"`
	Clear    bool     `json:"clear"`
}

type locateResult struct {
	Found   bool         `json:"found"`
	Reason  string       `json:"reason"`
	Segment string       `json:"segment"`
	Tag     string       `json:"tag"`
	Rect    schemas.Rect `json:"rect"`
}

func (r locateResult) err(selector string) error {
	switch r.Reason {
	case "no_shadow_root":
		return fmt.Errorf("%w: %q in %q", probe.ErrNoShadowRoot, r.Segment, selector)
	case "invalid_selector":
		return fmt.Errorf("%w: %q", probe.ErrInvalidSelector, selector)
	case "ambiguous":
		return fmt.Errorf("%w: %q in %q", probe.ErrAmbiguous, r.Segment, selector)
	default:
		return fmt.Errorf("%w: %q in %q", probe.ErrNotFound, r.Segment, selector)
	}
}

// InteractByID interacts with an element of the last extraction.
func (s *Session) InteractByID(ctx context.Context, id int, args string) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		return ErrNoExtraction
	}
	rec, ok := schemas.FindRecord(last.Elements, id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownElement, id)
	}
	return s.Interact(ctx, rec, args)
}

// Interact clicks or fills the element a record describes. The overlay is
// removed first: its container sits at the top of the body and would shift
// the nth-child positions the selector relies on. The element is located
// through its shadow path, scrolled into view and clicked at its centre;
// inputs are cleared before args are typed in.
func (s *Session) Interact(ctx context.Context, rec schemas.ElementRecord, args string) error {
	action, err := ActionFor(rec.Tag)
	if err != nil {
		return err
	}
	if action == ActionFill && args == "" {
		return fmt.Errorf("%w: element %d", ErrMissingArguments, rec.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearOverlay(ctx); err != nil {
		return err
	}

	logger := s.logger.With(
		zap.Int("element_id", rec.ID),
		zap.String("tag", rec.Tag),
		zap.String("selector", rec.Selector),
		zap.String("action", string(action)))
	if xpath := s.xpathFor(rec.Selector); xpath != "" {
		logger = logger.With(zap.String("xpath", xpath))
	}

	script, err := shim.Script(shim.LocateElement, locateArgs{
		Segments: probe.SplitShadowPath(rec.Selector),
		Clear:    action == ActionFill,
	})
	if err != nil {
		return err
	}
	var loc locateResult
	if err := s.driver.Evaluate(ctx, script, &loc); err != nil {
		return fmt.Errorf("failed to locate element %d: %w", rec.ID, err)
	}
	if !loc.Found {
		return loc.err(rec.Selector)
	}

	x, y := loc.Rect.Center()
	if err := s.driver.ClickAt(ctx, x, y); err != nil {
		return fmt.Errorf("failed to click element %d: %w", rec.ID, err)
	}
	if action == ActionFill {
		if err := s.driver.InsertText(ctx, args); err != nil {
			return fmt.Errorf("failed to fill element %d: %w", rec.ID, err)
		}
	}
	logger.Info("Interacted with element.")

	// The page may have changed under the extraction.
	s.doc = nil
	s.highlights = nil
	return sleep(ctx, s.cfg.Plan().SettleTime)
}

// xpathFor resolves a selector against the last captured document for
// logging. It is empty when the selector no longer resolves.
func (s *Session) xpathFor(selector string) string {
	if s.doc == nil {
		return ""
	}
	el, err := probe.Resolve(s.doc, selector)
	if err != nil {
		return ""
	}
	if e, ok := el.(*dom.Element); ok {
		return e.XPath()
	}
	return ""
}

// targetXPath is the XPath of element id in the last extraction, or empty.
func (s *Session) targetXPath(id int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return ""
	}
	rec, ok := schemas.FindRecord(s.last.Elements, id)
	if !ok {
		return ""
	}
	return s.xpathFor(rec.Selector)
}
