package schemas

import "time"

// ElementRecord describes one interactive element found during an extraction run.
// Optional fields are omitted from the JSON form when empty, so a record
// serializes as a sparse object carrying only the values the element exposes.
type ElementRecord struct {
	ID          int    `json:"id"`
	Tag         string `json:"tag"`
	AriaLabel   string `json:"ariaLabel,omitempty"`
	Role        string `json:"role,omitempty"`
	InnerText   string `json:"innerText,omitempty"`
	Href        string `json:"href,omitempty"`
	Type        string `json:"type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
	Selector    string `json:"selector"`
}

// StrippedElement is the compact form of an ElementRecord handed to planners.
type StrippedElement struct {
	ID        int    `json:"id"`
	Tag       string `json:"tag"`
	AriaLabel string `json:"ariaLabel,omitempty"`
	InnerText string `json:"innerText,omitempty"`
}

// Strip drops everything but the fields a planner needs to pick an element.
func (r ElementRecord) Strip() StrippedElement {
	return StrippedElement{
		ID:        r.ID,
		Tag:       r.Tag,
		AriaLabel: r.AriaLabel,
		InnerText: r.InnerText,
	}
}

// StripAll converts a record list into its stripped form, preserving order.
func StripAll(records []ElementRecord) []StrippedElement {
	out := make([]StrippedElement, 0, len(records))
	for _, r := range records {
		out = append(out, r.Strip())
	}
	return out
}

// FindRecord returns the record carrying the given id.
func FindRecord(records []ElementRecord, id int) (ElementRecord, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return ElementRecord{}, false
}

// ExtractionResult is the outcome of a single extraction over a loaded page.
type ExtractionResult struct {
	RunID      string          `json:"runId"`
	URL        string          `json:"url"`
	Title      string          `json:"title,omitempty"`
	Annotated  bool            `json:"annotated"`
	CapturedAt time.Time       `json:"capturedAt"`
	Elements   []ElementRecord `json:"elements"`
}

// PlanStep is one interaction in a scripted plan.
type PlanStep struct {
	// ElementID refers to the id of a record from the extraction preceding the step.
	ElementID int    `json:"id"`
	Args      string `json:"args,omitempty"`
	// Note is free text carried into the logs.
	Note string `json:"note,omitempty"`
}
