// internal/probe/record.go
package probe

import (
	"strings"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
)

// newRecord gathers every optional value first and leaves the sparse shape to
// the omitempty tags: an empty value is an absent field.
func newRecord(el Element, id int, selector string) schemas.ElementRecord {
	tag := el.TagName()

	ariaLabel, _ := el.Attribute("aria-label")
	role, _ := el.Attribute("role")

	var href, inputType, placeholder, value string
	switch tag {
	case "a":
		href = el.Href()
	case "input":
		inputType = el.InputType()
		placeholder, _ = el.Attribute("placeholder")
		value = el.Value()
	}

	return schemas.ElementRecord{
		ID:          id,
		Tag:         tag,
		AriaLabel:   ariaLabel,
		Role:        role,
		InnerText:   strings.TrimSpace(el.InnerText()),
		Href:        href,
		Type:        inputType,
		Placeholder: placeholder,
		Value:       value,
		Selector:    strings.TrimSpace(selector),
	}
}
