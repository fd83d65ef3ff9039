package probe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
)

// fakeRoot answers every query with a fixed result.
type fakeRoot struct {
	matches []Element
	err     error
	panics  bool
}

func (r *fakeRoot) QuerySelectorAll(string) ([]Element, error) {
	if r.panics {
		panic("selector engine exploded")
	}
	return r.matches, r.err
}

func (r *fakeRoot) Host() Element    { return nil }
func (r *fakeRoot) IsDocument() bool { return false }

// fakeElement is a standalone element with a rect and attributes.
type fakeElement struct {
	tag   string
	rect  schemas.Rect
	attrs map[string]string
	text  string
}

func (e *fakeElement) TagName() string     { return e.tag }
func (e *fakeElement) ID() string          { return e.attrs["id"] }
func (e *fakeElement) ClassList() []string { return nil }
func (e *fakeElement) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}
func (e *fakeElement) ParentElement() Element           { return nil }
func (e *fakeElement) ChildIndex() int                  { return 0 }
func (e *fakeElement) RootNode() Root                   { return nil }
func (e *fakeElement) ShadowRoot() Root                 { return nil }
func (e *fakeElement) BoundingClientRect() schemas.Rect { return e.rect }
func (e *fakeElement) InnerText() string                { return e.text }
func (e *fakeElement) Href() string                     { return e.attrs["href"] }
func (e *fakeElement) InputType() string                { return "text" }
func (e *fakeElement) Value() string                    { return e.attrs["value"] }

func TestIsUniqueSelector_Failures(t *testing.T) {
	one := []Element{&fakeElement{tag: "a"}}

	assert.True(t, IsUniqueSelector(&fakeRoot{matches: one}, "a"))
	assert.False(t, IsUniqueSelector(&fakeRoot{matches: one, err: errors.New("boom")}, "a"))
	assert.False(t, IsUniqueSelector(&fakeRoot{panics: true}, "a"), "a panicking query is not unique")
	assert.False(t, IsUniqueSelector(&fakeRoot{}, "a"))
}

func TestRectIntersectsViewport(t *testing.T) {
	vp := schemas.Viewport{Width: 100, Height: 100}
	tests := []struct {
		name     string
		rect     schemas.Rect
		expected bool
	}{
		{"Inside", schemas.Rect{X: 10, Y: 10, Width: 10, Height: 10}, true},
		{"Touching Top Edge From Above", schemas.Rect{X: 10, Y: -10, Width: 10, Height: 10}, false},
		{"One Pixel In From Above", schemas.Rect{X: 10, Y: -9, Width: 10, Height: 10}, true},
		{"Starts At Viewport Bottom", schemas.Rect{X: 10, Y: 100, Width: 10, Height: 10}, false},
		{"Starts Just Above Bottom", schemas.Rect{X: 10, Y: 99.5, Width: 10, Height: 10}, true},
		{"Touching Left Edge", schemas.Rect{X: -10, Y: 10, Width: 10, Height: 10}, false},
		{"Past Right Edge Still Counts", schemas.Rect{X: 500, Y: 10, Width: 10, Height: 10}, true},
		{"Negative Width", schemas.Rect{X: 10, Y: 10, Width: -5, Height: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rectIntersectsViewport(tt.rect, vp))
			assert.Equal(t, tt.expected, IsPartiallyVisible(&fakeElement{rect: tt.rect}, vp))
		})
	}
}

func TestNewRecord(t *testing.T) {
	el := &fakeElement{
		tag:   "input",
		attrs: map[string]string{"placeholder": "Search", "value": "q", "aria-label": "", "href": "/x"},
		text:  "  ",
	}
	rec := newRecord(el, 4, "  #search  ")
	assert.Equal(t, schemas.ElementRecord{
		ID:          4,
		Tag:         "input",
		Type:        "text",
		Placeholder: "Search",
		Value:       "q",
		Selector:    "#search",
	}, rec, "an empty aria-label is dropped like an absent one")
}

func TestHighlightFor(t *testing.T) {
	h := HighlightFor(3, schemas.Rect{X: 10, Y: 15, Width: 40, Height: 8}, schemas.Viewport{ScrollX: 2, ScrollY: 100})
	assert.Equal(t, schemas.Highlight{
		ID:        3,
		Box:       schemas.Rect{X: 12, Y: 115, Width: 40, Height: 8},
		LabelTop:  95,
		LabelLeft: 12,
	}, h)

	assert.Equal(t, "position: absolute; border: 2px solid blue; top: 115px; left: 12px; width: 40px; height: 8px; "+
		"background-color: rgba(0, 0, 255, 0.2); box-shadow: 0 0 10px rgba(0, 0, 255, 0.5);", BoxStyle(h))
	assert.Contains(t, LabelStyle(h), "top: 95px; left: 12px;")
	assert.Equal(t, "1.5", px(1.5))
}

func TestParseIndexMode(t *testing.T) {
	for in, want := range map[string]IndexMode{"": IndexShared, "shared": IndexShared, " Per-Root ": IndexPerRoot} {
		got, err := ParseIndexMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseIndexMode("global")
	assert.Error(t, err)
}

func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor(Options{})
	assert.Equal(t, IndexShared, e.opts.IndexMode)
	assert.Equal(t, DefaultSelectors, e.opts.Selectors)
	assert.Equal(t, `button, a, input, select, textarea, [role="button"]`, e.query)
	require.NotNil(t, e.logger)
}
