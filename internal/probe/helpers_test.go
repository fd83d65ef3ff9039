package probe_test

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/browser/dom"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
)

// tallViewport keeps every stacked row inside the viewport.
var tallViewport = schemas.Viewport{Width: 1280, Height: 100000}

// newDoc parses markup and gives every element a distinct visible row, so an
// element can be recognized by its Y coordinate.
func newDoc(t *testing.T, markup string, opts ...dom.Option) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(markup, append([]dom.Option{dom.WithViewport(tallViewport)}, opts...)...)
	require.NoError(t, err)
	for i, el := range doc.Elements() {
		doc.SetRect(el.Node(), schemas.Rect{X: 0, Y: float64(i) * 10, Width: 100, Height: 10})
	}
	return doc
}

// queryOne returns the single element matching selector under root.
func queryOne(t *testing.T, root probe.Root, selector string) *dom.Element {
	t.Helper()
	matches, err := root.QuerySelectorAll(selector)
	require.NoError(t, err)
	require.Len(t, matches, 1, "selector %q", selector)
	return matches[0].(*dom.Element)
}

// shadowOf returns the open shadow root of the single host matching selector.
func shadowOf(t *testing.T, root probe.Root, selector string) probe.Root {
	t.Helper()
	sr := queryOne(t, root, selector).ShadowRoot()
	require.NotNil(t, sr, "%q has no open shadow root", selector)
	return sr
}

func ids(records []schemas.ElementRecord) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func selectors(records []schemas.ElementRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Selector)
	}
	return out
}

// mockOverlay is a testify mock of probe.Overlay.
type mockOverlay struct {
	mock.Mock
}

func (m *mockOverlay) Draw(h schemas.Highlight) {
	m.Called(h)
}
