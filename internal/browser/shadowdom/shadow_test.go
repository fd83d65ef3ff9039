package shadowdom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// --- Helpers ---

// Helper to parse HTML and return the body node.
func parseHTML(h string) *html.Node {
	doc, err := html.Parse(strings.NewReader("<html><body>" + h + "</body></html>"))
	if err != nil {
		panic(err)
	}
	// doc -> html -> (head, body)
	return doc.FirstChild.FirstChild.NextSibling
}

// Helper to find the first element node child.
func firstElement(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// --- Tests for Internal Helpers (White-box testing) ---

func TestGetAttr(t *testing.T) {
	node := firstElement(parseHTML(`<div id="test" CLASS="TestClass"></div>`))

	assert.Equal(t, "test", getAttr(node, "id"))
	assert.Equal(t, "TestClass", getAttr(node, "CLASS"), "getAttr should be case-insensitive")
	assert.Equal(t, "", getAttr(node, "missing"))
	assert.Equal(t, "", getAttr(nil, "id"))
}

func TestCloneNode(t *testing.T) {
	original := firstElement(parseHTML(`<div id="original" class="test"><span>Hello</span>TextNode</div>`))

	clone := cloneNode(original)

	assert.NotSame(t, original, clone)
	assert.Nil(t, clone.Parent, "clones are detached")
	assert.Equal(t, original.Data, clone.Data)
	require.Len(t, clone.Attr, 2)

	clone.Attr[0].Val = "modified"
	assert.Equal(t, "original", original.Attr[0].Val)

	originalSpan := firstElement(original)
	cloneSpan := firstElement(clone)
	assert.NotSame(t, originalSpan, cloneSpan)
	assert.Equal(t, "span", cloneSpan.Data)
	assert.Same(t, clone, cloneSpan.Parent)
}

// --- Tests for DetectShadowHost ---

func TestDetectShadowHost(t *testing.T) {
	e := Engine{}
	tests := []struct {
		name     string
		html     string
		expected bool
	}{
		{"Valid Host Open", `<div><template shadowrootmode="open"></template></div>`, true},
		{"Valid Host Closed", `<div><template shadowrootmode="closed"></template></div>`, true},
		{"Case Insensitive", `<div><template ShadowRootMode="OPEN"></template></div>`, true},
		{"No Template", `<div><span></span></div>`, false},
		{"Template Without Attribute", `<div><template></template></div>`, false},
		{"Unknown Mode", `<div><template shadowrootmode="sideways"></template></div>`, false},
		{"Nested (Invalid)", `<div><span><template shadowrootmode="open"></template></span></div>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := firstElement(parseHTML(tt.html))
			assert.Equal(t, tt.expected, e.DetectShadowHost(host))
		})
	}

	assert.False(t, e.DetectShadowHost(nil))
}

// --- Tests for InstantiateShadowRoot ---

func TestInstantiateShadowRoot(t *testing.T) {
	e := Engine{}

	t.Run("Basic Instantiation", func(t *testing.T) {
		host := firstElement(parseHTML(`<div><template shadowrootmode="open"><h1>Shadow</h1></template><p>light</p></div>`))

		root, mode := e.InstantiateShadowRoot(host)

		require.NotNil(t, root)
		assert.Equal(t, ModeOpen, mode)
		assert.True(t, IsBoundary(root))
		assert.Nil(t, root.Parent, "the shadow root must stay detached from the host")

		h1 := firstElement(root)
		require.NotNil(t, h1)
		assert.Equal(t, "h1", h1.Data)

		// The template is gone, the light child stays.
		light := firstElement(host)
		require.NotNil(t, light)
		assert.Equal(t, "p", light.Data)
		assert.False(t, e.DetectShadowHost(host))
	})

	t.Run("Closed Mode", func(t *testing.T) {
		host := firstElement(parseHTML(`<div><template shadowrootmode="closed"><button>x</button></template></div>`))
		root, mode := e.InstantiateShadowRoot(host)
		require.NotNil(t, root)
		assert.Equal(t, ModeClosed, mode)
	})

	t.Run("Nested Templates Inert", func(t *testing.T) {
		host := firstElement(parseHTML(`<div><template shadowrootmode="open">
			<div id="inner"><template shadowrootmode="open"><button>deep</button></template></div>
		</template></div>`))

		root, _ := e.InstantiateShadowRoot(host)
		require.NotNil(t, root)

		innerDiv := firstElement(root)
		require.NotNil(t, innerDiv)
		innerTemplate := firstElement(innerDiv)
		require.NotNil(t, innerTemplate)
		assert.Equal(t, "template", innerTemplate.Data)
		assert.True(t, e.DetectShadowHost(innerDiv))
	})

	t.Run("Not A Host", func(t *testing.T) {
		host := firstElement(parseHTML(`<div><span></span></div>`))
		root, mode := e.InstantiateShadowRoot(host)
		assert.Nil(t, root)
		assert.Empty(t, mode)
	})
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode(" Open ")
	assert.True(t, ok)
	assert.Equal(t, ModeOpen, m)

	_, ok = ParseMode("user-agent")
	assert.False(t, ok)
}
