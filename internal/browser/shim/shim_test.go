// internal/browser/shim/shim_test.go
package shim_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// -- a little dot import magic for the package under test --
	. "github.com/xkilldash9x/scalpel-probe/internal/browser/shim"
)

// TestBuild ensures arguments are injected into a template correctly.
func TestBuild(t *testing.T) {
	t.Parallel()

	// -- a simple, valid template for our tests --
	mockTemplate := `(() => { const args = /*{{SCALPEL_PROBE_ARGS}}*/; return args.id; })()`

	t.Run("should inject arguments as JSON", func(t *testing.T) {
		t.Parallel()
		script, err := Build(mockTemplate, map[string]interface{}{"id": 3, "sel": `a[href="x"]`})
		require.NoError(t, err)
		assert.Equal(t, `(() => { const args = {"id":3,"sel":"a[href=\"x\"]"}; return args.id; })()`, script)
	})

	t.Run("should inject an empty object for nil arguments", func(t *testing.T) {
		t.Parallel()
		script, err := Build(mockTemplate, nil)
		require.NoError(t, err)
		assert.Equal(t, `(() => { const args = {}; return args.id; })()`, script)
	})

	t.Run("should escape markup in strings", func(t *testing.T) {
		t.Parallel()
		script, err := Build(mockTemplate, []string{"</script>"})
		require.NoError(t, err)
		assert.NotContains(t, script, "</script>")
	})

	t.Run("should return error for an empty template", func(t *testing.T) {
		t.Parallel()
		_, err := Build("", nil)
		assert.EqualError(t, err, "template is empty")
	})

	t.Run("should return error when placeholder is missing", func(t *testing.T) {
		t.Parallel()
		_, err := Build("const args = {};", nil)
		assert.EqualError(t, err, fmt.Sprintf("template does not contain the required placeholder: %s", ArgsPlaceholder))
	})

	t.Run("should return error for unencodable arguments", func(t *testing.T) {
		t.Parallel()
		_, err := Build(mockTemplate, map[string]float64{"x": math.NaN()})
		assert.Error(t, err)
	})
}

// TestScript verifies the embedded scripts load and take their arguments.
func TestScript(t *testing.T) {
	t.Parallel()

	for _, name := range []string{DrawHighlights, ClearOverlay, LocateElement} {
		script, err := Script(name, map[string]string{"containerId": "highlight-container"})
		require.NoError(t, err, name)
		assert.Contains(t, script, `"containerId":"highlight-container"`, name)
		assert.NotContains(t, script, ArgsPlaceholder, name)
	}

	_, err := Script("missing.js", nil)
	assert.Error(t, err)
}
