// internal/browser/session/session_test.go
package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
	"github.com/xkilldash9x/scalpel-probe/internal/mocks"
	"github.com/xkilldash9x/scalpel-probe/internal/probe"
	"github.com/xkilldash9x/scalpel-probe/internal/reporting"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// snapshotJSON captures:
//
//	<body>
//	  <button id="go">Go</button><input id="q">
//	  <div id="w">#shadow-root(open)<a href="/x">Deep</a></div>
//	  <select></select>
//	</body>
const snapshotJSON = `{
  "documents": [{
    "documentURL": 0, "title": 1, "baseURL": -1,
    "scrollOffsetX": 0, "scrollOffsetY": 0,
    "nodes": {
      "parentIndex": [-1, 0, 1, 2, 3, 2, 2, 6, 7, 8, 2],
      "nodeType":    [ 9, 1, 1, 1, 3, 1, 1,11, 1, 3, 1],
      "nodeName":    [ 2, 3, 4, 5, 8,10,12,14,16, 8,20],
      "nodeValue":   [-1,-1,-1,-1, 9,-1,-1,-1,-1,19,-1],
      "attributes":  [[],[],[],[6,7],[],[6,11],[6,13],[],[17,18],[],[]],
      "shadowRootType": {"index": [7], "value": [15]}
    },
    "layout": {
      "nodeIndex": [2, 3, 5, 6, 8, 10],
      "bounds": [
        [0, 0, 800, 600],
        [10, 10, 50, 20],
        [10, 40, 100, 20],
        [0, 100, 800, 50],
        [5, 110, 40, 10],
        [10, 200, 80, 20]
      ]
    }
  }],
  "strings": [
    "https://example.com/", "Demo", "#document", "HTML", "BODY", "BUTTON", "id", "go", "#text", "Go",
    "INPUT", "q", "DIV", "w", "#document-fragment", "open", "A", "href", "/x", "Deep", "SELECT"
  ]
}`

var expectedRecords = []schemas.ElementRecord{
	{ID: 0, Tag: "button", InnerText: "Go", Selector: "#go"},
	{ID: 1, Tag: "input", Type: "text", Selector: "#q"},
	{ID: 2, Tag: "select", Selector: "select:nth-child(4)"},
	{ID: 3, Tag: "a", InnerText: "Deep", Href: "https://example.com/x", Selector: "#w >>> a:nth-child(1)"},
}

const (
	clearMarker  = "container.remove()"
	drawMarker   = "insertBefore"
	locateMarker = "scrollIntoView"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.BrowserCfg.PostLoadWait = 0
	cfg.PlanCfg.SettleTime = 0
	cfg.PlanCfg.StepInterval = 0
	cfg.OutputCfg.Dir = t.TempDir()
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config) (*Session, *mocks.MockDriver) {
	t.Helper()
	d := new(mocks.MockDriver)
	s, err := New(d, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { d.AssertExpectations(t) })
	return s, d
}

func expectCapture(d *mocks.MockDriver) {
	d.On("Snapshot", mock.Anything).Return([]byte(snapshotJSON), nil)
	d.On("Viewport", mock.Anything).Return(schemas.Viewport{Width: 800, Height: 600}, nil)
}

// scripts returns the evaluated expressions containing marker.
func scripts(d *mocks.MockDriver, marker string) []string {
	var out []string
	for _, call := range d.Calls {
		if call.Method != "Evaluate" {
			continue
		}
		if expr := call.Arguments.Get(1).(string); strings.Contains(expr, marker) {
			out = append(out, expr)
		}
	}
	return out
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	_, err := New(nil, config.NewDefaultConfig(), nil)
	assert.Error(t, err)

	mc := new(mocks.MockConfig)
	mc.On("Probe").Return(config.ProbeConfig{IndexMode: "sideways"})
	_, err = New(new(mocks.MockDriver), mc, nil)
	assert.ErrorContains(t, err, "unknown index mode")
	mc.AssertExpectations(t)
}

func TestSession_Extract(t *testing.T) {
	s, d := newTestSession(t, testConfig(t))
	d.OnEvaluate(clearMarker, false)
	expectCapture(d)

	res, err := s.Extract(context.Background(), false)
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/", res.URL)
	assert.Equal(t, "Demo", res.Title)
	assert.False(t, res.Annotated)
	assert.False(t, res.CapturedAt.IsZero())
	assert.Equal(t, expectedRecords, res.Elements)
	assert.Same(t, res, s.LastExtraction())

	assert.Len(t, scripts(d, clearMarker), 1, "a stale overlay is removed before capture")
	assert.Empty(t, scripts(d, drawMarker))
}

func TestSession_ExtractAnnotated(t *testing.T) {
	s, d := newTestSession(t, testConfig(t))
	d.OnEvaluate(clearMarker, true)
	d.OnEvaluate(drawMarker, len(expectedRecords)).Once()
	expectCapture(d)

	res, err := s.Extract(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, res.Annotated)
	assert.Equal(t, expectedRecords, res.Elements, "annotating never changes the records")

	drawn := scripts(d, drawMarker)
	require.Len(t, drawn, 1, "highlights are flushed in one script")
	assert.Contains(t, drawn[0], `"containerId":"highlight-container"`)
	for _, h := range []schemas.Highlight{
		probe.HighlightFor(0, schemas.Rect{X: 10, Y: 10, Width: 50, Height: 20}, schemas.Viewport{}),
		probe.HighlightFor(3, schemas.Rect{X: 5, Y: 110, Width: 40, Height: 10}, schemas.Viewport{}),
	} {
		assert.Contains(t, drawn[0], probe.BoxStyle(h))
		assert.Contains(t, drawn[0], probe.LabelStyle(h))
	}

	t.Run("Screenshot With Live Overlay", func(t *testing.T) {
		raw := whitePNG(t, 200, 100)
		d.On("Screenshot", mock.Anything).Return(raw, nil).Once()

		img, err := s.Screenshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, raw, img, "the page already shows the highlights")
	})

	t.Run("Screenshot After Clearing", func(t *testing.T) {
		require.NoError(t, s.ClearOverlay(context.Background()))
		d.On("Screenshot", mock.Anything).Return(whitePNG(t, 200, 100), nil).Once()

		data, err := s.Screenshot(context.Background())
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)

		n := color.NRGBAModel.Convert(img.At(35, 20)).(color.NRGBA)
		assert.Equal(t, uint8(255), n.B)
		assert.Less(t, n.R, uint8(250), "the button box is painted onto the image")
	})
}

func TestSession_Screenshot_Downscale(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputCfg.ScreenshotMaxWidth = 100
	s, d := newTestSession(t, cfg)
	d.On("Screenshot", mock.Anything).Return(whitePNG(t, 200, 100), nil)

	data, err := s.Screenshot(context.Background())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestSession_CaptureErrors(t *testing.T) {
	s, d := newTestSession(t, testConfig(t))
	boom := errors.New("target closed")
	d.OnEvaluate(clearMarker, false)
	d.On("Snapshot", mock.Anything).Return(nil, boom)
	d.On("Viewport", mock.Anything).Return(schemas.Viewport{}, nil).Maybe()

	_, err := s.Extract(context.Background(), false)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to capture page")
	assert.Nil(t, s.LastExtraction())
}

func TestSession_Navigate(t *testing.T) {
	cfg := testConfig(t)
	s, d := newTestSession(t, cfg)
	d.On("Navigate", mock.Anything, "https://example.com/").Return(nil)
	d.OnEvaluate(clearMarker, false)
	expectCapture(d)

	_, err := s.Extract(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, s.Navigate(context.Background(), "https://example.com/"))
	assert.Nil(t, s.LastExtraction(), "navigation discards the previous page's records")
	assert.ErrorIs(t, s.InteractByID(context.Background(), 0, ""), ErrNoExtraction)

	t.Run("Post Load Wait Honors Context", func(t *testing.T) {
		cfg.BrowserCfg.PostLoadWait = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, s.Navigate(ctx, "https://example.com/"), context.Canceled)
	})
}

func TestSession_Interact(t *testing.T) {
	s, d := newTestSession(t, testConfig(t))
	d.OnEvaluate(clearMarker, false)
	expectCapture(d)
	ctx := context.Background()
	_, err := s.Extract(ctx, false)
	require.NoError(t, err)

	t.Run("Click Button", func(t *testing.T) {
		d.OnEvaluate(locateMarker, locateResult{Found: true, Tag: "button", Rect: schemas.Rect{X: 10, Y: 10, Width: 50, Height: 20}}).Once()
		d.On("ClickAt", mock.Anything, 35.0, 20.0).Return(nil).Once()

		require.NoError(t, s.InteractByID(ctx, 0, ""))
		located := scripts(d, locateMarker)
		require.Len(t, located, 1)
		assert.Contains(t, located[0], `"segments":["#go"]`)
		assert.Contains(t, located[0], `"clear":false`)
	})

	t.Run("Fill Input", func(t *testing.T) {
		d.OnEvaluate(locateMarker, locateResult{Found: true, Tag: "input", Rect: schemas.Rect{X: 10, Y: 40, Width: 100, Height: 20}}).Once()
		d.On("ClickAt", mock.Anything, 60.0, 50.0).Return(nil).Once()
		d.On("InsertText", mock.Anything, "hello").Return(nil).Once()

		require.NoError(t, s.InteractByID(ctx, 1, "hello"))
		located := scripts(d, locateMarker)
		require.Len(t, located, 2)
		assert.Contains(t, located[1], `"clear":true`)
	})

	t.Run("Shadow Path Not Resolvable", func(t *testing.T) {
		d.OnEvaluate(locateMarker, locateResult{Reason: "no_shadow_root", Segment: "#w"}).Once()

		err := s.InteractByID(ctx, 3, "")
		assert.ErrorIs(t, err, probe.ErrNoShadowRoot)
		located := scripts(d, locateMarker)
		require.Len(t, located, 3)
		assert.Contains(t, located[2], `"segments":["#w","a:nth-child(1)"]`)
	})

	t.Run("Element Not Found", func(t *testing.T) {
		d.OnEvaluate(locateMarker, locateResult{Reason: "not_found", Segment: "#go"}).Once()
		assert.ErrorIs(t, s.InteractByID(ctx, 0, ""), probe.ErrNotFound)
	})

	t.Run("Ambiguous Selector Is Not Clicked", func(t *testing.T) {
		d.OnEvaluate(locateMarker, locateResult{Reason: "ambiguous", Segment: "select:nth-child(4)"}).Once()
		clicks := len(d.Calls)

		err := s.InteractByID(ctx, 0, "")
		assert.ErrorIs(t, err, probe.ErrAmbiguous)
		for _, call := range d.Calls[clicks:] {
			assert.NotEqual(t, "ClickAt", call.Method)
		}
	})

	t.Run("Rejected Before Touching The Page", func(t *testing.T) {
		before := len(d.Calls)
		assert.ErrorIs(t, s.InteractByID(ctx, 1, ""), ErrMissingArguments)
		assert.ErrorIs(t, s.InteractByID(ctx, 2, "x"), ErrUnsupportedTag)
		assert.ErrorIs(t, s.InteractByID(ctx, 99, ""), ErrUnknownElement)
		assert.Len(t, d.Calls, before)
	})
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		tag     string
		want    Action
		wantErr error
	}{
		{"button", ActionClick, nil},
		{"a", ActionClick, nil},
		{"input", ActionFill, nil},
		{"select", "", ErrUnsupportedTag},
		{"textarea", "", ErrUnsupportedTag},
		{"div", "", ErrUnsupportedTag},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ActionFor(tt.tag)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSession_RunPlan(t *testing.T) {
	cfg := testConfig(t)
	s, d := newTestSession(t, cfg)
	d.OnEvaluate(clearMarker, false)
	expectCapture(d)
	d.On("Screenshot", mock.Anything).Return([]byte("png"), nil)
	d.OnEvaluate(locateMarker, locateResult{Found: true, Rect: schemas.Rect{X: 10, Y: 10, Width: 50, Height: 20}}).Once()
	d.On("ClickAt", mock.Anything, 35.0, 20.0).Return(nil).Once()

	dumper := reporting.NewDumper(cfg.Output(), zaptest.NewLogger(t))
	reports, err := s.RunPlan(context.Background(), []schemas.PlanStep{{ElementID: 0, Note: "press go"}}, dumper)
	require.NoError(t, err)
	require.Len(t, reports, 2, "one report per step plus the final page")

	require.NotNil(t, reports[0].Action)
	assert.Equal(t, 0, reports[0].Action.ElementID)
	assert.Equal(t, "//*[@id='go']", reports[0].TargetXPath)
	assert.Nil(t, reports[1].Action)
	assert.Empty(t, reports[1].TargetXPath)
	assert.Equal(t, expectedRecords, reports[1].Extraction.Elements)

	for _, name := range []string{
		"interactive_elements_0.json", "interactive_elements_minified_0.json", "screenshot_0.png", "markdown_0.md",
		"interactive_elements_1.json", "interactive_elements_minified_1.json", "screenshot_1.png", "markdown_1.md",
	} {
		_, err := os.Stat(filepath.Join(cfg.OutputCfg.Dir, name))
		assert.NoError(t, err, name)
	}
	assert.Len(t, reports[0].Files, 4)

	data, err := os.ReadFile(filepath.Join(cfg.OutputCfg.Dir, "markdown_1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Go")
	assert.NotContains(t, string(data), "Deep", "shadow content is not serialized")
}

func TestSession_Markdown(t *testing.T) {
	t.Run("Captures Without Extraction", func(t *testing.T) {
		s, d := newTestSession(t, testConfig(t))
		expectCapture(d)

		out, err := s.Markdown(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Go", out)
		assert.Nil(t, s.LastExtraction())
	})

	t.Run("Reuses Extracted Document", func(t *testing.T) {
		s, d := newTestSession(t, testConfig(t))
		d.OnEvaluate(clearMarker, false)
		d.On("Snapshot", mock.Anything).Return([]byte(snapshotJSON), nil).Once()
		d.On("Viewport", mock.Anything).Return(schemas.Viewport{Width: 800, Height: 600}, nil).Once()
		_, err := s.Extract(context.Background(), false)
		require.NoError(t, err)

		out, err := s.Markdown(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Go", out)
		d.AssertNumberOfCalls(t, "Snapshot", 1)
	})

	t.Run("Limited", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.OutputCfg.MarkdownMaxChars = 1
		s, d := newTestSession(t, cfg)
		expectCapture(d)

		out, err := s.Markdown(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "G", out)
	})

	t.Run("Capture Error", func(t *testing.T) {
		s, d := newTestSession(t, testConfig(t))
		d.On("Snapshot", mock.Anything).Return(nil, errors.New("boom"))
		d.On("Viewport", mock.Anything).Return(schemas.Viewport{}, nil).Maybe()

		_, err := s.Markdown(context.Background())
		assert.ErrorContains(t, err, "failed to capture page")
	})
}

func TestSession_RunPlan_UnknownElement(t *testing.T) {
	s, d := newTestSession(t, testConfig(t))
	d.OnEvaluate(clearMarker, false)
	expectCapture(d)

	reports, err := s.RunPlan(context.Background(), []schemas.PlanStep{{ElementID: 42}}, nil)
	assert.ErrorIs(t, err, ErrUnknownElement)
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].TargetXPath)
}

func TestSession_RunPlan_Canceled(t *testing.T) {
	s, _ := newTestSession(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := s.RunPlan(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 0}, {"id": 1, "args": "hi", "note": "fill"}]`), 0o644))

	steps, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, []schemas.PlanStep{{ElementID: 0}, {ElementID: 1, Args: "hi", Note: "fill"}}, steps)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = LoadPlan(path)
	assert.Error(t, err)
}
