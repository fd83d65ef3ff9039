// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/browser"
	"github.com/xkilldash9x/scalpel-probe/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Probe() config.ProbeConfig {
	args := m.Called()
	return args.Get(0).(config.ProbeConfig)
}

func (m *MockConfig) Output() config.OutputConfig {
	args := m.Called()
	return args.Get(0).(config.OutputConfig)
}

func (m *MockConfig) Plan() config.PlanConfig {
	args := m.Called()
	return args.Get(0).(config.PlanConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserDriver(d string)  { m.Called(d) }
func (m *MockConfig) SetBrowserHeadless(b bool)  { m.Called(b) }
func (m *MockConfig) SetProbeAnnotate(b bool)    { m.Called(b) }
func (m *MockConfig) SetProbeIndexMode(s string) { m.Called(s) }
func (m *MockConfig) SetOutputDir(dir string)    { m.Called(dir) }
func (m *MockConfig) SetOutputFormat(f string)   { m.Called(f) }
func (m *MockConfig) SetOutputScreenshot(b bool) { m.Called(b) }
func (m *MockConfig) SetOutputMarkdown(b bool)   { m.Called(b) }

var _ config.Interface = (*MockConfig)(nil)

// -- Browser Driver Mock --

// MockDriver mocks the browser.Driver interface.
type MockDriver struct {
	mock.Mock
}

var _ browser.Driver = (*MockDriver)(nil)

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockDriver) SetViewport(ctx context.Context, width, height int) error {
	return m.Called(ctx, width, height).Error(0)
}

func (m *MockDriver) Snapshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var data []byte
	if v := args.Get(0); v != nil {
		data = v.([]byte)
	}
	return data, args.Error(1)
}

func (m *MockDriver) Viewport(ctx context.Context) (schemas.Viewport, error) {
	args := m.Called(ctx)
	return args.Get(0).(schemas.Viewport), args.Error(1)
}

func (m *MockDriver) Evaluate(ctx context.Context, expression string, out interface{}) error {
	return m.Called(ctx, expression, out).Error(0)
}

func (m *MockDriver) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var data []byte
	if v := args.Get(0); v != nil {
		data = v.([]byte)
	}
	return data, args.Error(1)
}

func (m *MockDriver) ClickAt(ctx context.Context, x, y float64) error {
	return m.Called(ctx, x, y).Error(0)
}

func (m *MockDriver) InsertText(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// OnEvaluate expects an evaluation of a script containing marker and
// decodes result into the caller's output, the way a driver decodes the
// page's JSON value.
func (m *MockDriver) OnEvaluate(marker string, result interface{}) *mock.Call {
	return m.On("Evaluate", mock.Anything, mock.MatchedBy(func(expr string) bool {
		return strings.Contains(expr, marker)
	}), mock.Anything).Run(func(args mock.Arguments) {
		out := args.Get(2)
		if out == nil || result == nil {
			return
		}
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(result)
		if err != nil {
			panic(err)
		}
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, out); err != nil {
			panic(err)
		}
	}).Return(nil)
}
