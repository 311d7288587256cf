package extractor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

type fakeAX struct {
	focus      *contextmodel.FocusedElement
	breadcrumb []contextmodel.Breadcrumb
	err        error
}

func (f *fakeAX) Query(ctx context.Context, pid int32) (*contextmodel.FocusedElement, []contextmodel.Breadcrumb, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.focus, f.breadcrumb, nil
}

type fakeOracle struct {
	responses map[string]string
}

func (f *fakeOracle) Query(ctx context.Context, bundleID string, kind platform.QueryKind, script string) (string, error) {
	return f.responses[string(kind)], nil
}

func TestExtract_BrowserUsesOracleOverTitle(t *testing.T) {
	ax := &fakeAX{focus: &contextmodel.FocusedElement{}}
	oracle := &fakeOracle{responses: map[string]string{
		string(platform.QueryBrowserURL):   "https://example.com/oracle",
		string(platform.QueryBrowserTitle): "Example Domain",
	}}
	e := New(ax, oracle)

	seed := ExtractSeed{
		App: contextmodel.AppInfo{Name: "Safari", BundleID: "com.apple.Safari", PID: 100},
		Windows: []contextmodel.WindowRecord{
			{OwnerPID: 100, Title: "https://example.com/title-fallback", OnScreen: true},
		},
	}

	snap := e.Extract(context.Background(), seed)
	require.NotNil(t, snap.Browser)
	assert.Equal(t, "https://example.com/oracle", snap.Browser.URL)
	assert.Equal(t, "Example Domain", snap.Browser.PageTitle)
}

func TestExtract_BrowserFallsBackToWindowTitle(t *testing.T) {
	ax := &fakeAX{focus: &contextmodel.FocusedElement{}}
	e := New(ax, nil)

	seed := ExtractSeed{
		App: contextmodel.AppInfo{Name: "Safari", BundleID: "com.apple.Safari", PID: 100},
		Windows: []contextmodel.WindowRecord{
			{OwnerPID: 100, Title: "https://fallback.example/", OnScreen: true},
		},
	}

	snap := e.Extract(context.Background(), seed)
	require.NotNil(t, snap.Browser)
	assert.Equal(t, "https://fallback.example/", snap.Browser.URL)
}

func TestExtract_IDESplitsTitleOnSeparators(t *testing.T) {
	ax := &fakeAX{focus: &contextmodel.FocusedElement{}}
	e := New(ax, nil)

	seed := ExtractSeed{
		App: contextmodel.AppInfo{Name: "Code", BundleID: "com.microsoft.VSCode", PID: 200},
		Windows: []contextmodel.WindowRecord{
			{OwnerPID: 200, Title: "main.go — contextfusion", OnScreen: true},
		},
	}

	snap := e.Extract(context.Background(), seed)
	require.NotNil(t, snap.IDE)
	assert.Equal(t, "contextfusion", snap.IDE.ProjectName)
}

func TestExtract_DeadlineStillReturnsPartialSnapshot(t *testing.T) {
	ax := &fakeAX{focus: &contextmodel.FocusedElement{Role: "AXTextField"}}
	e := New(ax, nil)
	e.Deadline = 1 * time.Nanosecond

	seed := ExtractSeed{App: contextmodel.AppInfo{Name: "X", BundleID: "com.example.x", PID: 1}}

	snap := e.Extract(context.Background(), seed)
	assert.Equal(t, "X", snap.App.Name)
}

func TestExtract_EmptyWindowListIsNotAnError(t *testing.T) {
	ax := &fakeAX{focus: &contextmodel.FocusedElement{}}
	e := New(ax, nil)

	seed := ExtractSeed{App: contextmodel.AppInfo{Name: "NoWindows", BundleID: "com.example.nowin", PID: 5}}

	snap := e.Extract(context.Background(), seed)
	assert.Nil(t, snap.Window)
}

func TestClassifyApp(t *testing.T) {
	cases := map[string]contextmodel.AppClass{
		"com.apple.Safari":        contextmodel.AppClassBrowser,
		"com.jetbrains.GoLand":    contextmodel.AppClassIDE,
		"com.googlecode.iterm2":   contextmodel.AppClassTerminal,
		"com.apple.finder":        contextmodel.AppClassFileManager,
		"com.apple.Preview":       contextmodel.AppClassMediaViewer,
		"com.microsoft.Excel":     contextmodel.AppClassSpreadsheet,
		"com.unknown.SomeApp":     contextmodel.AppClassOther,
	}
	for bundleID, want := range cases {
		assert.Equal(t, want, ClassifyApp(bundleID), bundleID)
	}
}

func TestLooksLikeURL(t *testing.T) {
	assert.True(t, looksLikeURL("https://example.com/path"))
	assert.True(t, looksLikeURL("http://example.com"))
	assert.False(t, looksLikeURL("example.com"))
	assert.False(t, looksLikeURL("https://example.com/has space"))
	assert.False(t, looksLikeURL(""))
}
