package extractor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// browserScript returns the AppleScript source for a given bundle id and
// query kind. WebKit/Safari and the Chromium family expose slightly
// different scripting dictionaries; Firefox and other Gecko browsers expose
// none, so a query against them is left to fail fast (caller falls back).
func browserScript(bundleID string, kind platform.QueryKind) (string, bool) {
	switch bundleID {
	case "com.apple.Safari":
		switch kind {
		case platform.QueryBrowserURL:
			return `tell application "Safari" to get URL of front document`, true
		case platform.QueryBrowserTitle:
			return `tell application "Safari" to get name of front document`, true
		case platform.QueryBrowserTabCount:
			return `tell application "Safari" to get count of tabs of front window`, true
		}
	case "com.google.Chrome", "com.brave.Browser", "com.microsoft.edgemac",
		"company.thebrowser.Browser", "com.operasoftware.Opera", "com.vivaldi.Vivaldi":
		app := chromiumAppName(bundleID)
		switch kind {
		case platform.QueryBrowserURL:
			return fmt.Sprintf(`tell application %q to get URL of active tab of front window`, app), true
		case platform.QueryBrowserTitle:
			return fmt.Sprintf(`tell application %q to get title of active tab of front window`, app), true
		case platform.QueryBrowserTabCount:
			return fmt.Sprintf(`tell application %q to get count of tabs of front window`, app), true
		}
	}
	return "", false
}

func chromiumAppName(bundleID string) string {
	switch bundleID {
	case "com.google.Chrome":
		return "Google Chrome"
	case "com.brave.Browser":
		return "Brave Browser"
	case "com.microsoft.edgemac":
		return "Microsoft Edge"
	case "company.thebrowser.Browser":
		return "Arc"
	case "com.operasoftware.Opera":
		return "Opera"
	case "com.vivaldi.Vivaldi":
		return "Vivaldi"
	default:
		return bundleID
	}
}

// extractBrowser implements the browser branch of §4.B step 3: Script
// Oracle first, then the window title as the fallback for both URL and
// title. AX comes last: refineFromFocus fills the URL from the focused
// element only when neither the oracle nor the window title produced one,
// and never sets the page title. refineFromFocus reads the focused
// element's URL/Value fields instead of walking to the address bar, since
// the platform layer exposes one focused element plus its ancestor
// breadcrumb rather than an arbitrary-element tree walk.
func (e *Extractor) extractBrowser(ctx context.Context, seed ExtractSeed, window *contextmodel.WindowRecord, snap *contextmodel.ContextSnapshot) {
	bc := &contextmodel.BrowserContext{}

	if e.Oracle != nil {
		if script, ok := browserScript(seed.App.BundleID, platform.QueryBrowserURL); ok {
			if url, err := e.Oracle.Query(ctx, seed.App.BundleID, platform.QueryBrowserURL, script); err == nil && looksLikeURL(url) {
				bc.URL = url
			}
		}
		if script, ok := browserScript(seed.App.BundleID, platform.QueryBrowserTitle); ok {
			if title, err := e.Oracle.Query(ctx, seed.App.BundleID, platform.QueryBrowserTitle, script); err == nil {
				bc.PageTitle = title
			}
		}
		if script, ok := browserScript(seed.App.BundleID, platform.QueryBrowserTabCount); ok {
			if count, err := e.Oracle.Query(ctx, seed.App.BundleID, platform.QueryBrowserTabCount, script); err == nil {
				if n, convErr := strconv.Atoi(count); convErr == nil {
					bc.TabCount = n
				}
			}
		}
	}

	if window != nil {
		if bc.URL == "" && looksLikeURL(window.Title) {
			bc.URL = window.Title
		}
		if bc.PageTitle == "" {
			bc.PageTitle = window.Title
		}
		window.URL = bc.URL
		window.TabTitle = bc.PageTitle
	}

	snap.Browser = bc
}
