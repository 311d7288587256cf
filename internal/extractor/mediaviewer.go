package extractor

import (
	"context"
	"fmt"

	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// mediaDocumentScript returns the AppleScript for reading the open document
// path of the media apps the oracle knows how to query. Other media viewers
// fall back to whatever AX reports via refineFromFocus.
func mediaDocumentScript(bundleID string) (string, bool) {
	switch bundleID {
	case "com.apple.Preview":
		return `tell application "Preview" to POSIX path of (path of front document)`, true
	case "com.apple.QuickTimePlayerX":
		return `tell application "QuickTime Player" to POSIX path of (path of front document)`, true
	case "org.videolan.vlc":
		return fmt.Sprintf(`tell application %q to get path`, "VLC"), true
	}
	return "", false
}

// extractMediaViewer implements the media-viewer branch of §4.B step 3:
// Script Oracle for the open document path, recorded on the window's
// derived FilePath since there is no dedicated media context slot.
func (e *Extractor) extractMediaViewer(ctx context.Context, seed ExtractSeed, snap *contextmodel.ContextSnapshot) {
	if e.Oracle == nil || snap.Window == nil {
		return
	}
	script, ok := mediaDocumentScript(seed.App.BundleID)
	if !ok {
		return
	}
	if path, err := e.Oracle.Query(ctx, seed.App.BundleID, platform.QueryDocumentPath, script); err == nil && path != "" {
		snap.Window.FilePath = path
	}
}
