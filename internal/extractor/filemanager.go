package extractor

import (
	"context"
	"net/url"
	"strings"

	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

const finderFolderScript = `tell application "Finder" to POSIX path of (target of front window as alias)`

const finderSelectionScript = `tell application "Finder"
set sel to selection
set out to ""
repeat with itm in sel
	set out to out & (POSIX path of (itm as alias)) & linefeed
end repeat
return out
end tell`

// decodeFileURL turns a file:// URL into a plain absolute path. Finder's
// AppleScript dictionary mostly returns POSIX paths directly, but any
// file:// URL that slips through (e.g. from a drag payload) is decoded here.
func decodeFileURL(raw string) string {
	if !strings.HasPrefix(raw, "file://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

// extractFileManager implements the file-manager branch of §4.B step 3:
// Script Oracle for the current folder and the selected items.
func (e *Extractor) extractFileManager(ctx context.Context, seed ExtractSeed, snap *contextmodel.ContextSnapshot) {
	fc := &contextmodel.FinderContext{}

	if e.Oracle != nil {
		if folder, err := e.Oracle.Query(ctx, seed.App.BundleID, platform.QueryFinderFolder, finderFolderScript); err == nil {
			fc.CurrentFolder = decodeFileURL(folder)
		}
		if rawSelection, err := e.Oracle.Query(ctx, seed.App.BundleID, platform.QueryFinderSelection, finderSelectionScript); err == nil {
			for _, line := range strings.Split(rawSelection, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				fc.SelectedItems = append(fc.SelectedItems, decodeFileURL(line))
			}
		}
	}

	snap.Finder = fc
}
