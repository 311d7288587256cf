package extractor

import "github.com/open-runtime/contextfusion/pkg/contextmodel"

// extractSpreadsheet implements the spreadsheet branch of §4.B step 3:
// window title becomes the sheet name. The selected cell reference comes
// from the focused element's description/help, filled in by
// refineFromFocus.
func (e *Extractor) extractSpreadsheet(window *contextmodel.WindowRecord, snap *contextmodel.ContextSnapshot) {
	sc := &contextmodel.SpreadsheetContext{}
	if window != nil {
		sc.Sheet = window.Title
	}
	snap.Spreadsheet = sc
}
