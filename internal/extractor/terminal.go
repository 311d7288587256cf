package extractor

import (
	"regexp"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// cwdPattern matches the common "user@host:~/path" and "~/path — tab" tab
// title shapes terminal emulators use, capturing the path portion.
var cwdPattern = regexp.MustCompile(`(?:~|/)[^\s:]*`)

// extractTerminal implements the terminal branch of §4.B step 3: window
// title becomes the tab name, and a best-effort CWD guess is pulled from it.
// The focused text area's value (current visible content) is filled in by
// refineFromFocus once the AX mine runs.
func (e *Extractor) extractTerminal(window *contextmodel.WindowRecord, snap *contextmodel.ContextSnapshot) {
	tc := &contextmodel.TerminalContext{}
	if window != nil {
		tc.Tab = window.Title
		if m := cwdPattern.FindString(window.Title); m != "" {
			tc.CWD = m
		}
	}
	snap.Terminal = tc
}
