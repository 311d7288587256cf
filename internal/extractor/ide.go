package extractor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// titleSeparators are the separator strings IDEs commonly place between the
// active file and the project/workspace name in the window title.
var titleSeparators = []string{" — ", " - ", " • "}

// probeRoots is the fixed set of candidate project roots/subdirectories a
// relative file path recovered from a window title is checked against, in
// order, to promote it to an absolute path.
var probeRoots = []string{
	"",
	"src",
	"cmd",
	"internal",
	"pkg",
}

// splitIDETitle parses an IDE window title by the recognized separator set
// into (file, project). If no separator matches, the whole title is treated
// as the file and project is left empty.
func splitIDETitle(title string) (file, project string) {
	for _, sep := range titleSeparators {
		if idx := strings.Index(title, sep); idx >= 0 {
			return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+len(sep):])
		}
	}
	return strings.TrimSpace(title), ""
}

// resolveRelativeFile promotes a relative file name to an absolute path by
// probing a fixed set of candidate roots under the given project directory.
// If none exist, the relative name is returned unchanged.
func resolveRelativeFile(project, file string) string {
	if file == "" || filepath.IsAbs(file) || project == "" {
		return file
	}
	home, _ := os.UserHomeDir()
	candidates := []string{project}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, project), filepath.Join(home, "Projects", project), filepath.Join(home, "code", project))
	}
	for _, root := range candidates {
		for _, sub := range probeRoots {
			candidate := filepath.Join(root, sub, file)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return file
}

// extractIDE implements the IDE branch of §4.B step 3. The AX document
// attribute override (when present) is applied later in refineFromFocus;
// this step only seeds from the window title.
func (e *Extractor) extractIDE(window *contextmodel.WindowRecord, snap *contextmodel.ContextSnapshot) {
	ic := &contextmodel.IDEContext{}
	if window != nil {
		file, project := splitIDETitle(window.Title)
		ic.ProjectName = project
		ic.ActiveFile = resolveRelativeFile(project, file)
		window.FilePath = ic.ActiveFile
	}
	snap.IDE = ic
}
