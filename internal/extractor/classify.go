package extractor

import (
	"strings"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// classPrefixes maps a bundle-id prefix to its app class (Glossary: "App
// class"). Longest match wins so a vendor's sub-products can be special
// cased ahead of their parent prefix if one is ever added.
var classPrefixes = []struct {
	prefix string
	class  contextmodel.AppClass
}{
	{"com.apple.Safari", contextmodel.AppClassBrowser},
	{"com.google.Chrome", contextmodel.AppClassBrowser},
	{"org.mozilla.firefox", contextmodel.AppClassBrowser},
	{"com.microsoft.edgemac", contextmodel.AppClassBrowser},
	{"com.brave.Browser", contextmodel.AppClassBrowser},
	{"company.thebrowser.Browser", contextmodel.AppClassBrowser},
	{"com.operasoftware.Opera", contextmodel.AppClassBrowser},
	{"com.vivaldi.Vivaldi", contextmodel.AppClassBrowser},

	{"com.microsoft.VSCode", contextmodel.AppClassIDE},
	{"com.jetbrains.", contextmodel.AppClassIDE},
	{"com.apple.dt.Xcode", contextmodel.AppClassIDE},
	{"com.sublimetext.", contextmodel.AppClassIDE},
	{"com.github.atom", contextmodel.AppClassIDE},
	{"dev.zed.Zed", contextmodel.AppClassIDE},

	{"com.apple.Terminal", contextmodel.AppClassTerminal},
	{"com.googlecode.iterm2", contextmodel.AppClassTerminal},
	{"net.kovidgoyal.kitty", contextmodel.AppClassTerminal},
	{"com.github.wez.wezterm", contextmodel.AppClassTerminal},
	{"io.alacritty", contextmodel.AppClassTerminal},

	{"com.microsoft.Excel", contextmodel.AppClassSpreadsheet},
	{"com.apple.iWork.Numbers", contextmodel.AppClassSpreadsheet},
	{"org.libreoffice.script", contextmodel.AppClassSpreadsheet},

	{"com.apple.finder", contextmodel.AppClassFileManager},

	{"com.apple.Preview", contextmodel.AppClassMediaViewer},
	{"com.apple.QuickTimePlayerX", contextmodel.AppClassMediaViewer},
	{"com.colliderli.iina", contextmodel.AppClassMediaViewer},
	{"org.videolan.vlc", contextmodel.AppClassMediaViewer},
}

// ClassifyApp returns the coarse app class for a bundle id, matching the
// longest registered prefix. Unmatched bundle ids (and empty ones) classify
// as AppClassOther.
func ClassifyApp(bundleID string) contextmodel.AppClass {
	best := contextmodel.AppClassOther
	bestLen := -1
	for _, entry := range classPrefixes {
		if strings.HasPrefix(bundleID, entry.prefix) && len(entry.prefix) > bestLen {
			best = entry.class
			bestLen = len(entry.prefix)
		}
	}
	return best
}
