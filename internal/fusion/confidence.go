package fusion

import "github.com/open-runtime/contextfusion/internal/platform"

// baseWeight is the per-source confidence weight of spec §4.C.3: "oracle
// 0.95, AX 0.85, window-list 0.80, window-title parse 0.60".
var baseWeight = map[platform.ObservationKind]float64{
	platform.ObsScriptOracle:  0.95,
	platform.ObsAccessibility: 0.85,
	platform.ObsWindowList:    0.80,
	platform.ObsAppActivate:   0.80,
	platform.ObsAppLaunch:     0.80,
}

const (
	defaultWeight   = 0.60 // window-title parse and anything unlisted
	agreementBonus  = 0.05
	axMismatchPenalty = 0.1
)

// ComputeConfidence scores an event from the observation kinds that fed it,
// per the precedence/weight table in spec §4.C.3: start at the highest
// contributing source's base weight, add the agreement bonus if a second
// independent source is present, subtract the AX-type-mismatch penalty when
// requested, clamp to [0, 1].
func ComputeConfidence(sources []platform.ObservationKind, axTypeMismatch bool) float64 {
	if len(sources) == 0 {
		return defaultWeight
	}

	best := 0.0
	distinct := map[platform.ObservationKind]bool{}
	for _, s := range sources {
		w, ok := baseWeight[s]
		if !ok {
			w = defaultWeight
		}
		if w > best {
			best = w
		}
		distinct[s] = true
	}

	score := best
	if len(distinct) > 1 {
		score += agreementBonus
	}
	if axTypeMismatch {
		score -= axMismatchPenalty
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// fieldPrecedence records, for documentation and inspection, the per-field
// source ranking of spec §4.C.3, highest first. No code path resolves fields
// through it. The Extractor's browser branch does not follow the url and
// tab_title rows exactly: it takes the URL and page title from the Script
// Oracle, then from the window title, and refineFromFocus uses the AX URL or
// value only when the URL is still empty; AX never supplies the page title.
var fieldPrecedence = map[string][]platform.ObservationKind{
	"url":         {platform.ObsScriptOracle, platform.ObsAccessibility, platform.ObsWindowList},
	"active_file": {platform.ObsAccessibility, platform.ObsWindowList},
	"window_title": {platform.ObsAccessibility, platform.ObsWindowList},
	"tab_title":   {platform.ObsScriptOracle, platform.ObsAccessibility, platform.ObsWindowList},
}

// PrecedenceFor returns the source ranking for field, highest first, or nil
// if the field has no recorded precedence.
func PrecedenceFor(field string) []platform.ObservationKind {
	return fieldPrecedence[field]
}
