// Package criteria extracts award-criteria weights (economic, technical,
// other, RSE) from tender text.  Two modes run in strict priority order:
// structured "CRITÈRE N°x" rows first, then free-text section scanning.  A
// structured result, however partial, suppresses the free-text mode entirely.
//
// Weights are percentages in [0,100]; point values on a 100-point scale are
// numerically equivalent and accepted unchanged.
package criteria

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/common"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/normalizer"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// Extraction mode labels recorded on the result.
const (
	ModeStructured = "structured"
	ModeFreeText   = "freetext"
)

// lotWindowSize bounds the per-lot text window when the next lot marker is
// further away than this many bytes.
const lotWindowSize = 1200

// Extractor locates criteria globally or per lot.
type Extractor struct {
	log common.Logger
}

// New constructs an Extractor.  A nil logger is replaced with a no-op.
func New(log common.Logger) *Extractor {
	if log == nil {
		log = common.NoopLogger()
	}
	return &Extractor{log: log}
}

// ExtractDocument returns the document-global criteria, or nil when neither
// mode finds a single weight.
func (e *Extractor) ExtractDocument(text string) *tender.AwardCriteria {
	return e.extract(text)
}

// PerLot resolves criteria lot by lot: rows naming the lot numero first, then
// the lot's own text window.  Lots for which neither source yields anything
// are left out of the map; the caller decides whether they inherit the
// document-global criteria.
func (e *Extractor) PerLot(text string, lots []tender.Lot) map[int]*tender.AwardCriteria {
	out := make(map[int]*tender.AwardCriteria)
	rows := e.lotRows(text)

	for _, lot := range lots {
		if c, ok := rows[lot.Numero]; ok {
			out[lot.Numero] = c
			continue
		}
		win := e.lotWindow(text, lot, lots)
		if c := e.extract(win); !c.Empty() {
			out[lot.Numero] = c
		}
	}
	return out
}

func (e *Extractor) extract(text string) *tender.AwardCriteria {
	if c := e.structured(text); !c.Empty() {
		return c
	}
	if c := e.freeText(text); !c.Empty() {
		return c
	}
	return nil
}

// ---------------------------------------------------------------------------
// Structured mode
// ---------------------------------------------------------------------------

// structRowRe matches numbered criteria rows: "CRITÈRE N°1 : Prix ... 40
// points".  The label is everything between the numero and the weight; dotted
// leaders are absorbed by the separator class.
var structRowRe = regexp.MustCompile(
	`(?i)crit[èe]re\s*n\s*°\s*(\d{1,2})\s*[:\-–]?\s*([^\n]*?)[\s.:…\-–]*(\d{1,3}(?:[.,]\d{1,2})?)\s*(?:points?\b|pts?\b|%)`)

func (e *Extractor) structured(text string) *tender.AwardCriteria {
	var c *tender.AwardCriteria
	for _, m := range structRowRe.FindAllStringSubmatch(text, -1) {
		w, ok := parseWeight(m[3])
		if !ok {
			continue
		}
		if c == nil {
			c = &tender.AwardCriteria{Mode: ModeStructured}
		}
		assign(c, classify(m[2]), w)
	}
	return c
}

// ---------------------------------------------------------------------------
// Free-text mode
// ---------------------------------------------------------------------------

// sectionHeadingRe locates criteria sections; the scan is then restricted to
// a window around each heading.  With no heading at all the whole text is
// scanned, so bare "Critère économique : 40 %" lines still resolve.
var sectionHeadingRe = regexp.MustCompile(
	`(?i)crit[èe]res?\s+d['’]attribution|grille\s+d['’][ée]valuation|jugement\s+des\s+offres|pond[ée]ration\s+des\s+crit[èe]res|crit[èe]res?\s+de\s+s[ée]lection`)

const (
	headingWindowBefore = 200
	headingWindowAfter  = 1000
)

// classRes pair a criteria class with the vocabulary that announces its
// weight.  Scanned in declared order; within a class the first in-range
// weight wins.
var classRes = []struct {
	class string
	re    *regexp.Regexp
}{
	{"rse", regexp.MustCompile(`(?i)(?:\brse\b|d[ée]veloppement\s+durable|environnement\w*)[^\n%]{0,80}?(\d{1,3}(?:[.,]\d{1,2})?)\s*(?:%|points?\b|pts?\b)`)},
	{"technical", regexp.MustCompile(`(?i)(?:valeur\s+technique|techniqu\w*)[^\n%]{0,80}?(\d{1,3}(?:[.,]\d{1,2})?)\s*(?:%|points?\b|pts?\b)`)},
	{"economic", regexp.MustCompile(`(?i)(?:\bprix\b|[ée]conomiqu\w*|financi\w*|co[ûu]t\w*|tarif\w*)[^\n%]{0,80}?(\d{1,3}(?:[.,]\d{1,2})?)\s*(?:%|points?\b|pts?\b)`)},
	{"other", regexp.MustCompile(`(?i)(?:qualit[ée]\w*|d[ée]lais?\b|service\s+apr[èe]s[\s\-]vente|autres?\s+crit[èe]res?)[^\n%]{0,80}?(\d{1,3}(?:[.,]\d{1,2})?)\s*(?:%|points?\b|pts?\b)`)},
}

func (e *Extractor) freeText(text string) *tender.AwardCriteria {
	windows := e.headingWindows(text)
	if len(windows) == 0 {
		windows = []string{text}
	}

	var c *tender.AwardCriteria
	for _, win := range windows {
		for _, cr := range classRes {
			if c != nil && hasClass(c, cr.class) {
				continue
			}
			for _, m := range cr.re.FindAllStringSubmatch(win, -1) {
				w, ok := parseWeight(m[1])
				if !ok {
					continue
				}
				if c == nil {
					c = &tender.AwardCriteria{Mode: ModeFreeText}
				}
				assign(c, cr.class, w)
				break
			}
		}
	}
	return c
}

func (e *Extractor) headingWindows(text string) []string {
	var windows []string
	for _, loc := range sectionHeadingRe.FindAllStringIndex(text, -1) {
		start := loc[0] - headingWindowBefore
		if start < 0 {
			start = 0
		}
		for start > 0 && !utf8.RuneStart(text[start]) {
			start--
		}
		windows = append(windows, sliceWindow(text, start, loc[1]-start+headingWindowAfter))
	}
	return windows
}

// ---------------------------------------------------------------------------
// Per-lot scoping
// ---------------------------------------------------------------------------

var lotRowRe = regexp.MustCompile(`(?im)^.*?\blot\s*n?\s*°?\s*(\d{1,2})\b([^\n]*)$`)

// lotRows collects criteria declared on the same line as a lot numero, e.g.
// "Lot 1 : prix 40 % - valeur technique 60 %".
func (e *Extractor) lotRows(text string) map[int]*tender.AwardCriteria {
	out := make(map[int]*tender.AwardCriteria)
	for _, m := range lotRowRe.FindAllStringSubmatch(text, -1) {
		numero, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, seen := out[numero]; seen {
			continue
		}
		var c *tender.AwardCriteria
		for _, cr := range classRes {
			mm := cr.re.FindStringSubmatch(m[2])
			if mm == nil {
				continue
			}
			w, ok := parseWeight(mm[1])
			if !ok {
				continue
			}
			if c == nil {
				c = &tender.AwardCriteria{Mode: ModeStructured}
			}
			assign(c, cr.class, w)
		}
		if !c.Empty() {
			out[numero] = c
		}
	}
	return out
}

// lotWindow spans from the lot's marker to the next lot marker, capped at
// lotWindowSize bytes.
func (e *Extractor) lotWindow(text string, lot tender.Lot, lots []tender.Lot) string {
	end := lot.Position + lotWindowSize
	for _, other := range lots {
		if other.Position > lot.Position && other.Position < end {
			end = other.Position
		}
	}
	return sliceWindow(text, lot.Position, end-lot.Position)
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// classify maps a criteria label onto its class.  RSE vocabulary is checked
// before the technical one so "performance environnementale" is not swallowed
// by a broader match; anything unrecognized counts as "other".
func classify(label string) string {
	folded := normalizer.Fold(label)
	switch {
	case containsAny(folded, "rse", "developpement durable", "environnement", "social"):
		return "rse"
	case containsAny(folded, "valeur technique", "technique", "technicite"):
		return "technical"
	case containsAny(folded, "prix", "economique", "financier", "cout", "tarif"):
		return "economic"
	default:
		return "other"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func assign(c *tender.AwardCriteria, class string, w float64) {
	switch class {
	case "economic":
		if c.Economic == nil {
			c.Economic = &w
		}
	case "technical":
		if c.Technical == nil {
			c.Technical = &w
		}
	case "rse":
		if c.RSE == nil {
			c.RSE = &w
		}
	default:
		if c.Others == nil {
			c.Others = &w
		}
	}
}

func hasClass(c *tender.AwardCriteria, class string) bool {
	switch class {
	case "economic":
		return c.Economic != nil
	case "technical":
		return c.Technical != nil
	case "rse":
		return c.RSE != nil
	default:
		return c.Others != nil
	}
}

// parseWeight bounds a weight to (0,100]; out-of-range values are rejected,
// never clamped.
func parseWeight(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || w <= 0 || w > 100 {
		return 0, false
	}
	return w, true
}

func sliceWindow(text string, start, size int) string {
	if start < 0 {
		start = 0
	}
	if start >= len(text) || size <= 0 {
		return ""
	}
	end := start + size
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return text[start:end]
}

//Personal.AI order the ending
