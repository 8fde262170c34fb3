// Package lotseg segments a tender document into lots.  Four strategies run
// in order of decreasing strictness — line analysis, structured table rows,
// multi-line titles, flexible patterns — and their results are merged with
// strategy priority: the first strategy to produce a lot numero owns it,
// later strategies only fill missing amounts and replace shorter titles.
//
// Accepted lots satisfy the segmentation invariants: numero in [1,50], title
// 10 to 500 characters after cleaning (loosened to 5 for the fallback
// strategies), amounts strictly positive, and maximum not below estimate.  An
// amount pair violating the last invariant is dropped (the lot survives) and
// reported as a structural anomaly warning.
package lotseg

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/common"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/normalizer"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// Strategy names, in priority order.
const (
	StrategyLineAnalysis    = "line_analysis"
	StrategyStructuredTable = "structured_table"
	StrategyMultiLineTitles = "multiline_titles"
	StrategyFlexible        = "flexible_patterns"
)

// strategyPriority is the merge order: earlier strategies own the lot numero.
var strategyPriority = []string{
	StrategyLineAnalysis,
	StrategyStructuredTable,
	StrategyMultiLineTitles,
	StrategyFlexible,
}

const (
	minNumero           = 1
	maxNumero           = 50
	minTitleLen         = 10
	minTitleLenFallback = 5
	maxTitleLen         = 500
)

// Segmenter detects lots in normalized document text.
type Segmenter struct {
	log common.Logger
}

// New constructs a Segmenter.  A nil logger is replaced with a no-op.
func New(log common.Logger) *Segmenter {
	if log == nil {
		log = common.NoopLogger()
	}
	return &Segmenter{log: log}
}

// Result carries the merged lots plus segmentation diagnostics.
type Result struct {
	Lots       []tender.Lot
	Warnings   []string
	ByStrategy map[string]int
}

// Segment runs every strategy over the text and merges their lots.  The
// returned lots are sorted by numero.  An empty slice means no strategy found
// anything; callers fall back to DefaultLot so the pipeline always emits at
// least one record.
func (s *Segmenter) Segment(text string) Result {
	res := Result{ByStrategy: make(map[string]int)}

	found := map[string][]tender.Lot{
		StrategyLineAnalysis:    s.lineAnalysis(text),
		StrategyStructuredTable: s.structuredTable(text),
		StrategyMultiLineTitles: s.multiLineTitles(text),
		StrategyFlexible:        s.flexiblePatterns(text),
	}
	for name, lots := range found {
		res.ByStrategy[name] = len(lots)
	}

	merged := make(map[int]*tender.Lot)
	for _, strategy := range strategyPriority {
		for _, lot := range found[strategy] {
			lot := lot
			if err := s.checkInvariants(&lot, &res); err != nil {
				continue
			}
			owner, ok := merged[lot.Numero]
			if !ok {
				merged[lot.Numero] = &lot
				continue
			}
			// A later strategy never replaces the owner; it only completes it.
			if !owner.HasAmounts() && lot.MontantEstime > 0 {
				owner.MontantEstime = lot.MontantEstime
				owner.MontantMaximum = lot.MontantMaximum
			}
			if len(lot.Intitule) > len(owner.Intitule) {
				owner.Intitule = lot.Intitule
			}
		}
	}

	for _, lot := range merged {
		res.Lots = append(res.Lots, *lot)
	}
	sort.Slice(res.Lots, func(i, j int) bool { return res.Lots[i].Numero < res.Lots[j].Numero })

	s.log.Debug("lot segmentation finished",
		"lots", len(res.Lots), "warnings", len(res.Warnings))
	return res
}

// checkInvariants enforces the acceptance rules on a candidate lot, mutating
// it where degradation applies (amount pair dropped on incoherence).  A
// returned error rejects the lot entirely.
func (s *Segmenter) checkInvariants(lot *tender.Lot, res *Result) error {
	if lot.Numero < minNumero || lot.Numero > maxNumero {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("lot %d rejected: numero outside [%d,%d]", lot.Numero, minNumero, maxNumero))
		return fmt.Errorf("numero out of range")
	}
	lot.Intitule = CleanTitle(lot.Intitule)
	if isFauxLot(lot.Intitule) {
		return fmt.Errorf("faux lot")
	}
	// The primary strategy keeps the strict bound; fallback strategies accept
	// shorter titles ("FORMATION" style single-word table rows).
	minLen := minTitleLenFallback
	if lot.Source == StrategyLineAnalysis {
		minLen = minTitleLen
	}
	if len(lot.Intitule) < minLen || len(lot.Intitule) > maxTitleLen {
		return fmt.Errorf("title length out of bounds")
	}
	if lot.MontantEstime < 0 || lot.MontantMaximum < 0 {
		lot.MontantEstime, lot.MontantMaximum = 0, 0
	}
	if lot.MontantEstime > 0 && lot.MontantMaximum > 0 && lot.MontantMaximum < lot.MontantEstime {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("lot %d: maximum %.0f below estimate %.0f, amounts dropped",
				lot.Numero, lot.MontantMaximum, lot.MontantEstime))
		lot.MontantEstime, lot.MontantMaximum = 0, 0
	}
	return nil
}

// DefaultLot builds the single fallback lot used when no strategy finds
// anything.  The title derives from the procedure title when one exists.
func DefaultLot(procedureTitle string) tender.Lot {
	title := strings.TrimSpace(procedureTitle)
	if len(title) < minTitleLen {
		title = "Lot unique - objet du marché"
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	return tender.Lot{
		Numero:     1,
		Intitule:   title,
		Source:     "default",
		Confidence: 0.3,
	}
}

// ---------------------------------------------------------------------------
// Strategy 1: line analysis
// ---------------------------------------------------------------------------

var (
	lotLineRe   = regexp.MustCompile(`(?i)^lot\s*(?:n°\s*|n\s*°\s*|num[ée]ro\s*)?(\d{1,2})\s*[:.\-–]\s*(.+)$`)
	moneyRe     = regexp.MustCompile(`\d{1,3}(?:[\s.]\d{3})+(?:,\d{1,2})?\s*€?|\d{4,}(?:,\d{1,2})?\s*€`)
	estimeNearRe = regexp.MustCompile(`(?i)estim[ée]\w*\s*(?:[àa]|:)?\s*(\d{1,3}(?:[\s.]\d{3})*(?:,\d{1,2})?)\s*€?`)
	maxiNearRe   = regexp.MustCompile(`(?i)maxi\w*\s*(?:[àa]|:)?\s*(\d{1,3}(?:[\s.]\d{3})*(?:,\d{1,2})?)\s*€?`)

	// titleStopRe ends title continuation: criteria lines and percentage
	// weights never belong to a lot title.
	titleStopRe = regexp.MustCompile(`(?i)^crit[èe]re|\d{1,3}\s*(?:%|points?\b|pts?\b)`)
)

// lineAnalysis matches "Lot N : title" lines, extends short titles from the
// following lines, and looks for estimate/maximum amounts in the lot's
// immediate window (up to five lines below the marker).
func (s *Segmenter) lineAnalysis(text string) []tender.Lot {
	lines := strings.Split(text, "\n")
	var lots []tender.Lot
	offset := 0
	for i, line := range lines {
		m := lotLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			offset += len(line) + 1
			continue
		}
		numero, err := strconv.Atoi(m[1])
		if err != nil {
			offset += len(line) + 1
			continue
		}
		title := extendTitle(m[2], lines, i)
		lot := tender.Lot{
			Numero:     numero,
			Intitule:   title,
			Source:     StrategyLineAnalysis,
			Position:   offset,
			Confidence: 0.9,
		}
		window := strings.Join(lines[i:min(i+6, len(lines))], "\n")
		if mm := estimeNearRe.FindStringSubmatch(window); mm != nil {
			if f, ok := common.ParseAmount(mm[1]); ok {
				lot.MontantEstime = f
			}
		}
		if mm := maxiNearRe.FindStringSubmatch(window); mm != nil {
			if f, ok := common.ParseAmount(mm[1]); ok {
				lot.MontantMaximum = f
			}
		}
		lots = append(lots, lot)
		offset += len(line) + 1
	}
	return lots
}

// extendTitle absorbs continuation lines below a lot marker until a money
// pattern, a blank line, or the next numbered row appears.  At most five
// lines are consumed.
func extendTitle(title string, lines []string, start int) string {
	title = strings.TrimSpace(title)
	for j := start + 1; j < len(lines) && j <= start+5; j++ {
		next := strings.TrimSpace(lines[j])
		if next == "" || moneyRe.MatchString(next) || titleStopRe.MatchString(next) ||
			lotLineRe.MatchString(next) || tableRowRe.MatchString(next) {
			break
		}
		// Continuation lines start lowercase or continue an unfinished clause.
		if len(title) >= 80 {
			break
		}
		title += " " + next
	}
	return title
}

// ---------------------------------------------------------------------------
// Strategy 2: structured table rows
// ---------------------------------------------------------------------------

// tableRowRe matches "N TITLE <numbers>" rows as produced by tabular lot
// summaries: numero, an uppercase-leading title, then a numeric tail holding
// the two amounts.  The tail is captured whole and split afterwards, because a
// regex alone cannot tell "100 000 150 000" apart from "100 000 150" + "000"
// when French thousands grouping uses plain spaces.
var tableRowRe = regexp.MustCompile(
	`(?m)^(\d{1,2})\s+([A-ZÀ-ÖØ-Þ][A-Za-zÀ-ÖØ-öø-ÿ0-9'’/()&.,\- ]*?)\s+([\d\s.,€]+?)\s*$`)

// structuredTable parses tabular lot rows.  Both amounts are mandatory in
// this strategy; rows without two amounts belong to the other strategies.
func (s *Segmenter) structuredTable(text string) []tender.Lot {
	var lots []tender.Lot
	for _, m := range tableRowRe.FindAllStringSubmatchIndex(text, -1) {
		numero, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		estime, maxi, ok := splitAmountPair(text[m[6]:m[7]])
		if !ok {
			continue
		}
		lots = append(lots, tender.Lot{
			Numero:         numero,
			Intitule:       strings.TrimSpace(text[m[4]:m[5]]),
			MontantEstime:  estime,
			MontantMaximum: maxi,
			Source:         StrategyStructuredTable,
			Position:       m[0],
			Confidence:     0.85,
		})
	}
	return lots
}

// Token shapes for space-grouped amounts: the leading group of an amount is 1
// to 3 digits without a leading zero, continuation groups are exactly 3
// digits, and only the last group may carry a decimal part.
var (
	amtSingleRe = regexp.MustCompile(`^[1-9]\d{0,2}(?:\.\d{3})+(?:,\d{1,2})?$|^[1-9]\d*(?:[.,]\d{1,2})?$`)
	amtHeadRe   = regexp.MustCompile(`^[1-9]\d{0,2}$`)
	amtGroupRe  = regexp.MustCompile(`^\d{3}$`)
	amtTailRe   = regexp.MustCompile(`^\d{3}(?:,\d{1,2})?$`)
)

// splitAmountPair divides a row's numeric tail into (estimate, maximum).  The
// tail is tokenized on whitespace and every split point is tried until both
// sides form a well-shaped amount, which resolves the grouping ambiguity:
// "100 000 150 000" admits only the 100000/150000 split because "000" cannot
// open an amount.
func splitAmountPair(tail string) (estime, maxi float64, ok bool) {
	tokens := strings.Fields(strings.ReplaceAll(tail, "€", " "))
	for k := 1; k < len(tokens); k++ {
		if !validGroupedAmount(tokens[:k]) || !validGroupedAmount(tokens[k:]) {
			continue
		}
		e, okE := common.ParseAmount(strings.Join(tokens[:k], " "))
		m, okM := common.ParseAmount(strings.Join(tokens[k:], " "))
		if okE && okM {
			return e, m, true
		}
	}
	return 0, 0, false
}

func validGroupedAmount(tokens []string) bool {
	switch {
	case len(tokens) == 0:
		return false
	case len(tokens) == 1:
		return amtSingleRe.MatchString(tokens[0])
	}
	if !amtHeadRe.MatchString(tokens[0]) {
		return false
	}
	for _, tok := range tokens[1 : len(tokens)-1] {
		if !amtGroupRe.MatchString(tok) {
			return false
		}
	}
	return amtTailRe.MatchString(tokens[len(tokens)-1])
}

// ---------------------------------------------------------------------------
// Strategy 3: multi-line titles
// ---------------------------------------------------------------------------

var bareLotRe = regexp.MustCompile(`(?i)^lot\s*(?:n°\s*)?(\d{1,2})\s*$`)

// multiLineTitles handles "Lot N" markers alone on their line with the title
// on the following lines.
func (s *Segmenter) multiLineTitles(text string) []tender.Lot {
	lines := strings.Split(text, "\n")
	var lots []tender.Lot
	offset := 0
	for i, line := range lines {
		m := bareLotRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			offset += len(line) + 1
			continue
		}
		numero, err := strconv.Atoi(m[1])
		if err != nil {
			offset += len(line) + 1
			continue
		}
		var parts []string
		for j := i + 1; j < len(lines) && j <= i+4; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" || moneyRe.MatchString(next) || titleStopRe.MatchString(next) ||
				bareLotRe.MatchString(next) || lotLineRe.MatchString(next) {
				break
			}
			parts = append(parts, next)
		}
		if len(parts) == 0 {
			offset += len(line) + 1
			continue
		}
		lots = append(lots, tender.Lot{
			Numero:     numero,
			Intitule:   strings.Join(parts, " "),
			Source:     StrategyMultiLineTitles,
			Position:   offset,
			Confidence: 0.7,
		})
		offset += len(line) + 1
	}
	return lots
}

// ---------------------------------------------------------------------------
// Strategy 4: flexible patterns
// ---------------------------------------------------------------------------

var flexibleLotRe = regexp.MustCompile(`(?i)\blot\s*(?:n°\s*)?(\d{1,2})\s*[:\-]?\s+([^\n]{5,150})`)

// flexiblePatterns is the permissive last resort: any "lot N ..." fragment
// anywhere in the text.  It carries the lowest confidence and only ever fills
// gaps left by the stricter strategies.
func (s *Segmenter) flexiblePatterns(text string) []tender.Lot {
	var lots []tender.Lot
	seen := make(map[int]bool)
	for _, m := range flexibleLotRe.FindAllStringSubmatchIndex(text, -1) {
		numero, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || seen[numero] {
			continue
		}
		seen[numero] = true
		lots = append(lots, tender.Lot{
			Numero:     numero,
			Intitule:   strings.TrimSpace(text[m[4]:m[5]]),
			Source:     StrategyFlexible,
			Position:   m[0],
			Confidence: 0.5,
		})
	}
	return lots
}

// ---------------------------------------------------------------------------
// Title cleaning and faux-lot filtering
// ---------------------------------------------------------------------------

var (
	trailingMoneyRe = regexp.MustCompile(`(?:\d{1,3}(?:[\s.]\d{3})*(?:,\d{1,2})?\s*€?\s*)+$`)
	trailingWordsRe = regexp.MustCompile(`(?i)[\s:;,\-–]*(?:montant|estim[ée]e?|maximum|maxi|mini|HT|TTC|euros?)?[\s:;,\-–]*$`)
)

// CleanTitle strips trailing amounts, currency fragments and technical
// stopwords from a lot title, and caps the length.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)
	t = trailingMoneyRe.ReplaceAllString(t, "")
	t = trailingWordsRe.ReplaceAllString(t, "")
	t = strings.Trim(t, " \t:;,-–€")
	if len(t) > maxTitleLen {
		t = strings.TrimSpace(t[:maxTitleLen])
	}
	return t
}

// fauxLotWords are document-structure vocabulary that regularly follows a
// number without designating an actual lot.
var fauxLotWords = []string{
	"article", "chapitre", "page", "annexe", "paragraphe", "section",
	"alinea", "tableau", "figure",
}

// isFauxLot rejects titles that are only document-structure vocabulary.
func isFauxLot(title string) bool {
	folded := normalizer.Fold(title)
	for _, w := range fauxLotWords {
		if strings.HasPrefix(folded, w+" ") || folded == w {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

//Personal.AI order the ending
