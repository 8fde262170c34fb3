// Package fieldext implements pattern-driven field extraction: for each field
// definition the rules are tried in rank order and the first match whose
// cleaned value passes the field's validation predicate wins.  Later rules are
// never evaluated once a rule has won (short-circuit).  A field for which no
// rule produces a valid value stays Absent; that is a normal outcome, not an
// error.
package fieldext

import (
	"strings"
	"unicode"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/common"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/fieldspec"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// Extractor runs the field definition table against document text.
type Extractor struct {
	table *fieldspec.Table
	log   common.Logger
}

// New constructs an Extractor.  A nil logger is replaced with a no-op.
func New(table *fieldspec.Table, log common.Logger) *Extractor {
	if log == nil {
		log = common.NoopLogger()
	}
	return &Extractor{table: table, log: log}
}

// ExtractField applies def's rules to text in rank order.  The first rule
// whose match cleans and validates successfully produces
// Extracted(value, rank); if every rule misses or fails validation the field
// is Absent.
func (e *Extractor) ExtractField(text string, def *fieldspec.Definition) tender.FieldValue {
	for _, rule := range def.Rules {
		raw, full, _, ok := rule.Match(text)
		if !ok {
			continue
		}
		cleaned, ok := CleanValue(def.Kind, raw, full)
		if !ok {
			continue
		}
		if !def.Validate(cleaned) {
			e.log.Debug("match failed validation",
				"field", def.Name, "rank", rule.Rank, "value", cleaned)
			continue
		}
		return tender.Extracted(cleaned, rule.Rank)
	}
	return tender.Absent()
}

// ExtractByName extracts a single field by technical name.  Unknown names are
// Absent.
func (e *Extractor) ExtractByName(text, name string) tender.FieldValue {
	def, ok := e.table.Lookup(name)
	if !ok {
		return tender.Absent()
	}
	return e.ExtractField(text, def)
}

// ExtractDocument runs every definition over the whole document text and
// returns the document-level record.  The uppercase title-block heuristic
// takes priority over the pattern rules for intitule_procedure: tender notices
// typically open with the procedure title as a block of uppercase lines.
func (e *Extractor) ExtractDocument(text string) tender.Record {
	r := tender.NewRecord()

	if title, ok := ExtractTitleBlock(text); ok {
		r.Set(tender.FieldIntituleProcedure, tender.Extracted(title, 0))
	}

	for _, def := range e.table.Definitions() {
		if def.Name == tender.FieldIntituleProcedure && r.Present(def.Name) {
			continue
		}
		if fv := e.ExtractField(text, def); fv.Present() {
			r.Set(def.Name, fv)
		}
	}
	return r
}

// CleanValue canonicalizes a raw match according to the field kind.  full is
// the complete rule match, needed when the unit (k€ suffix, "ans" vs "mois")
// sits outside the capture group.
func CleanValue(kind fieldspec.Kind, raw, full string) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case fieldspec.KindAmount:
		f, ok := common.ParseAmount(withAmountSuffix(raw, full))
		if !ok {
			return "", false
		}
		return common.FormatAmount(f), true

	case fieldspec.KindDate:
		t, ok := common.ParseDate(raw)
		if !ok {
			return "", false
		}
		return t.Format("02/01/2006"), true

	case fieldspec.KindReference:
		cleaned := common.CleanReference(raw)
		if cleaned == "" {
			return "", false
		}
		return cleaned, true

	case fieldspec.KindDuration:
		n, ok := common.FirstInt(raw)
		if !ok {
			return "", false
		}
		folded := strings.ToLower(full)
		if strings.Contains(folded, "an") && !strings.Contains(folded, "mois") {
			n *= 12
		}
		return itoa(n), true

	case fieldspec.KindInt, fieldspec.KindQuantity, fieldspec.KindPercent:
		n, ok := common.FirstInt(strings.ReplaceAll(raw, " ", ""))
		if !ok {
			return "", false
		}
		return itoa(n), true

	case fieldspec.KindYesNo:
		return raw, raw != ""

	default: // KindText
		return cleanText(raw), raw != ""
	}
}

// withAmountSuffix re-attaches a k€/M€ unit that the amount pattern captured
// outside the digit group.
func withAmountSuffix(raw, full string) string {
	lower := strings.ToLower(full)
	if strings.Contains(strings.ToLower(raw), "k") || strings.Contains(strings.ToLower(raw), "m") {
		return raw
	}
	if strings.Contains(lower, "k€") {
		return raw + " k€"
	}
	if strings.Contains(lower, "m€") {
		return raw + " M€"
	}
	return raw
}

// cleanText trims stray separators and closing punctuation off a free-text
// capture.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, " .;,:-–")
	return strings.TrimSpace(s)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [12]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

// ---------------------------------------------------------------------------
// Title-block heuristic
// ---------------------------------------------------------------------------

// titleBonusWords raise the score of candidate title blocks; they are the
// verbs and nouns procurement titles are built from.
var titleBonusWords = []string{
	"fourniture", "acquisition", "maintenance", "location", "prestation",
	"prestations", "marche", "equipements", "materiels", "services", "travaux",
}

// ExtractTitleBlock looks for the procedure title near the top of the
// document: a run of consecutive lines whose letters are at least 80%
// uppercase, totalling 30 to 500 characters.  Candidate blocks are scored by
// the procurement vocabulary they contain and the best one wins.
func ExtractTitleBlock(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > 40 {
		lines = lines[:40]
	}

	bestScore := 0
	bestTitle := ""

	var block []string
	flush := func() {
		if len(block) == 0 {
			return
		}
		candidate := strings.Join(block, " ")
		lineCount := len(block)
		block = block[:0]
		if len(candidate) < 30 || len(candidate) > 500 {
			return
		}
		score := 10 * lineCount
		folded := strings.ToLower(candidate)
		for _, w := range titleBonusWords {
			if strings.Contains(folded, w) {
				score += 15
			}
		}
		score += len(candidate) / 10
		if score > bestScore {
			bestScore = score
			bestTitle = candidate
		}
	}

	for _, line := range lines {
		if isUppercaseLine(line) {
			block = append(block, strings.TrimSpace(line))
			continue
		}
		flush()
	}
	flush()

	if bestTitle == "" {
		return "", false
	}
	return bestTitle, true
}

// isUppercaseLine reports whether at least 80% of a line's letters are
// uppercase and the line is substantial enough to be part of a title.
func isUppercaseLine(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 10 {
		return false
	}
	var letters, uppers int
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters < 5 {
		return false
	}
	return float64(uppers) >= 0.8*float64(letters)
}

//Personal.AI order the ending
