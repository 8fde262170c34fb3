// Package fieldspec holds the field definition table of the extraction
// pipeline: for every field of the tender record, an ordered list of pattern
// rules plus a validation predicate.  Rule order is significant — the field
// extractor walks rules by rank and the first validated match wins, so the
// most specific vocabulary always sits at rank 0.
package fieldspec

import (
	"regexp"
	"strings"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/common"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// Kind classifies the value a field carries; it selects the cleaning routine
// and the default validation predicate.
type Kind string

const (
	KindText      Kind = "text"
	KindAmount    Kind = "amount"
	KindDate      Kind = "date"
	KindReference Kind = "reference"
	KindDuration  Kind = "duration"
	KindYesNo     Kind = "yesno"
	KindQuantity  Kind = "quantity"
	KindPercent   Kind = "percent"
	KindInt       Kind = "int"
)

// Rule is one compiled pattern rule.  Rank is the 0-based position in the
// definition; it is recorded on every Extracted field value.
type Rule struct {
	Rank int
	Expr string
	re   *regexp.Regexp

	// Literal, when non-empty, overrides the matched text as the produced
	// value ("Oui" for presence vocabularies, "Non" for their negations).
	Literal string
}

// Match runs the rule against text and returns the raw captured value, the
// full match, and the match offset.  A pattern with capture groups yields the
// first non-empty group; without groups the whole match is the value.
func (r *Rule) Match(text string) (value, full string, pos int, ok bool) {
	loc := r.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", "", -1, false
	}
	full = text[loc[0]:loc[1]]
	value = full
	for g := 1; g*2 < len(loc); g++ {
		if loc[g*2] >= 0 && loc[g*2] < loc[g*2+1] {
			value = text[loc[g*2]:loc[g*2+1]]
			break
		}
	}
	if r.Literal != "" {
		value = r.Literal
	}
	return value, full, loc[0], true
}

// Definition describes one extractable field.
type Definition struct {
	Name     string
	Kind     Kind
	Rules    []*Rule
	Validate func(cleaned string) bool
}

// Table is the ordered field definition table.
type Table struct {
	defs    []*Definition
	byName  map[string]*Definition
	skipped int
	log     common.Logger
}

// NewTable compiles the built-in definition set.  A malformed pattern is
// skipped with a warning and does not disable the rest of the field's rules;
// the table is still usable afterwards.
func NewTable(log common.Logger) *Table {
	if log == nil {
		log = common.NoopLogger()
	}
	t := &Table{byName: make(map[string]*Definition), log: log}
	for _, spec := range builtinSpecs() {
		t.add(spec)
	}
	return t
}

// ruleSpec is the uncompiled form of a rule.
type ruleSpec struct {
	expr    string
	literal string
}

// defSpec is the uncompiled form of a definition.
type defSpec struct {
	name     string
	kind     Kind
	rules    []ruleSpec
	validate func(string) bool
}

func (t *Table) add(spec defSpec) {
	def := &Definition{Name: spec.name, Kind: spec.kind, Validate: spec.validate}
	if def.Validate == nil {
		def.Validate = defaultValidator(spec.kind)
	}
	for _, rs := range spec.rules {
		re, err := regexp.Compile(rs.expr)
		if err != nil {
			t.skipped++
			t.log.Warn("skipping malformed pattern rule",
				"field", spec.name, "pattern", rs.expr, "error", err.Error())
			continue
		}
		def.Rules = append(def.Rules, &Rule{
			Rank:    len(def.Rules),
			Expr:    rs.expr,
			re:      re,
			Literal: rs.literal,
		})
	}
	t.defs = append(t.defs, def)
	t.byName[def.Name] = def
}

// Definitions returns the definitions in canonical order.
func (t *Table) Definitions() []*Definition {
	return t.defs
}

// Lookup returns the definition for a technical field name.
func (t *Table) Lookup(name string) (*Definition, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// SkippedRules reports how many malformed rules were dropped at compile time.
func (t *Table) SkippedRules() int {
	return t.skipped
}

// AddRule appends a custom rule at the end of an existing definition's rule
// list (lowest priority).  Used to extend the vocabulary without rebuilding
// the table.
func (t *Table) AddRule(field, expr string) error {
	def, ok := t.byName[field]
	if !ok {
		return errors.New(errors.ErrCodeFieldUnknown, "unknown field").WithDetail(field)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodePatternCompileFailed, "failed to compile pattern").WithDetail(expr)
	}
	def.Rules = append(def.Rules, &Rule{Rank: len(def.Rules), Expr: expr, re: re})
	return nil
}

// defaultValidator returns the per-kind validation predicate applied to
// cleaned values.
func defaultValidator(kind Kind) func(string) bool {
	switch kind {
	case KindAmount:
		return func(s string) bool {
			f, ok := common.ParseAmount(s)
			return ok && f > 0
		}
	case KindDate:
		return func(s string) bool {
			_, ok := common.ParseDate(s)
			return ok
		}
	case KindReference:
		return func(s string) bool {
			if len(s) < 4 || len(s) > 32 {
				return false
			}
			return strings.ContainsAny(s, "0123456789")
		}
	case KindDuration:
		return func(s string) bool {
			n, ok := common.FirstInt(s)
			return ok && n >= 1 && n <= 240
		}
	case KindPercent:
		return func(s string) bool {
			n, ok := common.FirstInt(s)
			return ok && n >= 0 && n <= 100
		}
	case KindInt:
		return func(s string) bool {
			_, ok := common.FirstInt(s)
			return ok
		}
	case KindQuantity:
		return func(s string) bool {
			n, ok := common.FirstInt(s)
			return ok && n > 0
		}
	case KindYesNo:
		return func(s string) bool {
			return s == "Oui" || s == "Non" || s == "Non spécifié"
		}
	default:
		return func(s string) bool {
			return len(strings.TrimSpace(s)) >= 2
		}
	}
}

// builtinSpecs returns the built-in pattern vocabulary.  Patterns are plain
// RE2; (?i) gives the IGNORECASE semantics and (?s) lets dots cross lines in
// title captures.  Most specific vocabulary first within each field.
func builtinSpecs() []defSpec {
	const dateNum = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2})`
	const dateSpelled = `(\d{1,2}(?:er)?\s+(?:janvier|f[ée]vrier|mars|avril|mai|juin|juillet|ao[ûu]t|septembre|octobre|novembre|d[ée]cembre)\s+\d{4})`
	const amount = `(\d{1,3}(?:[\s.]\d{3})*(?:,\d{1,2})?|\d+(?:,\d{1,2})?)\s*(?:€|k€|K€|M€|m€|euros?)`

	return []defSpec{
		{
			name: tender.FieldReferenceProcedure, kind: KindReference,
			rules: []ruleSpec{
				{expr: `(?i)r[ée]f[ée]rence\s*(?:de\s*la\s*)?(?:proc[ée]dure|consultation|march[ée])?\s*(?:n°\s*)?[:\s]\s*([0-9]{4}-[A-Z][0-9]{3})`},
				{expr: `\b(20\d{2}-[A-Z]\d{3})\b`},
				{expr: `\b(AO\s?20\d{2}[-/]?\d{2,4})\b`},
				{expr: `(?i)(?:r[ée]f[ée]rence|dossier|consultation)\s*(?:n°\s*)?:\s*([A-Z0-9][A-Z0-9/_-]{3,24})\b`},
			},
		},
		{
			name: tender.FieldIntituleProcedure, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)(?:intitul[ée]|objet)\s*(?:de\s*la\s*(?:consultation|proc[ée]dure)|du\s*march[ée])?\s*:\s*([^\n]{10,300})`},
				{expr: `(?i)march[ée]\s+(?:de|pour|relatif\s+[àa])\s+([^\n]{10,200})`},
			},
			validate: func(s string) bool { return len(s) >= 10 && len(s) <= 500 },
		},
		{
			name: tender.FieldTypeProcedure, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)\b(appel\s+d['’]offres\s+(?:ouvert|restreint))\b`},
				{expr: `(?i)\b(proc[ée]dure\s+adapt[ée]e|accord[- ]cadre|march[ée]\s+n[ée]goci[ée]|dialogue\s+comp[ée]titif|march[ée]\s+de\s+gr[ée]\s+[àa]\s+gr[ée])\b`},
			},
		},
		{
			name: tender.FieldMonoMulti, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)\bmono[- ]attributif\b`, literal: "Mono-attributif"},
				{expr: `(?i)\bmulti[- ]attributi(?:f|fs|aires?)\b`, literal: "Multi-attributif"},
				{expr: `(?i)\battributaire\s+unique\b`, literal: "Mono-attributif"},
				{expr: `(?i)\bplusieurs\s+attributaires\b`, literal: "Multi-attributif"},
			},
		},
		{
			name: tender.FieldGroupement, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)\b(RESAH)\b`, literal: "RESAH"},
				{expr: `(?i)\b(UNIHA|UNI\.HA)\b`, literal: "UNIHA"},
				{expr: `(?i)\b(UGAP)\b`, literal: "UGAP"},
				{expr: `(?i)\b(CAIH)\b`, literal: "CAIH"},
			},
		},
		{
			name: tender.FieldExecutionMarche, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)(?:lieu|site)\s+d['’]ex[ée]cution\s*(?:du\s+march[ée])?\s*:\s*([^\n]{3,120})`},
			},
		},
		{
			name: tender.FieldDateLimite, kind: KindDate,
			rules: []ruleSpec{
				{expr: `(?i)date\s+limite\s+de\s+(?:remise|r[ée]ception|d[ée]p[ôo]t)\s+des\s+(?:offres|plis|candidatures)\s*:?\s*(?:le\s+)?` + dateNum},
				{expr: `(?i)date\s+limite\s*:?\s*(?:le\s+)?` + dateNum},
				{expr: `(?i)(?:avant\s+le|au\s+plus\s+tard\s+le|[ée]ch[ée]ance\s*:?)\s*` + dateNum},
				{expr: `(?i)date\s+limite[^\n]{0,40}?:?\s*` + dateSpelled},
			},
		},
		{
			name: tender.FieldDateAttribution, kind: KindDate,
			rules: []ruleSpec{
				{expr: `(?i)date\s+d['’]attribution\s*(?:du\s+march[ée])?\s*:?\s*(?:le\s+)?` + dateNum},
				{expr: `(?i)(?:attribu[ée]|notifi[ée])\s+le\s+` + dateNum},
			},
		},
		{
			name: tender.FieldDureeMarche, kind: KindDuration,
			rules: []ruleSpec{
				{expr: `(?i)dur[ée]e\s+(?:initiale\s+)?(?:du\s+|de\s+l['’]accord[- ]cadre\s+|du\s+march[ée]\s+)?(?:march[ée]\s+)?:?\s*(?:de\s+)?(\d{1,3})\s*mois`},
				{expr: `(?i)pour\s+une\s+dur[ée]e\s+de\s+(\d{1,3})\s*mois`},
				{expr: `(?i)dur[ée]e\s+(?:du\s+march[ée]\s+)?:?\s*(?:de\s+)?(\d{1,2})\s*an(?:s|n[ée]es?)\b`},
			},
		},
		{
			name: tender.FieldReconduction, kind: KindYesNo,
			rules: []ruleSpec{
				{expr: `(?i)\b(?:non\s+reconductible|sans\s+reconduction)\b`, literal: "Non"},
				{expr: `(?i)\b(?:reconductible|reconduction\s+(?:tacite|expresse)?|renouvelable)\b`, literal: "Oui"},
			},
		},
		{
			name: tender.FieldNbrLots, kind: KindInt,
			rules: []ruleSpec{
				{expr: `(?i)(?:d[ée]compos[ée]|divis[ée]|r[ée]parti|allotis?)\s*(?:e?s?)?\s*en\s*(\d{1,2})\s*lots`},
				{expr: `(?i)nombre\s+de\s+lots\s*:?\s*(\d{1,2})`},
				{expr: `(?i)\b(\d{1,2})\s+lots\b`},
			},
			validate: func(s string) bool {
				n, ok := common.FirstInt(s)
				return ok && n >= 1 && n <= 50
			},
		},
		{
			name: tender.FieldMontantGlobalEstime, kind: KindAmount,
			rules: []ruleSpec{
				{expr: `(?i)montant\s+(?:global\s+)?estim[ée]\s*(?:du\s+march[ée])?\s*(?:[àa]|:)?\s*` + amount},
				{expr: `(?i)estim[ée]\s*[àa]\s*` + amount},
				{expr: `(?i)budget\s+pr[ée]visionnel\s*:?\s*` + amount},
			},
		},
		{
			name: tender.FieldMontantGlobalMaxi, kind: KindAmount,
			rules: []ruleSpec{
				{expr: `(?i)montant\s+(?:global\s+)?maxi(?:mum|mal)?\s*(?:du\s+march[ée])?\s*(?:[àa]|:)?\s*` + amount},
				{expr: `(?i)(?:plafond|montant\s+plafond)\s*(?:de|:)?\s*` + amount},
				{expr: `(?i)maximum\s*(?:de|:)?\s*` + amount},
			},
		},
		{
			name: tender.FieldAchat, kind: KindYesNo,
			rules: []ruleSpec{
				{expr: `(?i)\b(?:acquisition|achat)\b`, literal: "Oui"},
			},
		},
		{
			name: tender.FieldCreditBail, kind: KindYesNo,
			rules: []ruleSpec{
				{expr: `(?i)\bcr[ée]dit[- ]bail\b`, literal: "Oui"},
			},
		},
		{
			name: tender.FieldCreditBailDuree, kind: KindDuration,
			rules: []ruleSpec{
				{expr: `(?i)cr[ée]dit[- ]bail[^\n]{0,40}?(\d{1,2})\s*an`},
			},
		},
		{
			name: tender.FieldLocation, kind: KindYesNo,
			rules: []ruleSpec{
				{expr: `(?i)\blocation\b`, literal: "Oui"},
			},
		},
		{
			name: tender.FieldLocationDuree, kind: KindDuration,
			rules: []ruleSpec{
				{expr: `(?i)location[^\n]{0,40}?(\d{1,2})\s*an`},
			},
		},
		{
			name: tender.FieldMAD, kind: KindYesNo,
			rules: []ruleSpec{
				{expr: `(?i)\bmise\s+[àa]\s+disposition\b`, literal: "Oui"},
				{expr: `\bMAD\b`, literal: "Oui"},
			},
		},
		{
			name: tender.FieldQuantiteMinimum, kind: KindQuantity,
			rules: []ruleSpec{
				{expr: `(?i)quantit[ée]\s+minim(?:um|ale)\s*:?\s*(\d[\d\s]{0,12})`},
			},
		},
		{
			name: tender.FieldQuantitesEstimees, kind: KindQuantity,
			rules: []ruleSpec{
				{expr: `(?i)quantit[ée]s?\s+estim[ée]es?\s*:?\s*(\d[\d\s]{0,12})`},
				{expr: `(?i)volume\s+pr[ée]visionnel\s*:?\s*(\d[\d\s]{0,12})`},
			},
		},
		{
			name: tender.FieldQuantiteMaximum, kind: KindQuantity,
			rules: []ruleSpec{
				{expr: `(?i)quantit[ée]\s+maxim(?:um|ale)\s*:?\s*(\d[\d\s]{0,12})`},
			},
		},
		{
			name: tender.FieldCriteresEconomique, kind: KindPercent,
			rules: []ruleSpec{
				{expr: `(?i)(?:prix|crit[èe]re\s+[ée]conomique|valeur\s+financi[èe]re|offre\s+financi[èe]re)\s*:?\s*(\d{1,3})\s*(?:%|points?|pts)`},
			},
		},
		{
			name: tender.FieldCriteresTechniques, kind: KindPercent,
			rules: []ruleSpec{
				{expr: `(?i)(?:valeur\s+technique|crit[èe]re\s+technique|m[ée]moire\s+technique)\s*:?\s*(\d{1,3})\s*(?:%|points?|pts)`},
			},
		},
		{
			name: tender.FieldAutresCriteres, kind: KindPercent,
			rules: []ruleSpec{
				{expr: `(?i)(?:qualit[ée]\s+de\s+service|d[ée]lai\s+de\s+livraison|autres?\s+crit[èe]res?)\s*:?\s*(\d{1,3})\s*(?:%|points?|pts)`},
			},
		},
		{
			name: tender.FieldRSE, kind: KindYesNo,
			rules: []ruleSpec{
				{expr: `(?i)\b(?:crit[èe]res?\s+RSE|RSE|d[ée]veloppement\s+durable|clause\s+environnementale|insertion\s+sociale)\b`, literal: "Oui"},
			},
		},
		{
			name: tender.FieldContributionFournisseur, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)contribution\s+(?:du\s+)?fournisseur\s*:?\s*([^\n]{2,80})`},
			},
		},
		{
			name: tender.FieldAttributaire, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)(?:attributaire|titulaire)\s+(?:du\s+march[ée]\s+)?:\s*([^\n]{2,80})`},
				{expr: `(?i)march[ée]\s+attribu[ée]\s+[àa]\s+(?:la\s+soci[ée]t[ée]\s+)?([^\n]{2,80})`},
			},
		},
		{
			name: tender.FieldProduitRetenu, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)(?:produit|solution|mat[ée]riel)\s+retenue?\s*:?\s*([^\n]{3,100})`},
			},
		},
		{
			name: tender.FieldInfosComplementaires, kind: KindText,
			rules: []ruleSpec{
				{expr: `(?i)(?:informations?\s+compl[ée]mentaires?|renseignements?\s+compl[ée]mentaires?)\s*:?\s*([^\n]{3,200})`},
			},
		},
	}
}

//Personal.AI order the ending
