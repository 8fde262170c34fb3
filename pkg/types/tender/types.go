// Package tender defines the shared data types of the Tender-Intelligence
// platform: the 44-column tender record schema, the FieldValue tagged variant
// produced by the extraction pipeline, lot and award-criteria structures, and
// the validation result attached to every extracted record.
package tender

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Technical field names of the standard 44-column tender record.
// Order matters: it is the canonical column order of the exported record.
const (
	FieldMotsCles                 = "mots_cles"
	FieldUnivers                  = "univers"
	FieldSegment                  = "segment"
	FieldFamille                  = "famille"
	FieldStatut                   = "statut"
	FieldGroupement               = "groupement"
	FieldReferenceProcedure       = "reference_procedure"
	FieldTypeProcedure            = "type_procedure"
	FieldMonoMulti                = "mono_multi"
	FieldExecutionMarche          = "execution_marche"
	FieldDateLimite               = "date_limite"
	FieldDateAttribution          = "date_attribution"
	FieldDureeMarche              = "duree_marche"
	FieldReconduction             = "reconduction"
	FieldFinSansReconduction      = "fin_sans_reconduction"
	FieldFinAvecReconduction      = "fin_avec_reconduction"
	FieldNbrLots                  = "nbr_lots"
	FieldIntituleProcedure        = "intitule_procedure"
	FieldLotNumero                = "lot_numero"
	FieldIntituleLot              = "intitule_lot"
	FieldMontantGlobalEstime      = "montant_global_estime"
	FieldMontantGlobalMaxi        = "montant_global_maxi"
	FieldAchat                    = "achat"
	FieldCreditBail               = "credit_bail"
	FieldCreditBailDuree          = "credit_bail_duree"
	FieldLocation                 = "location"
	FieldLocationDuree            = "location_duree"
	FieldMAD                      = "mad"
	FieldQuantiteMinimum          = "quantite_minimum"
	FieldQuantitesEstimees        = "quantites_estimees"
	FieldQuantiteMaximum          = "quantite_maximum"
	FieldCriteresEconomique       = "criteres_economique"
	FieldCriteresTechniques       = "criteres_techniques"
	FieldAutresCriteres           = "autres_criteres"
	FieldRSE                      = "rse"
	FieldContributionFournisseur  = "contribution_fournisseur"
	FieldAttributaire             = "attributaire"
	FieldProduitRetenu            = "produit_retenu"
	FieldInfosComplementaires     = "infos_complementaires"
	FieldRemarques                = "remarques"
	FieldNotesAcheteurProcedure   = "notes_acheteur_procedure"
	FieldNotesAcheteurFournisseur = "notes_acheteur_fournisseur"
	FieldNotesAcheteurPosition    = "notes_acheteur_positionnement"
	FieldNoteVeille               = "note_veille"
)

// AllFields lists the 44 technical field names in canonical column order.
var AllFields = []string{
	FieldMotsCles, FieldUnivers, FieldSegment, FieldFamille, FieldStatut,
	FieldGroupement, FieldReferenceProcedure, FieldTypeProcedure,
	FieldMonoMulti, FieldExecutionMarche, FieldDateLimite,
	FieldDateAttribution, FieldDureeMarche, FieldReconduction,
	FieldFinSansReconduction, FieldFinAvecReconduction, FieldNbrLots,
	FieldIntituleProcedure, FieldLotNumero, FieldIntituleLot,
	FieldMontantGlobalEstime, FieldMontantGlobalMaxi, FieldAchat,
	FieldCreditBail, FieldCreditBailDuree, FieldLocation, FieldLocationDuree,
	FieldMAD, FieldQuantiteMinimum, FieldQuantitesEstimees,
	FieldQuantiteMaximum, FieldCriteresEconomique, FieldCriteresTechniques,
	FieldAutresCriteres, FieldRSE, FieldContributionFournisseur,
	FieldAttributaire, FieldProduitRetenu, FieldInfosComplementaires,
	FieldRemarques, FieldNotesAcheteurProcedure, FieldNotesAcheteurFournisseur,
	FieldNotesAcheteurPosition, FieldNoteVeille,
}

// RequiredFields are the fields that must be present for a record to be
// considered valid.
var RequiredFields = []string{
	FieldReferenceProcedure,
	FieldIntituleProcedure,
	FieldDateLimite,
}

// FieldState discriminates the FieldValue tagged variant.
type FieldState string

const (
	// StateAbsent means no rule matched (or every match failed validation).
	StateAbsent FieldState = "absent"
	// StateExtracted means a pattern rule matched and passed validation.
	StateExtracted FieldState = "extracted"
	// StateDeduced means the value was inferred from another present field.
	StateDeduced FieldState = "deduced"
	// StateGenerated means the value was synthesised (e.g., keyword list).
	StateGenerated FieldState = "generated"
)

// FieldValue is the tagged variant produced by the extraction pipeline for
// every field of the record.  Exactly one state applies:
//
//	Absent               — no value; Value, Rank and Source are zero.
//	Extracted(value)     — Rank records the 0-based rank of the winning rule.
//	Deduced(value)       — Source names the field the value was derived from.
//	Generated(value)     — synthesised without a single source field.
type FieldValue struct {
	State  FieldState `json:"state"`
	Value  string     `json:"value,omitempty"`
	Rank   int        `json:"rank,omitempty"`
	Source string     `json:"source,omitempty"`
}

// Absent returns the Absent variant.
func Absent() FieldValue {
	return FieldValue{State: StateAbsent}
}

// Extracted returns the Extracted variant carrying the 0-based rank of the
// pattern rule that produced the value.
func Extracted(value string, rank int) FieldValue {
	return FieldValue{State: StateExtracted, Value: value, Rank: rank}
}

// Deduced returns the Deduced variant; source names the field the value was
// derived from.
func Deduced(value, source string) FieldValue {
	return FieldValue{State: StateDeduced, Value: value, Source: source}
}

// Generated returns the Generated variant.
func Generated(value string) FieldValue {
	return FieldValue{State: StateGenerated, Value: value}
}

// Present reports whether the field carries a value (any state but Absent).
func (v FieldValue) Present() bool {
	return v.State != StateAbsent && v.Value != ""
}

// Float parses the value as a float64.  Returns (0, false) when the field is
// absent or the value is not numeric.
func (v FieldValue) Float() (float64, bool) {
	if !v.Present() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int parses the value as an int.  Returns (0, false) when the field is absent
// or not an integer.
func (v FieldValue) Int() (int, bool) {
	if !v.Present() {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.Value))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Record is one extracted tender record: one row per lot, keyed by technical
// field name.  Missing keys are treated as Absent.
type Record map[string]FieldValue

// NewRecord returns a Record with every canonical field initialised Absent.
func NewRecord() Record {
	r := make(Record, len(AllFields))
	for _, f := range AllFields {
		r[f] = Absent()
	}
	return r
}

// Get returns the FieldValue for name, Absent when the key is missing.
func (r Record) Get(name string) FieldValue {
	if v, ok := r[name]; ok {
		return v
	}
	return Absent()
}

// Set stores v under name.
func (r Record) Set(name string, v FieldValue) {
	r[name] = v
}

// SetIfAbsent stores v under name only when the field is currently absent.
// Deduction rules use this so they never overwrite extracted values.
func (r Record) SetIfAbsent(name string, v FieldValue) bool {
	if r.Get(name).Present() {
		return false
	}
	r[name] = v
	return true
}

// Present reports whether the named field carries a value.
func (r Record) Present(name string) bool {
	return r.Get(name).Present()
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Values flattens the record to plain strings in canonical column order,
// absent fields as "".
func (r Record) Values() []string {
	out := make([]string, 0, len(AllFields))
	for _, f := range AllFields {
		out = append(out, r.Get(f).Value)
	}
	return out
}

// Lot is one lot detected by the segmenter before it is overlaid onto the
// shared document fields.
type Lot struct {
	Numero         int     `json:"numero"`
	Intitule       string  `json:"intitule"`
	MontantEstime  float64 `json:"montant_estime,omitempty"`
	MontantMaximum float64 `json:"montant_maximum,omitempty"`

	QuantiteMinimum   string `json:"quantite_minimum,omitempty"`
	QuantitesEstimees string `json:"quantites_estimees,omitempty"`
	QuantiteMaximum   string `json:"quantite_maximum,omitempty"`

	Criteria *AwardCriteria `json:"criteria,omitempty"`

	// Source names the strategy that produced the lot; Position is the byte
	// offset of the lot marker in the normalized text, used to scope per-lot
	// criteria windows.
	Source     string  `json:"source"`
	Position   int     `json:"position"`
	Confidence float64 `json:"confidence"`
}

// HasAmounts reports whether both amounts are set.
func (l *Lot) HasAmounts() bool {
	return l.MontantEstime > 0 && l.MontantMaximum > 0
}

// LotFieldMapping maps lot-level values onto record field names when a lot is
// overlaid on the shared document fields.
var LotFieldMapping = map[string]string{
	"numero":             FieldLotNumero,
	"intitule":           FieldIntituleLot,
	"montant_estime":     FieldMontantGlobalEstime,
	"montant_maximum":    FieldMontantGlobalMaxi,
	"quantite_minimum":   FieldQuantiteMinimum,
	"quantites_estimees": FieldQuantitesEstimees,
	"quantite_maximum":   FieldQuantiteMaximum,
}

// AwardCriteria carries the weights of the award criteria of a tender or a
// single lot.  Weights are percentages in [0,100]; point values on a
// 100-point scale are equivalent and stored unchanged.  A nil pointer means
// the weight was not announced.
type AwardCriteria struct {
	Economic  *float64 `json:"economic,omitempty"`
	Technical *float64 `json:"technical,omitempty"`
	Others    *float64 `json:"others,omitempty"`
	RSE       *float64 `json:"rse,omitempty"`

	// Mode records which extraction mode produced the set: "structured" for
	// CRITÈRE N°x tables, "freetext" for section scanning.
	Mode string `json:"mode,omitempty"`
}

// Empty reports whether no weight at all was found.
func (c *AwardCriteria) Empty() bool {
	return c == nil || (c.Economic == nil && c.Technical == nil && c.Others == nil && c.RSE == nil)
}

// Sum returns the total of the announced weights.
func (c *AwardCriteria) Sum() float64 {
	if c == nil {
		return 0
	}
	var s float64
	for _, w := range []*float64{c.Economic, c.Technical, c.Others, c.RSE} {
		if w != nil {
			s += *w
		}
	}
	return s
}

// Severity grades validation issues.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is a single validation finding attached to a record.
type Issue struct {
	Field    string   `json:"field,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ValidationResult is the outcome of validating one extracted record.
type ValidationResult struct {
	IsValid     bool            `json:"is_valid"`
	Confidence  float64         `json:"confidence"`
	FieldChecks map[string]bool `json:"field_checks,omitempty"`
	Issues      []Issue         `json:"issues,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// HasErrors reports whether any issue has error severity.
func (r *ValidationResult) HasErrors() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ExtractionStats summarises one pipeline run.
type ExtractionStats struct {
	FieldsExtracted int            `json:"fields_extracted"`
	FieldsDeduced   int            `json:"fields_deduced"`
	FieldsAbsent    int            `json:"fields_absent"`
	LotsByStrategy  map[string]int `json:"lots_by_strategy,omitempty"`
}

// ExtractionResult is the full output of one pipeline run: one record per
// detected lot, each with its own validation, plus run-level warnings.
type ExtractionResult struct {
	Records     []Record            `json:"records"`
	Lots        []Lot               `json:"lots"`
	Validations []*ValidationResult `json:"validations"`
	Warnings    []string            `json:"warnings,omitempty"`
	Stats       ExtractionStats     `json:"stats"`
	Duration    time.Duration       `json:"duration"`
}

// RecordRow pairs a persisted record with its storage metadata.
type RecordRow struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	LotNumero  int             `json:"lot_numero"`
	Fields     Record          `json:"fields"`
	Confidence float64         `json:"confidence"`
	IsValid    bool            `json:"is_valid"`
	CreatedAt  time.Time       `json:"created_at"`
	RawResult  json.RawMessage `json:"-"`
}

// String renders a FieldValue for logs and debugging.
func (v FieldValue) String() string {
	switch v.State {
	case StateExtracted:
		return fmt.Sprintf("extracted(%q, rank=%d)", v.Value, v.Rank)
	case StateDeduced:
		return fmt.Sprintf("deduced(%q, from=%s)", v.Value, v.Source)
	case StateGenerated:
		return fmt.Sprintf("generated(%q)", v.Value)
	default:
		return "absent"
	}
}

//Personal.AI order the ending
