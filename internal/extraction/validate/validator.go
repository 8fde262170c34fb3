// Package validate scores extracted records and decides their validity.  The
// confidence score is a weighted sum over fixed check categories; the weight
// table is data, normalized against its actual total, so tuning a weight
// never requires touching the checks.
package validate

import (
	"fmt"
	"math"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/common"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// Check category names.
const (
	CheckRequiredFields  = "required_fields"
	CheckAmountCoherence = "amount_coherence"
	CheckLotCount        = "lot_count"
	CheckCriteria        = "criteria"
	CheckDates           = "dates"
	CheckAuxiliary       = "auxiliary"
)

// CategoryWeight binds a check category to its share of the confidence score.
type CategoryWeight struct {
	Name   string
	Weight int
}

// DefaultWeights is the standard confidence weighting, totalling 100.
var DefaultWeights = []CategoryWeight{
	{CheckRequiredFields, 30},
	{CheckAmountCoherence, 20},
	{CheckLotCount, 15},
	{CheckCriteria, 15},
	{CheckDates, 10},
	{CheckAuxiliary, 10},
}

// maxLotCount is the sanity ceiling on the number of lots in one document.
const maxLotCount = 100

// weightSumTolerance bounds the accepted drift of the weight table total
// around 100 before a configuration warning is logged.
const weightSumTolerance = 5

// auxiliaryFields contribute the informational share of the score.
var auxiliaryFields = []string{
	tender.FieldTypeProcedure,
	tender.FieldDureeMarche,
	tender.FieldReconduction,
	tender.FieldExecutionMarche,
	tender.FieldStatut,
	tender.FieldUnivers,
	tender.FieldGroupement,
	tender.FieldMonoMulti,
}

// Validator scores records.  It never mutates them.
type Validator struct {
	log       common.Logger
	weights   []CategoryWeight
	sumWarned bool
}

// New constructs a Validator with the default weight table.
func New(log common.Logger) *Validator {
	return NewWithWeights(log, DefaultWeights)
}

// NewWithWeights constructs a Validator with a custom weight table.  A total
// drifting outside 100±5 is reported once; scores are normalized against the
// actual total either way.
func NewWithWeights(log common.Logger, weights []CategoryWeight) *Validator {
	if log == nil {
		log = common.NoopLogger()
	}
	return &Validator{log: log, weights: weights}
}

// Validate scores one record.  lot may be nil for a document-level record;
// lotCount is the number of lots the document resolved to.
func (v *Validator) Validate(r tender.Record, lot *tender.Lot, lotCount int) *tender.ValidationResult {
	res := &tender.ValidationResult{FieldChecks: map[string]bool{}}

	total := 0
	for _, w := range v.weights {
		total += w.Weight
	}
	if total == 0 {
		res.Confidence = 0
		return res
	}
	if !v.sumWarned && (total < 100-weightSumTolerance || total > 100+weightSumTolerance) {
		v.log.Warn("confidence weight table total drifts from 100", "total", total)
		v.sumWarned = true
	}

	var earned float64
	for _, w := range v.weights {
		var frac float64
		switch w.Name {
		case CheckRequiredFields:
			frac = v.requiredFields(r, res)
		case CheckAmountCoherence:
			frac = v.amountCoherence(r, res)
		case CheckLotCount:
			frac = v.lotCount(r, lot, lotCount, res)
		case CheckCriteria:
			frac = v.criteria(r, lot, res)
		case CheckDates:
			frac = v.dates(r, res)
		case CheckAuxiliary:
			frac = v.auxiliary(r, res)
		}
		earned += frac * float64(w.Weight)
	}

	res.Confidence = math.Round(100 * earned / float64(total))
	res.IsValid = v.allRequiredPresent(r) && res.Confidence >= 50
	return res
}

func (v *Validator) allRequiredPresent(r tender.Record) bool {
	for _, name := range tender.RequiredFields {
		if !r.Present(name) {
			return false
		}
	}
	return true
}

func (v *Validator) requiredFields(r tender.Record, res *tender.ValidationResult) float64 {
	present := 0
	for _, name := range tender.RequiredFields {
		ok := r.Present(name)
		res.FieldChecks[name] = ok
		if ok {
			present++
			continue
		}
		res.Issues = append(res.Issues, tender.Issue{
			Field:    name,
			Severity: tender.SeverityError,
			Message:  "champ obligatoire manquant",
		})
		res.Suggestions = append(res.Suggestions,
			fmt.Sprintf("Renseigner le champ %s", name))
	}
	return float64(present) / float64(len(tender.RequiredFields))
}

func (v *Validator) amountCoherence(r tender.Record, res *tender.ValidationResult) float64 {
	estime, okE := r.Get(tender.FieldMontantGlobalEstime).Float()
	maxi, okM := r.Get(tender.FieldMontantGlobalMaxi).Float()
	res.FieldChecks[tender.FieldMontantGlobalEstime] = okE
	res.FieldChecks[tender.FieldMontantGlobalMaxi] = okM

	switch {
	case okE && okM:
		if maxi < estime {
			res.Issues = append(res.Issues, tender.Issue{
				Field:    tender.FieldMontantGlobalMaxi,
				Severity: tender.SeverityError,
				Message: fmt.Sprintf("montant maximum (%.0f) inférieur au montant estimé (%.0f)",
					maxi, estime),
			})
			return 0
		}
		return 1
	case okE || okM:
		return 0.5
	default:
		res.Suggestions = append(res.Suggestions,
			"Renseigner les montants estimé et maximum du marché")
		return 0
	}
}

func (v *Validator) lotCount(r tender.Record, lot *tender.Lot, lotCount int, res *tender.ValidationResult) float64 {
	if lotCount < 1 || lotCount > maxLotCount {
		res.Issues = append(res.Issues, tender.Issue{
			Field:    tender.FieldNbrLots,
			Severity: tender.SeverityWarning,
			Message:  fmt.Sprintf("nombre de lots incohérent : %d", lotCount),
		})
		return 0
	}
	if announced, ok := r.Get(tender.FieldNbrLots).Int(); ok {
		if announced != lotCount {
			res.Issues = append(res.Issues, tender.Issue{
				Field:    tender.FieldNbrLots,
				Severity: tender.SeverityWarning,
				Message: fmt.Sprintf("%d lots annoncés, %d détectés",
					announced, lotCount),
			})
		}
		if lot != nil && lot.Numero > announced {
			res.Issues = append(res.Issues, tender.Issue{
				Field:    tender.FieldLotNumero,
				Severity: tender.SeverityWarning,
				Message: fmt.Sprintf("numéro de lot %d supérieur au nombre de lots annoncé (%d)",
					lot.Numero, announced),
			})
		}
	}
	return 1
}

// criteria checks weight completeness and the proximity of the weight sum to
// 100.  A drifting sum is a warning, never fatal.
func (v *Validator) criteria(r tender.Record, lot *tender.Lot, res *tender.ValidationResult) float64 {
	c := recordCriteria(r, lot)
	if c.Empty() {
		return 0
	}
	sum := c.Sum()
	if sum < 100-weightSumTolerance || sum > 100+weightSumTolerance {
		res.Issues = append(res.Issues, tender.Issue{
			Field:    tender.FieldCriteresEconomique,
			Severity: tender.SeverityWarning,
			Message:  fmt.Sprintf("somme des critères d'attribution à %.0f au lieu de 100", sum),
		})
		return 0.5
	}
	return 1
}

// recordCriteria reads criteria from the lot when available, otherwise from
// the record's criteria fields.
func recordCriteria(r tender.Record, lot *tender.Lot) *tender.AwardCriteria {
	if lot != nil && !lot.Criteria.Empty() {
		return lot.Criteria
	}
	c := &tender.AwardCriteria{}
	if f, ok := r.Get(tender.FieldCriteresEconomique).Float(); ok {
		c.Economic = &f
	}
	if f, ok := r.Get(tender.FieldCriteresTechniques).Float(); ok {
		c.Technical = &f
	}
	if f, ok := r.Get(tender.FieldAutresCriteres).Float(); ok {
		c.Others = &f
	}
	if f, ok := r.Get(tender.FieldRSE).Float(); ok {
		c.RSE = &f
	}
	return c
}

func (v *Validator) dates(r tender.Record, res *tender.ValidationResult) float64 {
	var present, parsed int
	var limite, attribution *tender.FieldValue

	for _, name := range []string{tender.FieldDateLimite, tender.FieldDateAttribution} {
		fv := r.Get(name)
		if !fv.Present() {
			continue
		}
		present++
		if _, ok := common.ParseDate(fv.Value); ok {
			parsed++
			res.FieldChecks[name] = true
			switch name {
			case tender.FieldDateLimite:
				v2 := fv
				limite = &v2
			case tender.FieldDateAttribution:
				v2 := fv
				attribution = &v2
			}
			continue
		}
		res.FieldChecks[name] = false
		res.Issues = append(res.Issues, tender.Issue{
			Field:    name,
			Severity: tender.SeverityWarning,
			Message:  fmt.Sprintf("date illisible : %q", fv.Value),
		})
	}

	if limite != nil && attribution != nil {
		tl, _ := common.ParseDate(limite.Value)
		ta, _ := common.ParseDate(attribution.Value)
		if ta.Before(tl) {
			res.Issues = append(res.Issues, tender.Issue{
				Field:    tender.FieldDateAttribution,
				Severity: tender.SeverityWarning,
				Message:  "date d'attribution antérieure à la date limite de remise des offres",
			})
		}
	}

	if present == 0 {
		return 0
	}
	return float64(parsed) / float64(present)
}

func (v *Validator) auxiliary(r tender.Record, res *tender.ValidationResult) float64 {
	present := 0
	for _, name := range auxiliaryFields {
		if r.Present(name) {
			present++
		}
	}
	return float64(present) / float64(len(auxiliaryFields))
}

//Personal.AI order the ending
