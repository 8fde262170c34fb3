// Package pipeline orchestrates the whole extraction run for one document:
// normalization, document-level field extraction, lot segmentation, per-lot
// field and criteria extraction, a date re-pass, contextual deduction and
// validation.  The run is synchronous and deterministic; the only error that
// aborts it is unusable input, every other failure degrades to absent fields
// or warnings on the result.
package pipeline

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/common"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/criteria"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/deduce"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/fieldext"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/fieldspec"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/lotseg"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/normalizer"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/validate"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// lotWindowSize bounds the per-lot text window used for lot-scoped field
// extraction when the next lot marker is further away.
const lotWindowSize = 1200

// lotScopedFields are re-extracted from each lot's own text window and
// overlaid on the shared document fields.
var lotScopedFields = []string{
	tender.FieldQuantiteMinimum,
	tender.FieldQuantitesEstimees,
	tender.FieldQuantiteMaximum,
}

// dateFields get a dedicated re-pass after the per-lot overlay: document-level
// date context takes priority over anything a lot window may have matched.
var dateFields = []string{
	tender.FieldDateLimite,
	tender.FieldDateAttribution,
}

// Options configure a Pipeline.  The zero value is usable: no-op logging and
// the system clock.
type Options struct {
	Logger common.Logger
	Clock  func() time.Time
}

// Pipeline wires the extraction stages together.  It is safe for sequential
// reuse across documents; it holds no per-document state.
type Pipeline struct {
	log     common.Logger
	fields  *fieldext.Extractor
	lots    *lotseg.Segmenter
	crits   *criteria.Extractor
	deducer *deduce.Deducer
	valid   *validate.Validator
}

// New builds a Pipeline with the built-in field definition table.
func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = common.NoopLogger()
	}
	table := fieldspec.NewTable(log)
	return &Pipeline{
		log:     log,
		fields:  fieldext.New(table, log),
		lots:    lotseg.New(log),
		crits:   criteria.New(log),
		deducer: deduce.NewWithClock(log, opts.Clock),
		valid:   validate.New(log),
	}
}

// Run extracts every record from one document.  The returned error is non-nil
// only for unusable input (empty or whitespace-only text); any other anomaly
// is reported through the result's warnings and validations.
func (p *Pipeline) Run(rawText string) (*tender.ExtractionResult, error) {
	start := time.Now()

	text, err := normalizer.Normalize(rawText)
	if err != nil {
		return nil, err
	}

	doc := p.fields.ExtractDocument(text)

	seg := p.lots.Segment(text)
	res := &tender.ExtractionResult{
		Warnings: seg.Warnings,
	}
	res.Stats.LotsByStrategy = seg.ByStrategy

	lots := seg.Lots
	if len(lots) == 0 {
		lot := lotseg.DefaultLot(doc.Get(tender.FieldIntituleProcedure).Value)
		if f, ok := doc.Get(tender.FieldMontantGlobalEstime).Float(); ok {
			lot.MontantEstime = f
		}
		if f, ok := doc.Get(tender.FieldMontantGlobalMaxi).Float(); ok {
			lot.MontantMaximum = f
		}
		lots = []tender.Lot{lot}
	}

	perLot := p.crits.PerLot(text, lots)
	global := p.crits.ExtractDocument(text)
	for i := range lots {
		if c, ok := perLot[lots[i].Numero]; ok {
			lots[i].Criteria = c
			continue
		}
		// A lot with its own criteria never inherits the global ones; a lot
		// without any does.
		if global != nil {
			lots[i].Criteria = global
		}
	}

	for i := range lots {
		rec := p.buildRecord(doc, text, &lots[i], len(lots))
		res.Records = append(res.Records, rec)
		res.Validations = append(res.Validations, p.valid.Validate(rec, &lots[i], len(lots)))
	}
	res.Lots = lots

	p.countStates(res)
	res.Duration = time.Since(start)

	p.log.Info("extraction finished",
		"lots", len(res.Lots),
		"warnings", len(res.Warnings),
		"duration", res.Duration)
	return res, nil
}

// buildRecord overlays one lot on the shared document fields and runs the
// per-record stages: lot-window extraction, date re-pass, deduction.
func (p *Pipeline) buildRecord(doc tender.Record, text string, lot *tender.Lot, lotCount int) tender.Record {
	rec := doc.Clone()

	rec.Set(tender.FieldLotNumero, tender.Extracted(strconv.Itoa(lot.Numero), 0))
	if lot.Intitule != "" {
		rec.Set(tender.FieldIntituleLot, tender.Extracted(lot.Intitule, 0))
	}
	if lot.MontantEstime > 0 {
		rec.Set(tender.FieldMontantGlobalEstime,
			tender.Extracted(common.FormatAmount(lot.MontantEstime), 0))
	}
	if lot.MontantMaximum > 0 {
		rec.Set(tender.FieldMontantGlobalMaxi,
			tender.Extracted(common.FormatAmount(lot.MontantMaximum), 0))
	}

	if window := p.lotWindow(text, lot); window != "" {
		for _, name := range lotScopedFields {
			if fv := p.fields.ExtractByName(window, name); fv.Present() {
				rec.Set(name, fv)
			}
		}
	}

	if lot.Criteria != nil {
		setCriteria(rec, lot.Criteria)
	}

	// Date re-pass: the whole-document match wins over any lot-window noise.
	for _, name := range dateFields {
		if fv := p.fields.ExtractByName(text, name); fv.Present() {
			rec.Set(name, fv)
		}
	}

	p.deducer.Apply(rec, text, lotCount)
	return rec
}

func setCriteria(rec tender.Record, c *tender.AwardCriteria) {
	set := func(name string, w *float64) {
		if w != nil {
			rec.Set(name, tender.Extracted(common.FormatAmount(*w), 0))
		}
	}
	set(tender.FieldCriteresEconomique, c.Economic)
	set(tender.FieldCriteresTechniques, c.Technical)
	set(tender.FieldAutresCriteres, c.Others)
	set(tender.FieldRSE, c.RSE)
}

// lotWindow spans from the lot marker to the next lot marker, capped.  The
// default lot has position 0 and no siblings, so its window is the document
// head.
func (p *Pipeline) lotWindow(text string, lot *tender.Lot) string {
	start := lot.Position
	if start < 0 || start >= len(text) {
		return ""
	}
	end := start + lotWindowSize
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return text[start:end]
}

func (p *Pipeline) countStates(res *tender.ExtractionResult) {
	for _, rec := range res.Records {
		for _, fv := range rec {
			switch fv.State {
			case tender.StateExtracted:
				res.Stats.FieldsExtracted++
			case tender.StateDeduced, tender.StateGenerated:
				res.Stats.FieldsDeduced++
			default:
				res.Stats.FieldsAbsent++
			}
		}
	}
}

//Personal.AI order the ending
