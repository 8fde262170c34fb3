// Package deduce fills fields still absent after direct extraction, using
// fixed inference rules over the fields already known.  Rules run in a strict
// order (keywords, univers, segment, famille, groupement, statut, mono/multi)
// because later rules read what earlier ones resolved.  A rule only ever
// writes through SetIfAbsent: extracted values are never overwritten, and a
// rule with nothing to conclude leaves the field absent rather than guessing
// a default.
package deduce

import (
	"strings"
	"time"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/common"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/normalizer"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// Statut values mirror the vocabulary of the downstream schema.
const (
	StatutEnCours  = "AO EN COURS"
	StatutAttribue = "AO ATTRIBUÉ"
	StatutCloture  = "AO CLÔTURÉ"
)

// Mono/multi attribution values.
const (
	MonoAttributif  = "Mono-attributif"
	MultiAttributif = "Multi-attributif"
)

// Deducer applies the inference rules.  The clock is injectable so the
// statut rule stays testable.
type Deducer struct {
	log common.Logger
	now func() time.Time
}

// New constructs a Deducer on the system clock.
func New(log common.Logger) *Deducer {
	return NewWithClock(log, time.Now)
}

// NewWithClock constructs a Deducer with an explicit clock.
func NewWithClock(log common.Logger, now func() time.Time) *Deducer {
	if log == nil {
		log = common.NoopLogger()
	}
	if now == nil {
		now = time.Now
	}
	return &Deducer{log: log, now: now}
}

// Apply runs every rule against the record.  text is the normalized document
// text, lotCount the number of lots the document resolved to.
func (d *Deducer) Apply(r tender.Record, text string, lotCount int) {
	d.motsCles(r)
	d.univers(r, text)
	d.segment(r)
	d.famille(r)
	d.groupement(r, text)
	d.statut(r)
	d.monoMulti(r, lotCount)
}

// ---------------------------------------------------------------------------
// Rule 1: mots_cles
// ---------------------------------------------------------------------------

var stopWords = map[string]bool{
	"dans": true, "pour": true, "avec": true, "sans": true, "sous": true,
	"vers": true, "chez": true, "leur": true, "tout": true, "tous": true,
	"toute": true, "toutes": true, "cette": true, "votre": true, "notre": true,
	"ainsi": true, "entre": true, "autre": true, "autres": true,
}

// motsCles generates search keywords from the procedure title: significant
// folded words, deduplicated, capped at ten.
func (d *Deducer) motsCles(r tender.Record) {
	title := r.Get(tender.FieldIntituleProcedure)
	if !title.Present() {
		return
	}
	seen := map[string]bool{}
	var words []string
	for _, w := range strings.Fields(normalizer.Fold(title.Value)) {
		w = strings.Trim(w, "'’-().,;:")
		if len(w) < 4 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
		if len(words) == 10 {
			break
		}
	}
	if len(words) == 0 {
		return
	}
	r.SetIfAbsent(tender.FieldMotsCles, tender.Generated(strings.Join(words, ", ")))
}

// ---------------------------------------------------------------------------
// Rule 2: univers
// ---------------------------------------------------------------------------

// universTable lists the classification vocabularies in tie-break priority
// order: on equal scores the earlier universe wins.
var universTable = []struct {
	name     string
	keywords []string
}{
	{"Médical", []string{
		"medical", "medicaux", "chirurgic", "imagerie", "scanner", "irm",
		"radiolog", "hospitalier", "biomedical", "dialyse", "perfusion",
		"sterilisation", "patient", "echograph",
	}},
	{"Informatique", []string{
		"informatique", "logiciel", "serveur", "reseau", "sauvegarde",
		"licence", "ordinateur", "poste de travail", "cybersecurite",
		"hebergement", "telephonie",
	}},
	{"Équipement", []string{
		"equipement", "machine", "appareil", "installation", "materiel",
	}},
	{"Consommable", []string{
		"consommable", "gant", "seringue", "cartouche", "papier", "reactif",
	}},
	{"Mobilier", []string{
		"mobilier", "chaise", "armoire", "bureau", "literie",
	}},
	{"Véhicules", []string{
		"vehicule", "ambulance", "camion", "voiture", "automobile",
	}},
	{"Service", []string{
		"service", "prestation", "maintenance", "nettoyage", "formation",
		"gardiennage", "restauration", "blanchisserie",
	}},
}

// univers classifies the record by keyword scoring: title hits weigh three
// times a body hit, and ties resolve to the earlier table entry.
func (d *Deducer) univers(r tender.Record, text string) {
	title := normalizer.Fold(r.Get(tender.FieldIntituleProcedure).Value)
	body := normalizer.Fold(text)

	best, bestScore := "", 0
	for _, u := range universTable {
		score := 0
		for _, kw := range u.keywords {
			score += 3 * strings.Count(title, kw)
			score += strings.Count(body, kw)
		}
		if score > bestScore {
			best, bestScore = u.name, score
		}
	}
	if best == "" {
		return
	}
	r.SetIfAbsent(tender.FieldUnivers, tender.Deduced(best, tender.FieldIntituleProcedure))
}

// ---------------------------------------------------------------------------
// Rule 3: segment (depends on univers)
// ---------------------------------------------------------------------------

var segmentTable = map[string]string{
	"Médical":      "Santé",
	"Informatique": "Numérique",
	"Équipement":   "Équipement général",
	"Consommable":  "Consommables",
	"Mobilier":     "Aménagement",
	"Véhicules":    "Transport",
	"Service":      "Services",
}

func (d *Deducer) segment(r tender.Record) {
	univers := r.Get(tender.FieldUnivers)
	if !univers.Present() {
		return
	}
	if seg, ok := segmentTable[univers.Value]; ok {
		r.SetIfAbsent(tender.FieldSegment, tender.Deduced(seg, tender.FieldUnivers))
	}
}

// ---------------------------------------------------------------------------
// Rule 4: famille (univers + title keyword)
// ---------------------------------------------------------------------------

var familleTable = map[string][]struct {
	keyword string
	famille string
}{
	"Médical": {
		{"imagerie", "Imagerie médicale"},
		{"scanner", "Imagerie médicale"},
		{"irm", "Imagerie médicale"},
		{"dialyse", "Dialyse"},
		{"perfusion", "Perfusion"},
		{"sterilisation", "Stérilisation"},
	},
	"Informatique": {
		{"logiciel", "Logiciels"},
		{"licence", "Logiciels"},
		{"serveur", "Infrastructure"},
		{"sauvegarde", "Infrastructure"},
		{"reseau", "Réseaux"},
	},
	"Service": {
		{"maintenance", "Maintenance"},
		{"nettoyage", "Propreté"},
		{"formation", "Formation"},
		{"restauration", "Restauration"},
	},
	"Véhicules": {
		{"ambulance", "Véhicules sanitaires"},
	},
}

func (d *Deducer) famille(r tender.Record) {
	univers := r.Get(tender.FieldUnivers)
	title := r.Get(tender.FieldIntituleProcedure)
	if !univers.Present() || !title.Present() {
		return
	}
	folded := normalizer.Fold(title.Value)
	for _, entry := range familleTable[univers.Value] {
		if strings.Contains(folded, entry.keyword) {
			r.SetIfAbsent(tender.FieldFamille, tender.Deduced(entry.famille, tender.FieldUnivers))
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Rule 5: groupement
// ---------------------------------------------------------------------------

// knownGroupements are the purchasing groups recognized in document text.
// No match leaves the field absent; there is deliberately no catch-all.
var knownGroupements = []string{"RESAH", "UNIHA", "UGAP", "CAIH"}

func (d *Deducer) groupement(r tender.Record, text string) {
	upper := strings.ToUpper(text)
	for _, g := range knownGroupements {
		if containsWord(upper, g) {
			r.SetIfAbsent(tender.FieldGroupement, tender.Deduced(g, "document"))
			return
		}
	}
}

// containsWord reports whether w occurs in s bounded by non-letters.
func containsWord(s, w string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], w)
		if j < 0 {
			return false
		}
		j += i
		before := j == 0 || !isASCIILetter(s[j-1])
		end := j + len(w)
		after := end == len(s) || !isASCIILetter(s[end])
		if before && after {
			return true
		}
		i = j + 1
	}
}

func isASCIILetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// ---------------------------------------------------------------------------
// Rule 6: statut
// ---------------------------------------------------------------------------

func (d *Deducer) statut(r tender.Record) {
	if r.Present(tender.FieldDateAttribution) {
		r.SetIfAbsent(tender.FieldStatut, tender.Deduced(StatutAttribue, tender.FieldDateAttribution))
		return
	}
	if r.Present(tender.FieldAttributaire) {
		r.SetIfAbsent(tender.FieldStatut, tender.Deduced(StatutAttribue, tender.FieldAttributaire))
		return
	}
	if limite := r.Get(tender.FieldDateLimite); limite.Present() {
		if t, ok := common.ParseDate(limite.Value); ok && t.Before(d.now()) {
			r.SetIfAbsent(tender.FieldStatut, tender.Deduced(StatutCloture, tender.FieldDateLimite))
			return
		}
	}
	if r.Present(tender.FieldReferenceProcedure) && r.Present(tender.FieldIntituleProcedure) {
		r.SetIfAbsent(tender.FieldStatut, tender.Deduced(StatutEnCours, tender.FieldReferenceProcedure))
	}
}

// ---------------------------------------------------------------------------
// Rule 7: mono/multi attribution
// ---------------------------------------------------------------------------

func (d *Deducer) monoMulti(r tender.Record, lotCount int) {
	switch {
	case lotCount > 1:
		r.SetIfAbsent(tender.FieldMonoMulti, tender.Deduced(MultiAttributif, "lots"))
	case lotCount == 1:
		r.SetIfAbsent(tender.FieldMonoMulti, tender.Deduced(MonoAttributif, "lots"))
	}
}

//Personal.AI order the ending
