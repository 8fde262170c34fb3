package pipeline

import (
	"reflect"
	"strings"
	"testing"
	"time"

	apperrors "github.com/turtacn/Tender-Intelligence/pkg/errors"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

func clockAt(s string) func() time.Time {
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestRun_EmptyInputAborts(t *testing.T) {
	p := New(Options{})

	res, err := p.Run("   \n\t  ")
	if err == nil {
		t.Fatal("expected a fatal input error")
	}
	if !apperrors.IsFatalInput(err) {
		t.Errorf("unexpected error kind: %v", err)
	}
	if res != nil {
		t.Error("no result on fatal input")
	}
}

func TestRun_LotTableProducesOneRecordPerLot(t *testing.T) {
	p := New(Options{})

	res, err := p.Run("1 EQUIPEMENT MEDICAL 100 000 150 000\n2 FORMATION 50 000 60 000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Lots) != 2 || len(res.Records) != 2 {
		t.Fatalf("lots=%d records=%d", len(res.Lots), len(res.Records))
	}

	l1, l2 := res.Lots[0], res.Lots[1]
	if l1.Numero != 1 || l1.MontantEstime != 100000 || l1.MontantMaximum != 150000 {
		t.Errorf("lot 1 = %+v", l1)
	}
	if l2.Numero != 2 || l2.MontantEstime != 50000 || l2.MontantMaximum != 60000 {
		t.Errorf("lot 2 = %+v", l2)
	}

	r1 := res.Records[0]
	if got := r1.Get(tender.FieldLotNumero).Value; got != "1" {
		t.Errorf("lot_numero = %q", got)
	}
	if got := r1.Get(tender.FieldIntituleLot).Value; got != "EQUIPEMENT MEDICAL" {
		t.Errorf("intitule_lot = %q", got)
	}
	if got := r1.Get(tender.FieldMontantGlobalEstime).Value; got != "100000" {
		t.Errorf("montant_global_estime = %q", got)
	}
	r2 := res.Records[1]
	if got := r2.Get(tender.FieldMontantGlobalMaxi).Value; got != "60000" {
		t.Errorf("montant_global_maxi = %q", got)
	}
	if got := r2.Get(tender.FieldMonoMulti).Value; got != "Multi-attributif" {
		t.Errorf("mono_multi = %q", got)
	}
	if res.Stats.LotsByStrategy["structured_table"] != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestRun_DateExtractionAndStatus(t *testing.T) {
	p := New(Options{Clock: clockAt("01/02/2025")})

	text := strings.Join([]string{
		"Référence de la procédure : 2024-R001",
		"Objet de la consultation : Fourniture de scanners médicaux",
		"Date limite de remise des offres : 15/12/2024",
	}, "\n")
	res, err := p.Run(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records = %d", len(res.Records))
	}

	rec := res.Records[0]
	if got := rec.Get(tender.FieldDateLimite).Value; got != "15/12/2024" {
		t.Errorf("date_limite = %q", got)
	}
	if fv := rec.Get(tender.FieldDateAttribution); fv.Present() {
		t.Errorf("date_attribution must stay absent, got %v", fv)
	}
	// The deadline is past the injected clock and nothing was awarded.
	if got := rec.Get(tender.FieldStatut).Value; got != "AO CLÔTURÉ" {
		t.Errorf("statut = %q", got)
	}
}

func TestRun_DefaultLotWhenNoStructure(t *testing.T) {
	p := New(Options{})

	text := strings.Join([]string{
		"Référence de la procédure : 2024-R001",
		"Objet de la consultation : Fourniture de scanners médicaux",
		"Date limite de remise des offres : 15/12/2030",
	}, "\n")
	res, err := p.Run(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Lots) != 1 {
		t.Fatalf("lots = %d", len(res.Lots))
	}
	lot := res.Lots[0]
	if lot.Numero != 1 || lot.Source != "default" {
		t.Errorf("default lot = %+v", lot)
	}
	if lot.Intitule != "Fourniture de scanners médicaux" {
		t.Errorf("default lot title = %q", lot.Intitule)
	}
	if got := res.Records[0].Get(tender.FieldMonoMulti).Value; got != "Mono-attributif" {
		t.Errorf("mono_multi = %q", got)
	}
}

func TestRun_CriteriaOnRecord(t *testing.T) {
	p := New(Options{})

	text := strings.Join([]string{
		"Référence de la procédure : 2024-R001",
		"Objet de la consultation : Fourniture de scanners médicaux pour le CHU",
		"Date limite de remise des offres : 15/12/2030",
		"Critère économique : 40 %",
		"Critère technique : 60 %",
	}, "\n")
	res, err := p.Run(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := res.Records[0]
	if got := rec.Get(tender.FieldCriteresEconomique).Value; got != "40" {
		t.Errorf("criteres_economique = %q", got)
	}
	if got := rec.Get(tender.FieldCriteresTechniques).Value; got != "60" {
		t.Errorf("criteres_techniques = %q", got)
	}

	v := res.Validations[0]
	for _, is := range v.Issues {
		if strings.Contains(is.Message, "somme des critères") {
			t.Errorf("weights sum to 100, no drift warning expected: %v", v.Issues)
		}
	}
}

func TestRun_PoorRecordIsInvalid(t *testing.T) {
	p := New(Options{})

	res, err := p.Run("Référence de la procédure : 2024-R001\nDate limite de remise des offres : 15/12/2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := res.Validations[0]
	if v.IsValid {
		t.Error("record without title and amounts must be invalid")
	}
	if v.Confidence >= 50 {
		t.Errorf("confidence = %v, want < 50", v.Confidence)
	}
}

func TestRun_PerLotCriteriaWithGlobalFallback(t *testing.T) {
	p := New(Options{})

	text := strings.Join([]string{
		"Lot 1 : Fourniture de scanners médicaux",
		"Critère économique : 40 %",
		"Critère technique : 60 %",
		"Lot 2 : Formation du personnel hospitalier",
	}, "\n")
	res, err := p.Run(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Lots) != 2 {
		t.Fatalf("lots = %d", len(res.Lots))
	}

	c1 := res.Lots[0].Criteria
	if c1 == nil || c1.Economic == nil || *c1.Economic != 40 {
		t.Errorf("lot 1 criteria = %+v", c1)
	}
	// Lot 2 announces nothing of its own and falls back to the document-global
	// criteria.
	if res.Lots[1].Criteria == nil {
		t.Error("lot 2 should inherit the global criteria")
	}
}

func TestRun_Deterministic(t *testing.T) {
	p := New(Options{Clock: clockAt("01/06/2024")})

	text := "1 EQUIPEMENT MEDICAL 100 000 150 000\n2 FORMATION 50 000 60 000"
	a, err := p.Run(text)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Run(text)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Records, b.Records) {
		t.Error("records differ between identical runs")
	}
	if !reflect.DeepEqual(a.Lots, b.Lots) {
		t.Error("lots differ between identical runs")
	}
}

//Personal.AI order the ending
