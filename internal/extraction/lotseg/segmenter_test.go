package lotseg

import (
	"strings"
	"testing"
)

func TestSegment_StructuredTableRows(t *testing.T) {
	s := New(nil)

	text := "1 EQUIPEMENT MEDICAL 100 000 150 000\n2 FORMATION 50 000 60 000"
	res := s.Segment(text)

	if len(res.Lots) != 2 {
		t.Fatalf("expected 2 lots, got %d (%+v)", len(res.Lots), res.Lots)
	}

	l1, l2 := res.Lots[0], res.Lots[1]
	if l1.Numero != 1 || l2.Numero != 2 {
		t.Errorf("numeros = %d, %d", l1.Numero, l2.Numero)
	}
	if l1.Intitule != "EQUIPEMENT MEDICAL" {
		t.Errorf("lot 1 title = %q", l1.Intitule)
	}
	if l1.MontantEstime != 100000 || l1.MontantMaximum != 150000 {
		t.Errorf("lot 1 amounts = %.0f / %.0f", l1.MontantEstime, l1.MontantMaximum)
	}
	if l2.Intitule != "FORMATION" {
		t.Errorf("lot 2 title = %q", l2.Intitule)
	}
	if l2.MontantEstime != 50000 || l2.MontantMaximum != 60000 {
		t.Errorf("lot 2 amounts = %.0f / %.0f", l2.MontantEstime, l2.MontantMaximum)
	}
	if l1.Source != StrategyStructuredTable {
		t.Errorf("source = %q", l1.Source)
	}
}

func TestSegment_LineAnalysisWithNearbyAmounts(t *testing.T) {
	s := New(nil)

	text := strings.Join([]string{
		"Lot 1 : Fourniture d'équipements d'imagerie médicale",
		"Montant estimé : 100 000 €",
		"Montant maximum : 150 000 €",
	}, "\n")
	res := s.Segment(text)

	if len(res.Lots) != 1 {
		t.Fatalf("expected 1 lot, got %d", len(res.Lots))
	}
	lot := res.Lots[0]
	if lot.Source != StrategyLineAnalysis {
		t.Errorf("source = %q", lot.Source)
	}
	if lot.Intitule != "Fourniture d'équipements d'imagerie médicale" {
		t.Errorf("title = %q", lot.Intitule)
	}
	if lot.MontantEstime != 100000 || lot.MontantMaximum != 150000 {
		t.Errorf("amounts = %.0f / %.0f", lot.MontantEstime, lot.MontantMaximum)
	}
	if lot.Confidence != 0.9 {
		t.Errorf("confidence = %.2f", lot.Confidence)
	}
}

func TestSegment_MergeFillsMissingAmounts(t *testing.T) {
	s := New(nil)

	// The "Lot 1 :" heading carries the richer title but no amounts; the table
	// row repeats the lot with its amounts.  The heading owns the lot, the
	// table row completes it.
	text := strings.Join([]string{
		"Lot 1 : Fourniture de scanners médicaux pour le plateau technique",
		"",
		"1 FOURNITURE DE SCANNERS 100 000 150 000",
	}, "\n")
	res := s.Segment(text)

	if len(res.Lots) != 1 {
		t.Fatalf("expected 1 merged lot, got %d", len(res.Lots))
	}
	lot := res.Lots[0]
	if lot.Source != StrategyLineAnalysis {
		t.Errorf("owner source = %q, the heading strategy must keep the lot", lot.Source)
	}
	if !strings.Contains(lot.Intitule, "plateau technique") {
		t.Errorf("longer title lost: %q", lot.Intitule)
	}
	if lot.MontantEstime != 100000 || lot.MontantMaximum != 150000 {
		t.Errorf("amounts not filled from table row: %.0f / %.0f",
			lot.MontantEstime, lot.MontantMaximum)
	}
}

func TestSegment_NumeroOutOfRangeRejected(t *testing.T) {
	s := New(nil)

	res := s.Segment("Lot 51 : prestations de maintenance des équipements")
	if len(res.Lots) != 0 {
		t.Fatalf("numero 51 must be rejected, got %+v", res.Lots)
	}
	if len(res.Warnings) == 0 {
		t.Error("rejection must leave a warning")
	}
}

func TestSegment_IncoherentAmountsDroppedLotSurvives(t *testing.T) {
	s := New(nil)

	text := strings.Join([]string{
		"Lot 2 : Maintenance des équipements biomédicaux",
		"Montant estimé : 200 000 €",
		"Montant maximum : 150 000 €",
	}, "\n")
	res := s.Segment(text)

	if len(res.Lots) != 1 {
		t.Fatalf("lot must survive with amounts dropped, got %d lots", len(res.Lots))
	}
	lot := res.Lots[0]
	if lot.MontantEstime != 0 || lot.MontantMaximum != 0 {
		t.Errorf("amounts should be dropped, got %.0f / %.0f",
			lot.MontantEstime, lot.MontantMaximum)
	}
	var warned bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "amounts dropped") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected an anomaly warning, got %v", res.Warnings)
	}
}

func TestSegment_FauxLotFiltered(t *testing.T) {
	s := New(nil)

	res := s.Segment("Lot 3 : Article 15 du CCAP relatif aux pénalités")
	if len(res.Lots) != 0 {
		t.Errorf("document-structure vocabulary must not become a lot: %+v", res.Lots)
	}
}

func TestSegment_MultiLineTitles(t *testing.T) {
	s := New(nil)

	text := strings.Join([]string{
		"Lot 2",
		"Maintenance préventive et corrective",
		"des équipements d'imagerie",
		"",
		"Suite du document.",
	}, "\n")
	res := s.Segment(text)

	if len(res.Lots) != 1 {
		t.Fatalf("expected 1 lot, got %d", len(res.Lots))
	}
	lot := res.Lots[0]
	if lot.Intitule != "Maintenance préventive et corrective des équipements d'imagerie" {
		t.Errorf("title = %q", lot.Intitule)
	}
	if lot.Source != StrategyMultiLineTitles {
		t.Errorf("source = %q", lot.Source)
	}
}

func TestSegment_SortedByNumero(t *testing.T) {
	s := New(nil)

	text := "2 SECOND LOT DU MARCHE 50 000 60 000\n1 PREMIER LOT DU MARCHE 100 000 150 000"
	res := s.Segment(text)

	if len(res.Lots) != 2 {
		t.Fatalf("expected 2 lots, got %d", len(res.Lots))
	}
	if res.Lots[0].Numero != 1 || res.Lots[1].Numero != 2 {
		t.Errorf("lots not sorted: %d, %d", res.Lots[0].Numero, res.Lots[1].Numero)
	}
}

func TestSegment_NothingFound(t *testing.T) {
	s := New(nil)

	res := s.Segment("Le présent marché porte sur des prestations de nettoyage.")
	if len(res.Lots) != 0 {
		t.Errorf("expected no lots, got %+v", res.Lots)
	}
}

func TestDefaultLot(t *testing.T) {
	lot := DefaultLot("Fourniture de scanners médicaux")
	if lot.Numero != 1 {
		t.Errorf("numero = %d", lot.Numero)
	}
	if lot.Intitule != "Fourniture de scanners médicaux" {
		t.Errorf("title = %q", lot.Intitule)
	}
	if lot.Source != "default" {
		t.Errorf("source = %q", lot.Source)
	}
	if lot.Confidence != 0.3 {
		t.Errorf("confidence = %.2f", lot.Confidence)
	}
}

func TestDefaultLot_GenericTitleWhenNoneAvailable(t *testing.T) {
	lot := DefaultLot("")
	if lot.Intitule != "Lot unique - objet du marché" {
		t.Errorf("title = %q", lot.Intitule)
	}
}

func TestSplitAmountPair(t *testing.T) {
	cases := []struct {
		tail   string
		estime float64
		maxi   float64
		ok     bool
	}{
		{"100 000 150 000", 100000, 150000, true},
		{"50 000 60 000", 50000, 60000, true},
		{"150000 200000", 150000, 200000, true},
		{"1 500 000 2 000 000", 1500000, 2000000, true},
		{"1.200.000 1.500.000", 1200000, 1500000, true},
		{"100 000,50 150 000,75", 100000.50, 150000.75, true},
		{"100 000", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		e, m, ok := splitAmountPair(tc.tail)
		if ok != tc.ok {
			t.Errorf("splitAmountPair(%q) ok = %v, want %v", tc.tail, ok, tc.ok)
			continue
		}
		if ok && (e != tc.estime || m != tc.maxi) {
			t.Errorf("splitAmountPair(%q) = %.2f/%.2f, want %.2f/%.2f",
				tc.tail, e, m, tc.estime, tc.maxi)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Équipements de laboratoire 100 000 150 000", "Équipements de laboratoire"},
		{"Maintenance : ", "Maintenance"},
		{"Fourniture de mobilier - montant", "Fourniture de mobilier"},
		{"  Prestations de formation  ", "Prestations de formation"},
	}
	for _, tc := range cases {
		if got := CleanTitle(tc.in); got != tc.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsFauxLot(t *testing.T) {
	for _, title := range []string{
		"Article 12 du CCAP",
		"Chapitre 3 - dispositions générales",
		"Annexe technique",
	} {
		if !isFauxLot(title) {
			t.Errorf("%q should be a faux lot", title)
		}
	}
	if isFauxLot("Fourniture de scanners") {
		t.Error("a genuine title must not be flagged")
	}
}

//Personal.AI order the ending
