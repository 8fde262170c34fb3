package criteria

import (
	"strings"
	"testing"

	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

func fv(p *float64) float64 {
	if p == nil {
		return -1
	}
	return *p
}

func TestExtractDocument_FreeTextPercentages(t *testing.T) {
	e := New(nil)

	c := e.ExtractDocument("Critère économique : 40 %\nCritère technique : 60 %")
	if c == nil {
		t.Fatal("expected criteria")
	}
	if fv(c.Economic) != 40 {
		t.Errorf("economic = %v", fv(c.Economic))
	}
	if fv(c.Technical) != 60 {
		t.Errorf("technical = %v", fv(c.Technical))
	}
	if c.Mode != ModeFreeText {
		t.Errorf("mode = %q", c.Mode)
	}
	if c.Sum() != 100 {
		t.Errorf("sum = %v", c.Sum())
	}
}

func TestExtractDocument_StructuredRows(t *testing.T) {
	e := New(nil)

	text := strings.Join([]string{
		"CRITÈRE N°1 : Prix des prestations ................ 40 points",
		"CRITÈRE N°2 : Valeur technique .................... 50 points",
		"CRITÈRE N°3 : Qualité du service après-vente 10 points",
	}, "\n")
	c := e.ExtractDocument(text)
	if c == nil {
		t.Fatal("expected criteria")
	}
	if c.Mode != ModeStructured {
		t.Errorf("mode = %q", c.Mode)
	}
	if fv(c.Economic) != 40 || fv(c.Technical) != 50 || fv(c.Others) != 10 {
		t.Errorf("weights = %v / %v / %v", fv(c.Economic), fv(c.Technical), fv(c.Others))
	}
}

func TestExtractDocument_StructuredSuppressesFreeText(t *testing.T) {
	e := New(nil)

	// The free-text "prix : 30 %" mention must not override the structured
	// table once a structured row exists.
	text := strings.Join([]string{
		"CRITÈRE N°1 : Prix ......... 40 points",
		"CRITÈRE N°2 : Valeur technique ......... 60 points",
		"",
		"Rappel : le prix compte pour 30 % dans d'autres procédures.",
	}, "\n")
	c := e.ExtractDocument(text)
	if c == nil {
		t.Fatal("expected criteria")
	}
	if c.Mode != ModeStructured {
		t.Fatalf("mode = %q", c.Mode)
	}
	if fv(c.Economic) != 40 {
		t.Errorf("economic = %v, structured row must win", fv(c.Economic))
	}
}

func TestExtractDocument_PointsEqualPercent(t *testing.T) {
	e := New(nil)

	c := e.ExtractDocument("Valeur technique : 35 points\nPrix : 65 points")
	if c == nil {
		t.Fatal("expected criteria")
	}
	if fv(c.Technical) != 35 || fv(c.Economic) != 65 {
		t.Errorf("weights = %v / %v", fv(c.Technical), fv(c.Economic))
	}
}

func TestExtractDocument_OutOfRangeWeightRejected(t *testing.T) {
	e := New(nil)

	if c := e.ExtractDocument("Critère économique : 140 %"); c != nil {
		t.Errorf("weight above 100 must be rejected, got %+v", c)
	}
}

func TestExtractDocument_RSEVocabulary(t *testing.T) {
	e := New(nil)

	c := e.ExtractDocument("Prix : 50 %\nDéveloppement durable : 10 %\nValeur technique : 40 %")
	if c == nil {
		t.Fatal("expected criteria")
	}
	if fv(c.RSE) != 10 {
		t.Errorf("rse = %v", fv(c.RSE))
	}
}

func TestExtractDocument_NothingFound(t *testing.T) {
	e := New(nil)

	if c := e.ExtractDocument("Le marché est conclu pour une durée de 4 ans."); c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

func TestExtractDocument_HeadingWindowScopesScan(t *testing.T) {
	e := New(nil)

	// The criteria live under the heading; an unrelated percentage far below
	// the window must not leak into the result.
	text := "Critères d'attribution\nPrix : 45 %\nValeur technique : 55 %\n" +
		strings.Repeat("texte de remplissage sans rapport avec la notation\n", 40) +
		"La TVA applicable est de 20 %.\nQualité attendue : 99 %"
	c := e.ExtractDocument(text)
	if c == nil {
		t.Fatal("expected criteria")
	}
	if fv(c.Economic) != 45 || fv(c.Technical) != 55 {
		t.Errorf("weights = %v / %v", fv(c.Economic), fv(c.Technical))
	}
	if c.Others != nil {
		t.Errorf("out-of-window percentage leaked: %v", fv(c.Others))
	}
}

func TestPerLot_RowScopedCriteria(t *testing.T) {
	e := New(nil)

	text := "Lot 1 : prix 40 % - valeur technique 60 %\nLot 2 : prix 30 % - valeur technique 70 %"
	lots := []tender.Lot{
		{Numero: 1, Position: 0},
		{Numero: 2, Position: strings.Index(text, "Lot 2")},
	}
	got := e.PerLot(text, lots)

	c1, ok := got[1]
	if !ok {
		t.Fatal("missing lot 1 criteria")
	}
	if fv(c1.Economic) != 40 || fv(c1.Technical) != 60 {
		t.Errorf("lot 1 = %v / %v", fv(c1.Economic), fv(c1.Technical))
	}
	c2, ok := got[2]
	if !ok {
		t.Fatal("missing lot 2 criteria")
	}
	if fv(c2.Economic) != 30 || fv(c2.Technical) != 70 {
		t.Errorf("lot 2 = %v / %v", fv(c2.Economic), fv(c2.Technical))
	}
}

func TestPerLot_WindowCriteria(t *testing.T) {
	e := New(nil)

	text := strings.Join([]string{
		"Lot 1 : Fourniture de scanners",
		"Critère économique : 40 %",
		"Critère technique : 60 %",
		"Lot 2 : Formation du personnel",
		"Critère économique : 30 %",
		"Critère technique : 70 %",
	}, "\n")
	lots := []tender.Lot{
		{Numero: 1, Position: 0},
		{Numero: 2, Position: strings.Index(text, "Lot 2")},
	}
	got := e.PerLot(text, lots)

	c1 := got[1]
	if c1 == nil || fv(c1.Economic) != 40 || fv(c1.Technical) != 60 {
		t.Errorf("lot 1 = %+v", c1)
	}
	c2 := got[2]
	if c2 == nil || fv(c2.Economic) != 30 || fv(c2.Technical) != 70 {
		t.Errorf("lot 2 = %+v", c2)
	}
}

func TestPerLot_LotWithoutCriteriaStaysOut(t *testing.T) {
	e := New(nil)

	text := "Lot 1 : Fourniture de scanners\nLivraison attendue sous 8 semaines."
	got := e.PerLot(text, []tender.Lot{{Numero: 1, Position: 0}})
	if len(got) != 0 {
		t.Errorf("expected empty map, got %+v", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Prix des prestations", "economic"},
		{"Valeur technique", "technical"},
		{"Qualité du service", "other"},
		{"Performance environnementale", "rse"},
		{"Critères RSE", "rse"},
		{"Délai de livraison", "other"},
		{"Coût global d'utilisation", "economic"},
	}
	for _, tc := range cases {
		if got := classify(tc.label); got != tc.want {
			t.Errorf("classify(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestParseWeight(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"40", 40, true},
		{"12,5", 12.5, true},
		{"100", 100, true},
		{"0", 0, false},
		{"140", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseWeight(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseWeight(%q) = %v, %v", tc.in, got, ok)
		}
	}
}

//Personal.AI order the ending
