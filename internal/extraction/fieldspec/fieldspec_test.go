package fieldspec

import (
	"testing"

	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

func TestNewTable_AllRulesCompile(t *testing.T) {
	table := NewTable(nil)
	if table.SkippedRules() != 0 {
		t.Errorf("built-in vocabulary has %d malformed rules", table.SkippedRules())
	}
	if len(table.Definitions()) == 0 {
		t.Fatal("empty table")
	}
}

func TestTable_LookupKnownFields(t *testing.T) {
	table := NewTable(nil)
	for _, name := range []string{
		tender.FieldReferenceProcedure,
		tender.FieldDateLimite,
		tender.FieldMontantGlobalEstime,
		tender.FieldNbrLots,
	} {
		if _, ok := table.Lookup(name); !ok {
			t.Errorf("missing definition for %s", name)
		}
	}
	if _, ok := table.Lookup("no_such_field"); ok {
		t.Error("lookup of unknown field must fail")
	}
}

func TestRule_RanksAreSequential(t *testing.T) {
	table := NewTable(nil)
	for _, def := range table.Definitions() {
		for i, r := range def.Rules {
			if r.Rank != i {
				t.Errorf("%s rule %d has rank %d", def.Name, i, r.Rank)
			}
		}
	}
}

func TestRule_Match_FirstNonEmptyGroup(t *testing.T) {
	table := NewTable(nil)
	def, _ := table.Lookup(tender.FieldDateLimite)

	text := "La date limite de remise des offres : 15/12/2024 à 12h00"
	var matched bool
	for _, r := range def.Rules {
		if v, _, pos, ok := r.Match(text); ok {
			matched = true
			if v != "15/12/2024" {
				t.Errorf("rank %d captured %q", r.Rank, v)
			}
			if pos < 0 {
				t.Error("expected non-negative position")
			}
			break
		}
	}
	if !matched {
		t.Fatal("no rule matched the date limite sentence")
	}
}

func TestRule_LiteralOverridesMatch(t *testing.T) {
	table := NewTable(nil)
	def, _ := table.Lookup(tender.FieldReconduction)

	v, _, _, ok := def.Rules[1].Match("Le marché est reconductible trois fois.")
	if !ok {
		t.Fatal("expected match")
	}
	if v != "Oui" {
		t.Errorf("got %q, want literal Oui", v)
	}
}

func TestReconduction_NegativeVocabularyRanksFirst(t *testing.T) {
	table := NewTable(nil)
	def, _ := table.Lookup(tender.FieldReconduction)

	// "non reconductible" also contains "reconductible"; the negation must be
	// the lower rank so first-match-wins picks "Non".
	v, _, _, ok := def.Rules[0].Match("Marché non reconductible.")
	if !ok || v != "Non" {
		t.Errorf("rank 0 on negation: ok=%v v=%q", ok, v)
	}
}

func TestValidators(t *testing.T) {
	cases := []struct {
		kind  Kind
		value string
		want  bool
	}{
		{KindAmount, "100 000", true},
		{KindAmount, "0", false},
		{KindAmount, "gratuit", false},
		{KindDate, "15/12/2024", true},
		{KindDate, "99/99/9999", false},
		{KindReference, "2024-R001", true},
		{KindReference, "AO", false},
		{KindDuration, "48", true},
		{KindDuration, "600", false},
		{KindPercent, "60", true},
		{KindPercent, "140", false},
		{KindYesNo, "Oui", true},
		{KindYesNo, "peut-être", false},
	}
	for _, tc := range cases {
		got := defaultValidator(tc.kind)(tc.value)
		if got != tc.want {
			t.Errorf("validator[%s](%q) = %v, want %v", tc.kind, tc.value, got, tc.want)
		}
	}
}

func TestAddRule(t *testing.T) {
	table := NewTable(nil)

	if err := table.AddRule(tender.FieldReferenceProcedure, `\b(REF-\d{6})\b`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, _ := table.Lookup(tender.FieldReferenceProcedure)
	last := def.Rules[len(def.Rules)-1]
	if last.Rank != len(def.Rules)-1 {
		t.Error("appended rule must take the next rank")
	}

	if err := table.AddRule("no_such_field", `x`); err == nil {
		t.Error("expected unknown-field error")
	}
	if err := table.AddRule(tender.FieldReferenceProcedure, `([`); err == nil {
		t.Error("expected compile error")
	}
}

func TestMalformedBuiltinRuleIsSkippedNotFatal(t *testing.T) {
	// Simulate the degradation path through the same code NewTable uses.
	table := &Table{byName: map[string]*Definition{}, log: nil}
	table.log = noopTestLogger{}
	table.add(defSpec{
		name: "demo", kind: KindText,
		rules: []ruleSpec{
			{expr: `([`},
			{expr: `(?i)objet\s*:\s*(.+)`},
		},
	})
	def, _ := table.Lookup("demo")
	if len(def.Rules) != 1 {
		t.Fatalf("expected 1 surviving rule, got %d", len(def.Rules))
	}
	if table.SkippedRules() != 1 {
		t.Errorf("expected 1 skipped rule, got %d", table.SkippedRules())
	}
}

type noopTestLogger struct{}

func (noopTestLogger) Debug(string, ...interface{}) {}
func (noopTestLogger) Info(string, ...interface{})  {}
func (noopTestLogger) Warn(string, ...interface{})  {}
func (noopTestLogger) Error(string, ...interface{}) {}

//Personal.AI order the ending
