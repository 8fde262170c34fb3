package tender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllFields_CountAndUniqueness(t *testing.T) {
	require.Len(t, AllFields, 44)

	seen := make(map[string]bool, len(AllFields))
	for _, f := range AllFields {
		assert.False(t, seen[f], "duplicate field %s", f)
		seen[f] = true
	}
}

func TestFieldValue_States(t *testing.T) {
	cases := []struct {
		name    string
		v       FieldValue
		present bool
	}{
		{"absent", Absent(), false},
		{"extracted", Extracted("2024-R001", 0), true},
		{"deduced", Deduced("AO EN COURS", FieldDateLimite), true},
		{"generated", Generated("scanner medical"), true},
		{"extracted empty value", Extracted("", 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.present, tc.v.Present())
		})
	}
}

func TestFieldValue_NumericAccessors(t *testing.T) {
	f, ok := Extracted("150000", 0).Float()
	require.True(t, ok)
	assert.Equal(t, 150000.0, f)

	_, ok = Extracted("quarante", 0).Float()
	assert.False(t, ok)

	n, ok := Extracted("12", 0).Int()
	require.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = Absent().Int()
	assert.False(t, ok)
}

func TestRecord_SetIfAbsent_NeverOverwritesExtracted(t *testing.T) {
	r := NewRecord()
	r.Set(FieldStatut, Extracted("AO ATTRIBUÉ", 0))

	changed := r.SetIfAbsent(FieldStatut, Deduced("AO EN COURS", FieldDateLimite))

	assert.False(t, changed)
	assert.Equal(t, "AO ATTRIBUÉ", r.Get(FieldStatut).Value)
	assert.Equal(t, StateExtracted, r.Get(FieldStatut).State)
}

func TestRecord_SetIfAbsent_FillsAbsent(t *testing.T) {
	r := NewRecord()

	changed := r.SetIfAbsent(FieldMonoMulti, Deduced("Multi-attributif", FieldNbrLots))

	assert.True(t, changed)
	assert.Equal(t, StateDeduced, r.Get(FieldMonoMulti).State)
	assert.Equal(t, FieldNbrLots, r.Get(FieldMonoMulti).Source)
}

func TestRecord_GetMissingKeyIsAbsent(t *testing.T) {
	r := Record{}
	assert.Equal(t, StateAbsent, r.Get(FieldUnivers).State)
	assert.False(t, r.Present(FieldUnivers))
}

func TestRecord_Clone_IsIndependent(t *testing.T) {
	r := NewRecord()
	r.Set(FieldUnivers, Extracted("MÉDICAL", 0))

	c := r.Clone()
	c.Set(FieldUnivers, Extracted("INFORMATIQUE", 0))

	assert.Equal(t, "MÉDICAL", r.Get(FieldUnivers).Value)
	assert.Equal(t, "INFORMATIQUE", c.Get(FieldUnivers).Value)
}

func TestAwardCriteria_SumAndEmpty(t *testing.T) {
	var nilCrit *AwardCriteria
	assert.True(t, nilCrit.Empty())
	assert.Zero(t, nilCrit.Sum())

	eco, tech := 40.0, 60.0
	c := &AwardCriteria{Economic: &eco, Technical: &tech}
	assert.False(t, c.Empty())
	assert.Equal(t, 100.0, c.Sum())
}

func TestLot_HasAmounts(t *testing.T) {
	l := &Lot{Numero: 1, Intitule: "EQUIPEMENT MEDICAL", MontantEstime: 100000}
	assert.False(t, l.HasAmounts())
	l.MontantMaximum = 150000
	assert.True(t, l.HasAmounts())
}

func TestValidationResult_HasErrors(t *testing.T) {
	vr := &ValidationResult{Issues: []Issue{
		{Field: FieldDateAttribution, Severity: SeverityWarning, Message: "attribution before deadline"},
	}}
	assert.False(t, vr.HasErrors())

	vr.Issues = append(vr.Issues, Issue{
		Field: FieldMontantGlobalMaxi, Severity: SeverityError, Message: "maxi below estimate",
	})
	assert.True(t, vr.HasErrors())
}

//Personal.AI order the ending
