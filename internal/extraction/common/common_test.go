package common

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"100 000", 100000, true},
		{"1 500 000 €", 1500000, true},
		{"150000€", 150000, true},
		{"1.500.000,50", 1500000.50, true},
		{"123456,78", 123456.78, true},
		{"250 k€", 250000, true},
		{"1,2 M€", 1200000, true},
		{"", 0, false},
		{"sans montant", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseAmount(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseAmount_NBSPGrouping(t *testing.T) {
	// 100<NBSP>000 as produced by PDF text layers.
	got, ok := ParseAmount("100 000")
	if !ok || got != 100000 {
		t.Errorf("got %v ok=%v", got, ok)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(150000); got != "150000" {
		t.Errorf("got %q", got)
	}
	if got := FormatAmount(1234.5); got != "1234.50" {
		t.Errorf("got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"15/12/2024", time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), true},
		{"15-12-2024", time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-12-15", time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), true},
		{"15/12/24", time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), true},
		{"15 décembre 2024", time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), true},
		{"1 mars 2025", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"32/13/2024", time.Time{}, false},
		{"demain", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseDate(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(tc.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCleanReference(t *testing.T) {
	cases := map[string]string{
		"2024-r001":     "2024-R001",
		" AO 2024 001 ": "AO2024001",
		"réf. 2024-R001": "RÉF2024-R001",
	}
	for in, want := range cases {
		if got := CleanReference(in); got != want {
			t.Errorf("CleanReference(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFirstInt(t *testing.T) {
	n, ok := FirstInt("durée de 48 mois")
	if !ok || n != 48 {
		t.Errorf("got %d ok=%v", n, ok)
	}
	if _, ok := FirstInt("aucun"); ok {
		t.Error("expected no integer")
	}
}

func TestNoopLogger_DoesNotPanic(t *testing.T) {
	l := NoopLogger()
	l.Debug("a", "k", 1)
	l.Info("b")
	l.Warn("c", "k", "v")
	l.Error("d")
}

//Personal.AI order the ending
