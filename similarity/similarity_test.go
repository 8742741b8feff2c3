package similarity

import (
	"math"
	"testing"
)

func TestRatio_ExactEquality(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"identical", "Emotet", "Emotet"},
		{"case differs", "Emotet", "emotet"},
		{"case differs mixed", "LaZaRuS", "lazarus"},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); got != 1.0 {
				t.Errorf("Ratio(%q, %q) = %v, want exactly 1.0", tt.a, tt.b, got)
			}
		})
	}
}

func TestRatio_Values(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"one empty", "emotet", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"close names", "emotet", "emote", 2.0 * 5.0 / 11.0},
		{"prefix", "lazarus", "lazarus group", 2.0 * 7.0 / 20.0},
		{"single shared char", "ab", "bc", 2.0 * 1.0 / 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatio_Range(t *testing.T) {
	pairs := [][2]string{
		{"TA505", "TA542"},
		{"1.2.3.4", "1.2.3.4:8080"},
		{"CVE-2024-21412", "CVE-2021-44228"},
		{"Cobalt Strike", "cobaltstrike"},
		{"", "x"},
	}

	for _, p := range pairs {
		got := Ratio(p[0], p[1])
		if got < 0.0 || got > 1.0 {
			t.Errorf("Ratio(%q, %q) = %v, outside [0,1]", p[0], p[1], got)
		}
	}
}

func TestRatio_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"emotet", "emote"},
		{"lazarus", "lazarus group"},
		{"1.2.3.4", "4.3.2.1"},
	}

	for _, p := range pairs {
		if Ratio(p[0], p[1]) != Ratio(p[1], p[0]) {
			t.Errorf("Ratio(%q, %q) not symmetric", p[0], p[1])
		}
	}
}

func TestMemo_CachesSymmetrically(t *testing.T) {
	m := NewMemo()

	first := m.Ratio("Emotet", "emote")
	if m.Size() != 1 {
		t.Fatalf("Size() = %d after first lookup, want 1", m.Size())
	}

	// Reversed order and different casing hit the same entry.
	second := m.Ratio("EMOTE", "emotet")
	if m.Size() != 1 {
		t.Errorf("Size() = %d after symmetric lookup, want 1", m.Size())
	}
	if first != second {
		t.Errorf("memoized ratio differs: %v vs %v", first, second)
	}
	if first != Ratio("emotet", "emote") {
		t.Errorf("memoized ratio %v differs from direct Ratio", first)
	}
}
