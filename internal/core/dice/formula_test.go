package dice

import (
	"errors"
	"testing"
)

type fixedSource struct {
	values []int
	next   int
}

func (s *fixedSource) Intn(n int) int {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}

func TestParseFormula(t *testing.T) {
	tests := []struct {
		raw      string
		want     Formula
		min, max int
	}{
		{raw: "1d100", want: Formula{Raw: "1d100", Count: 1, Sides: 100}, min: 1, max: 100},
		{raw: "d%", want: Formula{Raw: "d%", Count: 1, Sides: 100}, min: 1, max: 100},
		{raw: " 2d6 + 3 ", want: Formula{Raw: "2d6+3", Count: 2, Sides: 6, Modifier: 3}, min: 5, max: 15},
		{raw: "3D4-2", want: Formula{Raw: "3D4-2", Count: 3, Sides: 4, Modifier: -2}, min: 1, max: 10},
		{raw: "d20", want: Formula{Raw: "d20", Count: 1, Sides: 20}, min: 1, max: 20},
		{raw: "7", want: Formula{Raw: "7", Modifier: 7}, min: 7, max: 7},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFormula(tt.raw)
			if err != nil {
				t.Fatalf("ParseFormula(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseFormula(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
			if got.Min() != tt.min || got.Max() != tt.max {
				t.Fatalf("bounds = [%d, %d], want [%d, %d]", got.Min(), got.Max(), tt.min, tt.max)
			}
		})
	}
}

func TestParseFormulaRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"", "   ", "d", "0d6", "2d0", "1d6*2", "roll",
		"2d99999999999999999999",
		"99999999999999999999d6",
		"1d6+99999999999999999999",
		"99999999999999999999",
		"1001d6",
		"1d1000001",
		"1d6+1000001",
		"-1000001",
	} {
		if _, err := ParseFormula(raw); !errors.Is(err, ErrInvalidFormula) {
			t.Errorf("ParseFormula(%q) error = %v, want %v", raw, err, ErrInvalidFormula)
		}
	}
}

func TestFormulaRollStaysInBounds(t *testing.T) {
	for _, raw := range []string{"2d6+1", "1000d1000000+1000000", "1000d1000000-1000000", "d%"} {
		f := MustParseFormula(raw)
		if f.Min() > f.Max() {
			t.Fatalf("%s bounds [%d, %d] inverted", raw, f.Min(), f.Max())
		}
		src := NewSource(99)
		for i := 0; i < 50; i++ {
			v := f.Roll(src)
			if v < f.Min() || v > f.Max() {
				t.Fatalf("%s roll %d outside [%d, %d]", raw, v, f.Min(), f.Max())
			}
		}
	}
}

func TestFormulaEvaluateKeepsDice(t *testing.T) {
	f := MustParseFormula("3d6-2")
	src := &fixedSource{values: []int{0, 5, 2}}
	got := f.Evaluate(src)
	if got.Total != 1+6+3-2 || got.Modifier != -2 {
		t.Fatalf("Evaluate() = %+v", got)
	}
	if len(got.Rolls) != 1 || got.Rolls[0].Sides != 6 || len(got.Rolls[0].Results) != 3 || got.Rolls[0].Total != 10 {
		t.Fatalf("rolls = %+v", got.Rolls)
	}
}

func TestFormulaRollUsesSource(t *testing.T) {
	f := MustParseFormula("1d100")
	src := &fixedSource{values: []int{74}}
	if got := f.Roll(src); got != 75 {
		t.Fatalf("Roll() = %d, want 75", got)
	}
}

func TestConstantFormulaHasNoSpecs(t *testing.T) {
	f := MustParseFormula("12")
	if f.Specs() != nil {
		t.Fatalf("Specs() = %v, want nil", f.Specs())
	}
	if got := f.Roll(NewSource(1)); got != 12 {
		t.Fatalf("Roll() = %d, want 12", got)
	}
}

func TestFormulaString(t *testing.T) {
	tests := []struct {
		f    Formula
		want string
	}{
		{Formula{Count: 1, Sides: 100}, "1d100"},
		{Formula{Count: 2, Sides: 6, Modifier: 3}, "2d6+3"},
		{Formula{Count: 2, Sides: 6, Modifier: -1}, "2d6-1"},
		{Formula{Modifier: 4}, "4"},
		{MustParseFormula("d%"), "d%"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
