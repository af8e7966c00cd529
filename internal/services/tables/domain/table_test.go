package domain

import (
	"errors"
	"testing"

	"github.com/louisbranch/rolltables/internal/core/dice"
	apperrors "github.com/louisbranch/rolltables/internal/platform/errors"
)

func TestSelectorFor(t *testing.T) {
	t.Parallel()

	if got := SelectorFor(Table{Kind: KindStandard}); got != SelectionModeRange {
		t.Fatalf("standard selector = %v", got)
	}
	if got := SelectorFor(Table{Kind: KindTreasure}); got != SelectionModeWeight {
		t.Fatalf("treasure selector = %v", got)
	}
}

func TestSelectionModeText(t *testing.T) {
	t.Parallel()

	for _, mode := range []SelectionMode{SelectionModeRange, SelectionModeWeight} {
		text, err := mode.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", mode, err)
		}
		var back SelectionMode
		if err := back.UnmarshalText(text); err != nil || back != mode {
			t.Fatalf("round trip %q = %v, %v", text, back, err)
		}
	}
	var m SelectionMode
	if err := m.UnmarshalText([]byte("dice")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Kind
		wantErr bool
	}{
		{raw: "", want: KindStandard},
		{raw: "standard", want: KindStandard},
		{raw: " Treasure ", want: KindTreasure},
		{raw: "loot", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseKind(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseKind(%q) = %q, %v", tt.raw, got, err)
		}
	}
}

func TestRangeContainsIsInclusive(t *testing.T) {
	t.Parallel()

	r := Range{Low: 51, High: 100}
	for _, v := range []int{51, 75, 100} {
		if !r.Contains(v) {
			t.Fatalf("expected %d inside %v", v, r)
		}
	}
	for _, v := range []int{50, 101} {
		if r.Contains(v) {
			t.Fatalf("expected %d outside %v", v, r)
		}
	}
}

func TestEligibleSkipsDrawnEntries(t *testing.T) {
	t.Parallel()

	table := Table{Entries: []Entry{
		{ID: "a"},
		{ID: "b", Drawn: true},
		{ID: "c"},
	}}
	got := table.Eligible()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("Eligible = %+v", got)
	}
}

func TestReferenceString(t *testing.T) {
	t.Parallel()

	if got := (Reference{TableID: "hoard"}).String(); got != "hoard" {
		t.Fatalf("world reference = %q", got)
	}
	if got := (Reference{Pack: "dmg", TableID: "gems"}).String(); got != "dmg/gems" {
		t.Fatalf("pack reference = %q", got)
	}
}

func TestIsReference(t *testing.T) {
	t.Parallel()

	if (Entry{}).IsReference() {
		t.Fatal("plain entry should not be a reference")
	}
	if (Entry{Reference: &Reference{}}).IsReference() {
		t.Fatal("reference without table id should not count")
	}
	if !(Entry{Reference: &Reference{TableID: "x"}}).IsReference() {
		t.Fatal("expected reference")
	}
}

func TestDiceFormula(t *testing.T) {
	t.Parallel()

	if _, err := (Table{}).DiceFormula(); !errors.Is(err, ErrNoFormula) {
		t.Fatalf("blank formula err = %v", err)
	}
	if _, err := (Table{Formula: "2q6"}).DiceFormula(); !errors.Is(err, dice.ErrInvalidFormula) {
		t.Fatalf("bad formula err = %v", err)
	}
	f, err := (Table{Formula: "d%"}).DiceFormula()
	if err != nil || f.Max() != 100 {
		t.Fatalf("d%% formula = %+v, %v", f, err)
	}
}

func TestCloneCopiesReferences(t *testing.T) {
	t.Parallel()

	original := Table{ID: "t", Entries: []Entry{{ID: "e", Reference: &Reference{TableID: "x"}}}}
	clone := original.Clone()
	clone.Entries[0].Reference.TableID = "y"
	clone.Entries[0].Drawn = true

	if original.Entries[0].Reference.TableID != "x" || original.Entries[0].Drawn {
		t.Fatalf("clone mutated original: %+v", original.Entries[0])
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Table{
		ID:      "loot",
		Name:    "Loot",
		Kind:    KindStandard,
		Formula: "1d100",
		Entries: []Entry{{ID: "a", Range: Range{Low: 1, High: 100}}},
	}

	tests := []struct {
		name   string
		mutate func(*Table)
		code   apperrors.Code
	}{
		{name: "valid", mutate: func(*Table) {}},
		{name: "no formula is valid", mutate: func(t *Table) { t.Formula = "" }},
		{name: "missing id", mutate: func(t *Table) { t.ID = " " }, code: apperrors.CodeTableInvalid},
		{name: "missing name", mutate: func(t *Table) { t.Name = "" }, code: apperrors.CodeTableInvalid},
		{name: "unknown kind", mutate: func(t *Table) { t.Kind = "loot" }, code: apperrors.CodeTableKindInvalid},
		{name: "bad formula", mutate: func(t *Table) { t.Formula = "roll" }, code: apperrors.CodeTableFormulaInvalid},
		{name: "inverted range", mutate: func(t *Table) { t.Entries[0].Range = Range{Low: 5, High: 1} }, code: apperrors.CodeTableInvalid},
		{name: "negative weight", mutate: func(t *Table) { t.Entries[0].Weight = -1 }, code: apperrors.CodeTableInvalid},
		{name: "duplicate entry", mutate: func(t *Table) { t.Entries = append(t.Entries, Entry{ID: "a"}) }, code: apperrors.CodeTableInvalid},
		{name: "empty reference", mutate: func(t *Table) { t.Entries[0].Reference = &Reference{Pack: "p"} }, code: apperrors.CodeTableInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := valid.Clone()
			tt.mutate(&table)
			err := table.Validate()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if got := apperrors.GetCode(err); got != tt.code {
				t.Fatalf("Validate() code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}
