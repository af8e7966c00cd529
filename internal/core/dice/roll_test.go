package dice

import (
	"errors"
	"testing"
)

func TestRollWith(t *testing.T) {
	tests := []struct {
		name    string
		specs   []Spec
		wantErr error
	}{
		{name: "percentile", specs: []Spec{{Sides: 100, Count: 1}}},
		{name: "mixed pool", specs: []Spec{{Sides: 6, Count: 3}, {Sides: 20, Count: 1}}},
		{name: "empty", specs: nil, wantErr: ErrMissingDice},
		{name: "zero sides", specs: []Spec{{Sides: 0, Count: 1}}, wantErr: ErrInvalidDiceSpec},
		{name: "negative count", specs: []Spec{{Sides: 6, Count: -1}}, wantErr: ErrInvalidDiceSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RollWith(NewSource(7), tt.specs)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RollWith() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(got.Rolls) != len(tt.specs) {
				t.Fatalf("rolls = %d, want %d", len(got.Rolls), len(tt.specs))
			}
			sum := 0
			for i, roll := range got.Rolls {
				if roll.Sides != tt.specs[i].Sides || len(roll.Results) != tt.specs[i].Count {
					t.Fatalf("roll[%d] = %+v", i, roll)
				}
				for _, v := range roll.Results {
					if v < 1 || v > roll.Sides {
						t.Fatalf("roll[%d] face %d outside [1, %d]", i, v, roll.Sides)
					}
				}
				sum += roll.Total
			}
			if got.Total != sum {
				t.Fatalf("total = %d, want %d", got.Total, sum)
			}
		})
	}
}

func TestRollWithSameSeedRepeats(t *testing.T) {
	specs := []Spec{{Sides: 12, Count: 2}, {Sides: 6, Count: 4}}
	first, err := RollWith(NewSource(12345), specs)
	if err != nil {
		t.Fatalf("RollWith() error = %v", err)
	}
	second, err := RollWith(NewSource(12345), specs)
	if err != nil {
		t.Fatalf("RollWith() error = %v", err)
	}
	for i := range first.Rolls {
		for j := range first.Rolls[i].Results {
			if first.Rolls[i].Results[j] != second.Rolls[i].Results[j] {
				t.Fatalf("roll[%d][%d] differs: %d vs %d", i, j, first.Rolls[i].Results[j], second.Rolls[i].Results[j])
			}
		}
	}
}
