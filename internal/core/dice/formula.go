package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultFormula is the percentile die tables sample from when none is set.
const DefaultFormula = "1d100"

// Bounds on a parsed formula. They keep Max within int range and a single
// roll cheap.
const (
	MaxCount    = 1000
	MaxSides    = 1_000_000
	MaxModifier = 1_000_000
)

// ErrInvalidFormula indicates a formula string could not be parsed.
var ErrInvalidFormula = errors.New("invalid dice formula")

var formulaRe = regexp.MustCompile(`(?i)^(\d+)?d(\d+|%)(?:([+-])(\d+))?$`)

// Formula is a parsed NdM+K expression. A constant formula has Count == 0.
type Formula struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// ParseFormula parses NdM, NdM+K, NdM-K, dM, d% and bare integer constants.
// Whitespace is ignored.
func ParseFormula(raw string) (Formula, error) {
	compact := strings.Join(strings.Fields(raw), "")
	if compact == "" {
		return Formula{}, fmt.Errorf("%w: empty formula", ErrInvalidFormula)
	}
	if n, err := strconv.Atoi(compact); err == nil {
		if n < -MaxModifier || n > MaxModifier {
			return Formula{}, fmt.Errorf("%w: %q exceeds %d", ErrInvalidFormula, raw, MaxModifier)
		}
		return Formula{Raw: compact, Modifier: n}, nil
	}

	m := formulaRe.FindStringSubmatch(compact)
	if m == nil {
		return Formula{}, fmt.Errorf("%w: %q", ErrInvalidFormula, raw)
	}

	count := 1
	if m[1] != "" {
		n, err := boundedInt(m[1], MaxCount)
		if err != nil {
			return Formula{}, fmt.Errorf("%w: %q dice count: %v", ErrInvalidFormula, raw, err)
		}
		count = n
	}
	sides := 100
	if m[2] != "%" {
		n, err := boundedInt(m[2], MaxSides)
		if err != nil {
			return Formula{}, fmt.Errorf("%w: %q sides: %v", ErrInvalidFormula, raw, err)
		}
		sides = n
	}
	if count <= 0 || sides <= 0 {
		return Formula{}, fmt.Errorf("%w: %q needs positive count and sides", ErrInvalidFormula, raw)
	}

	modifier := 0
	if m[3] != "" {
		n, err := boundedInt(m[4], MaxModifier)
		if err != nil {
			return Formula{}, fmt.Errorf("%w: %q modifier: %v", ErrInvalidFormula, raw, err)
		}
		modifier = n
		if m[3] == "-" {
			modifier = -modifier
		}
	}

	return Formula{Raw: compact, Count: count, Sides: sides, Modifier: modifier}, nil
}

func boundedInt(digits string, limit int) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, err
	}
	if n > limit {
		return 0, fmt.Errorf("%d exceeds %d", n, limit)
	}
	return n, nil
}

// MustParseFormula parses raw and panics on error. Useful for package-level
// defaults.
func MustParseFormula(raw string) Formula {
	f, err := ParseFormula(raw)
	if err != nil {
		panic("dice: MustParseFormula failed for " + raw + ": " + err.Error())
	}
	return f
}

// Min returns the smallest total the formula can produce.
func (f Formula) Min() int {
	return f.Count + f.Modifier
}

// Max returns the largest total the formula can produce.
func (f Formula) Max() int {
	return f.Count*f.Sides + f.Modifier
}

// Specs returns the dice the formula rolls, or nil for a constant.
func (f Formula) Specs() []Spec {
	if f.Count == 0 {
		return nil
	}
	return []Spec{{Sides: f.Sides, Count: f.Count}}
}

// Roll evaluates the formula against src. For a parsed formula the result
// is always within [Min, Max].
func (f Formula) Roll(src Source) int {
	return f.Evaluate(src).Total
}

// Evaluate rolls the formula and keeps the per-die breakdown. Total
// includes the modifier.
func (f Formula) Evaluate(src Source) Result {
	result := Result{Modifier: f.Modifier}
	if specs := f.Specs(); len(specs) > 0 {
		rolled, err := RollWith(src, specs)
		if err == nil {
			result.Rolls = rolled.Rolls
			result.Total = rolled.Total
		}
	}
	result.Total += f.Modifier
	return result
}

// String returns the normalized formula text.
func (f Formula) String() string {
	if f.Raw != "" {
		return f.Raw
	}
	if f.Count == 0 {
		return strconv.Itoa(f.Modifier)
	}
	out := fmt.Sprintf("%dd%d", f.Count, f.Sides)
	switch {
	case f.Modifier > 0:
		out += fmt.Sprintf("+%d", f.Modifier)
	case f.Modifier < 0:
		out += strconv.Itoa(f.Modifier)
	}
	return out
}
