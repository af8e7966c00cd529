// Package dice implements the dice primitives behind table draws: die
// specifications, seeded rolls, and the formula a table samples from.
package dice

import (
	"errors"
	"math/rand"
)

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = errors.New("at least one die must be provided")

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = errors.New("dice must have positive sides and count")

// Spec describes a die to roll and how many times to roll it.
type Spec struct {
	Sides int
	Count int
}

// Roll captures the results for a single dice spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result captures the results from rolling multiple dice.
type Result struct {
	Rolls    []Roll
	Modifier int
	Total    int
}

// Source is the randomness provider for dice rolls.
type Source interface {
	// Intn returns a non-negative random int in [0, n). n must be positive.
	Intn(n int) int
}

// NewSource returns a math/rand backed Source for the seed. The returned
// source is not safe for concurrent use.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}
