// Package domain defines roll tables, their entries and the references
// that chain one table into another.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/rolltables/internal/core/check"
	"github.com/louisbranch/rolltables/internal/core/dice"
)

// Kind selects how a table turns samples into hits.
type Kind string

const (
	// KindStandard tables partition one shared sample across entry ranges.
	KindStandard Kind = "standard"
	// KindTreasure tables check every entry against its own sample.
	KindTreasure Kind = "treasure"
)

// ParseKind normalizes a kind name. The empty string means standard.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindStandard:
		return KindStandard, nil
	case KindTreasure:
		return KindTreasure, nil
	default:
		return "", fmt.Errorf("unknown table kind %q", raw)
	}
}

// SelectionMode is how the engine matches samples to entries.
type SelectionMode int

const (
	// SelectionModeRange hits every entry whose range holds the sample.
	SelectionModeRange SelectionMode = iota
	// SelectionModeWeight hits every entry whose own sample is within its weight.
	SelectionModeWeight
)

func (m SelectionMode) String() string {
	switch m {
	case SelectionModeWeight:
		return "weight"
	default:
		return "range"
	}
}

// MarshalText renders the mode by name.
func (m SelectionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name.
func (m *SelectionMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "range":
		*m = SelectionModeRange
	case "weight":
		*m = SelectionModeWeight
	default:
		return fmt.Errorf("unknown selection mode %q", text)
	}
	return nil
}

// SelectorFor reports the selection mode of t. Presentation layers use it to
// decide between a single reveal and a sequence of independent checks.
func SelectorFor(t Table) SelectionMode {
	if t.Kind == KindTreasure {
		return SelectionModeWeight
	}
	return SelectionModeRange
}

// Range is an inclusive interval on a table's outcome line.
type Range struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Contains reports whether v falls inside the range, both ends included.
func (r Range) Contains(v int) bool {
	return check.WithinRange(v, r.Low, r.High)
}

// Reference names a table inside a container. An empty Pack is the world.
type Reference struct {
	Pack    string `json:"pack,omitempty"`
	TableID string `json:"table_id"`
}

// InWorld reports whether the reference points at a world table.
func (r Reference) InWorld() bool {
	return r.Pack == ""
}

func (r Reference) String() string {
	if r.Pack == "" {
		return r.TableID
	}
	return r.Pack + "/" + r.TableID
}

// Entry is one row of a table.
type Entry struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Range     Range      `json:"range"`
	Weight    int        `json:"weight"`
	Drawn     bool       `json:"drawn"`
	Reference *Reference `json:"reference,omitempty"`
}

// Eligible reports whether the entry can still be selected.
func (e Entry) Eligible() bool {
	return !e.Drawn
}

// IsReference reports whether the entry expands into another table.
func (e Entry) IsReference() bool {
	return e.Reference != nil && e.Reference.TableID != ""
}

// Table is a named collection of entries.
type Table struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Kind        Kind    `json:"kind"`
	Formula     string  `json:"formula"`
	Replacement bool    `json:"replacement"`
	Entries     []Entry `json:"entries"`
	// Pack is set on tables loaded from a compendium pack.
	Pack string `json:"pack,omitempty"`
}

// ErrNoFormula indicates a table has no roll formula configured.
var ErrNoFormula = errors.New("table has no formula")

// DiceFormula parses the table's roll formula.
func (t Table) DiceFormula() (dice.Formula, error) {
	if strings.TrimSpace(t.Formula) == "" {
		return dice.Formula{}, ErrNoFormula
	}
	return dice.ParseFormula(t.Formula)
}

// Ref returns the reference that locates this table.
func (t Table) Ref() Reference {
	return Reference{Pack: t.Pack, TableID: t.ID}
}

// Eligible returns the undrawn entries in table order.
func (t Table) Eligible() []Entry {
	out := make([]Entry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if e.Eligible() {
			out = append(out, e)
		}
	}
	return out
}

// Entry returns the entry with the given id.
func (t Table) Entry(id string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := t
	out.Entries = make([]Entry, len(t.Entries))
	for i, e := range t.Entries {
		if e.Reference != nil {
			ref := *e.Reference
			e.Reference = &ref
		}
		out.Entries[i] = e
	}
	return out
}
