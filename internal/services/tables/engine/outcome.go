package engine

import (
	"github.com/louisbranch/rolltables/internal/random"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
)

// Result is a terminal entry and the table it was drawn from.
type Result struct {
	Source domain.Reference `json:"source"`
	Depth  int              `json:"depth"`
	Entry  domain.Entry     `json:"entry"`
}

// Consumption lists the hit entries of one standard table level. A commit
// marks them drawn unless the table draws with replacement.
type Consumption struct {
	Table    domain.Reference `json:"table"`
	EntryIDs []string         `json:"entry_ids"`
}

// Level is the sample window one table level consumed, in draw order.
// For range tables the last sample is the one that landed.
type Level struct {
	Table   domain.Reference     `json:"table"`
	Depth   int                  `json:"depth"`
	Mode    domain.SelectionMode `json:"mode"`
	Samples []int                `json:"samples"`
}

// Outcome is the result of one resolution.
type Outcome struct {
	// Samples holds every sample in consumption order, outer table first,
	// including resampling attempts that landed nowhere.
	Samples []int `json:"samples"`
	// Levels splits Samples by the table level that consumed them.
	Levels      []Level       `json:"levels"`
	Results     []Result      `json:"results"`
	Consumed    []Consumption `json:"consumed,omitempty"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	// Seed drives the random samples drawn after any forced ones.
	Seed       int64             `json:"seed"`
	SeedSource random.SeedSource `json:"seed_source"`
}

// Root returns the sample window of the table the resolution started at.
func (o Outcome) Root() (Level, bool) {
	if len(o.Levels) == 0 {
		return Level{}, false
	}
	root := o.Levels[0]
	for _, l := range o.Levels[1:] {
		if l.Depth < root.Depth {
			return Level{}, false
		}
	}
	return root, true
}

// Entries returns the flattened terminal entries.
func (o Outcome) Entries() []domain.Entry {
	out := make([]domain.Entry, 0, len(o.Results))
	for _, r := range o.Results {
		out = append(out, r.Entry)
	}
	return out
}

// Texts returns the text of each terminal entry.
func (o Outcome) Texts() []string {
	out := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		out = append(out, r.Entry.Text)
	}
	return out
}
