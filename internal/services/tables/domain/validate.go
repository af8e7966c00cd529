package domain

import (
	"fmt"
	"strings"

	"github.com/louisbranch/rolltables/internal/core/dice"
	apperrors "github.com/louisbranch/rolltables/internal/platform/errors"
)

// Validate checks a table before it is stored. It does not require a
// formula: a table without one is valid and draws nothing.
func (t Table) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return invalid("id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return invalid("name is required")
	}
	if t.Kind != KindStandard && t.Kind != KindTreasure {
		return apperrors.WithMetadata(apperrors.CodeTableKindInvalid, "unknown table kind", map[string]string{"Kind": string(t.Kind)})
	}
	if strings.TrimSpace(t.Formula) != "" {
		if _, err := dice.ParseFormula(t.Formula); err != nil {
			return apperrors.WrapWithMetadata(apperrors.CodeTableFormulaInvalid, "parse table formula", map[string]string{"Formula": t.Formula}, err)
		}
	}

	seen := make(map[string]struct{}, len(t.Entries))
	for i, e := range t.Entries {
		if strings.TrimSpace(e.ID) == "" {
			return invalid(fmt.Sprintf("entry %d has no id", i))
		}
		if _, dup := seen[e.ID]; dup {
			return invalid(fmt.Sprintf("duplicate entry id %s", e.ID))
		}
		seen[e.ID] = struct{}{}
		if e.Range.Low > e.Range.High {
			return invalid(fmt.Sprintf("entry %s range %d-%d is inverted", e.ID, e.Range.Low, e.Range.High))
		}
		if e.Weight < 0 {
			return invalid(fmt.Sprintf("entry %s weight is negative", e.ID))
		}
		if e.Reference != nil && strings.TrimSpace(e.Reference.TableID) == "" {
			return invalid(fmt.Sprintf("entry %s reference has no table id", e.ID))
		}
	}
	return nil
}

func invalid(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeTableInvalid, "invalid table: "+reason, map[string]string{"Reason": reason})
}
