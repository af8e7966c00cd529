package engine

import (
	"strconv"

	apperrors "github.com/louisbranch/rolltables/internal/platform/errors"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
)

// ErrRecursionLimitExceeded matches, by code, the error returned when nested
// references go deeper than Limits.MaxDepth.
var ErrRecursionLimitExceeded = apperrors.New(apperrors.CodeTableRecursionLimit, "table recursion limit exceeded")

func recursionLimit(t domain.Table, depth, maxDepth int) error {
	return apperrors.WithMetadata(
		apperrors.CodeTableRecursionLimit,
		"table "+t.Ref().String()+" exceeds recursion depth "+strconv.Itoa(maxDepth)+" at depth "+strconv.Itoa(depth),
		map[string]string{
			"TableID":  t.Ref().String(),
			"Name":     t.Name,
			"Depth":    strconv.Itoa(depth),
			"MaxDepth": strconv.Itoa(maxDepth),
		},
	)
}
