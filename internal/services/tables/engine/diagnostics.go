package engine

import (
	"context"

	"github.com/louisbranch/rolltables/internal/platform/errors/i18n"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARN"
	SeverityError   Severity = "ERROR"
)

// Condition names a non-fatal resolution outcome.
type Condition string

const (
	ConditionNoEligibleEntries      Condition = i18n.ConditionNoEligibleEntries
	ConditionNoUsableFormula        Condition = i18n.ConditionNoUsableFormula
	ConditionDistributionOutOfRange Condition = i18n.ConditionDistributionOutOfRange
	ConditionSamplingExhausted      Condition = i18n.ConditionSamplingExhausted
	ConditionUnresolvedReference    Condition = i18n.ConditionUnresolvedReference
)

// Diagnostic reports a condition that emptied or trimmed part of an outcome.
type Diagnostic struct {
	Severity  Severity          `json:"severity"`
	Condition Condition         `json:"condition"`
	Table     domain.Reference  `json:"table"`
	Depth     int               `json:"depth"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives diagnostics as they happen. Implementations must not block
// for long; resolution waits for Report to return.
type Sink interface {
	Report(ctx context.Context, d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, d Diagnostic)

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, d Diagnostic) {
	f(ctx, d)
}

type nopSink struct{}

func (nopSink) Report(context.Context, Diagnostic) {}
