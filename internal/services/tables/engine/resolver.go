// Package engine resolves roll tables into terminal entries, following
// references into nested tables up to a bounded depth.
package engine

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/rolltables/internal/core/dice"
	"github.com/louisbranch/rolltables/internal/platform/errors/i18n"
	"github.com/louisbranch/rolltables/internal/random"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
)

const tracerName = "github.com/louisbranch/rolltables/internal/services/tables/engine"

// ReferenceResolver locates the table a reference points at. A missing
// table is (zero, false, nil), not an error.
type ReferenceResolver interface {
	ResolveReference(ctx context.Context, ref domain.Reference) (domain.Table, bool, error)
}

// Options tune one resolution.
type Options struct {
	// Depth is the starting recursion depth.
	Depth int
	// Shallow returns hits as drawn, leaving references unexpanded.
	Shallow bool
	// Samples are served before any random sample, in order.
	Samples []int
	// Seed fixes the random source. Nil draws a fresh seed.
	Seed *int64
	// Locale renders diagnostic messages. Empty means en-US.
	Locale string
}

// Resolver draws from tables. It holds no per-call state and is safe for
// concurrent use.
type Resolver struct {
	lookup  ReferenceResolver
	sink    Sink
	limits  Limits
	newSeed func() (int64, error)
	source  func(seed int64) dice.Source
	tracer  trace.Tracer
}

// NewResolver builds a resolver. A nil sink discards diagnostics.
func NewResolver(lookup ReferenceResolver, sink Sink, limits Limits) *Resolver {
	if sink == nil {
		sink = nopSink{}
	}
	return &Resolver{
		lookup:  lookup,
		sink:    sink,
		limits:  limits.normalized(),
		newSeed: random.NewSeed,
		source:  dice.NewSource,
		tracer:  otel.Tracer(tracerName),
	}
}

// Limits returns the bounds the resolver enforces.
func (r *Resolver) Limits() Limits {
	return r.limits
}

// Resolve draws from t. The only error besides context cancellation is
// ErrRecursionLimitExceeded; every other condition yields a possibly empty
// outcome with diagnostics. Cancellation is checked between samples.
func (r *Resolver) Resolve(ctx context.Context, t domain.Table, opts Options) (Outcome, error) {
	seed, seedSource, err := random.ResolveSeed(opts.Seed, r.newSeed)
	if err != nil {
		return Outcome{}, err
	}

	res := &resolution{
		resolver: r,
		sampler:  NewReplaySampler(opts.Samples, NewRandomSampler(r.source(seed))),
		shallow:  opts.Shallow,
		catalog:  i18n.GetCatalog(opts.Locale),
		outcome: Outcome{
			Samples:    []int{},
			Levels:     []Level{},
			Results:    []Result{},
			Seed:       seed,
			SeedSource: seedSource,
		},
	}
	if err := res.resolve(ctx, t, opts.Depth); err != nil {
		return Outcome{}, err
	}
	return res.outcome, nil
}

// resolution carries the state of one Resolve call.
type resolution struct {
	resolver *Resolver
	sampler  Sampler
	shallow  bool
	catalog  *i18n.Catalog
	outcome  Outcome
}

func (res *resolution) resolve(ctx context.Context, t domain.Table, depth int) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	limits := res.resolver.limits
	if depth > limits.MaxDepth {
		return recursionLimit(t, depth, limits.MaxDepth)
	}

	ctx, span := res.resolver.tracer.Start(ctx, "tables.resolve", trace.WithAttributes(
		attribute.String("table.id", t.Ref().String()),
		attribute.String("table.kind", string(t.Kind)),
		attribute.Int("table.depth", depth),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	hits, err := res.draw(ctx, t, depth)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("table.hits", len(hits)))

	if t.Kind == domain.KindStandard && len(hits) > 0 {
		ids := make([]string, 0, len(hits))
		for _, h := range hits {
			ids = append(ids, h.ID)
		}
		res.outcome.Consumed = append(res.outcome.Consumed, Consumption{Table: t.Ref(), EntryIDs: ids})
	}

	for _, hit := range hits {
		if res.shallow || !hit.IsReference() {
			res.outcome.Results = append(res.outcome.Results, Result{Source: t.Ref(), Depth: depth, Entry: hit})
			continue
		}
		if err := res.expand(ctx, t, hit, depth); err != nil {
			return err
		}
	}
	return nil
}

func (res *resolution) expand(ctx context.Context, parent domain.Table, hit domain.Entry, depth int) error {
	ref := *hit.Reference
	if res.resolver.lookup == nil {
		res.unresolved(ctx, parent, ref, depth, nil)
		return nil
	}

	nested, found, err := res.resolver.lookup.ResolveReference(ctx, ref)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		res.unresolved(ctx, parent, ref, depth, err)
		return nil
	}
	if !found {
		res.unresolved(ctx, parent, ref, depth, nil)
		return nil
	}
	return res.resolve(ctx, nested, depth+1)
}

// draw returns the hits of a single table level without expanding them.
// The only error is context cancellation.
func (res *resolution) draw(ctx context.Context, t domain.Table, depth int) ([]domain.Entry, error) {
	formula, err := t.DiceFormula()
	if err != nil {
		res.report(ctx, t, depth, SeverityWarning, ConditionNoUsableFormula, map[string]string{"Formula": t.Formula})
		return nil, nil
	}

	eligible := t.Eligible()
	if len(eligible) == 0 {
		res.report(ctx, t, depth, SeverityWarning, ConditionNoEligibleEntries, nil)
		return nil, nil
	}

	mode := domain.SelectorFor(t)
	if mode == domain.SelectionModeWeight {
		samples := make([]int, 0, len(eligible))
		for range eligible {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			samples = append(samples, res.sampler.Sample(formula))
		}
		res.sampled(t, depth, mode, samples)
		return SelectWeighted(eligible, samples), nil
	}

	if !Reachable(eligible, formula) {
		res.report(ctx, t, depth, SeverityWarning, ConditionDistributionOutOfRange, map[string]string{"Formula": formula.String()})
		return nil, nil
	}

	attempts := res.resolver.limits.MaxSamplingAttempts
	var samples []int
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := res.sampler.Sample(formula)
		samples = append(samples, v)
		if hits := SelectRange(eligible, v); len(hits) > 0 {
			res.sampled(t, depth, mode, samples)
			return hits, nil
		}
	}
	res.sampled(t, depth, mode, samples)
	res.report(ctx, t, depth, SeverityError, ConditionSamplingExhausted, map[string]string{
		"Formula":  formula.String(),
		"Attempts": res.catalog.Number(attempts),
	})
	return nil, nil
}

// sampled records the samples one table level consumed.
func (res *resolution) sampled(t domain.Table, depth int, mode domain.SelectionMode, samples []int) {
	res.outcome.Samples = append(res.outcome.Samples, samples...)
	res.outcome.Levels = append(res.outcome.Levels, Level{
		Table:   t.Ref(),
		Depth:   depth,
		Mode:    mode,
		Samples: samples,
	})
}

func (res *resolution) unresolved(ctx context.Context, parent domain.Table, ref domain.Reference, depth int, cause error) {
	metadata := map[string]string{"Reference": ref.String()}
	if cause == nil {
		res.record(parent, depth, SeverityInfo, ConditionUnresolvedReference, metadata)
		return
	}
	metadata["Error"] = cause.Error()
	res.report(ctx, parent, depth, SeverityWarning, ConditionUnresolvedReference, metadata)
}

// report records a diagnostic on the outcome and forwards it to the sink.
func (res *resolution) report(ctx context.Context, t domain.Table, depth int, severity Severity, condition Condition, metadata map[string]string) {
	d := res.record(t, depth, severity, condition, metadata)
	trace.SpanFromContext(ctx).AddEvent(string(condition), trace.WithAttributes(
		attribute.String("severity", string(severity)),
	))
	res.resolver.sink.Report(ctx, d)
}

func (res *resolution) record(t domain.Table, depth int, severity Severity, condition Condition, metadata map[string]string) Diagnostic {
	vars := map[string]string{"Table": tableLabel(t), "Depth": strconv.Itoa(depth)}
	for k, v := range metadata {
		vars[k] = v
	}
	d := Diagnostic{
		Severity:  severity,
		Condition: condition,
		Table:     t.Ref(),
		Depth:     depth,
		Message:   res.catalog.Format(string(condition), vars),
		Metadata:  vars,
	}
	res.outcome.Diagnostics = append(res.outcome.Diagnostics, d)
	return d
}

func tableLabel(t domain.Table) string {
	if t.Name != "" {
		return t.Name
	}
	return t.Ref().String()
}
