package engine

import (
	"github.com/louisbranch/rolltables/internal/core/check"
	"github.com/louisbranch/rolltables/internal/core/dice"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
)

// SelectRange returns the eligible entries whose range holds v, in table
// order. Overlapping ranges all hit.
func SelectRange(entries []domain.Entry, v int) []domain.Entry {
	var hits []domain.Entry
	for _, e := range entries {
		if e.Eligible() && e.Range.Contains(v) {
			hits = append(hits, e)
		}
	}
	return hits
}

// SelectWeighted pairs samples with the eligible entries in order and hits
// every entry whose sample is within its weight. Extra samples are dropped
// and entries past the last sample are not evaluated.
func SelectWeighted(entries []domain.Entry, samples []int) []domain.Entry {
	var hits []domain.Entry
	i := 0
	for _, e := range entries {
		if !e.Eligible() {
			continue
		}
		if i >= len(samples) {
			break
		}
		if check.WithinThreshold(samples[i], e.Weight) {
			hits = append(hits, e)
		}
		i++
	}
	return hits
}

// HitsForSamples replays the sample window of one level (see Level)
// against t as it stood before the draw, without resolving references.
// Range tables replay the last sample; rejected attempts precede it.
func HitsForSamples(t domain.Table, samples []int) []domain.Entry {
	switch domain.SelectorFor(t) {
	case domain.SelectionModeWeight:
		return SelectWeighted(t.Entries, samples)
	default:
		if len(samples) == 0 {
			return nil
		}
		return SelectRange(t.Entries, samples[len(samples)-1])
	}
}

// Reachable reports whether any total of f can land in the span covered by
// the eligible entries.
func Reachable(entries []domain.Entry, f dice.Formula) bool {
	low, high, ok := span(entries)
	if !ok {
		return false
	}
	return check.Overlaps(low, high, f.Min(), f.Max())
}

func span(entries []domain.Entry) (low, high int, ok bool) {
	for _, e := range entries {
		if !e.Eligible() {
			continue
		}
		if !ok || e.Range.Low < low {
			low = e.Range.Low
		}
		if !ok || e.Range.High > high {
			high = e.Range.High
		}
		ok = true
	}
	return low, high, ok
}
