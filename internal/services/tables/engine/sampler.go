package engine

import "github.com/louisbranch/rolltables/internal/core/dice"

// Sampler produces one sample from a formula per call.
type Sampler interface {
	Sample(f dice.Formula) int
}

type randomSampler struct {
	src dice.Source
}

// NewRandomSampler returns a sampler rolling formulas against src. Each
// resolution owns its sampler; it is not safe for concurrent use.
func NewRandomSampler(src dice.Source) Sampler {
	return &randomSampler{src: src}
}

func (s *randomSampler) Sample(f dice.Formula) int {
	return f.Roll(s.src)
}

// replaySampler serves forced samples in order, then defers to fallback.
type replaySampler struct {
	forced   []int
	next     int
	fallback Sampler
}

// NewReplaySampler returns a sampler that yields forced before falling back.
// Forced values are used as given, even outside the formula bounds.
func NewReplaySampler(forced []int, fallback Sampler) Sampler {
	if len(forced) == 0 {
		return fallback
	}
	copied := make([]int, len(forced))
	copy(copied, forced)
	return &replaySampler{forced: copied, fallback: fallback}
}

func (s *replaySampler) Sample(f dice.Formula) int {
	if s.next < len(s.forced) {
		v := s.forced[s.next]
		s.next++
		return v
	}
	return s.fallback.Sample(f)
}
