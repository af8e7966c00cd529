package engine

// Default bounds for a resolution.
const (
	DefaultMaxDepth            = 5
	DefaultMaxSamplingAttempts = 10000
)

// Limits bounds recursion and resampling. The zero Limits means the
// defaults. A MaxDepth of 0 forbids following references; a negative one
// falls back to the default. MaxSamplingAttempts below 1 falls back too.
type Limits struct {
	MaxDepth            int `env:"ROLLTABLES_MAX_DEPTH"             envDefault:"5"`
	MaxSamplingAttempts int `env:"ROLLTABLES_MAX_SAMPLING_ATTEMPTS" envDefault:"10000"`
}

// DefaultLimits returns the standard resolution bounds.
func DefaultLimits() Limits {
	return Limits{MaxDepth: DefaultMaxDepth, MaxSamplingAttempts: DefaultMaxSamplingAttempts}
}

func (l Limits) normalized() Limits {
	if l == (Limits{}) {
		return DefaultLimits()
	}
	if l.MaxDepth < 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxSamplingAttempts <= 0 {
		l.MaxSamplingAttempts = DefaultMaxSamplingAttempts
	}
	return l
}
