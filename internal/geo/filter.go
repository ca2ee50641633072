package geo

import "time"

// Filter decides whether a raw location fix is trustworthy enough to extend
// the path. It is a pure decision function; admission bookkeeping belongs to
// the caller.
type Filter struct {
	maxAccuracyM   float64
	staleAccuracyM float64
	staleGap       time.Duration
}

// NewFilter creates a filter with an absolute accuracy ceiling, a tighter
// ceiling applied after a sampling gap, and the gap length that triggers it.
func NewFilter(maxAccuracyM, staleAccuracyM float64, staleGap time.Duration) *Filter {
	return &Filter{
		maxAccuracyM:   maxAccuracyM,
		staleAccuracyM: staleAccuracyM,
		staleGap:       staleGap,
	}
}

// Accept reports whether a fix with the given horizontal accuracy should be
// admitted. gap is the time elapsed since the previous accepted fix; callers
// pass zero for the first fix of a session.
//
// A fix whose own confidence radius exceeds the absolute ceiling is never
// trusted. After a sampling gap (e.g. the device was backgrounded) the first
// fix reacquired is disproportionately likely to be a cold-start outlier, so
// re-admission requires the tighter ceiling.
func (f *Filter) Accept(accuracyM float64, gap time.Duration) bool {
	if accuracyM > f.maxAccuracyM {
		return false
	}
	if gap > f.staleGap && accuracyM > f.staleAccuracyM {
		return false
	}
	return true
}
