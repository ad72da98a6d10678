// Package engine holds the rule-based scoring and recommendation engines.
// Every engine is a pure computation over the records it receives: no
// storage, no I/O, no state shared between calls. Callers (the service,
// server and CLI layers) load records, invoke an engine, and decide what to
// do with the result.
package engine

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ErrNoQualifiedEmployee is returned by Distribute when no candidate clears
// the readiness gate.
var ErrNoQualifiedEmployee = errors.New("لا يوجد موظفين مؤهلين لهذه المهمة حالياً")

// ErrTemplateNotFound is returned when instantiating steps from an unknown
// workflow template id.
var ErrTemplateNotFound = errors.New("template not found")

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64) float64 {
	return math.Round(v)
}

// roundTo rounds to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func defaultNow(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
