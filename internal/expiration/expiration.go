// Package expiration maps a declared upload size to a default and
// maximum-allowed retention duration, via an ordered list of thresholds
// (spec §4.4).
package expiration

import (
	"errors"
	"time"
)

// ErrInvalidThresholds is returned by New when the threshold list fails
// validation.
var ErrInvalidThresholds = errors.New("expiration: invalid thresholds")

// Threshold maps one size boundary to a default retention and, optionally,
// the longest retention a caller may request for files up to that size.
type Threshold struct {
	SizeMax int64
	Default time.Duration
	// Allowed is nil when no threshold in the policy specifies one; either
	// all thresholds carry it or none do.
	Allowed *time.Duration
}

// Policy is a validated, ordered list of thresholds.
type Policy struct {
	thresholds []Threshold
}

// New validates thresholds and returns a ready-to-use Policy.
//
// Validation: the list must be non-empty; SizeMax must be non-decreasing
// across the list; Default must be non-increasing; Allowed must be present
// on either all thresholds or none, and where present must be
// non-increasing across the list and at least the Default of its own
// threshold.
func New(thresholds []Threshold) (*Policy, error) {
	if len(thresholds) == 0 {
		return nil, ErrInvalidThresholds
	}

	hasAllowed := thresholds[0].Allowed != nil
	for _, t := range thresholds {
		if (t.Allowed != nil) != hasAllowed {
			return nil, ErrInvalidThresholds
		}
		if t.Allowed != nil && *t.Allowed < t.Default {
			return nil, ErrInvalidThresholds
		}
	}

	for i := 1; i < len(thresholds); i++ {
		prev, cur := thresholds[i-1], thresholds[i]
		if prev.SizeMax > cur.SizeMax {
			return nil, ErrInvalidThresholds
		}
		if prev.Default < cur.Default {
			return nil, ErrInvalidThresholds
		}
		if hasAllowed && *prev.Allowed < *cur.Allowed {
			return nil, ErrInvalidThresholds
		}
	}

	return &Policy{thresholds: thresholds}, nil
}

// Determine returns the default and allowed durations of the smallest
// threshold whose SizeMax is at least size. ok is false when size exceeds
// every threshold (the caller should respond too_large).
func (p *Policy) Determine(size int64) (def time.Duration, allowed *time.Duration, ok bool) {
	for _, t := range p.thresholds {
		if size <= t.SizeMax {
			return t.Default, t.Allowed, true
		}
	}
	return 0, nil, false
}
