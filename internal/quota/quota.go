// Package quota implements the admission predicate chain evaluated before
// a new file may be inserted (spec §4.5).
package quota

import (
	"context"
	"errors"
)

// Verdict is the outcome of evaluating one predicate.
type Verdict int

const (
	Accept Verdict = iota
	Reject
)

// ErrRejected is returned by Chain.Evaluate when a predicate rejects.
var ErrRejected = errors.New("quota: rejected")

// Usage reports the current aggregate consumption a predicate checks
// against. Origin-scoped predicates read OriginSize/OriginCount; the
// global predicate reads GlobalSize.
type Usage struct {
	OriginSize  int64
	OriginCount int64
	GlobalSize  int64
}

// UsageSource supplies the current usage snapshot, read inside the same
// transaction as the pending insert so two concurrent uploads cannot both
// observe room for the same byte budget.
type UsageSource func(ctx context.Context) (Usage, error)

// Predicate evaluates one admission rule against a pending upload of the
// given size, using usage observed via source.
type Predicate interface {
	Evaluate(ctx context.Context, size int64, usage Usage) (Verdict, error)
}

// Chain is an ordered sequence of predicates, short-circuiting on the
// first non-accept.
type Chain struct {
	predicates []Predicate
	source     UsageSource
}

// New builds a chain backed by source, evaluating predicates in order.
func New(source UsageSource, predicates ...Predicate) *Chain {
	return &Chain{predicates: predicates, source: source}
}

// Evaluate runs every predicate against size, returning ErrRejected as
// soon as one rejects.
func (c *Chain) Evaluate(ctx context.Context, size int64) error {
	usage, err := c.source(ctx)
	if err != nil {
		return err
	}
	for _, p := range c.predicates {
		verdict, err := p.Evaluate(ctx, size, usage)
		if err != nil {
			return err
		}
		if verdict == Reject {
			return ErrRejected
		}
	}
	return nil
}

// OriginQuota rejects uploads that would push one origin's total stored
// size or live file count past its configured ceilings. A zero MaxSize or
// MaxCount leaves that dimension unchecked.
type OriginQuota struct {
	MaxSize  int64
	MaxCount int64
}

func (q OriginQuota) Evaluate(_ context.Context, size int64, usage Usage) (Verdict, error) {
	if q.MaxSize > 0 && usage.OriginSize+size > q.MaxSize {
		return Reject, nil
	}
	if q.MaxCount > 0 && usage.OriginCount+1 > q.MaxCount {
		return Reject, nil
	}
	return Accept, nil
}

// GlobalQuota rejects uploads that would push total stored size across
// all origins past its configured ceiling.
type GlobalQuota struct {
	MaxSize int64
}

func (q GlobalQuota) Evaluate(_ context.Context, size int64, usage Usage) (Verdict, error) {
	if usage.GlobalSize+size > q.MaxSize {
		return Reject, nil
	}
	return Accept, nil
}
