package quota

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginQuotaAcceptsWithinBounds(t *testing.T) {
	q := OriginQuota{MaxSize: 1000, MaxCount: 5}
	verdict, err := q.Evaluate(context.Background(), 100, Usage{OriginSize: 800, OriginCount: 2})
	require.NoError(t, err)
	require.Equal(t, Accept, verdict)
}

func TestOriginQuotaRejectsOverSize(t *testing.T) {
	q := OriginQuota{MaxSize: 1000, MaxCount: 5}
	verdict, err := q.Evaluate(context.Background(), 300, Usage{OriginSize: 800, OriginCount: 2})
	require.NoError(t, err)
	require.Equal(t, Reject, verdict)
}

func TestOriginQuotaRejectsOverCount(t *testing.T) {
	q := OriginQuota{MaxSize: 1000, MaxCount: 2}
	verdict, err := q.Evaluate(context.Background(), 10, Usage{OriginSize: 0, OriginCount: 2})
	require.NoError(t, err)
	require.Equal(t, Reject, verdict)
}

func TestGlobalQuota(t *testing.T) {
	q := GlobalQuota{MaxSize: 1000}
	verdict, err := q.Evaluate(context.Background(), 500, Usage{GlobalSize: 600})
	require.NoError(t, err)
	require.Equal(t, Reject, verdict)

	verdict, err = q.Evaluate(context.Background(), 100, Usage{GlobalSize: 600})
	require.NoError(t, err)
	require.Equal(t, Accept, verdict)
}

func TestChainShortCircuits(t *testing.T) {
	calls := 0
	rejecting := predicateFunc(func(ctx context.Context, size int64, usage Usage) (Verdict, error) {
		calls++
		return Reject, nil
	})
	neverCalled := predicateFunc(func(ctx context.Context, size int64, usage Usage) (Verdict, error) {
		calls++
		return Accept, nil
	})

	source := func(ctx context.Context) (Usage, error) { return Usage{}, nil }
	chain := New(source, rejecting, neverCalled)

	err := chain.Evaluate(context.Background(), 10)
	require.ErrorIs(t, err, ErrRejected)
	require.Equal(t, 1, calls)
}

type predicateFunc func(ctx context.Context, size int64, usage Usage) (Verdict, error)

func (f predicateFunc) Evaluate(ctx context.Context, size int64, usage Usage) (Verdict, error) {
	return f(ctx, size, usage)
}
